// Package lockfile owns the repository lockfile: the authoritative record of
// repository-scope bundle installations.
//
// The lockfile is a single JSON document at a fixed path under the repository
// root. It exists exactly when at least one bundle is installed at repository
// scope; removing the last entry deletes the file. All writes are atomic
// (write to a temp file in the same directory, then rename).
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bundlekit/cli/internal/bundle"
)

// Name is the lockfile's well-known file name under the repository root.
const Name = "bkit.lock.json"

// FormatVersion is written to new lockfiles as provenance.
const FormatVersion = 1

// ErrCorrupt indicates a lockfile that exists but cannot be parsed. It is
// never downgraded to "absent": treating a corrupt lockfile as missing would
// invite destructive recreation.
var ErrCorrupt = errors.New("lockfile corrupt")

// ErrNotFound indicates a missing lockfile or bundle entry.
var ErrNotFound = errors.New("not found")

// FileRecord tracks one installed file: its repository-root-relative path
// and the content digest recorded at install time.
type FileRecord struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
}

// BundleEntry records a single repository-scope bundle installation.
type BundleEntry struct {
	Version     string            `json:"version"`
	SourceID    string            `json:"sourceId"`
	SourceType  string            `json:"sourceType"`
	InstalledAt time.Time         `json:"installedAt"`
	CommitMode  bundle.CommitMode `json:"commitMode"`
	Files       []FileRecord      `json:"files"`
}

// Source describes where a bundle came from, enough to re-resolve its origin.
type Source struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// Lockfile is the root document. Unknown top-level keys (profiles, hubs, and
// anything a newer writer adds) survive read-modify-write via Extra.
type Lockfile struct {
	Version     int                    `json:"version"`
	GeneratedAt time.Time              `json:"generatedAt"`
	GeneratedBy string                 `json:"generatedBy"`
	Bundles     map[string]BundleEntry `json:"bundles"`
	Sources     map[string]Source      `json:"sources"`

	// Extra holds top-level keys this version does not model.
	Extra map[string]json.RawMessage `json:"-"`
}

// knownKeys are the top-level keys owned by this version of the document.
var knownKeys = map[string]bool{
	"version":     true,
	"generatedAt": true,
	"generatedBy": true,
	"bundles":     true,
	"sources":     true,
}

// UnmarshalJSON decodes known fields and stashes every other top-level key
// in Extra so it round-trips unchanged.
func (l *Lockfile) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	type known struct {
		Version     int                    `json:"version"`
		GeneratedAt time.Time              `json:"generatedAt"`
		GeneratedBy string                 `json:"generatedBy"`
		Bundles     map[string]BundleEntry `json:"bundles"`
		Sources     map[string]Source      `json:"sources"`
	}
	var k known
	if err := json.Unmarshal(data, &k); err != nil {
		return err
	}

	l.Version = k.Version
	l.GeneratedAt = k.GeneratedAt
	l.GeneratedBy = k.GeneratedBy
	l.Bundles = k.Bundles
	l.Sources = k.Sources

	l.Extra = nil
	for key, val := range raw {
		if !knownKeys[key] {
			if l.Extra == nil {
				l.Extra = make(map[string]json.RawMessage)
			}
			l.Extra[key] = val
		}
	}

	return nil
}

// MarshalJSON writes known fields plus preserved unknown keys. Keys are
// emitted in json.Marshal's sorted-map order, so output is deterministic.
func (l Lockfile) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 5+len(l.Extra))
	out["version"] = l.Version
	out["generatedAt"] = l.GeneratedAt
	out["generatedBy"] = l.GeneratedBy
	out["bundles"] = l.Bundles
	out["sources"] = l.Sources
	for key, val := range l.Extra {
		out[key] = val
	}
	return json.Marshal(out)
}

// Entry returns the entry for a bundle id, or ErrNotFound.
func (l *Lockfile) Entry(bundleID string) (BundleEntry, error) {
	entry, ok := l.Bundles[bundleID]
	if !ok {
		return BundleEntry{}, fmt.Errorf("bundle %q not in lockfile: %w", bundleID, ErrNotFound)
	}
	return entry, nil
}

// InstalledBundle is a lockfile entry enriched with file-presence state.
type InstalledBundle struct {
	ID    string      `json:"id"`
	Entry BundleEntry `json:"entry"`

	// FilesMissing is true when at least one tracked file no longer exists
	// on disk. Entries tracking zero files are never marked missing.
	FilesMissing bool `json:"filesMissing"`
}

// ModifiedFile reports drift for one tracked file.
type ModifiedFile struct {
	Path             string `json:"path"`
	ExpectedChecksum string `json:"expectedChecksum"`
	ActualChecksum   string `json:"actualChecksum,omitempty"`

	// Missing is true when the tracked file no longer exists; such files are
	// reported as missing, never as modified.
	Missing bool `json:"missing,omitempty"`
}
