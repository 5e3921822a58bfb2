// Package userstore maintains the per-user installation index covering the
// user and workspace scopes.
//
// Repository-scope installations are deliberately outside this index: the
// lockfile is their only record, and asking this index about repository
// scope is a programming error.
package userstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/lockfile"
)

// IndexName is the index file name inside the bkit home directory.
const IndexName = "installations.json"

// Entry records one user- or workspace-scope installation.
type Entry struct {
	BundleID    string       `json:"bundleId"`
	Scope       bundle.Scope `json:"scope"`
	Version     string       `json:"version"`
	SourceID    string       `json:"sourceId,omitempty"`
	InstalledAt time.Time    `json:"installedAt"`

	// Location is the directory the bundle's content was copied to.
	Location string `json:"location,omitempty"`
}

type indexFile struct {
	Version       int     `json:"version"`
	Installations []Entry `json:"installations"`
}

// Index is the file-backed installation index.
type Index struct {
	path string
	mu   sync.Mutex
}

// NewIndex creates an index over the given file path.
func NewIndex(path string) *Index {
	return &Index{path: path}
}

// Installed lists installations at one scope.
func (ix *Index) Installed(scope bundle.Scope) ([]Entry, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}

	f, err := ix.read()
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, e := range f.Installations {
		if e.Scope == scope {
			out = append(out, e)
		}
	}
	return out, nil
}

// Find looks a bundle up across both scopes. Returns false when the bundle
// is not in the index.
func (ix *Index) Find(bundleID string) (Entry, bool, error) {
	f, err := ix.read()
	if err != nil {
		return Entry{}, false, err
	}

	for _, e := range f.Installations {
		if e.BundleID == bundleID {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

// Record inserts or replaces the entry for (bundle, scope).
func (ix *Index) Record(entry Entry) error {
	if err := checkScope(entry.Scope); err != nil {
		return err
	}
	if entry.InstalledAt.IsZero() {
		entry.InstalledAt = time.Now().UTC()
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	f, err := ix.read()
	if err != nil {
		return err
	}

	replaced := false
	for i, e := range f.Installations {
		if e.BundleID == entry.BundleID && e.Scope == entry.Scope {
			f.Installations[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		f.Installations = append(f.Installations, entry)
	}

	return ix.write(f)
}

// Remove deletes the entry for (bundle, scope). A missing entry is
// lockfile.ErrNotFound.
func (ix *Index) Remove(bundleID string, scope bundle.Scope) error {
	if err := checkScope(scope); err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	f, err := ix.read()
	if err != nil {
		return err
	}

	kept := f.Installations[:0]
	found := false
	for _, e := range f.Installations {
		if e.BundleID == bundleID && e.Scope == scope {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return fmt.Errorf("bundle %q not installed at %s scope: %w", bundleID, scope, lockfile.ErrNotFound)
	}
	f.Installations = kept

	return ix.write(f)
}

func checkScope(scope bundle.Scope) error {
	switch scope {
	case bundle.ScopeUser, bundle.ScopeWorkspace:
		return nil
	case bundle.ScopeRepository:
		return fmt.Errorf("repository scope is tracked by the lockfile, not the user index")
	default:
		return fmt.Errorf("unknown scope %q", scope)
	}
}

func (ix *Index) read() (*indexFile, error) {
	data, err := os.ReadFile(ix.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &indexFile{Version: 1}, nil
		}
		return nil, fmt.Errorf("reading installation index %s: %w", ix.path, err)
	}

	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing installation index %s: %w", ix.path, err)
	}
	return &f, nil
}

func (ix *Index) write(f *indexFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing installation index: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(ix.path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(ix.path), ".installations-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, ix.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
