package lockfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/checksum"
	"github.com/bundlekit/cli/internal/version"
)

// Subscriber receives the lockfile content after every successful mutation.
// A nil value means the lockfile no longer exists (last entry removed),
// which is distinct from an empty document.
type Subscriber func(*Lockfile)

// Store reads and mutates the lockfile of one repository root.
//
// Mutating calls for the same root must not run concurrently; reads are safe
// to run in parallel with each other. Obtain instances through a Registry so
// callers for the same root share one Store.
type Store struct {
	root string
	path string

	mu   sync.Mutex
	subs []Subscriber
}

// NewStore creates a store for a repository root. The root is expected to be
// an absolute, cleaned path (the Registry guarantees this).
func NewStore(root string) *Store {
	return &Store{
		root: root,
		path: filepath.Join(root, Name),
	}
}

// Root returns the repository root this store is bound to.
func (s *Store) Root() string {
	return s.root
}

// Path returns the lockfile's absolute path.
func (s *Store) Path() string {
	return s.path
}

// Subscribe registers a callback invoked after every successful mutation.
func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) notify(l *Lockfile) {
	s.mu.Lock()
	subs := make([]Subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(l)
	}
}

// Read loads the lockfile. A missing file is not an error: it returns
// (nil, nil). A present but unparseable file returns ErrCorrupt; it is never
// treated as absent.
func (s *Store) Read() (*Lockfile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading lockfile %s: %w", s.path, err)
	}

	var l Lockfile
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parsing lockfile %s: %v: %w", s.path, err, ErrCorrupt)
	}

	return &l, nil
}

// CreateOrUpdate inserts or replaces the entry for a bundle, records its
// source descriptor when not already present, and writes the file atomically.
// Subscribers are notified with the new content.
func (s *Store) CreateOrUpdate(bundleID string, entry BundleEntry, source Source) error {
	l, err := s.Read()
	if err != nil {
		return err
	}

	if l == nil {
		l = &Lockfile{
			Version: FormatVersion,
			Bundles: make(map[string]BundleEntry),
			Sources: make(map[string]Source),
		}
	}
	if l.Bundles == nil {
		l.Bundles = make(map[string]BundleEntry)
	}
	if l.Sources == nil {
		l.Sources = make(map[string]Source)
	}

	if entry.InstalledAt.IsZero() {
		entry.InstalledAt = time.Now().UTC()
	}
	l.Bundles[bundleID] = entry
	if entry.SourceID != "" {
		if _, ok := l.Sources[entry.SourceID]; !ok {
			l.Sources[entry.SourceID] = source
		}
	}

	if err := s.write(l); err != nil {
		return err
	}

	s.notify(l)
	return nil
}

// UpdateCommitMode rewrites only the commit mode of an existing entry.
func (s *Store) UpdateCommitMode(bundleID string, mode bundle.CommitMode) error {
	l, err := s.Read()
	if err != nil {
		return err
	}
	if l == nil {
		return fmt.Errorf("no lockfile at %s: %w", s.path, ErrNotFound)
	}

	entry, err := l.Entry(bundleID)
	if err != nil {
		return err
	}

	entry.CommitMode = mode
	l.Bundles[bundleID] = entry

	if err := s.write(l); err != nil {
		return err
	}

	s.notify(l)
	return nil
}

// Remove deletes a bundle's entry. When the last entry goes, the lockfile
// file itself is deleted and subscribers are notified with nil so they can
// distinguish "absent" from "empty".
func (s *Store) Remove(bundleID string) error {
	l, err := s.Read()
	if err != nil {
		return err
	}
	if l == nil {
		return fmt.Errorf("no lockfile at %s: %w", s.path, ErrNotFound)
	}

	if _, ok := l.Bundles[bundleID]; !ok {
		return fmt.Errorf("bundle %q not in lockfile: %w", bundleID, ErrNotFound)
	}
	delete(l.Bundles, bundleID)

	if len(l.Bundles) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing lockfile %s: %w", s.path, err)
		}
		s.notify(nil)
		return nil
	}

	if err := s.write(l); err != nil {
		return err
	}

	s.notify(l)
	return nil
}

// InstalledBundles lists every entry, enriched with whether any of its
// tracked files has vanished from disk. Results are ordered by bundle id.
func (s *Store) InstalledBundles() ([]InstalledBundle, error) {
	l, err := s.Read()
	if err != nil {
		return nil, err
	}
	if l == nil {
		return []InstalledBundle{}, nil
	}

	out := make([]InstalledBundle, 0, len(l.Bundles))
	for id, entry := range l.Bundles {
		missing := false
		for _, f := range entry.Files {
			if _, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(f.Path))); err != nil {
				missing = true
				break
			}
		}
		out = append(out, InstalledBundle{
			ID:           id,
			Entry:        entry,
			FilesMissing: missing,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DetectModifiedFiles recomputes digests for a bundle's tracked files and
// reports every file whose content changed since install. Files that no
// longer exist are reported with Missing set instead of a checksum mismatch.
func (s *Store) DetectModifiedFiles(bundleID string) ([]ModifiedFile, error) {
	l, err := s.Read()
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("no lockfile at %s: %w", s.path, ErrNotFound)
	}

	entry, err := l.Entry(bundleID)
	if err != nil {
		return nil, err
	}

	var modified []ModifiedFile
	for _, f := range entry.Files {
		abs := filepath.Join(s.root, filepath.FromSlash(f.Path))
		if _, err := os.Stat(abs); err != nil {
			modified = append(modified, ModifiedFile{
				Path:             f.Path,
				ExpectedChecksum: f.Checksum,
				Missing:          true,
			})
			continue
		}

		actual, err := checksum.File(abs)
		if err != nil {
			return nil, err
		}
		if !checksum.Equal(actual, f.Checksum) {
			modified = append(modified, ModifiedFile{
				Path:             f.Path,
				ExpectedChecksum: f.Checksum,
				ActualChecksum:   actual,
			})
		}
	}

	return modified, nil
}

// write serializes and atomically replaces the lockfile. Provenance fields
// are refreshed on every write.
func (s *Store) write(l *Lockfile) error {
	if l.Version == 0 {
		l.Version = FormatVersion
	}
	l.GeneratedAt = time.Now().UTC()
	l.GeneratedBy = "bkit " + version.Version

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing lockfile: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating lockfile directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".bkit.lock-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp lockfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp lockfile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp lockfile: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting lockfile mode: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing lockfile %s: %w", s.path, err)
	}

	return nil
}
