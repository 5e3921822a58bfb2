package scope

import (
	"fmt"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/installer"
	"github.com/bundlekit/cli/internal/lockfile"
	"github.com/bundlekit/cli/internal/userstore"
)

// MoveToUser migrates a bundle from repository scope to user scope at the
// same version. The repository half is removed first; if the user-scope half
// then fails, the error wraps ErrPartialMigration and nothing is retried.
func (r *Resolver) MoveToUser(bundleID string) error {
	l, err := r.store.Read()
	if err != nil {
		return err
	}
	if l == nil {
		return fmt.Errorf("no lockfile in %s: %w", r.store.Root(), lockfile.ErrNotFound)
	}
	entry, err := l.Entry(bundleID)
	if err != nil {
		return err
	}

	// Content is needed for the install half; resolve it before touching
	// anything so a missing bundle aborts cleanly.
	dir, ok := r.bundleDir(bundleID, entry.Version)
	if !ok {
		return fmt.Errorf("content for %s@%s is unavailable, cannot migrate: %w", bundleID, entry.Version, lockfile.ErrNotFound)
	}
	m, err := bundle.Load(dir)
	if err != nil {
		return fmt.Errorf("loading manifest for %s: %w", bundleID, err)
	}

	// Removal half.
	if err := r.store.Remove(bundleID); err != nil {
		return err
	}
	if err := r.installer.Uninstall(m, entry); err != nil {
		return fmt.Errorf("%w: repository entry for %s removed but files remain: %v", ErrPartialMigration, bundleID, err)
	}

	// Install half.
	location, err := userstore.CopyBundle(r.storeDir, bundle.ScopeUser, bundleID, dir)
	if err != nil {
		return fmt.Errorf("%w: %s removed from repository but user install failed: %v", ErrPartialMigration, bundleID, err)
	}
	err = r.index.Record(userstore.Entry{
		BundleID: bundleID,
		Scope:    bundle.ScopeUser,
		Version:  entry.Version,
		SourceID: entry.SourceID,
		Location: location,
	})
	if err != nil {
		return fmt.Errorf("%w: %s removed from repository but index write failed: %v", ErrPartialMigration, bundleID, err)
	}

	return nil
}

// MoveToRepository migrates a bundle from user or workspace scope into the
// repository with the given commit mode. The index half is removed first;
// the store copy is kept until the repository install succeeds, since it is
// the content source.
func (r *Resolver) MoveToRepository(bundleID string, mode bundle.CommitMode) error {
	entry, found, err := r.index.Find(bundleID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("bundle %q not installed at user or workspace scope: %w", bundleID, lockfile.ErrNotFound)
	}

	dir := entry.Location
	if dir == "" {
		var ok bool
		dir, ok = r.bundleDir(bundleID, entry.Version)
		if !ok {
			return fmt.Errorf("content for %s@%s is unavailable, cannot migrate: %w", bundleID, entry.Version, lockfile.ErrNotFound)
		}
	}
	m, err := bundle.Load(dir)
	if err != nil {
		return fmt.Errorf("loading manifest for %s: %w", bundleID, err)
	}

	// Removal half (index record only; content stays as install source).
	if err := r.index.Remove(bundleID, entry.Scope); err != nil {
		return err
	}

	// Install half.
	err = r.InstallRepository(dir, m, InstallParams{
		SourceID:   entry.SourceID,
		SourceType: "store",
		CommitMode: mode,
	})
	if err != nil {
		return fmt.Errorf("%w: %s removed from %s scope but repository install failed: %v", ErrPartialMigration, bundleID, entry.Scope, err)
	}

	// The install succeeded; the store copy is no longer the live location.
	return userstore.RemoveBundle(r.storeDir, entry.Scope, bundleID)
}

// SwitchCommitMode changes the version-control posture of a repository
// install without moving any files. Installed paths are re-derived through
// the canonical target resolver (manifest when available, lockfile records
// otherwise), the exclude file is reconciled, and only then is the lockfile
// entry's mode updated. Requesting the current mode is a no-op.
func (r *Resolver) SwitchCommitMode(bundleID string, newMode bundle.CommitMode) error {
	l, err := r.store.Read()
	if err != nil {
		return err
	}
	if l == nil {
		return fmt.Errorf("no lockfile in %s: %w", r.store.Root(), lockfile.ErrNotFound)
	}
	entry, err := l.Entry(bundleID)
	if err != nil {
		return err
	}

	if entry.CommitMode == newMode {
		return nil
	}

	var excludes []string
	if m := r.manifestFor(bundleID, entry.Version); m != nil {
		excludes = installer.ExcludeEntries(m)
	} else {
		excludes = installer.ExcludeEntriesFromRecords(entry)
	}

	r.installer.ApplyCommitMode(excludes, newMode)

	return r.store.UpdateCommitMode(bundleID, newMode)
}
