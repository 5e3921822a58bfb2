package scope

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/lockfile"
	"github.com/bundlekit/cli/internal/output"
)

// SyncResult summarizes an install-missing batch. Each bundle lands in
// exactly one list; one bundle's failure never aborts the rest.
type SyncResult struct {
	Installed []string
	Skipped   []string
	Failed    map[string]error

	// Cancelled is true when the context was cancelled between bundles;
	// Installed/Skipped/Failed cover only the bundles processed before that.
	Cancelled bool
}

// Err returns the accumulated failures as a single error, or nil.
func (r *SyncResult) Err() error {
	var merr *multierror.Error
	for _, err := range r.Failed {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}

// SyncMissing reinstalls every lockfile entry whose tracked files have
// vanished, fetching content through the retriever. Bundles whose content
// cannot be found are skipped, not failed. Cancellation is checked between
// bundles, never mid-install, so no bundle is ever left half-copied.
func (r *Resolver) SyncMissing(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{
		Failed: make(map[string]error),
	}

	installed, err := r.store.InstalledBundles()
	if err != nil {
		return nil, err
	}

	for _, b := range installed {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		if !b.FilesMissing {
			continue
		}

		if err := r.reinstall(b.ID, b.Entry); err != nil {
			if errors.Is(err, lockfile.ErrNotFound) {
				output.Debug("bundle content unavailable, skipping", "bundle", b.ID)
				result.Skipped = append(result.Skipped, b.ID)
				continue
			}
			result.Failed[b.ID] = err
			continue
		}
		result.Installed = append(result.Installed, b.ID)
	}

	return result, nil
}

// reinstall re-copies one lockfile entry's content into the repository and
// refreshes its entry, keeping the recorded source and commit mode.
func (r *Resolver) reinstall(bundleID string, entry lockfile.BundleEntry) error {
	dir, ok := r.bundleDir(bundleID, entry.Version)
	if !ok {
		return fmt.Errorf("content for %s@%s: %w", bundleID, entry.Version, lockfile.ErrNotFound)
	}

	m, err := bundle.Load(dir)
	if err != nil {
		return fmt.Errorf("loading manifest for %s: %w", bundleID, err)
	}

	result, err := r.installer.Install(dir, m, entry.CommitMode)
	if err != nil {
		return err
	}

	refreshed := entry
	refreshed.Version = m.Version
	refreshed.Files = result.Files

	return r.store.CreateOrUpdate(bundleID, refreshed, lockfile.Source{Type: entry.SourceType})
}
