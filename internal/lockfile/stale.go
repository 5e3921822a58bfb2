package lockfile

import (
	"github.com/hashicorp/go-multierror"

	"github.com/bundlekit/cli/internal/output"
)

// Cleaner finds and removes lockfile entries whose tracked files have
// vanished from disk. Removal is always an explicit, caller-confirmed
// operation; nothing here runs automatically.
type Cleaner struct {
	store *Store
}

// NewCleaner creates a cleaner over a store.
func NewCleaner(store *Store) *Cleaner {
	return &Cleaner{store: store}
}

// FindStale returns the entries with at least one missing tracked file.
func (c *Cleaner) FindStale() ([]InstalledBundle, error) {
	installed, err := c.store.InstalledBundles()
	if err != nil {
		return nil, err
	}

	var stale []InstalledBundle
	for _, b := range installed {
		if b.FilesMissing {
			stale = append(stale, b)
		}
	}
	return stale, nil
}

// RemoveResult summarizes a batch removal: which entries were removed and
// which failed. One entry's failure never aborts the rest of the batch.
type RemoveResult struct {
	Removed []string
	Failed  map[string]error
}

// Err returns the accumulated failures as a single error, or nil.
func (r *RemoveResult) Err() error {
	var merr *multierror.Error
	for _, err := range r.Failed {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}

// RemoveStale removes the given entries one by one, collecting per-entry
// outcomes.
func (c *Cleaner) RemoveStale(bundleIDs []string) *RemoveResult {
	result := &RemoveResult{
		Failed: make(map[string]error),
	}

	for _, id := range bundleIDs {
		if err := c.store.Remove(id); err != nil {
			output.Warn("could not remove stale entry", "bundle", id, "err", err)
			result.Failed[id] = err
			continue
		}
		result.Removed = append(result.Removed, id)
	}

	return result
}
