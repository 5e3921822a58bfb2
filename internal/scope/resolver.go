// Package scope enforces the single-location invariant: a bundle is
// installed in at most one of the per-user index (user/workspace scopes) and
// the repository lockfile, never both. It also moves bundles between those
// locations and switches the commit mode of repository installs.
package scope

import (
	"errors"
	"fmt"

	goversion "github.com/hashicorp/go-version"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/installer"
	"github.com/bundlekit/cli/internal/lockfile"
	"github.com/bundlekit/cli/internal/output"
	"github.com/bundlekit/cli/internal/userstore"
)

// ErrConflict indicates a bundle already installed at a different scope than
// the requested one. The caller decides: abort, or migrate explicitly.
var ErrConflict = errors.New("scope conflict")

// ErrPartialMigration indicates a migration that committed its removal half
// but failed the install half. It is never retried automatically; manual
// intervention may be needed.
var ErrPartialMigration = errors.New("migration partially applied")

// Retriever is the capability to produce an extracted bundle directory for
// a known bundle. The retrieval layer (network, cache) implements it; the
// resolver works without one, losing only the operations that need content.
type Retriever interface {
	// BundleDir returns a local directory containing the bundle's manifest
	// and content files, or lockfile.ErrNotFound.
	BundleDir(bundleID, version string) (string, error)
}

// Resolver coordinates the lockfile, the per-user index, and the installer
// for one repository root.
type Resolver struct {
	store     *lockfile.Store
	index     *userstore.Index
	installer *installer.Installer
	storeDir  string

	// retriever is optional; nil means bundle content cannot be re-fetched.
	retriever Retriever
}

// Options configures a Resolver.
type Options struct {
	Store     *lockfile.Store
	Index     *userstore.Index
	StoreDir  string
	Retriever Retriever
}

// NewResolver creates a resolver for the store's repository root.
func NewResolver(opts Options) *Resolver {
	return &Resolver{
		store:     opts.Store,
		index:     opts.Index,
		installer: installer.New(opts.Store.Root()),
		storeDir:  opts.StoreDir,
		retriever: opts.Retriever,
	}
}

// Location reports where a bundle is currently installed.
type Location struct {
	Scope   bundle.Scope
	Version string
}

// Current looks a bundle up in both the per-user index and the lockfile.
// Returns (nil, nil) when the bundle is not installed anywhere. Repository
// presence is answered by the lockfile alone, never the index.
func (r *Resolver) Current(bundleID string) (*Location, error) {
	l, err := r.store.Read()
	if err != nil {
		return nil, err
	}
	if l != nil {
		if entry, ok := l.Bundles[bundleID]; ok {
			return &Location{Scope: bundle.ScopeRepository, Version: entry.Version}, nil
		}
	}

	entry, found, err := r.index.Find(bundleID)
	if err != nil {
		return nil, err
	}
	if found {
		return &Location{Scope: entry.Scope, Version: entry.Version}, nil
	}

	return nil, nil
}

// CheckConflict rejects an install whose target scope differs from where the
// bundle already lives. Installing again at the same scope is fine (that is
// an update).
func (r *Resolver) CheckConflict(bundleID string, target bundle.Scope) error {
	current, err := r.Current(bundleID)
	if err != nil {
		return err
	}
	if current != nil && current.Scope != target {
		return fmt.Errorf("bundle %q is already installed at %s scope: %w", bundleID, current.Scope, ErrConflict)
	}
	return nil
}

// InstallParams carries the source identity for a repository-scope install.
type InstallParams struct {
	SourceID   string
	SourceType string
	SourceURL  string
	CommitMode bundle.CommitMode
}

// InstallRepository installs an extracted bundle at repository scope: copy
// the files, then persist the lockfile entry. A lockfile write failure after
// a successful copy undoes the copy so no untracked files are left behind.
func (r *Resolver) InstallRepository(bundleDir string, m *bundle.Manifest, params InstallParams) error {
	if err := r.CheckConflict(m.ID, bundle.ScopeRepository); err != nil {
		return err
	}
	r.warnOnDowngrade(m)

	result, err := r.installer.Install(bundleDir, m, params.CommitMode)
	if err != nil {
		return err
	}

	entry := lockfile.BundleEntry{
		Version:    m.Version,
		SourceID:   params.SourceID,
		SourceType: params.SourceType,
		CommitMode: params.CommitMode,
		Files:      result.Files,
	}
	source := lockfile.Source{Type: params.SourceType, URL: params.SourceURL}

	if err := r.store.CreateOrUpdate(m.ID, entry, source); err != nil {
		if cleanupErr := r.installer.Uninstall(m, entry); cleanupErr != nil {
			output.Warn("could not clean up after failed lockfile write", "bundle", m.ID, "err", cleanupErr)
		}
		return fmt.Errorf("recording install of %s: %w", m.ID, err)
	}

	return nil
}

// InstallUserScope installs an extracted bundle into the per-user store at
// user or workspace scope and records it in the index.
func (r *Resolver) InstallUserScope(scope bundle.Scope, bundleDir string, m *bundle.Manifest, params InstallParams) error {
	if err := r.CheckConflict(m.ID, scope); err != nil {
		return err
	}
	r.warnOnDowngrade(m)

	location, err := userstore.CopyBundle(r.storeDir, scope, m.ID, bundleDir)
	if err != nil {
		return err
	}

	err = r.index.Record(userstore.Entry{
		BundleID: m.ID,
		Scope:    scope,
		Version:  m.Version,
		SourceID: params.SourceID,
		Location: location,
	})
	if err != nil {
		if cleanupErr := userstore.RemoveBundle(r.storeDir, scope, m.ID); cleanupErr != nil {
			output.Warn("could not clean up store copy after failed index write", "bundle", m.ID, "err", cleanupErr)
		}
		return fmt.Errorf("recording install of %s: %w", m.ID, err)
	}

	return nil
}

// UninstallRepository removes a repository-scope install: lockfile entry
// first, then files, then exclude cleanup (the latter two via the installer).
// The manifest is re-resolved through the retriever when possible so skill
// directories are removed precisely; otherwise the lockfile records drive
// the removal.
func (r *Resolver) UninstallRepository(bundleID string) error {
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

	m := r.manifestFor(bundleID, entry.Version)

	if err := r.store.Remove(bundleID); err != nil {
		return err
	}
	return r.installer.Uninstall(m, entry)
}

// UninstallUserScope removes a user- or workspace-scope install: index entry
// first, then the store copy.
func (r *Resolver) UninstallUserScope(bundleID string, scope bundle.Scope) error {
	if err := r.index.Remove(bundleID, scope); err != nil {
		return err
	}
	return userstore.RemoveBundle(r.storeDir, scope, bundleID)
}

// manifestFor loads a bundle's manifest through the retriever. Absence of a
// retriever or of the bundle is fine: callers fall back to lockfile records.
func (r *Resolver) manifestFor(bundleID, version string) *bundle.Manifest {
	dir, ok := r.bundleDir(bundleID, version)
	if !ok {
		return nil
	}
	m, err := bundle.Load(dir)
	if err != nil {
		output.Debug("could not load cached manifest, using lockfile records", "bundle", bundleID, "err", err)
		return nil
	}
	return m
}

// bundleDir resolves a bundle's extracted content directory through the
// retriever capability, when one is present.
func (r *Resolver) bundleDir(bundleID, version string) (string, bool) {
	if r.retriever == nil {
		return "", false
	}
	dir, err := r.retriever.BundleDir(bundleID, version)
	if err != nil {
		return "", false
	}
	return dir, true
}

// warnOnDowngrade compares the incoming version against any installed one
// and warns when it is older. Unparseable versions are skipped silently.
func (r *Resolver) warnOnDowngrade(m *bundle.Manifest) {
	current, err := r.Current(m.ID)
	if err != nil || current == nil {
		return
	}

	installed, err := goversion.NewVersion(current.Version)
	if err != nil {
		return
	}
	requested, err := goversion.NewVersion(m.Version)
	if err != nil {
		return
	}

	if requested.LessThan(installed) {
		output.Warn("installing an older version over a newer one",
			"bundle", m.ID, "installed", current.Version, "requested", m.Version)
	}
}
