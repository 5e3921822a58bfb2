package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/output"
	"github.com/bundlekit/cli/internal/scope"
	"github.com/bundlekit/cli/internal/userstore"
)

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	var (
		scopeFlag string
		modeFlag  string
		forceFlag bool
	)

	cmd := &cobra.Command{
		Use:   "install <bundle-dir>",
		Short: "Install a bundle",
		Long: `Install a bundle from a local directory containing a bundle manifest.

Repository scope copies the bundle's content into the current repository
(.github/prompts, .github/agents, .github/instructions, .github/skills) and
records it in bkit.lock.json. The local-only commit mode additionally hides
the installed files from git via .git/info/exclude.

User and workspace scopes copy the bundle into the per-user store instead
and never touch the repository.

A bundle installed at one scope cannot be installed at another until it is
uninstalled or moved; --force uninstalls it from its current scope first.

Examples:
  # Install into the current repository
  bkit install ./bundles/code-review

  # Install without committing the files
  bkit install ./bundles/code-review --mode local-only

  # Install for the current user only
  bkit install ./bundles/code-review --scope user`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), args[0], scopeFlag, modeFlag, forceFlag)
		},
	}

	cmd.Flags().StringVarP(&scopeFlag, "scope", "s", "", "install scope: user, workspace, repository (default from config)")
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "commit mode for repository scope: commit, local-only (default from config)")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "uninstall from the current scope first when scopes conflict")

	return cmd
}

func runInstall(ctx context.Context, bundleDir, scopeFlag, modeFlag string, force bool) error {
	cfg := GetConfig()

	if scopeFlag == "" {
		scopeFlag = cfg.DefaultScope
	}
	targetScope, err := bundle.ParseScope(scopeFlag)
	if err != nil {
		return exitWith(err)
	}

	if modeFlag == "" {
		modeFlag = cfg.DefaultCommitMode
	}
	mode, err := bundle.ParseCommitMode(modeFlag)
	if err != nil {
		return exitWith(err)
	}

	m, err := bundle.Load(bundleDir)
	if err != nil {
		return exitWith(fmt.Errorf("loading bundle: %w", err))
	}

	validator, err := bundle.NewValidator()
	if err != nil {
		return exitWith(err)
	}
	if err := validator.Validate(m); err != nil {
		output.Error("bundle manifest invalid", "bundle", m.ID, "error", err)
		return &ExitError{Err: err, Code: ExitValidationError, Printed: true}
	}

	e, err := newEnv()
	if err != nil {
		return exitWith(err)
	}
	if targetScope == bundle.ScopeRepository {
		if err := e.requireRepo(); err != nil {
			return err
		}
	}

	// Keep a cache copy so later operations (sync, move) can re-fetch content.
	cached, err := e.Cache.Put(m.ID, m.Version, bundleDir)
	if err != nil {
		output.Warn("could not cache bundle content", "bundle", m.ID, "err", err)
		cached = bundleDir
	}

	params := scope.InstallParams{
		SourceID:   m.ID,
		SourceType: "local",
		CommitMode: mode,
	}

	if force {
		if err := uninstallCurrent(e, m.ID); err != nil {
			return exitWith(err)
		}
	}

	action := func() error {
		if targetScope == bundle.ScopeRepository {
			return e.Resolver.InstallRepository(cached, m, params)
		}
		if e.Resolver != nil {
			return e.Resolver.InstallUserScope(targetScope, cached, m, params)
		}
		// Outside a repository the per-user index still enforces scope
		// exclusivity.
		existing, found, err := e.Index.Find(m.ID)
		if err != nil {
			return err
		}
		if found && existing.Scope != targetScope {
			return fmt.Errorf("bundle %q is already installed at %s scope: %w", m.ID, existing.Scope, scope.ErrConflict)
		}
		location, err := userstore.CopyBundle(e.StoreDir, targetScope, m.ID, cached)
		if err != nil {
			return err
		}
		return e.Index.Record(userstore.Entry{
			BundleID: m.ID,
			Scope:    targetScope,
			Version:  m.Version,
			SourceID: params.SourceID,
			Location: location,
		})
	}

	err = output.RunWithSpinner(ctx, action,
		output.WithTitle(fmt.Sprintf("Installing %s %s", m.ID, m.Version)))
	if err != nil {
		output.Error("install failed", "bundle", m.ID, "error", err)
		return &ExitError{Err: err, Code: ExitCodeFromError(err), Printed: true}
	}

	output.Println(output.FormatCheckmark(fmt.Sprintf("Installed %s %s at %s scope", m.ID, m.Version, targetScope)))
	return nil
}

// uninstallCurrent removes the bundle from whatever scope it currently
// occupies. Not found is fine.
func uninstallCurrent(e *env, bundleID string) error {
	if e.Resolver == nil {
		existing, found, err := e.Index.Find(bundleID)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		output.Info("removing existing install", "bundle", bundleID, "scope", existing.Scope)
		return uninstallUserScopeDirect(e, bundleID, existing.Scope)
	}

	loc, err := e.Resolver.Current(bundleID)
	if err != nil {
		return err
	}
	if loc == nil {
		return nil
	}

	output.Info("removing existing install", "bundle", bundleID, "scope", loc.Scope)
	if loc.Scope == bundle.ScopeRepository {
		return e.Resolver.UninstallRepository(bundleID)
	}
	return e.Resolver.UninstallUserScope(bundleID, loc.Scope)
}
