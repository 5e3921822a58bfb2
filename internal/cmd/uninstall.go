package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/lockfile"
	"github.com/bundlekit/cli/internal/output"
	"github.com/bundlekit/cli/internal/userstore"
)

// NewUninstallCmd creates the uninstall command.
func NewUninstallCmd() *cobra.Command {
	var scopeFlag string

	cmd := &cobra.Command{
		Use:   "uninstall <bundle-id>",
		Short: "Uninstall a bundle",
		Long: `Remove an installed bundle.

Repository scope removes the bundle's files, its lockfile entry, and any
git exclude entries. User and workspace scopes remove the store copy and
the index entry.

Without --scope the bundle is removed from whatever scope it is currently
installed at.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runUninstall(args[0], scopeFlag)
		},
	}

	cmd.Flags().StringVarP(&scopeFlag, "scope", "s", "", "scope to uninstall from: user, workspace, repository")

	return cmd
}

func runUninstall(bundleID, scopeFlag string) error {
	e, err := newEnv()
	if err != nil {
		return exitWith(err)
	}

	var target bundle.Scope
	if scopeFlag != "" {
		target, err = bundle.ParseScope(scopeFlag)
		if err != nil {
			return exitWith(err)
		}
	} else {
		target, err = currentScope(e, bundleID)
		if err != nil {
			return exitWith(err)
		}
	}

	if target == bundle.ScopeRepository {
		if err := e.requireRepo(); err != nil {
			return err
		}
		if err := e.Resolver.UninstallRepository(bundleID); err != nil {
			output.Error("uninstall failed", "bundle", bundleID, "error", err)
			return &ExitError{Err: err, Code: ExitCodeFromError(err), Printed: true}
		}
	} else {
		if e.Resolver != nil {
			err = e.Resolver.UninstallUserScope(bundleID, target)
		} else {
			err = uninstallUserScopeDirect(e, bundleID, target)
		}
		if err != nil {
			output.Error("uninstall failed", "bundle", bundleID, "error", err)
			return &ExitError{Err: err, Code: ExitCodeFromError(err), Printed: true}
		}
	}

	if err := e.Cache.Evict(bundleID); err != nil {
		output.Warn("could not evict cached bundle content", "bundle", bundleID, "err", err)
	}

	output.Println(output.FormatCheckmark(fmt.Sprintf("Uninstalled %s from %s scope", bundleID, target)))
	return nil
}

func uninstallUserScopeDirect(e *env, bundleID string, target bundle.Scope) error {
	if err := e.Index.Remove(bundleID, target); err != nil {
		return err
	}
	return userstore.RemoveBundle(e.StoreDir, target, bundleID)
}

// currentScope locates the bundle's install scope via the index and, when
// inside a repository, the lockfile.
func currentScope(e *env, bundleID string) (bundle.Scope, error) {
	if e.Resolver != nil {
		loc, err := e.Resolver.Current(bundleID)
		if err != nil {
			return "", err
		}
		if loc == nil {
			return "", fmt.Errorf("bundle %s is not installed: %w", bundleID, lockfile.ErrNotFound)
		}
		return loc.Scope, nil
	}

	entry, ok, err := e.Index.Find(bundleID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("bundle %s is not installed: %w", bundleID, lockfile.ErrNotFound)
	}
	return entry.Scope, nil
}
