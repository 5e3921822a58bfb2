package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/output"
)

// NewMoveCmd creates the move command.
func NewMoveCmd() *cobra.Command {
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "move <bundle-id> <scope>",
		Short: "Move a bundle between scopes",
		Long: `Migrate an installed bundle from its current scope to another.

Moving to user scope removes the bundle from the repository (files,
lockfile entry, exclude entries) and copies it into the per-user store.
Moving to repository scope does the reverse, installing the stored content
into the current repository.

Examples:
  bkit move code-review user
  bkit move code-review repository --mode local-only`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runMove(args[0], args[1], modeFlag)
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "commit mode when moving to repository scope (default from config)")

	return cmd
}

func runMove(bundleID, target, modeFlag string) error {
	targetScope, err := bundle.ParseScope(target)
	if err != nil {
		return exitWith(err)
	}

	e, err := newEnv()
	if err != nil {
		return exitWith(err)
	}
	if err := e.requireRepo(); err != nil {
		return err
	}

	switch targetScope {
	case bundle.ScopeUser:
		err = e.Resolver.MoveToUser(bundleID)
	case bundle.ScopeRepository:
		if modeFlag == "" {
			modeFlag = GetConfig().DefaultCommitMode
		}
		mode, perr := bundle.ParseCommitMode(modeFlag)
		if perr != nil {
			return exitWith(perr)
		}
		err = e.Resolver.MoveToRepository(bundleID, mode)
	default:
		return NewExitError(
			fmt.Errorf("cannot move to %s scope (valid: user, repository)", targetScope),
			ExitGeneralError,
		)
	}

	if err != nil {
		output.Error("move failed", "bundle", bundleID, "to", targetScope, "error", err)
		return &ExitError{Err: err, Code: ExitCodeFromError(err), Printed: true}
	}

	output.Println(output.FormatCheckmark(fmt.Sprintf("Moved %s to %s scope", bundleID, targetScope)))
	return nil
}
