package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/output"
)

// NewModeCmd creates the mode command.
func NewModeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode <bundle-id> <commit|local-only>",
		Short: "Switch a bundle's commit mode",
		Long: `Change how a repository-scope bundle's files relate to git.

Switching to local-only adds the bundle's files to .git/info/exclude so
they stay out of commits; switching to commit removes them from the
exclude list. The installed files themselves are not touched.

Examples:
  bkit mode code-review local-only
  bkit mode code-review commit`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runMode(args[0], args[1])
		},
	}

	return cmd
}

func runMode(bundleID, modeArg string) error {
	mode, err := bundle.ParseCommitMode(modeArg)
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

	if err := e.Resolver.SwitchCommitMode(bundleID, mode); err != nil {
		output.Error("mode switch failed", "bundle", bundleID, "error", err)
		return &ExitError{Err: err, Code: ExitCodeFromError(err), Printed: true}
	}

	output.Println(output.FormatCheckmark(fmt.Sprintf("Set %s to %s mode", bundleID, mode)))
	return nil
}
