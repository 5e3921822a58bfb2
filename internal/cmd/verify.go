package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlekit/cli/internal/lockfile"
	"github.com/bundlekit/cli/internal/output"
)

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	var diffFlag bool

	cmd := &cobra.Command{
		Use:   "verify [bundle-id]",
		Short: "Verify installed files against the lockfile",
		Long: `Compare each tracked file's on-disk checksum against the checksum
recorded at install time. Files that were edited are reported as modified,
files that vanished as missing.

Without an argument every repository-scope bundle is verified.

Examples:
  bkit verify
  bkit verify code-review --diff`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			bundleID := ""
			if len(args) > 0 {
				bundleID = args[0]
			}
			return runVerify(bundleID, diffFlag)
		},
	}

	cmd.Flags().BoolVar(&diffFlag, "diff", false, "show a diff of recorded vs actual checksums")

	return cmd
}

func runVerify(bundleID string, showDiff bool) error {
	e, err := newEnv()
	if err != nil {
		return exitWith(err)
	}
	if err := e.requireRepo(); err != nil {
		return err
	}

	var ids []string
	if bundleID != "" {
		ids = []string{bundleID}
	} else {
		installed, err := e.Store.InstalledBundles()
		if err != nil {
			return exitWith(err)
		}
		for _, b := range installed {
			ids = append(ids, b.ID)
		}
	}

	if len(ids) == 0 {
		output.Println("No bundles installed.")
		return nil
	}

	clean := true
	for _, id := range ids {
		modified, err := e.Store.DetectModifiedFiles(id)
		if err != nil {
			return exitWith(err)
		}
		if len(modified) == 0 {
			output.Println(output.FormatCheckmark(fmt.Sprintf("%s: all files match", id)))
			continue
		}

		clean = false
		for _, m := range modified {
			if m.Missing {
				output.Warn("file missing", "bundle", id, "path", m.Path)
			} else {
				output.Warn("file modified", "bundle", id, "path", m.Path)
			}
		}

		if showDiff {
			if err := printDrift(modified); err != nil {
				output.Debug("could not render drift diff", "bundle", id, "err", err)
			}
		}
	}

	if !clean {
		return NewExitError(fmt.Errorf("installed files differ from lockfile"), ExitGeneralError)
	}
	return nil
}

// printDrift renders a recorded-vs-actual checksum diff for the files that
// drifted.
func printDrift(modified []lockfile.ModifiedFile) error {
	recorded := make(map[string]string, len(modified))
	actual := make(map[string]string, len(modified))

	for _, m := range modified {
		recorded[m.Path] = m.ExpectedChecksum
		if m.Missing {
			continue
		}
		actual[m.Path] = m.ActualChecksum
	}

	report, err := output.RenderDrift(recorded, actual)
	if err != nil {
		return err
	}
	output.Println(report)
	return nil
}
