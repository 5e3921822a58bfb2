package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bundlekit/cli/internal/installer"
	"github.com/bundlekit/cli/internal/lockfile"
	"github.com/bundlekit/cli/internal/output"
)

// NewStaleCmd creates the stale command.
func NewStaleCmd() *cobra.Command {
	var (
		removeFlag bool
		yesFlag    bool
	)

	cmd := &cobra.Command{
		Use:   "stale",
		Short: "Find lockfile entries whose files have vanished",
		Long: `List repository-scope bundles whose tracked files no longer exist on
disk. With --remove the stale entries are deleted from the lockfile and
their leftover files and exclude entries are cleaned up.

Examples:
  bkit stale
  bkit stale --remove
  bkit stale --remove --yes`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runStale(removeFlag, yesFlag)
		},
	}

	cmd.Flags().BoolVar(&removeFlag, "remove", false, "remove stale entries from the lockfile")
	cmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "skip confirmation prompt")

	return cmd
}

func runStale(remove, yes bool) error {
	e, err := newEnv()
	if err != nil {
		return exitWith(err)
	}
	if err := e.requireRepo(); err != nil {
		return err
	}

	cleaner := lockfile.NewCleaner(e.Store)
	stale, err := cleaner.FindStale()
	if err != nil {
		return exitWith(err)
	}

	if len(stale) == 0 {
		output.Println(output.FormatCheckmark("No stale entries."))
		return nil
	}

	rows := make([]output.BundleRow, 0, len(stale))
	ids := make([]string, 0, len(stale))
	entries := make(map[string]lockfile.BundleEntry, len(stale))
	for _, b := range stale {
		ids = append(ids, b.ID)
		entries[b.ID] = b.Entry
		rows = append(rows, output.BundleRow{
			ID:      b.ID,
			Version: b.Entry.Version,
			Scope:   "repository",
			Mode:    string(b.Entry.CommitMode),
			Status:  output.StatusMissing,
		})
	}
	output.Println(output.RenderBundleTable(rows))

	if !remove {
		return nil
	}

	if !yes {
		if !output.IsTTY() {
			return NewExitError(
				fmt.Errorf("refusing to remove without confirmation; pass --yes"),
				ExitGeneralError,
			)
		}
		if !confirmRemoval(len(stale)) {
			output.Println("Aborted.")
			return nil
		}
	}

	result := cleaner.RemoveStale(ids)
	inst := installer.New(e.Root)
	for _, id := range result.Removed {
		// Clear whatever the vanished bundle left behind: surviving
		// tracked files and its exclude entries.
		if err := inst.Uninstall(nil, entries[id]); err != nil {
			output.Warn("could not clean up after stale entry", "bundle", id, "err", err)
		}
		output.Println(output.FormatCheckmark(fmt.Sprintf("Removed %s", id)))
	}
	if err := result.Err(); err != nil {
		return &ExitError{Err: err, Code: ExitGeneralError, Printed: true}
	}
	return nil
}

// confirmRemoval prompts the user for confirmation.
func confirmRemoval(count int) bool {
	fmt.Fprintf(os.Stderr, "Remove %d stale entries from the lockfile? [y/N]: ", count)
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "y" || answer == "yes"
	}
	return false
}
