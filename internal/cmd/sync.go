package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bundlekit/cli/internal/output"
)

// NewSyncCmd creates the sync command.
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reinstall bundles whose files have vanished",
		Long: `Walk the lockfile and reinstall every bundle whose tracked files no
longer exist on disk. Bundles whose content is not available locally are
skipped; one bundle's failure never aborts the rest.

Examples:
  bkit sync`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context())
		},
	}

	return cmd
}

func runSync(ctx context.Context) error {
	e, err := newEnv()
	if err != nil {
		return exitWith(err)
	}
	if err := e.requireRepo(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	result, err := e.Resolver.SyncMissing(ctx)
	if err != nil {
		return exitWith(err)
	}

	for _, id := range result.Installed {
		output.Println(output.FormatCheckmark(fmt.Sprintf("Reinstalled %s", id)))
	}
	for _, id := range result.Skipped {
		output.Info("skipped, content unavailable", "bundle", id)
	}
	for id, ferr := range result.Failed {
		output.Error("reinstall failed", "bundle", id, "error", ferr)
	}
	if result.Cancelled {
		output.Warn("sync cancelled before all bundles were processed")
	}

	if err := result.Err(); err != nil {
		return &ExitError{Err: err, Code: ExitGeneralError, Printed: true}
	}
	if len(result.Installed) == 0 && len(result.Skipped) == 0 && !result.Cancelled {
		output.Println(output.FormatCheckmark("All bundles present."))
	}
	return nil
}
