package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bundlekit/cli/internal/config"
	"github.com/bundlekit/cli/internal/output"
)

var configInitForce bool

// NewConfigInitCmd creates the config init command.
func NewConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize default configuration",
		Long: `Write a default configuration file to ~/.bkit/config.yaml.

The configuration covers the default install scope, the default commit
mode, and the cache and store locations.

Examples:
  # Initialize configuration
  bkit config init

  # Overwrite existing configuration
  bkit config init --force`,
		RunE: runConfigInit,
	}

	cmd.Flags().BoolVarP(&configInitForce, "force", "f", false,
		"overwrite existing configuration")

	return cmd
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	paths, err := config.DefaultPaths()
	if err != nil {
		return NewExitError(fmt.Errorf("could not determine home directory: %w", err), ExitGeneralError)
	}

	if _, err := os.Stat(paths.ConfigFile); err == nil && !configInitForce {
		return NewExitError(
			fmt.Errorf("configuration already exists at %s (use --force to overwrite)", paths.ConfigFile),
			ExitGeneralError,
		)
	}

	if err := os.MkdirAll(paths.HomeDir, 0o700); err != nil {
		return NewExitError(fmt.Errorf("could not create %s: %w", paths.HomeDir, err), ExitGeneralError)
	}

	if err := os.WriteFile(paths.ConfigFile, []byte(config.DefaultConfigTemplate), 0o600); err != nil {
		return NewExitError(fmt.Errorf("could not write config.yaml: %w", err), ExitGeneralError)
	}

	output.Println("Configuration initialized at " + paths.ConfigFile)
	output.Println("")
	output.Println("Validate with: bkit config vet")

	return nil
}
