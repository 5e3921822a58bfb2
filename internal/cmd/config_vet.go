package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlekit/cli/internal/config"
	"github.com/bundlekit/cli/internal/output"
)

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vet",
		Short: "Validate the configuration file",
		Long: `Load the configuration file and validate it against the config schema.

Examples:
  bkit config vet
  bkit config vet --config /path/to/config.yaml`,
		RunE: runConfigVet,
	}

	return cmd
}

func runConfigVet(_ *cobra.Command, _ []string) error {
	configFile := flagConfig
	if configFile == "" {
		var err error
		configFile, err = config.GetConfigFile()
		if err != nil {
			return exitWith(err)
		}
	}

	exists, err := config.ConfigFileExists(configFile)
	if err != nil {
		return exitWith(err)
	}
	if !exists {
		output.Println("No configuration file found; defaults apply.")
		return nil
	}

	validator, err := config.NewValidator()
	if err != nil {
		return exitWith(err)
	}

	if err := validator.ValidateFile(configFile); err != nil {
		output.Error("configuration invalid", "file", configFile, "error", err)
		return &ExitError{Err: err, Code: ExitValidationError, Printed: true}
	}

	output.Println(output.FormatCheckmark(fmt.Sprintf("%s is valid", configFile)))
	return nil
}
