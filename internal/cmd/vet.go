package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/output"
)

// NewVetCmd creates the vet command.
func NewVetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vet <bundle-dir>",
		Short: "Validate a bundle manifest",
		Long: `Load a bundle directory's manifest and validate it against the bundle
schema: required fields, known content types, duplicate entry ids, and
paths that escape the bundle directory.

Examples:
  bkit vet ./bundles/code-review`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runVet(args[0])
		},
	}

	return cmd
}

func runVet(bundleDir string) error {
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

	output.Println(output.FormatCheckmark(fmt.Sprintf("%s %s is valid (%d entries)", m.ID, m.Version, len(m.Contents))))
	return nil
}
