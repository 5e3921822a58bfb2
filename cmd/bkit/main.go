// Package main is the entry point for the bkit CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/bundlekit/cli/internal/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		// Check if the error contains an ExitError with a specific code
		var exitErr *cmd.ExitError
		if errors.As(err, &exitErr) {
			// Only print if the command layer hasn't already printed it
			if !exitErr.Printed {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cmd.ExitCodeFromError(err))
	}
}
