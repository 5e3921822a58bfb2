package cmd

import (
	"errors"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/installer"
	"github.com/bundlekit/cli/internal/lockfile"
	"github.com/bundlekit/cli/internal/scope"
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int

	// Printed is true when the command layer already logged the error;
	// main should not print it a second time.
	Printed bool
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// ExitCodeFromError determines the appropriate exit code for an error.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Check for ExitError first
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var validationErrs bundle.ValidationErrors
	var validationErr *bundle.ValidationError

	switch {
	case errors.As(err, &validationErrs), errors.As(err, &validationErr):
		return ExitValidationError
	case errors.Is(err, scope.ErrConflict):
		return ExitScopeConflict
	case errors.Is(err, installer.ErrPartialInstall),
		errors.Is(err, scope.ErrPartialMigration):
		return ExitPartial
	case errors.Is(err, lockfile.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, lockfile.ErrCorrupt):
		return ExitCorruptLockfile
	default:
		return ExitGeneralError
	}
}

// exitWith wraps err with the exit code derived from its kind.
func exitWith(err error) *ExitError {
	return &ExitError{Err: err, Code: ExitCodeFromError(err)}
}
