// Package cmd provides command implementations for the bkit CLI.
package cmd

// Exit codes.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitValidationError indicates bundle or config validation failed.
	ExitValidationError = 2

	// ExitScopeConflict indicates the bundle is already installed at a
	// different scope.
	ExitScopeConflict = 3

	// ExitPartial indicates an install or migration was only partially
	// applied.
	ExitPartial = 4

	// ExitNotFound indicates a bundle, lockfile entry, or file was not found.
	ExitNotFound = 5

	// ExitCorruptLockfile indicates the lockfile exists but cannot be parsed.
	ExitCorruptLockfile = 6
)

// ExitCodeName returns the name of the exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "General Error"
	case ExitValidationError:
		return "Validation Error"
	case ExitScopeConflict:
		return "Scope Conflict"
	case ExitPartial:
		return "Partially Applied"
	case ExitNotFound:
		return "Not Found"
	case ExitCorruptLockfile:
		return "Corrupt Lockfile"
	default:
		return "Unknown"
	}
}
