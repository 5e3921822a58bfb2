// Package version provides version information for the bkit CLI.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables set via ldflags.
var (
	// Version is the CLI version (set via ldflags).
	Version = "v0.0.0-dev"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// LockfileFormatVersion is the lockfile format this CLI writes.
const LockfileFormatVersion = 1

// Info contains version information.
type Info struct {
	// Version is the CLI version (set via ldflags).
	Version string `json:"version"`

	// GitCommit is the git commit hash.
	GitCommit string `json:"gitCommit"`

	// BuildDate is the build timestamp.
	BuildDate string `json:"buildDate"`

	// GoVersion is the Go version used to build.
	GoVersion string `json:"goVersion"`

	// LockfileFormat is the lockfile format version this CLI writes.
	LockfileFormat int `json:"lockfileFormat"`
}

// GetInfo returns the current version information.
func GetInfo() Info {
	return Info{
		Version:        Version,
		GitCommit:      GitCommit,
		BuildDate:      BuildDate,
		GoVersion:      runtime.Version(),
		LockfileFormat: LockfileFormatVersion,
	}
}

// String returns a human-readable version string.
func (i Info) String() string {
	return fmt.Sprintf("bkit:\n  Version:  %s\n  Build ID: %s/%s\n  Go:       %s\n  Lockfile: format %d",
		i.Version, i.BuildDate, i.GitCommit, i.GoVersion, i.LockfileFormat)
}
