package bundle

import "fmt"

// Scope is the installation location class for a bundle.
type Scope string

// Installation scopes.
const (
	// ScopeUser installs into the per-user global store (~/.bkit/store).
	ScopeUser Scope = "user"

	// ScopeWorkspace installs into a per-workspace store.
	ScopeWorkspace Scope = "workspace"

	// ScopeRepository installs into tracked directories inside the repository.
	ScopeRepository Scope = "repository"
)

// ParseScope parses a scope string, rejecting unknown values.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeUser, ScopeWorkspace, ScopeRepository:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("unknown scope %q, use user, workspace, or repository", s)
	}
}

// CommitMode controls the version-control posture of a repository-scope install.
type CommitMode string

// Commit modes for repository-scope installs.
const (
	// ModeCommit leaves installed files visible to version control.
	ModeCommit CommitMode = "commit"

	// ModeLocalOnly keeps installed files out of version control via the
	// repository's local exclude file.
	ModeLocalOnly CommitMode = "local-only"
)

// ParseCommitMode parses a commit mode string, rejecting unknown values.
func ParseCommitMode(s string) (CommitMode, error) {
	switch CommitMode(s) {
	case ModeCommit, ModeLocalOnly:
		return CommitMode(s), nil
	default:
		return "", fmt.Errorf("unknown commit mode %q, use commit or local-only", s)
	}
}
