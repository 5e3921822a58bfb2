// Package gitexclude maintains a single managed section inside a git
// repository's local exclude file (.git/info/exclude).
//
// The section is delimited by a fixed header comment. Everything outside it
// is passed through byte-for-byte. All operations are best-effort: a missing
// repository is a silent no-op and write failures are downgraded to warnings,
// so exclusion bookkeeping never blocks an install or uninstall.
package gitexclude

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// DiscoverRoot resolves the worktree root of the git repository containing
// start, walking upward the way git itself does. Returns git.ErrRepositoryNotExists
// (wrapped) when start is not inside a repository.
func DiscoverRoot(start string) (string, error) {
	repo, err := git.PlainOpenWithOptions(start, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("locating git repository from %s: %w", start, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("resolving worktree for %s: %w", start, err)
	}

	return wt.Filesystem.Root(), nil
}

// gitDir resolves the .git directory for a worktree root. Handles the
// linked-worktree case where .git is a file containing a "gitdir:" pointer.
func gitDir(root string) (string, error) {
	dotGit := filepath.Join(root, ".git")

	info, err := os.Stat(dotGit)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return dotGit, nil
	}

	data, err := os.ReadFile(dotGit)
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(data))
	const prefix = "gitdir:"
	if !strings.HasPrefix(line, prefix) {
		return "", fmt.Errorf(".git file at %s has no gitdir pointer", dotGit)
	}

	target := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	return filepath.Clean(target), nil
}
