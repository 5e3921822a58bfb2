// Package testutil provides test helpers for CLI tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TempDir creates a temporary directory for tests and returns a cleanup function.
func TempDir(t *testing.T) (string, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "bkit-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			t.Logf("warning: failed to remove temp dir %s: %v", dir, err)
		}
	}
}

// WriteFile creates a file with the given content in the specified directory.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// InitRepo creates a bare-bones git metadata layout in dir so repository
// root discovery works without running git.
func InitRepo(t *testing.T, dir string) {
	t.Helper()
	gitDir := filepath.Join(dir, ".git")
	for _, sub := range []string{"info", "objects", "refs"} {
		if err := os.MkdirAll(filepath.Join(gitDir, sub), 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", sub, err)
		}
	}
	WriteFile(t, gitDir, "HEAD", "ref: refs/heads/main\n")
	WriteFile(t, gitDir, "config", "[core]\n\trepositoryformatversion = 0\n")
}

// WriteBundle writes a minimal bundle directory with a manifest and the
// named content files, returning the bundle directory path.
func WriteBundle(t *testing.T, dir, manifest string, files map[string]string) string {
	t.Helper()
	WriteFile(t, dir, "bundle.yaml", manifest)
	for name, content := range files {
		WriteFile(t, dir, name, content)
	}
	return dir
}
