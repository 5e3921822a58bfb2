package userstore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bundlekit/cli/internal/bundle"
)

// ContentDir returns where a bundle's content lives inside the store
// directory for a given scope.
func ContentDir(storeDir string, scope bundle.Scope, bundleID string) string {
	return filepath.Join(storeDir, string(scope), bundle.NormalizeID(bundleID))
}

// CopyBundle copies an extracted bundle directory into the per-user store
// and returns the destination. An existing copy is replaced.
func CopyBundle(storeDir string, scope bundle.Scope, bundleID, bundleDir string) (string, error) {
	if err := checkScope(scope); err != nil {
		return "", err
	}

	dst := ContentDir(storeDir, scope, bundleID)
	if err := os.RemoveAll(dst); err != nil {
		return "", fmt.Errorf("clearing %s: %w", dst, err)
	}

	err := filepath.WalkDir(bundleDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(bundleDir, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	if err != nil {
		os.RemoveAll(dst)
		return "", fmt.Errorf("copying bundle into store: %w", err)
	}

	return dst, nil
}

// RemoveBundle deletes a bundle's content from the store. Missing content is
// a no-op.
func RemoveBundle(storeDir string, scope bundle.Scope, bundleID string) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	return os.RemoveAll(ContentDir(storeDir, scope, bundleID))
}
