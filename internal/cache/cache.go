// Package cache keeps extracted bundle content on disk, keyed by bundle id
// and version. It is the content source for migrations and for reinstalling
// bundles whose repository files have vanished.
package cache

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/lockfile"
)

// Cache is a directory of extracted bundles: <dir>/<id>/<version>/.
type Cache struct {
	dir string
}

// New creates a cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

func (c *Cache) path(bundleID, version string) string {
	return filepath.Join(c.dir, bundle.NormalizeID(bundleID), version)
}

// Put copies an extracted bundle directory into the cache, replacing any
// previous copy of the same version, and returns the cached location.
func (c *Cache) Put(bundleID, version, srcDir string) (string, error) {
	dst := c.path(bundleID, version)
	if err := os.RemoveAll(dst); err != nil {
		return "", fmt.Errorf("clearing cache entry %s: %w", dst, err)
	}

	err := filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcDir, p)
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
		return "", fmt.Errorf("caching bundle %s@%s: %w", bundleID, version, err)
	}

	return dst, nil
}

// BundleDir returns the cached directory for a bundle version, or
// lockfile.ErrNotFound. Implements the scope package's Retriever capability.
func (c *Cache) BundleDir(bundleID, version string) (string, error) {
	dir := c.path(bundleID, version)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("bundle %s@%s not in cache: %w", bundleID, version, lockfile.ErrNotFound)
	}
	return dir, nil
}

// Evict removes every cached version of a bundle.
func (c *Cache) Evict(bundleID string) error {
	return os.RemoveAll(filepath.Join(c.dir, bundle.NormalizeID(bundleID)))
}
