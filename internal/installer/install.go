package installer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/checksum"
	"github.com/bundlekit/cli/internal/gitexclude"
	"github.com/bundlekit/cli/internal/lockfile"
	"github.com/bundlekit/cli/internal/output"
)

// ErrPartialInstall indicates an install that failed mid-copy. Everything it
// wrote has been rolled back; the bundle must be treated as not installed.
var ErrPartialInstall = errors.New("install failed")

// Installer copies bundle contents into one repository root.
type Installer struct {
	root    string
	patcher *gitexclude.Patcher
}

// New creates an installer for a repository root.
func New(root string) *Installer {
	return &Installer{
		root:    root,
		patcher: gitexclude.NewPatcher(root),
	}
}

// Result reports what a successful install wrote.
type Result struct {
	// Files are the written files in write order, with install-time digests.
	Files []lockfile.FileRecord

	// ExcludeEntries is the collapsed git-exclude set for the written paths.
	ExcludeEntries []string
}

// Install copies every content entry of an extracted bundle into the
// repository. On any failure it deletes everything it wrote, then returns
// the original error wrapped in ErrPartialInstall. With mode local-only the
// written paths are added to the repository's local exclude file (best
// effort; a failed exclude write never fails the install).
func (i *Installer) Install(bundleDir string, m *bundle.Manifest, mode bundle.CommitMode) (*Result, error) {
	tr := &tracker{}

	if err := i.copyAll(bundleDir, m, tr); err != nil {
		i.rollback(tr)
		return nil, fmt.Errorf("%w: bundle %s: %v", ErrPartialInstall, m.ID, err)
	}

	result := &Result{
		Files:          tr.records(),
		ExcludeEntries: tr.excludeEntries(),
	}

	if mode == bundle.ModeLocalOnly {
		i.patcher.AddPaths(result.ExcludeEntries)
	}

	return result, nil
}

func (i *Installer) copyAll(bundleDir string, m *bundle.Manifest, tr *tracker) error {
	for _, entry := range m.Contents {
		src := filepath.Join(bundleDir, filepath.FromSlash(entry.Path))
		target := TargetFor(entry)
		abs := filepath.Join(i.root, filepath.FromSlash(target.RelPath))

		if target.IsDir {
			if err := i.copySkillDir(src, target.RelPath, abs, tr); err != nil {
				return fmt.Errorf("copying skill %s: %w", entry.ID, err)
			}
			continue
		}

		if err := i.copyFile(src, target.RelPath, abs, tr); err != nil {
			return fmt.Errorf("copying %s: %w", entry.ID, err)
		}
	}
	return nil
}

// copyFile copies one file, creating parent directories, and records it.
func (i *Installer) copyFile(src, rel, abs string, tr *tracker) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return err
	}

	tr.recordFile(rel, abs, checksum.Bytes(data))
	return nil
}

// copySkillDir walks the skill source directory recursively, mirroring its
// structure under the target. The skill root is recorded first so that a
// failure partway through still removes the whole directory on rollback.
func (i *Installer) copySkillDir(src, rel, abs string, tr *tracker) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("skill source %s is not a directory", src)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return err
	}
	tr.recordSkillDir(rel, abs)

	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		sub, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if sub == "." {
			return nil
		}

		dst := filepath.Join(abs, sub)
		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return err
		}

		tr.recordFile(path.Join(rel, filepath.ToSlash(sub)), dst, checksum.Bytes(data))
		return nil
	})
}

// rollback undoes a failed install: skill directories first (recursively),
// then every tracked file outside them. Each deletion is best-effort; one
// failure never stops the rest.
func (i *Installer) rollback(tr *tracker) {
	for _, d := range tr.skillDirs {
		if err := os.RemoveAll(d.abs); err != nil {
			output.Warn("rollback: could not remove skill directory", "path", d.abs, "err", err)
		}
	}

	for _, f := range tr.files {
		if tr.underSkillDir(f.rel) {
			continue
		}
		if err := os.Remove(f.abs); err != nil && !os.IsNotExist(err) {
			output.Warn("rollback: could not remove file", "path", f.abs, "err", err)
		}
	}
}
