package installer

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/lockfile"
	"github.com/bundlekit/cli/internal/output"
)

// Uninstall removes a bundle's installed files. Target paths come from the
// manifest when available; otherwise they are re-derived from the lockfile
// entry's tracked file list. Already-missing files and directories are
// no-ops, not errors. Exclude entries for the removed paths are always
// cleaned up (exact-match removal is harmless when none were added).
func (i *Installer) Uninstall(m *bundle.Manifest, entry lockfile.BundleEntry) error {
	var excludes []string
	var err error

	if m != nil {
		excludes, err = i.uninstallFromManifest(m)
	} else {
		excludes, err = i.uninstallFromRecords(entry)
	}
	if err != nil {
		return err
	}

	i.patcher.RemovePaths(excludes)
	return nil
}

func (i *Installer) uninstallFromManifest(m *bundle.Manifest) ([]string, error) {
	var excludes []string

	for _, entry := range m.Contents {
		target := TargetFor(entry)
		abs := filepath.Join(i.root, filepath.FromSlash(target.RelPath))
		excludes = append(excludes, ExcludeEntry(target))

		if target.IsDir {
			if err := os.RemoveAll(abs); err != nil {
				return nil, fmt.Errorf("removing skill directory %s: %w", abs, err)
			}
			continue
		}

		if err := os.Remove(abs); err != nil {
			if os.IsNotExist(err) {
				output.Debug("file already gone, skipping", "path", abs)
				continue
			}
			return nil, fmt.Errorf("removing %s: %w", abs, err)
		}
	}

	return excludes, nil
}

// uninstallFromRecords is the manifest-unavailable fallback: delete every
// tracked file, and remove whole skill directories for tracked files living
// under the skills target directory.
func (i *Installer) uninstallFromRecords(entry lockfile.BundleEntry) ([]string, error) {
	skillRoots := make(map[string]bool)
	var excludes []string

	for _, f := range entry.Files {
		if root, ok := skillRootOf(f.Path); ok {
			skillRoots[root] = true
			continue
		}

		abs := filepath.Join(i.root, filepath.FromSlash(f.Path))
		excludes = append(excludes, f.Path)
		if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("removing %s: %w", abs, err)
		}
	}

	for root := range skillRoots {
		abs := filepath.Join(i.root, filepath.FromSlash(root))
		excludes = append(excludes, root+"/")
		if err := os.RemoveAll(abs); err != nil {
			return nil, fmt.Errorf("removing skill directory %s: %w", abs, err)
		}
	}

	return excludes, nil
}

// ApplyCommitMode reconciles the exclude file with a commit mode for an
// already-installed set of paths: local-only adds them, commit removes them.
func (i *Installer) ApplyCommitMode(excludes []string, mode bundle.CommitMode) {
	if mode == bundle.ModeLocalOnly {
		i.patcher.AddPaths(excludes)
		return
	}
	i.patcher.RemovePaths(excludes)
}

// ExcludeEntriesFromRecords derives the collapsed exclude set from a
// lockfile entry's tracked files, for when the manifest is unavailable.
func ExcludeEntriesFromRecords(entry lockfile.BundleEntry) []string {
	skillRoots := make(map[string]bool)
	var out []string

	for _, f := range entry.Files {
		if root, ok := skillRootOf(f.Path); ok {
			if !skillRoots[root] {
				skillRoots[root] = true
				out = append(out, root+"/")
			}
			continue
		}
		out = append(out, f.Path)
	}
	return out
}

// skillRootOf extracts the skill root directory ("<SkillsDir>/<id>") from a
// tracked path under the skills target, if it is one.
func skillRootOf(rel string) (string, bool) {
	prefix := SkillsDir + "/"
	if !strings.HasPrefix(rel, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(rel, prefix)
	id, _, found := strings.Cut(rest, "/")
	if !found || id == "" {
		return "", false
	}
	return path.Join(SkillsDir, id), true
}
