package installer

import (
	"strings"

	"github.com/bundlekit/cli/internal/lockfile"
)

// tracker records every path one install operation writes. It lives for the
// duration of that operation only: on success its records become the
// lockfile entry's file list, on failure they drive the rollback.
type tracker struct {
	// files are individual written files, in write order.
	files []trackedFile

	// skillDirs are skill root directories created by this install, removed
	// as whole directories on rollback.
	skillDirs []trackedDir
}

type trackedFile struct {
	rel      string // slash-form, relative to repository root
	abs      string
	checksum string
}

type trackedDir struct {
	rel string
	abs string
}

func (t *tracker) recordFile(rel, abs, checksum string) {
	t.files = append(t.files, trackedFile{rel: rel, abs: abs, checksum: checksum})
}

func (t *tracker) recordSkillDir(rel, abs string) {
	t.skillDirs = append(t.skillDirs, trackedDir{rel: rel, abs: abs})
}

// records converts the tracked files into lockfile file records, in the
// order they were written.
func (t *tracker) records() []lockfile.FileRecord {
	out := make([]lockfile.FileRecord, 0, len(t.files))
	for _, f := range t.files {
		out = append(out, lockfile.FileRecord{Path: f.rel, Checksum: f.checksum})
	}
	return out
}

// excludeEntries returns the collapsed git-exclude set: one directory entry
// per skill, one line per remaining file.
func (t *tracker) excludeEntries() []string {
	var out []string
	for _, d := range t.skillDirs {
		out = append(out, d.rel+"/")
	}
	for _, f := range t.files {
		if t.underSkillDir(f.rel) {
			continue
		}
		out = append(out, f.rel)
	}
	return out
}

// underSkillDir reports whether a relative path sits inside a tracked skill
// directory.
func (t *tracker) underSkillDir(rel string) bool {
	for _, d := range t.skillDirs {
		if strings.HasPrefix(rel, d.rel+"/") {
			return true
		}
	}
	return false
}
