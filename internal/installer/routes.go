// Package installer places bundle contents into a repository and removes
// them again, tracking every path it writes so a failed install can be
// rolled back completely.
package installer

import (
	"path"
	"path/filepath"

	"github.com/bundlekit/cli/internal/bundle"
)

// Target directories for repository-scope installs, relative to the
// repository root. Prompt, agent, and instruction files land flat in their
// directory; each skill occupies its own directory named by normalized id.
const (
	PromptsDir      = ".github/prompts"
	AgentsDir       = ".github/agents"
	InstructionsDir = ".github/instructions"
	SkillsDir       = ".github/skills"
)

// TargetDir returns the target directory for a content type.
func TargetDir(t bundle.ContentType) string {
	switch t {
	case bundle.TypeAgent:
		return AgentsDir
	case bundle.TypeInstruction:
		return InstructionsDir
	case bundle.TypeSkill:
		return SkillsDir
	default:
		return PromptsDir
	}
}

// Target describes where one content entry installs to.
type Target struct {
	// RelPath is the target path relative to the repository root, in slash
	// form. For skills it is the skill's root directory.
	RelPath string

	// IsDir is true for skill entries, which install as whole directories.
	IsDir bool
}

// TargetFor resolves the canonical target for a content entry. This is the
// single path-resolution function shared by install, uninstall, and
// commit-mode switching, so the three can never disagree about where a
// bundle's files live.
func TargetFor(entry bundle.ContentEntry) Target {
	t := entry.EffectiveType()
	if t == bundle.TypeSkill {
		return Target{
			RelPath: path.Join(SkillsDir, bundle.NormalizeID(entry.ID)),
			IsDir:   true,
		}
	}
	return Target{
		RelPath: path.Join(TargetDir(t), filepath.Base(entry.Path)),
	}
}

// Targets resolves every entry of a manifest.
func Targets(m *bundle.Manifest) []Target {
	out := make([]Target, 0, len(m.Contents))
	for _, entry := range m.Contents {
		out = append(out, TargetFor(entry))
	}
	return out
}

// ExcludeEntry returns the git-exclude line for a target: the path itself
// for files, the directory with a trailing slash for skills. All files under
// one skill collapse into this single entry.
func ExcludeEntry(t Target) string {
	if t.IsDir {
		return t.RelPath + "/"
	}
	return t.RelPath
}

// ExcludeEntries returns the collapsed exclude set for a manifest.
func ExcludeEntries(m *bundle.Manifest) []string {
	targets := Targets(m)
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, ExcludeEntry(t))
	}
	return out
}
