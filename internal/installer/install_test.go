package installer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/lockfile"
)

// testBundle lays out an extracted bundle directory with one prompt, one
// agent, and one two-file skill.
func testBundle(t *testing.T) (string, *bundle.Manifest) {
	t.Helper()
	dir := t.TempDir()

	write := func(rel, content string) {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	write("prompts/greet.prompt.md", "greet prompt")
	write("agents/reviewer.agent.md", "reviewer agent")
	write("skills/deploy/SKILL.md", "deploy skill")
	write("skills/deploy/scripts/run.sh", "#!/bin/sh\n")

	m := &bundle.Manifest{
		ID:      "b1",
		Version: "1.0.0",
		Contents: []bundle.ContentEntry{
			{ID: "greet", Path: "prompts/greet.prompt.md", Type: bundle.TypePrompt},
			{ID: "reviewer", Path: "agents/reviewer.agent.md", Type: bundle.TypeAgent},
			{ID: "Deploy Helper", Path: "skills/deploy", Type: bundle.TypeSkill},
		},
	}
	return dir, m
}

// repoRoot creates a target repository with a .git/info directory so the
// exclude patcher has somewhere to write.
func repoRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "info"), 0o755))
	return root
}

func TestInstall_RoutesByType(t *testing.T) {
	bundleDir, m := testBundle(t)
	root := repoRoot(t)

	result, err := New(root).Install(bundleDir, m, bundle.ModeCommit)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, ".github", "prompts", "greet.prompt.md"))
	assert.FileExists(t, filepath.Join(root, ".github", "agents", "reviewer.agent.md"))
	assert.FileExists(t, filepath.Join(root, ".github", "skills", "deploy-helper", "SKILL.md"))
	assert.FileExists(t, filepath.Join(root, ".github", "skills", "deploy-helper", "scripts", "run.sh"))

	// Two flat files plus two skill files tracked, each with a digest.
	require.Len(t, result.Files, 4)
	for _, f := range result.Files {
		assert.NotEmpty(t, f.Checksum)
	}

	// Commit mode writes no excludes.
	_, err = os.Stat(filepath.Join(root, ".git", "info", "exclude"))
	assert.True(t, os.IsNotExist(err))
}

func TestInstall_LocalOnlyWritesCollapsedExcludes(t *testing.T) {
	bundleDir, m := testBundle(t)
	root := repoRoot(t)

	result, err := New(root).Install(bundleDir, m, bundle.ModeLocalOnly)
	require.NoError(t, err)

	// One entry per flat file, one directory entry for the whole skill.
	assert.ElementsMatch(t, []string{
		".github/skills/deploy-helper/",
		".github/prompts/greet.prompt.md",
		".github/agents/reviewer.agent.md",
	}, result.ExcludeEntries)

	data, err := os.ReadFile(filepath.Join(root, ".git", "info", "exclude"))
	require.NoError(t, err)
	assert.Contains(t, string(data), ".github/skills/deploy-helper/")
	assert.NotContains(t, string(data), "SKILL.md")
}

func TestInstall_RollbackLeavesNothing(t *testing.T) {
	bundleDir, m := testBundle(t)
	root := repoRoot(t)

	// A source file named by the manifest but absent on disk fails the
	// copy after earlier entries have already been written.
	m.Contents = append(m.Contents, bundle.ContentEntry{
		ID: "broken", Path: "prompts/missing.prompt.md", Type: bundle.TypePrompt,
	})

	_, err := New(root).Install(bundleDir, m, bundle.ModeCommit)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPartialInstall))

	assert.NoFileExists(t, filepath.Join(root, ".github", "prompts", "greet.prompt.md"))
	assert.NoFileExists(t, filepath.Join(root, ".github", "agents", "reviewer.agent.md"))
	assert.NoDirExists(t, filepath.Join(root, ".github", "skills", "deploy-helper"))
}

func TestUninstall_FromManifest(t *testing.T) {
	bundleDir, m := testBundle(t)
	root := repoRoot(t)
	inst := New(root)

	result, err := inst.Install(bundleDir, m, bundle.ModeLocalOnly)
	require.NoError(t, err)

	entry := lockfile.BundleEntry{Files: result.Files, CommitMode: bundle.ModeLocalOnly}
	require.NoError(t, inst.Uninstall(m, entry))

	assert.NoFileExists(t, filepath.Join(root, ".github", "prompts", "greet.prompt.md"))
	assert.NoDirExists(t, filepath.Join(root, ".github", "skills", "deploy-helper"))

	data, _ := os.ReadFile(filepath.Join(root, ".git", "info", "exclude"))
	assert.NotContains(t, string(data), "deploy-helper")
}

func TestUninstall_FallbackFromRecords(t *testing.T) {
	bundleDir, m := testBundle(t)
	root := repoRoot(t)
	inst := New(root)

	result, err := inst.Install(bundleDir, m, bundle.ModeCommit)
	require.NoError(t, err)

	// Manifest unavailable: only the lockfile records remain.
	entry := lockfile.BundleEntry{Files: result.Files, CommitMode: bundle.ModeCommit}
	require.NoError(t, inst.Uninstall(nil, entry))

	assert.NoFileExists(t, filepath.Join(root, ".github", "prompts", "greet.prompt.md"))
	assert.NoFileExists(t, filepath.Join(root, ".github", "agents", "reviewer.agent.md"))
	assert.NoDirExists(t, filepath.Join(root, ".github", "skills", "deploy-helper"))
}

func TestUninstall_MissingFilesAreNoOps(t *testing.T) {
	bundleDir, m := testBundle(t)
	root := repoRoot(t)
	inst := New(root)

	result, err := inst.Install(bundleDir, m, bundle.ModeCommit)
	require.NoError(t, err)

	// Someone already deleted a file by hand.
	require.NoError(t, os.Remove(filepath.Join(root, ".github", "prompts", "greet.prompt.md")))

	entry := lockfile.BundleEntry{Files: result.Files}
	assert.NoError(t, inst.Uninstall(m, entry))
}

func TestTargetFor(t *testing.T) {
	prompt := TargetFor(bundle.ContentEntry{ID: "p", Path: "x/y.prompt.md", Type: bundle.TypePrompt})
	assert.Equal(t, ".github/prompts/y.prompt.md", prompt.RelPath)
	assert.False(t, prompt.IsDir)

	skill := TargetFor(bundle.ContentEntry{ID: "My Skill", Path: "skills/s", Type: bundle.TypeSkill})
	assert.Equal(t, ".github/skills/my-skill", skill.RelPath)
	assert.True(t, skill.IsDir)
}

func TestSkillRootOf(t *testing.T) {
	root, ok := skillRootOf(".github/skills/deploy/scripts/run.sh")
	assert.True(t, ok)
	assert.Equal(t, ".github/skills/deploy", root)

	_, ok = skillRootOf(".github/prompts/x.prompt.md")
	assert.False(t, ok)
}
