package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/gitexclude"
	"github.com/bundlekit/cli/internal/lockfile"
	"github.com/bundlekit/cli/internal/testutil"
	"github.com/bundlekit/cli/internal/userstore"
)

// setupRepo creates a git repository, an isolated home, and a bundle to
// install, and chdirs into the repository.
func setupRepo(t *testing.T) (repoDir, bundleDir string) {
	t.Helper()

	repoDir = t.TempDir()
	testutil.InitRepo(t, repoDir)
	t.Chdir(repoDir)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("BKIT_CONFIG", filepath.Join(home, ".bkit", "config.yaml"))
	t.Setenv("BKIT_CACHE_DIR", filepath.Join(home, ".bkit", "cache"))
	t.Setenv("BKIT_STORE_DIR", filepath.Join(home, ".bkit", "store"))

	bundleDir = t.TempDir()
	testutil.WriteBundle(t, bundleDir, `
id: code-review
version: 1.0.0
contents:
  - id: review
    path: review.prompt.md
`, map[string]string{
		"review.prompt.md": "Review this code.\n",
	})

	return repoDir, bundleDir
}

// setupNoRepo is like setupRepo but chdirs into a plain directory with no
// git repository anywhere above it.
func setupNoRepo(t *testing.T) (home, bundleDir string) {
	t.Helper()

	t.Chdir(t.TempDir())

	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("BKIT_CONFIG", filepath.Join(home, ".bkit", "config.yaml"))
	t.Setenv("BKIT_CACHE_DIR", filepath.Join(home, ".bkit", "cache"))
	t.Setenv("BKIT_STORE_DIR", filepath.Join(home, ".bkit", "store"))

	bundleDir = t.TempDir()
	testutil.WriteBundle(t, bundleDir, `
id: code-review
version: 1.0.0
contents:
  - id: review
    path: review.prompt.md
`, map[string]string{
		"review.prompt.md": "Review this code.\n",
	})

	return home, bundleDir
}

func TestInstall_RepositoryScope(t *testing.T) {
	repoDir, bundleDir := setupRepo(t)

	require.NoError(t, runInstall(context.Background(), bundleDir, "repository", "commit", false))

	assert.FileExists(t, filepath.Join(repoDir, ".github", "prompts", "review.prompt.md"))
	assert.FileExists(t, filepath.Join(repoDir, lockfile.Name))

	store := lockfile.NewStore(repoDir)
	l, err := store.Read()
	require.NoError(t, err)
	require.NotNil(t, l)
	entry, err := l.Entry("code-review")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", entry.Version)
}

func TestInstall_ScopeConflict(t *testing.T) {
	_, bundleDir := setupRepo(t)

	require.NoError(t, runInstall(context.Background(), bundleDir, "repository", "commit", false))

	err := runInstall(context.Background(), bundleDir, "user", "", false)
	require.Error(t, err)
	assert.Equal(t, ExitScopeConflict, ExitCodeFromError(err))
}

func TestInstall_ScopeConflictOutsideRepo(t *testing.T) {
	home, bundleDir := setupNoRepo(t)

	require.NoError(t, runInstall(context.Background(), bundleDir, "workspace", "", false))

	err := runInstall(context.Background(), bundleDir, "user", "", false)
	require.Error(t, err)
	assert.Equal(t, ExitScopeConflict, ExitCodeFromError(err))

	// The workspace install stays the only one.
	index := userstore.NewIndex(filepath.Join(home, ".bkit", userstore.IndexName))
	ws, err := index.Installed(bundle.ScopeWorkspace)
	require.NoError(t, err)
	assert.Len(t, ws, 1)
	us, err := index.Installed(bundle.ScopeUser)
	require.NoError(t, err)
	assert.Empty(t, us)
}

func TestInstall_ForceMovesScopeOutsideRepo(t *testing.T) {
	home, bundleDir := setupNoRepo(t)

	require.NoError(t, runInstall(context.Background(), bundleDir, "workspace", "", false))
	require.NoError(t, runInstall(context.Background(), bundleDir, "user", "", true))

	index := userstore.NewIndex(filepath.Join(home, ".bkit", userstore.IndexName))
	ws, err := index.Installed(bundle.ScopeWorkspace)
	require.NoError(t, err)
	assert.Empty(t, ws)
	us, err := index.Installed(bundle.ScopeUser)
	require.NoError(t, err)
	assert.Len(t, us, 1)
}

func TestInstall_ForceMovesScope(t *testing.T) {
	repoDir, bundleDir := setupRepo(t)

	require.NoError(t, runInstall(context.Background(), bundleDir, "repository", "commit", false))
	require.NoError(t, runInstall(context.Background(), bundleDir, "user", "", true))

	// Repository install is gone, user install exists.
	assert.NoFileExists(t, filepath.Join(repoDir, ".github", "prompts", "review.prompt.md"))
	assert.NoFileExists(t, filepath.Join(repoDir, lockfile.Name))
}

func TestInstall_LocalOnlyPatchesExclude(t *testing.T) {
	repoDir, bundleDir := setupRepo(t)

	require.NoError(t, runInstall(context.Background(), bundleDir, "repository", "local-only", false))

	data, err := os.ReadFile(filepath.Join(repoDir, ".git", "info", "exclude"))
	require.NoError(t, err)
	assert.Contains(t, string(data), gitexclude.Header)
	assert.Contains(t, string(data), ".github/prompts/review.prompt.md")
}

func TestModeSwitch(t *testing.T) {
	repoDir, bundleDir := setupRepo(t)

	require.NoError(t, runInstall(context.Background(), bundleDir, "repository", "commit", false))
	require.NoError(t, runMode("code-review", "local-only"))

	data, err := os.ReadFile(filepath.Join(repoDir, ".git", "info", "exclude"))
	require.NoError(t, err)
	assert.Contains(t, string(data), ".github/prompts/review.prompt.md")

	require.NoError(t, runMode("code-review", "commit"))

	data, err = os.ReadFile(filepath.Join(repoDir, ".git", "info", "exclude"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), ".github/prompts/review.prompt.md")
}

func TestUninstall_RepositoryScope(t *testing.T) {
	repoDir, bundleDir := setupRepo(t)

	require.NoError(t, runInstall(context.Background(), bundleDir, "repository", "commit", false))
	require.NoError(t, runUninstall("code-review", ""))

	assert.NoFileExists(t, filepath.Join(repoDir, ".github", "prompts", "review.prompt.md"))
	assert.NoFileExists(t, filepath.Join(repoDir, lockfile.Name))
}

func TestUninstall_NotInstalled(t *testing.T) {
	setupRepo(t)

	err := runUninstall("no-such-bundle", "")
	require.Error(t, err)
	assert.Equal(t, ExitNotFound, ExitCodeFromError(err))
}

func TestMove_ToUserAndBack(t *testing.T) {
	repoDir, bundleDir := setupRepo(t)

	require.NoError(t, runInstall(context.Background(), bundleDir, "repository", "commit", false))
	require.NoError(t, runMove("code-review", "user", ""))

	assert.NoFileExists(t, filepath.Join(repoDir, lockfile.Name))

	require.NoError(t, runMove("code-review", "repository", "commit"))
	assert.FileExists(t, filepath.Join(repoDir, ".github", "prompts", "review.prompt.md"))
}

func TestStale_RemovesVanishedEntries(t *testing.T) {
	repoDir, bundleDir := setupRepo(t)

	require.NoError(t, runInstall(context.Background(), bundleDir, "repository", "commit", false))
	require.NoError(t, os.Remove(filepath.Join(repoDir, ".github", "prompts", "review.prompt.md")))

	require.NoError(t, runStale(true, true))

	assert.NoFileExists(t, filepath.Join(repoDir, lockfile.Name))
}

func TestStale_CleansExcludeEntries(t *testing.T) {
	repoDir, bundleDir := setupRepo(t)

	require.NoError(t, runInstall(context.Background(), bundleDir, "repository", "local-only", false))
	require.NoError(t, os.Remove(filepath.Join(repoDir, ".github", "prompts", "review.prompt.md")))

	require.NoError(t, runStale(true, true))

	data, err := os.ReadFile(filepath.Join(repoDir, ".git", "info", "exclude"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), ".github/prompts/review.prompt.md")
}

func TestUninstall_EvictsCache(t *testing.T) {
	_, bundleDir := setupRepo(t)

	require.NoError(t, runInstall(context.Background(), bundleDir, "repository", "commit", false))
	cached := filepath.Join(os.Getenv("BKIT_CACHE_DIR"), "code-review", "1.0.0")
	require.DirExists(t, cached)

	require.NoError(t, runUninstall("code-review", ""))
	assert.NoDirExists(t, cached)
}

func TestVerify_DetectsDrift(t *testing.T) {
	repoDir, bundleDir := setupRepo(t)

	require.NoError(t, runInstall(context.Background(), bundleDir, "repository", "commit", false))
	require.NoError(t, runVerify("code-review", false))

	installed := filepath.Join(repoDir, ".github", "prompts", "review.prompt.md")
	require.NoError(t, os.WriteFile(installed, []byte("edited\n"), 0o644))

	err := runVerify("code-review", false)
	require.Error(t, err)
}

func TestSync_ReinstallsMissing(t *testing.T) {
	repoDir, bundleDir := setupRepo(t)

	require.NoError(t, runInstall(context.Background(), bundleDir, "repository", "commit", false))

	installed := filepath.Join(repoDir, ".github", "prompts", "review.prompt.md")
	require.NoError(t, os.Remove(installed))

	require.NoError(t, runSync(context.Background()))
	assert.FileExists(t, installed)
}

func TestList_Formats(t *testing.T) {
	_, bundleDir := setupRepo(t)

	require.NoError(t, runInstall(context.Background(), bundleDir, "repository", "commit", false))

	require.NoError(t, runList("table", ""))
	require.NoError(t, runList("json", ""))
	require.NoError(t, runList("yaml", ""))

	err := runList("xml", "")
	require.Error(t, err)
	assert.Equal(t, ExitGeneralError, ExitCodeFromError(err))
}
