package userstore

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

func newIndex(t *testing.T) *Index {
	t.Helper()
	return NewIndex(filepath.Join(t.TempDir(), IndexName))
}

func TestIndex_RecordAndFind(t *testing.T) {
	ix := newIndex(t)

	require.NoError(t, ix.Record(Entry{BundleID: "b1", Scope: bundle.ScopeUser, Version: "1.0.0"}))

	e, found, err := ix.Find("b1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, bundle.ScopeUser, e.Scope)
	assert.False(t, e.InstalledAt.IsZero())

	_, found, err = ix.Find("absent")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIndex_RecordReplacesSameScope(t *testing.T) {
	ix := newIndex(t)

	require.NoError(t, ix.Record(Entry{BundleID: "b1", Scope: bundle.ScopeUser, Version: "1.0.0"}))
	require.NoError(t, ix.Record(Entry{BundleID: "b1", Scope: bundle.ScopeUser, Version: "2.0.0"}))

	installed, err := ix.Installed(bundle.ScopeUser)
	require.NoError(t, err)
	require.Len(t, installed, 1)
	assert.Equal(t, "2.0.0", installed[0].Version)
}

func TestIndex_InstalledFiltersByScope(t *testing.T) {
	ix := newIndex(t)

	require.NoError(t, ix.Record(Entry{BundleID: "b1", Scope: bundle.ScopeUser}))
	require.NoError(t, ix.Record(Entry{BundleID: "b2", Scope: bundle.ScopeWorkspace}))

	user, err := ix.Installed(bundle.ScopeUser)
	require.NoError(t, err)
	require.Len(t, user, 1)
	assert.Equal(t, "b1", user[0].BundleID)
}

func TestIndex_Remove(t *testing.T) {
	ix := newIndex(t)

	require.NoError(t, ix.Record(Entry{BundleID: "b1", Scope: bundle.ScopeUser}))
	require.NoError(t, ix.Remove("b1", bundle.ScopeUser))

	_, found, err := ix.Find("b1")
	require.NoError(t, err)
	assert.False(t, found)

	err = ix.Remove("b1", bundle.ScopeUser)
	assert.True(t, errors.Is(err, lockfile.ErrNotFound))
}

func TestIndex_RejectsRepositoryScope(t *testing.T) {
	ix := newIndex(t)

	assert.Error(t, ix.Record(Entry{BundleID: "b1", Scope: bundle.ScopeRepository}))
	_, err := ix.Installed(bundle.ScopeRepository)
	assert.Error(t, err)
}

func TestCopyBundle(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "prompts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "prompts", "x.prompt.md"), []byte("x"), 0o644))

	storeDir := t.TempDir()
	dst, err := CopyBundle(storeDir, bundle.ScopeUser, "My Bundle", src)
	require.NoError(t, err)

	assert.Equal(t, ContentDir(storeDir, bundle.ScopeUser, "My Bundle"), dst)
	assert.FileExists(t, filepath.Join(dst, "prompts", "x.prompt.md"))

	require.NoError(t, RemoveBundle(storeDir, bundle.ScopeUser, "My Bundle"))
	assert.NoDirExists(t, dst)
}
