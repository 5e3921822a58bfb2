package lockfile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/checksum"
)

func testEntry(files ...FileRecord) BundleEntry {
	return BundleEntry{
		Version:    "1.0.0",
		SourceID:   "src-1",
		SourceType: "registry",
		CommitMode: bundle.ModeCommit,
		Files:      files,
	}
}

func testSource() Source {
	return Source{Type: "registry", URL: "https://registry.example.com"}
}

// writeTracked creates a file under the root and returns its record.
func writeTracked(t *testing.T, root, rel, content string) FileRecord {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	return FileRecord{Path: rel, Checksum: checksum.Bytes([]byte(content))}
}

func TestRead_AbsentIsNotAnError(t *testing.T) {
	s := NewStore(t.TempDir())

	l, err := s.Read()
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestRead_CorruptIsNeverAbsent(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))

	_, err := s.Read()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestCreateOrUpdate_CreatesFile(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	f := writeTracked(t, root, ".github/prompts/x.prompt.md", "x")
	require.NoError(t, s.CreateOrUpdate("b1", testEntry(f), testSource()))

	l, err := s.Read()
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, FormatVersion, l.Version)
	assert.NotEmpty(t, l.GeneratedBy)

	entry, err := l.Entry("b1")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", entry.Version)
	assert.False(t, entry.InstalledAt.IsZero())
	assert.Equal(t, testSource(), l.Sources["src-1"])
}

func TestCreateOrUpdate_ReplacesEntryKeepsSource(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	require.NoError(t, s.CreateOrUpdate("b1", testEntry(), testSource()))

	updated := testEntry()
	updated.Version = "2.0.0"
	// A different descriptor for an existing source id must not overwrite it.
	require.NoError(t, s.CreateOrUpdate("b1", updated, Source{Type: "git", URL: "elsewhere"}))

	l, err := s.Read()
	require.NoError(t, err)
	assert.Len(t, l.Bundles, 1)
	entry, _ := l.Entry("b1")
	assert.Equal(t, "2.0.0", entry.Version)
	assert.Equal(t, testSource(), l.Sources["src-1"])
}

func TestRemove_LastEntryDeletesFileAndNotifiesNil(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	var notifications []*Lockfile
	s.Subscribe(func(l *Lockfile) {
		notifications = append(notifications, l)
	})

	require.NoError(t, s.CreateOrUpdate("b1", testEntry(), testSource()))
	require.NoError(t, s.Remove("b1"))

	_, err := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))

	require.Len(t, notifications, 2)
	assert.NotNil(t, notifications[0])
	assert.Nil(t, notifications[1], "last removal must notify with an explicit absent value")
}

func TestRemove_OtherEntrySurvivesUnchanged(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	require.NoError(t, s.CreateOrUpdate("b1", testEntry(), testSource()))
	keep := testEntry()
	keep.Version = "3.1.4"
	require.NoError(t, s.CreateOrUpdate("b2", keep, testSource()))

	before, err := s.Read()
	require.NoError(t, err)
	wantB2 := before.Bundles["b2"]

	require.NoError(t, s.Remove("b1"))

	after, err := s.Read()
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Len(t, after.Bundles, 1)
	assert.Equal(t, wantB2, after.Bundles["b2"])
}

func TestRemove_MissingEntry(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	err := s.Remove("nope")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.CreateOrUpdate("b1", testEntry(), testSource()))
	err = s.Remove("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestInstalledBundles_FilesMissing(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	healthy := writeTracked(t, root, ".github/prompts/ok.prompt.md", "ok")
	require.NoError(t, s.CreateOrUpdate("healthy", testEntry(healthy), testSource()))

	gone := writeTracked(t, root, ".github/prompts/gone.prompt.md", "gone")
	require.NoError(t, s.CreateOrUpdate("stale", testEntry(gone), testSource()))
	require.NoError(t, os.Remove(filepath.Join(root, ".github", "prompts", "gone.prompt.md")))

	// Zero tracked files is never "missing".
	require.NoError(t, s.CreateOrUpdate("empty", testEntry(), testSource()))

	installed, err := s.InstalledBundles()
	require.NoError(t, err)
	require.Len(t, installed, 3)

	byID := make(map[string]InstalledBundle)
	for _, b := range installed {
		byID[b.ID] = b
	}
	assert.False(t, byID["healthy"].FilesMissing)
	assert.True(t, byID["stale"].FilesMissing)
	assert.False(t, byID["empty"].FilesMissing)
}

func TestDetectModifiedFiles(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	ok := writeTracked(t, root, ".github/prompts/ok.prompt.md", "ok")
	edited := writeTracked(t, root, ".github/prompts/edited.prompt.md", "original")
	gone := writeTracked(t, root, ".github/prompts/gone.prompt.md", "gone")
	require.NoError(t, s.CreateOrUpdate("b1", testEntry(ok, edited, gone), testSource()))

	// Fresh install: no drift.
	modified, err := s.DetectModifiedFiles("b1")
	require.NoError(t, err)
	assert.Empty(t, modified)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".github", "prompts", "edited.prompt.md"), []byte("tampered"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(root, ".github", "prompts", "gone.prompt.md")))

	modified, err = s.DetectModifiedFiles("b1")
	require.NoError(t, err)
	require.Len(t, modified, 2)

	byPath := make(map[string]ModifiedFile)
	for _, m := range modified {
		byPath[m.Path] = m
	}

	drifted := byPath[".github/prompts/edited.prompt.md"]
	assert.False(t, drifted.Missing)
	assert.NotEqual(t, drifted.ExpectedChecksum, drifted.ActualChecksum)

	missing := byPath[".github/prompts/gone.prompt.md"]
	assert.True(t, missing.Missing)
	assert.Empty(t, missing.ActualChecksum)
}

func TestLockfile_UnknownKeysRoundTrip(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	doc := `{
  "version": 1,
  "generatedAt": "2026-01-01T00:00:00Z",
  "generatedBy": "other tool",
  "bundles": {"b1": {"version": "1.0.0", "sourceId": "src-1", "sourceType": "registry", "installedAt": "2026-01-01T00:00:00Z", "commitMode": "commit", "files": []}},
  "sources": {"src-1": {"type": "registry"}},
  "profiles": {"default": ["b1"]},
  "hubs": [{"name": "main"}]
}`
	require.NoError(t, os.WriteFile(s.Path(), []byte(doc), 0o644))

	// Read-modify-write through the store.
	require.NoError(t, s.CreateOrUpdate("b2", testEntry(), testSource()))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `{"default": ["b1"]}`, string(raw["profiles"]))
	assert.JSONEq(t, `[{"name": "main"}]`, string(raw["hubs"]))
}

func TestWrite_LeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	require.NoError(t, s.CreateOrUpdate("b1", testEntry(), testSource()))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Name, entries[0].Name())
}
