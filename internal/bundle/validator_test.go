package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validManifest() *Manifest {
	return &Manifest{
		ID:      "b1",
		Version: "1.2.3",
		Contents: []ContentEntry{
			{ID: "p", Path: "prompts/p.prompt.md", Type: TypePrompt},
			{ID: "s", Path: "skills/s", Type: TypeSkill},
		},
	}
}

func TestValidator_Valid(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(validManifest()))
}

func TestValidator_BadVersion(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	m := validManifest()
	m.Version = "one"
	assert.Error(t, v.Validate(m))
}

func TestValidator_DuplicateEntryID(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	m := validManifest()
	m.Contents = append(m.Contents, ContentEntry{ID: "p", Path: "other.prompt.md"})

	err = v.Validate(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate entry id")
}

func TestValidator_PathEscape(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	m := validManifest()
	m.Contents[0].Path = "../outside.md"

	err = v.Validate(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes the bundle directory")
}
