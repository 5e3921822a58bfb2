package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlekit/cli/internal/bundle"
)

func TestValidTemplates(t *testing.T) {
	names := ValidTemplates()
	assert.Len(t, names, 3)
	assert.Contains(t, names, "prompt")
	assert.Contains(t, names, "skill")
	assert.Contains(t, names, "full")
}

func TestIsValidTemplate(t *testing.T) {
	assert.True(t, IsValidTemplate("prompt"))
	assert.True(t, IsValidTemplate("skill"))
	assert.True(t, IsValidTemplate("full"))
	assert.False(t, IsValidTemplate("advanced"))
	assert.False(t, IsValidTemplate(""))
}

func TestRenderPrompt(t *testing.T) {
	dir := t.TempDir()

	created, err := Render(Prompt, dir, TemplateData{
		BundleID: "code-review",
		Title:    "Code Review",
		Version:  "0.1.0",
	})
	require.NoError(t, err)
	assert.Contains(t, created, "bundle.yaml")
	assert.Contains(t, created, "code-review.prompt.md")

	// The rendered bundle must load and carry the substituted values.
	m, err := bundle.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "code-review", m.ID)
	assert.Equal(t, "0.1.0", m.Version)
	require.Len(t, m.Contents, 1)
	assert.Equal(t, "code-review.prompt.md", m.Contents[0].Path)

	data, err := os.ReadFile(filepath.Join(dir, "code-review.prompt.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Code Review")
}

func TestRenderSkill(t *testing.T) {
	dir := t.TempDir()

	created, err := Render(Skill, dir, TemplateData{
		BundleID: "deploy-helper",
		Title:    "Deploy Helper",
		Version:  "0.1.0",
	})
	require.NoError(t, err)
	assert.Contains(t, created, "bundle.yaml")
	assert.Contains(t, created, "skill/SKILL.md")

	m, err := bundle.Load(dir)
	require.NoError(t, err)
	require.Len(t, m.Contents, 1)
	assert.Equal(t, bundle.TypeSkill, m.Contents[0].EffectiveType())
}

func TestRenderFull(t *testing.T) {
	dir := t.TempDir()

	_, err := Render(Full, dir, TemplateData{
		BundleID: "helper",
		Title:    "Helper",
		Version:  "0.1.0",
	})
	require.NoError(t, err)

	m, err := bundle.Load(dir)
	require.NoError(t, err)
	assert.Len(t, m.Contents, 3)

	for _, name := range []string{"helper.prompt.md", "helper.agent.md", "helper.instructions.md"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render(TemplateName("nope"), t.TempDir(), TemplateData{})
	require.Error(t, err)
}

func TestListTemplateFiles(t *testing.T) {
	files, err := ListTemplateFiles(Prompt)
	require.NoError(t, err)
	assert.Contains(t, files, "bundle.yaml")
}
