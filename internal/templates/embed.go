// Package templates provides embedded bundle templates and rendering.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed all:prompt
var promptFS embed.FS

//go:embed all:skill
var skillFS embed.FS

//go:embed all:full
var fullFS embed.FS

// TemplateName represents a template type.
type TemplateName string

const (
	// Prompt is a minimal single-prompt bundle.
	Prompt TemplateName = "prompt"

	// Skill is a bundle carrying one skill directory.
	Skill TemplateName = "skill"

	// Full is a bundle with a prompt, an agent, and instructions.
	Full TemplateName = "full"
)

// ValidTemplates returns all valid template names.
func ValidTemplates() []string {
	return []string{
		string(Prompt),
		string(Skill),
		string(Full),
	}
}

// IsValidTemplate checks if a template name is valid.
func IsValidTemplate(name string) bool {
	switch TemplateName(name) {
	case Prompt, Skill, Full:
		return true
	default:
		return false
	}
}

// TemplateData contains data for template rendering.
type TemplateData struct {
	// BundleID is the bundle identifier in kebab-case (e.g., "code-review").
	BundleID string

	// Title is a human-readable name derived from the id.
	Title string

	// Version is the initial bundle version (e.g., "0.1.0").
	Version string
}

// getFS returns the embedded filesystem for a template.
func getFS(name TemplateName) (embed.FS, string, error) {
	switch name {
	case Prompt:
		return promptFS, "prompt", nil
	case Skill:
		return skillFS, "skill", nil
	case Full:
		return fullFS, "full", nil
	default:
		return embed.FS{}, "", fmt.Errorf("unknown template: %s", name)
	}
}

// Render renders a template to the specified directory.
func Render(templateName TemplateName, targetDir string, data TemplateData) ([]string, error) {
	fsys, rootDir, err := getFS(templateName)
	if err != nil {
		return nil, err
	}

	var createdFiles []string

	err = fs.WalkDir(fsys, rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		targetPath := filepath.Join(targetDir, relPath)

		if d.IsDir() {
			return os.MkdirAll(targetPath, 0o755)
		}

		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", path, err)
		}

		// Remove .tmpl extension and substitute the bundle id into names
		targetPath = strings.TrimSuffix(targetPath, ".tmpl")
		targetPath = strings.ReplaceAll(targetPath, "__id__", data.BundleID)

		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", targetPath, err)
		}

		tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", path, err)
		}

		f, err := os.Create(targetPath)
		if err != nil {
			return fmt.Errorf("creating file %s: %w", targetPath, err)
		}
		defer f.Close()

		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("executing template %s: %w", path, err)
		}

		rendered := strings.ReplaceAll(strings.TrimSuffix(relPath, ".tmpl"), "__id__", data.BundleID)
		createdFiles = append(createdFiles, rendered)
		return nil
	})

	return createdFiles, err
}

// ListTemplateFiles returns all files in a template.
func ListTemplateFiles(templateName TemplateName) ([]string, error) {
	fsys, rootDir, err := getFS(templateName)
	if err != nil {
		return nil, err
	}

	var files []string

	err = fs.WalkDir(fsys, rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}

		files = append(files, strings.TrimSuffix(relPath, ".tmpl"))
		return nil
	})

	return files, err
}
