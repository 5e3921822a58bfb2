// Package bundle provides the bundle manifest data model and loading.
//
// A bundle is an extracted directory containing a deployment manifest
// (bundle.yaml or bundle.json) plus the content files it describes. The
// retrieval layer hands the engine a path to that directory; no network or
// archive handling happens here.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"
)

// ContentType classifies a content entry and determines its target directory.
type ContentType string

// Content types.
const (
	TypePrompt      ContentType = "prompt"
	TypeAgent       ContentType = "agent"
	TypeInstruction ContentType = "instruction"
	TypeSkill       ContentType = "skill"
)

// manifestNames are the accepted manifest file names, in lookup order.
var manifestNames = []string{"bundle.yaml", "bundle.yml", "bundle.json"}

// Manifest describes a bundle: identity, provenance, and its content entries.
type Manifest struct {
	// ID is the bundle identifier, unique within a source.
	ID string `json:"id"`

	// Version is the bundle version (semver expected, not enforced here).
	Version string `json:"version"`

	// Author is free-form provenance.
	Author string `json:"author,omitempty"`

	// Tags are free-form labels on the bundle itself.
	Tags []string `json:"tags,omitempty"`

	// Contents lists the files and skill directories the bundle installs.
	Contents []ContentEntry `json:"contents"`
}

// ContentEntry is a single installable item inside a bundle.
type ContentEntry struct {
	// ID identifies the entry within the bundle.
	ID string `json:"id"`

	// Path is the entry's source path relative to the bundle directory.
	// For skills this is a directory; for everything else a single file.
	Path string `json:"path"`

	// Type is the explicit content type. When empty, the type is inferred
	// from Tags and then from the file name (see EffectiveType).
	Type ContentType `json:"type,omitempty"`

	// Tags are free-form labels, consulted for type inference.
	Tags []string `json:"tags,omitempty"`
}

// EffectiveType resolves the entry's content type. Explicit Type wins, then
// a matching tag, then the conventional file-name suffix. Entries that match
// nothing default to prompt.
func (e ContentEntry) EffectiveType() ContentType {
	if e.Type != "" {
		return e.Type
	}

	for _, tag := range e.Tags {
		switch ContentType(strings.ToLower(tag)) {
		case TypePrompt, TypeAgent, TypeInstruction, TypeSkill:
			return ContentType(strings.ToLower(tag))
		}
	}

	name := filepath.Base(e.Path)
	switch {
	case strings.HasSuffix(name, ".prompt.md"):
		return TypePrompt
	case strings.HasSuffix(name, ".agent.md"):
		return TypeAgent
	case strings.HasSuffix(name, ".instructions.md"):
		return TypeInstruction
	}

	return TypePrompt
}

// Load reads and parses the manifest from an extracted bundle directory.
// Returns os.ErrNotExist (wrapped) when no manifest file is present.
func Load(dir string) (*Manifest, error) {
	var path string
	for _, name := range manifestNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
			break
		}
	}
	if path == "" {
		return nil, fmt.Errorf("no bundle manifest in %s: %w", dir, os.ErrNotExist)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	if m.ID == "" {
		return nil, fmt.Errorf("manifest %s has no bundle id", path)
	}
	if m.Version == "" {
		return nil, fmt.Errorf("manifest %s has no version", path)
	}

	return &m, nil
}

// NormalizeID converts a bundle or entry id into a filesystem-safe directory
// name: lowercase, with runs of anything outside [a-z0-9._-] collapsed to a
// single hyphen.
func NormalizeID(id string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(id) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
