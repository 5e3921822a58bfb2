package gitexclude

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bundlekit/cli/internal/output"
)

// Header delimits the managed section. The block runs from this line to the
// next header-like comment or end of file.
const Header = "# bkit managed bundles (do not edit)"

// Patcher edits the managed section of one repository's local exclude file.
type Patcher struct {
	root string
}

// NewPatcher creates a patcher for a repository root.
func NewPatcher(root string) *Patcher {
	return &Patcher{root: root}
}

// AddPaths unions paths into the managed section, creating the section and
// the exclude file as needed. No repository under the root is a silent no-op;
// a failed write is reported as a warning, never an error.
func (p *Patcher) AddPaths(paths []string) {
	if len(paths) == 0 {
		return
	}
	p.patch(func(entries map[string]bool) {
		for _, path := range paths {
			entries[path] = true
		}
	})
}

// RemovePaths removes exact-string matches from the managed section. When
// the section becomes empty its header is removed too. Same best-effort
// semantics as AddPaths.
func (p *Patcher) RemovePaths(paths []string) {
	if len(paths) == 0 {
		return
	}
	p.patch(func(entries map[string]bool) {
		for _, path := range paths {
			delete(entries, path)
		}
	})
}

func (p *Patcher) patch(mutate func(entries map[string]bool)) {
	dir, err := gitDir(p.root)
	if err != nil {
		if os.IsNotExist(err) {
			output.Debug("no git repository, skipping exclude bookkeeping", "root", p.root)
			return
		}
		output.Warn("could not resolve git directory, skipping exclude bookkeeping", "root", p.root, "err", err)
		return
	}

	excludePath := filepath.Join(dir, "info", "exclude")

	content := ""
	if data, err := os.ReadFile(excludePath); err == nil {
		content = string(data)
	} else if !os.IsNotExist(err) {
		output.Warn("could not read git exclude file", "path", excludePath, "err", err)
		return
	}

	prefix, entries, suffix := parse(content)
	mutate(entries)
	updated := serialize(prefix, entries, suffix)

	if updated == content {
		return
	}

	if err := writeAtomic(excludePath, updated); err != nil {
		output.Warn("could not update git exclude file", "path", excludePath, "err", err)
	}
}

// parse splits content into the text before the managed section, the set of
// entries inside it, and the text after it. Duplicate entries collapse into
// the set. Without a managed section, everything is prefix.
func parse(content string) (prefix string, entries map[string]bool, suffix string) {
	entries = make(map[string]bool)

	idx := headerIndex(content)
	if idx < 0 {
		return content, entries, ""
	}

	prefix = content[:idx]
	rest := content[idx:]

	lines := strings.Split(rest, "\n")
	// lines[0] is the header itself
	end := len(lines)
	for i := 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "#") {
			end = i
			break
		}
	}

	for _, line := range lines[1:end] {
		line = strings.TrimSpace(line)
		if line != "" {
			entries[line] = true
		}
	}

	suffix = strings.Join(lines[end:], "\n")
	return prefix, entries, suffix
}

// headerIndex finds the byte offset of the managed header at the start of a
// line, or -1.
func headerIndex(content string) int {
	if strings.HasPrefix(content, Header) {
		return 0
	}
	idx := strings.Index(content, "\n"+Header)
	if idx < 0 {
		return -1
	}
	return idx + 1
}

// serialize reassembles the file. Prefix and suffix pass through unchanged.
// An empty entry set produces no section at all, not an empty header.
func serialize(prefix string, entries map[string]bool, suffix string) string {
	if len(entries) == 0 {
		out := prefix + suffix
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		return out
	}

	sorted := make([]string, 0, len(entries))
	for e := range entries {
		sorted = append(sorted, e)
	}
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString(prefix)
	if prefix != "" && !strings.HasSuffix(prefix, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(Header)
	b.WriteString("\n")
	for _, e := range sorted {
		b.WriteString(e)
		b.WriteString("\n")
	}
	b.WriteString(suffix)

	out := b.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}

func writeAtomic(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".exclude-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
