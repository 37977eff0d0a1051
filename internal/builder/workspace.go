// Package builder runs the chat-to-website pipeline: requirement
// extraction, design and content generation, code generation, regression
// testing, and the bounded self-healing retry loop.
package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"webforge/internal/engines"
)

var slugRe = regexp.MustCompile(`[^a-z0-9-]+`)

// fillerWords are skipped when deriving a site name from the request.
var fillerWords = map[string]bool{
	"a": true, "an": true, "the": true, "build": true, "create": true,
	"make": true, "me": true, "my": true, "please": true, "want": true,
	"i": true, "for": true, "with": true, "website": true, "site": true,
	"page": true, "app": true, "new": true, "simple": true,
}

// SiteName derives a short display name from the user's request, falling
// back to "My Site" when nothing usable remains.
func SiteName(userInput string) string {
	var kept []string
	for _, w := range strings.Fields(userInput) {
		w = strings.Trim(strings.ToLower(w), ".,!?\"'")
		if w == "" || fillerWords[w] {
			continue
		}
		kept = append(kept, w)
		if len(kept) == 3 {
			break
		}
	}
	if len(kept) == 0 {
		return "My Site"
	}
	for i, w := range kept {
		kept[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(kept, " ")
}

// Slug builds a filesystem-safe unique project slug: the lowercased name
// plus a timestamp, e.g. portfolio-20260830-142501.
func Slug(name string, now time.Time) string {
	base := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	base = slugRe.ReplaceAllString(base, "")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "site"
	}
	if len(base) > 40 {
		base = base[:40]
	}
	return fmt.Sprintf("%s-%s", base, now.Format("20060102-150405"))
}

// Workspace writes generated sites under a root directory, one
// subdirectory per project slug.
type Workspace struct {
	Root string
}

// NewWorkspace ensures the root directory exists.
func NewWorkspace(root string) (*Workspace, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	return &Workspace{Root: root}, nil
}

// ProjectDir returns the directory of one project.
func (w *Workspace) ProjectDir(slug string) string {
	return filepath.Join(w.Root, slug)
}

// WriteFiles writes all site files for a slug, replacing existing
// contents. Returns the sorted list of written file names.
func (w *Workspace) WriteFiles(slug string, files engines.SiteFiles) ([]string, error) {
	dir := w.ProjectDir(slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}

	names := make([]string, 0, len(files))
	for name, body := range files {
		// Generated names are flat; reject anything that escapes the dir.
		if filepath.Base(name) != name {
			return nil, fmt.Errorf("invalid generated file name %q", name)
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ReadFiles loads a project's files back from disk.
func (w *Workspace) ReadFiles(slug string) (engines.SiteFiles, error) {
	dir := w.ProjectDir(slug)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read project dir: %w", err)
	}
	files := make(engines.SiteFiles, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		body, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		files[entry.Name()] = string(body)
	}
	return files, nil
}
