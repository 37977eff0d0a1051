package builder

import (
	"regexp"
	"testing"
	"time"

	"webforge/internal/engines"
)

func TestSiteName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Build me a portfolio website", "Portfolio"},
		{"create a bakery site with online ordering", "Bakery Online Ordering"},
		{"please make my app", ""},
		{"", ""},
	}

	for _, tt := range tests {
		got := SiteName(tt.input)
		if tt.want == "" {
			if got != "My Site" {
				t.Errorf("SiteName(%q) = %q, want the default", tt.input, got)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("SiteName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSlug(t *testing.T) {
	now := time.Date(2026, 8, 30, 14, 25, 1, 0, time.UTC)

	tests := []struct {
		name string
		want string
	}{
		{"Portfolio", "portfolio-20260830-142501"},
		{"My Cool Site!", "my-cool-site-20260830-142501"},
		{"???", "site-20260830-142501"},
	}
	for _, tt := range tests {
		if got := Slug(tt.name, now); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	// Stays filesystem-safe for arbitrary input.
	safe := regexp.MustCompile(`^[a-z0-9-]+$`)
	if got := Slug("Ünïcode & spaces  here", now); !safe.MatchString(got) {
		t.Errorf("Slug produced unsafe characters: %q", got)
	}
}

func TestWorkspaceRoundTrip(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	files := engines.SiteFiles{
		"index.html": "<!DOCTYPE html><html></html>",
		"styles.css": "body {}",
		"script.js":  "console.log('hi');",
	}
	written, err := ws.WriteFiles("demo-20260830-142501", files)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 3 {
		t.Fatalf("wrote %d files, want 3", len(written))
	}

	back, err := ws.ReadFiles("demo-20260830-142501")
	if err != nil {
		t.Fatal(err)
	}
	for name, body := range files {
		if back[name] != body {
			t.Errorf("%s round-tripped as %q", name, back[name])
		}
	}
}

func TestWorkspaceRejectsPathEscape(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	_, err = ws.WriteFiles("demo", engines.SiteFiles{"../evil.html": "x"})
	if err == nil {
		t.Fatal("expected an error for a path-escaping file name")
	}
}
