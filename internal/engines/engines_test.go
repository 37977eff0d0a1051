package engines

import (
	"context"
	"errors"
	"strings"
	"testing"

	"webforge/internal/ai"
)

type downGenerator struct{}

func (downGenerator) Generate(ctx context.Context, req *ai.Request) (*ai.Response, error) {
	return nil, errors.New("provider down")
}

type cannedGenerator struct{ content string }

func (g cannedGenerator) Generate(ctx context.Context, req *ai.Request) (*ai.Response, error) {
	return &ai.Response{Content: g.content}, nil
}

func TestDesignKeywordFallback(t *testing.T) {
	tests := []struct {
		input       string
		wantPalette string
		wantStyle   string
	}{
		{"build me a website", "violet gradient", "modern"},
		{"a dark portfolio", "midnight", "modern"},
		{"simple blue business site", "ocean", "minimal"},
		{"an exciting orange landing page", "sunset", "bold"},
		// Two palette keywords resolve deterministically.
		{"a dark blue dashboard", "midnight", "modern"},
	}

	engine := NewDesignEngine(nil)
	for _, tt := range tests {
		got := engine.Analyze(context.Background(), tt.input)
		if got.Palette.Name != tt.wantPalette {
			t.Errorf("Analyze(%q) palette = %q, want %q", tt.input, got.Palette.Name, tt.wantPalette)
		}
		if got.Style != tt.wantStyle {
			t.Errorf("Analyze(%q) style = %q, want %q", tt.input, got.Style, tt.wantStyle)
		}
	}
}

func TestDesignLLMFailureUsesFallback(t *testing.T) {
	engine := NewDesignEngine(downGenerator{})
	got := engine.Analyze(context.Background(), "a dark site")
	if got.Palette.Name != "midnight" {
		t.Errorf("palette = %q, want the keyword fallback", got.Palette.Name)
	}
}

func TestContentToneDetection(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a fun page for my cat", "playful"},
		{"a bold exciting launch page", "bold"},
		{"corporate business site", "professional"},
		{"a website", "friendly"},
	}
	for _, tt := range tests {
		if got := detectTone(tt.input); got != tt.want {
			t.Errorf("detectTone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestContentFallbackIsComplete(t *testing.T) {
	engine := NewContentEngine(nil)
	content := engine.Generate(context.Background(), "Bakery", "a bakery website")

	if content.Title != "Bakery" || content.HeroTitle == "" || content.CTALabel == "" {
		t.Errorf("incomplete content: %+v", content)
	}
	if len(content.Features) != 3 {
		t.Errorf("features = %d, want 3", len(content.Features))
	}
	if !strings.Contains(content.AboutText, "a bakery website") {
		t.Error("about text should echo the request")
	}
}

func TestCodeTemplateOutput(t *testing.T) {
	design := NewDesignEngine(nil).Analyze(context.Background(), "a blue website")
	content := NewContentEngine(nil).Generate(context.Background(), "Demo", "a blue website")

	files := NewCodeEngine(nil).Generate(context.Background(), "a blue website", design, content)

	for _, name := range []string{"index.html", "styles.css", "script.js"} {
		if files[name] == "" {
			t.Fatalf("missing %s", name)
		}
	}

	index := files["index.html"]
	for _, want := range []string{"<!DOCTYPE html>", "viewport", "<nav", "<button", "@media", "<h1>"} {
		if !strings.Contains(index, want) {
			t.Errorf("index.html missing %q", want)
		}
	}
	if !strings.Contains(files["styles.css"], design.Palette.Primary) {
		t.Error("stylesheet missing the primary color")
	}
}

func TestCodeLLMReplyValidated(t *testing.T) {
	design := NewDesignEngine(nil).Analyze(context.Background(), "x")
	content := NewContentEngine(nil).Generate(context.Background(), "X", "x")

	// A reply without real HTML is discarded for the template.
	engine := NewCodeEngine(cannedGenerator{content: `{"index.html": "not markup", "styles.css": "", "script.js": ""}`})
	files := engine.Generate(context.Background(), "x", design, content)
	if !strings.Contains(files["index.html"], "<!DOCTYPE html>") {
		t.Error("invalid LLM page should fall back to the template")
	}
}

func TestHealAppliesOnlyKnownFiles(t *testing.T) {
	engine := NewCodeEngine(cannedGenerator{content: `{
		"diagnosis": "missing heading",
		"patches": {
			"index.html": "<!DOCTYPE html><html><body><h1>Fixed</h1></body></html>",
			"evil.sh": "rm -rf /"
		}
	}`})

	files := SiteFiles{"index.html": "<!DOCTYPE html><html></html>", "styles.css": "body{}"}
	patched, applied := engine.Heal(context.Background(), files, "- t1: no heading")

	if applied != 1 {
		t.Fatalf("applied = %d, want 1", applied)
	}
	if !strings.Contains(patched["index.html"], "Fixed") {
		t.Error("index.html was not patched")
	}
	if _, ok := patched["evil.sh"]; ok {
		t.Error("heal introduced an unknown file")
	}
	if patched["styles.css"] != "body{}" {
		t.Error("untouched file changed")
	}
}

func TestHealLLMFailureLeavesFilesAlone(t *testing.T) {
	engine := NewCodeEngine(downGenerator{})
	files := SiteFiles{"index.html": "original"}

	patched, applied := engine.Heal(context.Background(), files, "- t1: broken")
	if applied != 0 {
		t.Errorf("applied = %d, want 0", applied)
	}
	if patched["index.html"] != "original" {
		t.Error("files changed despite provider failure")
	}
}

func TestAnalyticsThresholdAlerts(t *testing.T) {
	a := NewAnalytics(AlertThresholds{BuildFailureStreak: 2, MinPassRate: 50})

	a.BuildStarted()
	a.BuildFinished("ready", 100)

	a.BuildStarted()
	a.BuildFinished("failed", 0)
	a.BuildStarted()
	a.BuildFinished("failed", 10)

	snap := a.Snapshot()
	if snap.BuildsReady != 1 || snap.BuildsFailed != 2 {
		t.Errorf("counts ready=%d failed=%d", snap.BuildsReady, snap.BuildsFailed)
	}
	if snap.FailureStreak != 2 {
		t.Errorf("failure streak = %d, want 2", snap.FailureStreak)
	}

	var sawStreak, sawLowRate bool
	for _, alert := range snap.Alerts {
		switch alert.Kind {
		case "failure_streak":
			sawStreak = true
		case "low_pass_rate":
			sawLowRate = true
		}
	}
	if !sawStreak || !sawLowRate {
		t.Errorf("alerts = %+v", snap.Alerts)
	}

	// A success resets the streak.
	a.BuildStarted()
	a.BuildFinished("ready", 95)
	if got := a.Snapshot().FailureStreak; got != 0 {
		t.Errorf("streak after success = %d, want 0", got)
	}
}
