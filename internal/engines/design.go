// Package engines holds the specialist generation engines the build
// orchestrator drives: design analysis, copy writing, site code generation,
// and usage analytics. Every engine degrades to deterministic built-in
// output when no AI provider answers.
package engines

import (
	"context"
	"strings"

	"webforge/internal/ai"
)

// Palette is a named set of colors applied across a generated site.
type Palette struct {
	Name       string `json:"name"`
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

// Typography selects the font stack for a generated site.
type Typography struct {
	HeadingFont string `json:"heading_font"`
	BodyFont    string `json:"body_font"`
	BaseSize    string `json:"base_size"`
}

// DesignSystem is the full visual specification handed to the code engine.
type DesignSystem struct {
	Palette    Palette    `json:"palette"`
	Typography Typography `json:"typography"`
	Layout     string     `json:"layout"` // single_page, multi_section, landing
	Style      string     `json:"style"`  // modern, minimal, bold, classic
	Rounded    bool       `json:"rounded"`
	Gradients  bool       `json:"gradients"`
}

// builtinPalettes are the keyword-matched fallbacks used when no provider
// responds. The default gradient pair is the house style.
var builtinPalettes = map[string]Palette{
	"default": {Name: "violet gradient", Primary: "#667eea", Secondary: "#764ba2", Accent: "#f093fb", Background: "#ffffff", Text: "#333333"},
	"dark":    {Name: "midnight", Primary: "#1a1a2e", Secondary: "#16213e", Accent: "#e94560", Background: "#0f0f1a", Text: "#eaeaea"},
	"blue":    {Name: "ocean", Primary: "#1e3a8a", Secondary: "#3b82f6", Accent: "#60a5fa", Background: "#f8fafc", Text: "#1e293b"},
	"green":   {Name: "forest", Primary: "#14532d", Secondary: "#16a34a", Accent: "#86efac", Background: "#f7fdf9", Text: "#1c2b22"},
	"warm":    {Name: "sunset", Primary: "#9a3412", Secondary: "#f97316", Accent: "#fdba74", Background: "#fffbf5", Text: "#431407"},
	"pink":    {Name: "blossom", Primary: "#9d174d", Secondary: "#ec4899", Accent: "#f9a8d4", Background: "#fdf2f8", Text: "#500724"},
}

// DesignEngine derives a design system from the user's request.
type DesignEngine struct {
	llm ai.Generator
}

// NewDesignEngine creates a design engine. llm may be nil.
func NewDesignEngine(llm ai.Generator) *DesignEngine {
	return &DesignEngine{llm: llm}
}

// Analyze reads the user's request and produces a design system. An LLM
// pass refines the keyword-derived default when a provider is available.
func (e *DesignEngine) Analyze(ctx context.Context, userInput string) DesignSystem {
	fallback := e.keywordDesign(userInput)
	if e.llm == nil {
		return fallback
	}

	out, _ := ai.CompleteJSON(ctx, e.llm, &ai.Request{
		Capability:   ai.CapabilityDesignAnalysis,
		SystemPrompt: "You are a web designer. Produce a design system as JSON matching the given schema exactly. Colors are hex strings.",
		Prompt: "Design a website for this request: " + userInput + "\n" +
			`Reply with {"palette": {"name", "primary", "secondary", "accent", "background", "text"}, ` +
			`"typography": {"heading_font", "body_font", "base_size"}, "layout": "single_page|multi_section|landing", ` +
			`"style": "modern|minimal|bold|classic", "rounded": bool, "gradients": bool}`,
	}, fallback)
	if out.Palette.Primary == "" {
		return fallback
	}
	return out
}

// keywordDesign is the deterministic fallback: palette by keyword match,
// house typography, layout by request size.
func (e *DesignEngine) keywordDesign(userInput string) DesignSystem {
	input := strings.ToLower(userInput)

	// Fixed match order so a request naming two palettes resolves the
	// same way every time.
	palette := builtinPalettes["default"]
	for _, key := range []string{"dark", "blue", "green", "warm", "pink"} {
		if strings.Contains(input, key) {
			palette = builtinPalettes[key]
			break
		}
	}
	// Common color words that map onto a built-in.
	switch {
	case strings.Contains(input, "purple") || strings.Contains(input, "violet"):
		palette = builtinPalettes["default"]
	case strings.Contains(input, "black") || strings.Contains(input, "night"):
		palette = builtinPalettes["dark"]
	case strings.Contains(input, "orange") || strings.Contains(input, "red"):
		palette = builtinPalettes["warm"]
	}

	style := "modern"
	if strings.Contains(input, "minimal") || strings.Contains(input, "simple") {
		style = "minimal"
	} else if strings.Contains(input, "bold") || strings.Contains(input, "exciting") {
		style = "bold"
	}

	layout := "landing"
	if strings.Contains(input, "portfolio") || strings.Contains(input, "blog") {
		layout = "multi_section"
	}

	return DesignSystem{
		Palette: palette,
		Typography: Typography{
			HeadingFont: "'Inter', -apple-system, BlinkMacSystemFont, sans-serif",
			BodyFont:    "'Inter', -apple-system, BlinkMacSystemFont, sans-serif",
			BaseSize:    "16px",
		},
		Layout:    layout,
		Style:     style,
		Rounded:   style != "classic",
		Gradients: style != "minimal",
	}
}
