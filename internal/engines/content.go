package engines

import (
	"context"
	"strings"

	"webforge/internal/ai"
)

// Feature is one item of the generated features section.
type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"` // emoji
}

// SiteContent is all copy for a generated site.
type SiteContent struct {
	Title      string    `json:"title"`
	Tagline    string    `json:"tagline"`
	HeroTitle  string    `json:"hero_title"`
	HeroText   string    `json:"hero_text"`
	CTALabel   string    `json:"cta_label"`
	Features   []Feature `json:"features"`
	AboutTitle string    `json:"about_title"`
	AboutText  string    `json:"about_text"`
	Footer     string    `json:"footer"`
	Tone       string    `json:"tone"`
}

// ContentEngine writes the site copy.
type ContentEngine struct {
	llm ai.Generator
}

// NewContentEngine creates a content engine. llm may be nil.
func NewContentEngine(llm ai.Generator) *ContentEngine {
	return &ContentEngine{llm: llm}
}

// Generate produces the full copy for a site. siteName is the short display
// name derived from the request.
func (e *ContentEngine) Generate(ctx context.Context, siteName, userInput string) SiteContent {
	fallback := e.templateContent(siteName, userInput)
	if e.llm == nil {
		return fallback
	}

	out, _ := ai.CompleteJSON(ctx, e.llm, &ai.Request{
		Capability:   ai.CapabilityContentGeneration,
		SystemPrompt: "You are a copywriter for websites. Write concise, concrete copy. Reply with JSON only.",
		Prompt: "Write copy for a website named " + siteName + ". The user asked: " + userInput + "\n" +
			`Reply with {"title", "tagline", "hero_title", "hero_text", "cta_label", ` +
			`"features": [{"title", "description", "icon"}], "about_title", "about_text", "footer", "tone"}. ` +
			"Use three features with a single emoji each for icon.",
	}, fallback)
	if out.Title == "" || out.HeroTitle == "" {
		return fallback
	}
	return out
}

// templateContent is the deterministic fallback copy.
func (e *ContentEngine) templateContent(siteName, userInput string) SiteContent {
	tone := detectTone(userInput)

	hero := "Welcome to " + siteName
	heroText := "Everything you asked for, built and ready to explore."
	cta := "Get Started"
	if tone == "playful" {
		hero = siteName + " is here!"
		heroText = "Something fun is waiting for you. Dive in and take a look around."
		cta = "Let's Go"
	} else if tone == "bold" {
		heroText = "Built to stand out. Scroll down and see for yourself."
		cta = "See More"
	}

	return SiteContent{
		Title:     siteName,
		Tagline:   "Made with webforge",
		HeroTitle: hero,
		HeroText:  heroText,
		CTALabel:  cta,
		Features: []Feature{
			{Title: "Fast", Description: "Loads quickly on every device, with no heavy frameworks in the way.", Icon: "⚡"},
			{Title: "Responsive", Description: "Looks right on phones, tablets, and desktops out of the box.", Icon: "📱"},
			{Title: "Accessible", Description: "Semantic markup and readable contrast from the first render.", Icon: "✨"},
		},
		AboutTitle: "About " + siteName,
		AboutText:  "This site was generated from a single request: \"" + truncateWords(userInput, 30) + "\". Every section reflects what was asked for.",
		Footer:     "© " + siteName + ". All rights reserved.",
		Tone:       tone,
	}
}

// detectTone picks a writing tone from the request wording.
func detectTone(userInput string) string {
	input := strings.ToLower(userInput)
	switch {
	case strings.Contains(input, "fun") || strings.Contains(input, "playful") || strings.Contains(input, "cute"):
		return "playful"
	case strings.Contains(input, "bold") || strings.Contains(input, "exciting") || strings.Contains(input, "striking"):
		return "bold"
	case strings.Contains(input, "business") || strings.Contains(input, "corporate") || strings.Contains(input, "professional"):
		return "professional"
	default:
		return "friendly"
	}
}

// truncateWords cuts s to at most n words.
func truncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + "…"
}
