package engines

import (
	"context"
	"fmt"
	"strings"

	"webforge/internal/ai"
	"webforge/internal/logging"
)

// SiteFiles maps relative file names to their contents. Every generated
// site has at least index.html, styles.css, and script.js.
type SiteFiles map[string]string

// CodeEngine turns a design system and copy into a working static site.
type CodeEngine struct {
	llm ai.Generator
}

// NewCodeEngine creates a code engine. llm may be nil.
func NewCodeEngine(llm ai.Generator) *CodeEngine {
	return &CodeEngine{llm: llm}
}

// Generate produces the site's files. The LLM path asks for the three
// files as a JSON object; the template path renders them deterministically
// from the design and content.
func (e *CodeEngine) Generate(ctx context.Context, userInput string, design DesignSystem, content SiteContent) SiteFiles {
	fallback := e.renderTemplate(design, content)
	if e.llm == nil {
		return fallback
	}

	var out struct {
		IndexHTML string `json:"index.html"`
		StylesCSS string `json:"styles.css"`
		ScriptJS  string `json:"script.js"`
	}
	out.IndexHTML = fallback["index.html"]
	out.StylesCSS = fallback["styles.css"]
	out.ScriptJS = fallback["script.js"]

	got, ok := ai.CompleteJSON(ctx, e.llm, &ai.Request{
		Capability: ai.CapabilityCodeGeneration,
		SystemPrompt: "You are a front-end developer. Generate a complete static website as three files. " +
			"Use semantic HTML5, a responsive layout with media queries, and vanilla JavaScript. " +
			"Reply with a JSON object whose keys are exactly index.html, styles.css, and script.js.",
		Prompt: fmt.Sprintf(
			"Build a website for this request: %s\n"+
				"Design: primary %s, secondary %s, accent %s, background %s, text %s, style %s, layout %s.\n"+
				"Copy: title %q, hero %q (%s), features %v.\n"+
				"Link styles.css and script.js with relative paths.",
			userInput,
			design.Palette.Primary, design.Palette.Secondary, design.Palette.Accent,
			design.Palette.Background, design.Palette.Text, design.Style, design.Layout,
			content.Title, content.HeroTitle, content.HeroText, featureTitles(content.Features)),
		MaxTokens: 8000,
	}, out)
	if !ok || !looksLikeHTML(got.IndexHTML) {
		return fallback
	}
	files := SiteFiles{"index.html": got.IndexHTML}
	if strings.TrimSpace(got.StylesCSS) != "" {
		files["styles.css"] = got.StylesCSS
	} else {
		files["styles.css"] = fallback["styles.css"]
	}
	if strings.TrimSpace(got.ScriptJS) != "" {
		files["script.js"] = got.ScriptJS
	} else {
		files["script.js"] = fallback["script.js"]
	}
	return files
}

// Heal asks the LLM to diagnose test failures and patch the files in
// place. Returns the patched files and how many files changed; on any LLM
// failure the input files come back untouched with zero patches.
func (e *CodeEngine) Heal(ctx context.Context, files SiteFiles, failureSummary string) (SiteFiles, int) {
	if e.llm == nil || strings.TrimSpace(failureSummary) == "" {
		return files, 0
	}

	var sb strings.Builder
	for name, body := range files {
		fmt.Fprintf(&sb, "=== %s ===\n%s\n\n", name, body)
	}

	var out struct {
		Diagnosis string            `json:"diagnosis"`
		Patches   map[string]string `json:"patches"` // filename -> full replacement contents
	}
	got, ok := ai.CompleteJSON(ctx, e.llm, &ai.Request{
		Capability: ai.CapabilityDiagnosis,
		SystemPrompt: "You fix generated websites that failed automated checks. " +
			"Reply with JSON: {\"diagnosis\": str, \"patches\": {filename: full new file contents}}. " +
			"Only include files that need to change, and always return the complete file, never a diff.",
		Prompt:    "These checks failed:\n" + failureSummary + "\n\nCurrent files:\n" + sb.String(),
		MaxTokens: 8000,
	}, out)
	if !ok || len(got.Patches) == 0 {
		return files, 0
	}

	patched := make(SiteFiles, len(files))
	for name, body := range files {
		patched[name] = body
	}
	applied := 0
	for name, body := range got.Patches {
		if _, known := patched[name]; !known {
			continue // never let a patch introduce unexpected files
		}
		if strings.TrimSpace(body) == "" {
			continue
		}
		patched[name] = body
		applied++
	}
	if got.Diagnosis != "" {
		logging.S().Infow("heal diagnosis", "diagnosis", truncateWords(got.Diagnosis, 60), "patches", applied)
	}
	return patched, applied
}

// renderTemplate is the deterministic generation path. The stylesheet is
// inlined into the page as well as written to styles.css so the page is
// fully styled even when fetched as a single document.
func (e *CodeEngine) renderTemplate(design DesignSystem, content SiteContent) SiteFiles {
	css := renderStylesCSS(design)
	return SiteFiles{
		"index.html": renderIndexHTML(content, css),
		"styles.css": css,
		"script.js":  renderScriptJS(),
	}
}

func featureTitles(features []Feature) []string {
	titles := make([]string, len(features))
	for i, f := range features {
		titles[i] = f.Title
	}
	return titles
}

func looksLikeHTML(s string) bool {
	low := strings.ToLower(s)
	return strings.Contains(low, "<html") || strings.Contains(low, "<!doctype")
}

func renderIndexHTML(content SiteContent, inlineCSS string) string {
	var features strings.Builder
	for _, f := range content.Features {
		fmt.Fprintf(&features, `
      <div class="feature-card">
        <div class="feature-icon">%s</div>
        <h3>%s</h3>
        <p>%s</p>
      </div>`, f.Icon, f.Title, f.Description)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <meta name="description" content="%s">
  <title>%s</title>
  <link rel="stylesheet" href="styles.css">
  <style>
%s  </style>
</head>
<body>
  <header class="site-header">
    <nav class="navbar">
      <span class="brand">%s</span>
      <ul class="nav-links">
        <li><a href="#home">Home</a></li>
        <li><a href="#features">Features</a></li>
        <li><a href="#about">About</a></li>
      </ul>
    </nav>
  </header>

  <main>
    <section id="home" class="hero">
      <h1>%s</h1>
      <p class="hero-text">%s</p>
      <button id="cta" class="btn btn-primary" type="button">%s</button>
    </section>

    <section id="features" class="features">
      <h2>Features</h2>
      <div class="feature-grid">%s
      </div>
    </section>

    <section id="about" class="about">
      <h2>%s</h2>
      <p>%s</p>
    </section>
  </main>

  <footer class="site-footer">
    <p>%s</p>
  </footer>

  <script src="script.js"></script>
</body>
</html>
`,
		content.Tagline, content.Title, inlineCSS, content.Title,
		content.HeroTitle, content.HeroText, content.CTALabel, features.String(),
		content.AboutTitle, content.AboutText, content.Footer)
}

func renderStylesCSS(design DesignSystem) string {
	p := design.Palette
	radius := "0"
	if design.Rounded {
		radius = "12px"
	}
	heroBackground := p.Primary
	if design.Gradients {
		heroBackground = fmt.Sprintf("linear-gradient(135deg, %s 0%%, %s 50%%, %s 100%%)", p.Primary, p.Secondary, p.Accent)
	}

	return fmt.Sprintf(`* { margin: 0; padding: 0; box-sizing: border-box; }

body {
  font-family: %s;
  font-size: %s;
  color: %s;
  background: %s;
  line-height: 1.6;
}

.site-header {
  position: sticky;
  top: 0;
  background: %s;
  box-shadow: 0 1px 4px rgba(0, 0, 0, 0.08);
  z-index: 10;
}

.navbar {
  display: flex;
  justify-content: space-between;
  align-items: center;
  max-width: 1100px;
  margin: 0 auto;
  padding: 1rem 1.5rem;
}

.brand { font-weight: 700; font-size: 1.25rem; color: %s; }

.nav-links {
  display: flex;
  gap: 1.5rem;
  list-style: none;
}

.nav-links a { color: %s; text-decoration: none; transition: color 0.2s; }
.nav-links a:hover { color: %s; }

.hero {
  background: %s;
  color: #ffffff;
  text-align: center;
  padding: 6rem 1.5rem;
}

.hero h1 { font-family: %s; font-size: 2.75rem; margin-bottom: 1rem; }
.hero-text { font-size: 1.2rem; max-width: 600px; margin: 0 auto 2rem; opacity: 0.92; }

.btn {
  border: none;
  border-radius: %s;
  padding: 0.9rem 2.2rem;
  font-size: 1rem;
  cursor: pointer;
  transition: transform 0.15s, box-shadow 0.15s;
}

.btn-primary { background: %s; color: #ffffff; }
.btn-primary:hover { transform: translateY(-2px); box-shadow: 0 6px 18px rgba(0, 0, 0, 0.2); }

.features { max-width: 1100px; margin: 0 auto; padding: 4rem 1.5rem; text-align: center; }
.features h2 { margin-bottom: 2rem; }

.feature-grid {
  display: grid;
  grid-template-columns: repeat(auto-fit, minmax(260px, 1fr));
  gap: 1.5rem;
}

.feature-card {
  background: %s;
  border: 1px solid rgba(0, 0, 0, 0.06);
  border-radius: %s;
  padding: 2rem 1.5rem;
  box-shadow: 0 2px 8px rgba(0, 0, 0, 0.04);
}

.feature-icon { font-size: 2rem; margin-bottom: 0.75rem; }
.feature-card h3 { margin-bottom: 0.5rem; color: %s; }

.about { max-width: 720px; margin: 0 auto; padding: 2rem 1.5rem 4rem; text-align: center; }
.about h2 { margin-bottom: 1rem; }

.site-footer {
  background: %s;
  color: #ffffff;
  text-align: center;
  padding: 1.5rem;
}

@media (max-width: 640px) {
  .hero h1 { font-size: 2rem; }
  .navbar { flex-direction: column; gap: 0.75rem; }
}
`,
		design.Typography.BodyFont, design.Typography.BaseSize, p.Text, p.Background,
		p.Background, p.Primary, p.Text, p.Accent,
		heroBackground, design.Typography.HeadingFont,
		radius, p.Secondary,
		p.Background, radius, p.Primary,
		p.Primary)
}

func renderScriptJS() string {
	return `document.addEventListener('DOMContentLoaded', () => {
  const cta = document.getElementById('cta');
  if (cta) {
    cta.addEventListener('click', () => {
      const features = document.getElementById('features');
      if (features) features.scrollIntoView({ behavior: 'smooth' });
    });
  }

  document.querySelectorAll('.nav-links a').forEach((link) => {
    link.addEventListener('click', (event) => {
      const target = document.querySelector(link.getAttribute('href'));
      if (target) {
        event.preventDefault();
        target.scrollIntoView({ behavior: 'smooth' });
      }
    });
  });
});
`
}
