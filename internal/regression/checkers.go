package regression

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	maxLoadTime    = 2 * time.Second
	maxContentSize = 1024 * 1024 // 1 MiB
	minTextLength  = 50
)

var (
	colorRe      = regexp.MustCompile(`(?i)color\s*:\s*([^;]+)`)
	backgroundRe = regexp.MustCompile(`(?i)background(?:-color)?\s*:\s*([^;]+)`)
	mediaQueryRe = regexp.MustCompile(`(?i)@media\s*\(`)
	wordRe       = regexp.MustCompile(`\b\w+\b`)
)

// fetchPage loads and parses the project index page, reporting the fetch
// wall-clock time and raw byte size.
func (r *Runner) fetchPage(ctx context.Context, projectURL string) (doc *html.Node, raw string, status int, elapsed time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, "GET", projectURL+"/index.html", nil)
	if err != nil {
		return nil, "", 0, 0, err
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", 0, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed = time.Since(start)
	if err != nil {
		return nil, "", resp.StatusCode, elapsed, err
	}

	doc, err = html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, "", resp.StatusCode, elapsed, err
	}
	return doc, string(body), resp.StatusCode, elapsed, nil
}

// checkFunctional routes on keywords in the expected result: button checks,
// menu checks, display checks, or a general keyword-relevance check.
func (r *Runner) checkFunctional(ctx context.Context, tc TestCase, projectURL string) TestResult {
	doc, raw, status, _, err := r.fetchPage(ctx, projectURL)
	if err != nil {
		return errorResult(tc, fmt.Sprintf("Functional test error: %v", err))
	}
	if status != http.StatusOK {
		return TestResult{
			TestID:        tc.ID,
			RequirementID: tc.RequirementID,
			Status:        StatusFailed,
			Message:       fmt.Sprintf("Failed to load page: HTTP %d", status),
			Timestamp:     time.Now(),
		}
	}

	expected := strings.ToLower(tc.ExpectedResult)
	switch {
	case strings.Contains(expected, "button"):
		return r.checkButtons(tc, doc)
	case strings.Contains(expected, "menu") || strings.Contains(expected, "nav"):
		return r.checkMenu(tc, doc)
	case strings.Contains(expected, "display") || strings.Contains(expected, "render"):
		return r.checkStructure(tc, doc, raw)
	default:
		return r.checkRelevance(tc, doc)
	}
}

// checkButtons fails when the page has no button-like elements, or when any
// of them lacks both visible text and an aria-label.
func (r *Runner) checkButtons(tc TestCase, doc *html.Node) TestResult {
	all := buttons(doc)
	if len(all) == 0 {
		return TestResult{
			TestID:        tc.ID,
			RequirementID: tc.RequirementID,
			Status:        StatusFailed,
			Message:       "No buttons found on the page",
			Timestamp:     time.Now(),
		}
	}

	var issues []string
	for _, b := range all {
		text := strings.TrimSpace(textContent(b))
		if b.Data == "input" && text == "" {
			text = strings.TrimSpace(attr(b, "value"))
		}
		if text == "" && attr(b, "aria-label") == "" {
			issues = append(issues, fmt.Sprintf("Button without text or aria-label: <%s>", b.Data))
		}
	}

	status, message := StatusPassed, "All buttons are properly implemented"
	if len(issues) > 0 {
		status = StatusFailed
		message = "Button issues found: " + strings.Join(truncate(issues, 3), "; ")
	}
	return TestResult{
		TestID:        tc.ID,
		RequirementID: tc.RequirementID,
		Status:        status,
		Message:       message,
		Artifacts:     map[string]interface{}{"buttons_found": len(all), "issues": issues},
		Timestamp:     time.Now(),
	}
}

// checkMenu looks for navigation structure: nav/list elements or links.
func (r *Runner) checkMenu(tc TestCase, doc *html.Node) TestResult {
	navs := elementsByTag(doc, "nav", "ul", "ol")
	links := elementsByTag(doc, "a")

	if len(navs) == 0 && len(links) == 0 {
		return TestResult{
			TestID:        tc.ID,
			RequirementID: tc.RequirementID,
			Status:        StatusFailed,
			Message:       "No navigation or menu elements found",
			Timestamp:     time.Now(),
		}
	}
	return TestResult{
		TestID:        tc.ID,
		RequirementID: tc.RequirementID,
		Status:        StatusPassed,
		Message:       fmt.Sprintf("Found %d nav elements and %d links", len(navs), len(links)),
		Artifacts:     map[string]interface{}{"nav_elements": len(navs), "links": len(links)},
		Timestamp:     time.Now(),
	}
}

// checkStructure validates basic page structure: doctype, html, head, body.
func (r *Runner) checkStructure(tc TestCase, doc *html.Node, raw string) TestResult {
	var issues []string
	if !strings.Contains(strings.ToLower(raw), "<!doctype") {
		issues = append(issues, "Missing DOCTYPE declaration")
	}
	if len(elementsByTag(doc, "html")) == 0 {
		issues = append(issues, "Missing HTML tag")
	}
	if len(elementsByTag(doc, "head")) == 0 {
		issues = append(issues, "Missing HEAD tag")
	}
	if len(elementsByTag(doc, "body")) == 0 {
		issues = append(issues, "Missing BODY tag")
	}

	status, message := StatusPassed, "Page structure is valid"
	if len(issues) > 0 {
		status = StatusFailed
		message = "Structure issues: " + strings.Join(issues, "; ")
	}
	return TestResult{
		TestID:        tc.ID,
		RequirementID: tc.RequirementID,
		Status:        status,
		Message:       message,
		Artifacts:     map[string]interface{}{"issues": issues},
		Timestamp:     time.Now(),
	}
}

// checkRelevance scores how many keywords of the expected result appear in
// the page text. More than 30% hit rate passes.
func (r *Runner) checkRelevance(tc TestCase, doc *html.Node) TestResult {
	pageText := strings.ToLower(visibleText(doc))
	keywords := wordRe.FindAllString(strings.ToLower(tc.ExpectedResult), -1)

	var found []string
	for _, kw := range keywords {
		if strings.Contains(pageText, kw) {
			found = append(found, kw)
		}
	}

	score := 0.0
	if len(keywords) > 0 {
		score = float64(len(found)) / float64(len(keywords))
	}

	status := StatusFailed
	if score > 0.3 {
		status = StatusPassed
	}
	return TestResult{
		TestID:        tc.ID,
		RequirementID: tc.RequirementID,
		Status:        status,
		Message:       fmt.Sprintf("Content relevance: %.2f (%d/%d keywords found)", score, len(found), len(keywords)),
		Artifacts: map[string]interface{}{
			"relevance_score": score,
			"keywords_found":  found,
			"total_keywords":  len(keywords),
		},
		Timestamp: time.Now(),
	}
}

// checkUI routes on keywords: color scheme, responsive design, layout, or a
// general UI-element census.
func (r *Runner) checkUI(ctx context.Context, tc TestCase, projectURL string) TestResult {
	doc, _, _, _, err := r.fetchPage(ctx, projectURL)
	if err != nil {
		return errorResult(tc, fmt.Sprintf("UI test error: %v", err))
	}

	expected := strings.ToLower(tc.ExpectedResult)
	switch {
	case strings.Contains(expected, "color") || strings.Contains(expected, "theme"):
		return r.checkColors(tc, doc)
	case strings.Contains(expected, "responsive"):
		return r.checkResponsive(tc, doc)
	case strings.Contains(expected, "layout"):
		return r.checkLayout(tc, doc)
	default:
		return r.checkGeneralUI(tc, doc)
	}
}

// checkColors extracts color declarations from style tags and inline styles;
// at least one unique color passes.
func (r *Runner) checkColors(tc TestCase, doc *html.Node) TestResult {
	css := styleText(doc)

	var colors []string
	for _, m := range colorRe.FindAllStringSubmatch(css, -1) {
		colors = append(colors, strings.TrimSpace(m[1]))
	}
	for _, m := range backgroundRe.FindAllStringSubmatch(css, -1) {
		colors = append(colors, strings.TrimSpace(m[1]))
	}

	unique := make(map[string]bool)
	for _, c := range colors {
		if c != "" {
			unique[c] = true
		}
	}

	status, message := StatusPassed, fmt.Sprintf("Found %d unique colors in design", len(unique))
	if len(unique) == 0 {
		status, message = StatusFailed, "No colors found in CSS"
	}

	sample := make([]string, 0, 10)
	for c := range unique {
		if len(sample) == 10 {
			break
		}
		sample = append(sample, c)
	}
	return TestResult{
		TestID:        tc.ID,
		RequirementID: tc.RequirementID,
		Status:        status,
		Message:       message,
		Artifacts:     map[string]interface{}{"colors_found": sample},
		Timestamp:     time.Now(),
	}
}

// checkResponsive requires a viewport meta tag and at least one CSS media query.
func (r *Runner) checkResponsive(tc TestCase, doc *html.Node) TestResult {
	var issues []string
	if metaByName(doc, "viewport") == nil {
		issues = append(issues, "Missing viewport meta tag")
	}
	if !mediaQueryRe.MatchString(styleText(doc)) {
		issues = append(issues, "No CSS media queries found")
	}

	status, message := StatusPassed, "Responsive design elements found"
	if len(issues) > 0 {
		status = StatusFailed
		message = "Responsive issues: " + strings.Join(issues, "; ")
	}
	return TestResult{
		TestID:        tc.ID,
		RequirementID: tc.RequirementID,
		Status:        status,
		Message:       message,
		Artifacts:     map[string]interface{}{"issues": issues},
		Timestamp:     time.Now(),
	}
}

// checkLayout passes when the page has container elements or CSS layout
// properties.
func (r *Runner) checkLayout(tc TestCase, doc *html.Node) TestResult {
	css := strings.ToLower(styleText(doc))
	layoutProps := []string{"display:", "flex", "grid", "float:", "position:"}

	var foundProps []string
	for _, p := range layoutProps {
		if strings.Contains(css, p) {
			foundProps = append(foundProps, p)
		}
	}

	containers := elementsByTag(doc, "div", "main", "section", "article", "header", "footer")

	status := StatusFailed
	if len(containers) > 0 || len(foundProps) > 0 {
		status = StatusPassed
	}
	return TestResult{
		TestID:        tc.ID,
		RequirementID: tc.RequirementID,
		Status:        status,
		Message:       fmt.Sprintf("Layout structure found: %d containers, %d CSS properties", len(containers), len(foundProps)),
		Artifacts: map[string]interface{}{
			"containers":     len(containers),
			"css_properties": foundProps,
		},
		Timestamp: time.Now(),
	}
}

// checkGeneralUI counts interactive elements and styling presence.
func (r *Runner) checkGeneralUI(tc TestCase, doc *html.Node) TestResult {
	buttonCount := len(buttons(doc))
	links := len(elementsByTag(doc, "a"))
	images := len(elementsByTag(doc, "img"))
	forms := len(elementsByTag(doc, "form"))

	hasStyling := len(elementsByTag(doc, "style")) > 0
	if !hasStyling {
		for _, l := range elementsByTag(doc, "link") {
			if strings.EqualFold(attr(l, "rel"), "stylesheet") {
				hasStyling = true
				break
			}
		}
	}

	status := StatusFailed
	if buttonCount+links+forms > 0 || hasStyling {
		status = StatusPassed
	}
	return TestResult{
		TestID:        tc.ID,
		RequirementID: tc.RequirementID,
		Status:        status,
		Message:       fmt.Sprintf("UI elements: %d buttons, %d links, %d images, %d forms", buttonCount, links, images, forms),
		Artifacts: map[string]interface{}{
			"buttons":     buttonCount,
			"links":       links,
			"images":      images,
			"forms":       forms,
			"has_styling": hasStyling,
		},
		Timestamp: time.Now(),
	}
}

// checkContent validates page content basics: a title or h1, visible text
// over the minimum length, meta description, and viewport meta.
func (r *Runner) checkContent(ctx context.Context, tc TestCase, projectURL string) TestResult {
	doc, _, _, _, err := r.fetchPage(ctx, projectURL)
	if err != nil {
		return errorResult(tc, fmt.Sprintf("Content test error: %v", err))
	}

	text := strings.TrimSpace(visibleText(doc))
	hasTitle := len(elementsByTag(doc, "title")) > 0 || len(elementsByTag(doc, "h1")) > 0
	hasContent := len(text) > minTextLength
	hasMetaDescription := metaByName(doc, "description") != nil
	hasMetaViewport := metaByName(doc, "viewport") != nil

	var issues []string
	if !hasTitle {
		issues = append(issues, "Missing title or main heading")
	}
	if !hasContent {
		issues = append(issues, fmt.Sprintf("Insufficient content (less than %d characters)", minTextLength))
	}
	if !hasMetaDescription {
		issues = append(issues, "Missing meta description")
	}
	if !hasMetaViewport {
		issues = append(issues, "Missing viewport meta tag")
	}

	status, message := StatusPassed, "Content validation passed"
	if len(issues) > 0 {
		status = StatusFailed
		message = "Content issues: " + strings.Join(truncate(issues, 3), "; ")
	}
	return TestResult{
		TestID:        tc.ID,
		RequirementID: tc.RequirementID,
		Status:        status,
		Message:       message,
		Artifacts: map[string]interface{}{
			"text_length":   len(text),
			"has_title":     hasTitle,
			"has_meta_tags": hasMetaDescription && hasMetaViewport,
			"issues":        issues,
		},
		Timestamp: time.Now(),
	}
}

// checkPerformance measures a single fetch against fixed load-time and size
// thresholds. One sample, not a benchmark.
func (r *Runner) checkPerformance(ctx context.Context, tc TestCase, projectURL string) TestResult {
	_, raw, _, elapsed, err := r.fetchPage(ctx, projectURL)
	if err != nil {
		return errorResult(tc, fmt.Sprintf("Performance test error: %v", err))
	}

	size := len(raw)

	var issues []string
	if elapsed > maxLoadTime {
		issues = append(issues, fmt.Sprintf("Slow load time: %.2fs (max: %.1fs)", elapsed.Seconds(), maxLoadTime.Seconds()))
	}
	if size > maxContentSize {
		issues = append(issues, fmt.Sprintf("Large content size: %.1fKB (max: %.1fKB)", float64(size)/1024, float64(maxContentSize)/1024))
	}

	status := StatusPassed
	message := fmt.Sprintf("Performance test passed (load: %.2fs, size: %.1fKB)", elapsed.Seconds(), float64(size)/1024)
	if len(issues) > 0 {
		status = StatusFailed
		message = "Performance issues: " + strings.Join(issues, "; ")
	}
	return TestResult{
		TestID:        tc.ID,
		RequirementID: tc.RequirementID,
		Status:        status,
		Message:       message,
		Artifacts: map[string]interface{}{
			"load_time":       elapsed.Seconds(),
			"content_size_kb": float64(size) / 1024,
			"issues":          issues,
		},
		Timestamp: time.Now(),
	}
}

// checkAccessibility runs attribute-presence heuristics: img alt text,
// labels for text-like inputs, and heading structure.
func (r *Runner) checkAccessibility(ctx context.Context, tc TestCase, projectURL string) TestResult {
	doc, _, _, _, err := r.fetchPage(ctx, projectURL)
	if err != nil {
		return errorResult(tc, fmt.Sprintf("Accessibility test error: %v", err))
	}

	var issues []string

	images := elementsByTag(doc, "img")
	for _, img := range images {
		if attr(img, "alt") == "" {
			src := attr(img, "src")
			if src == "" {
				src = "unknown"
			}
			issues = append(issues, "Image without alt text: "+src)
		}
	}

	textTypes := map[string]bool{"text": true, "email": true, "password": true, "tel": true}
	var inputs []*html.Node
	for _, in := range elementsByTag(doc, "input") {
		if textTypes[strings.ToLower(attr(in, "type"))] {
			inputs = append(inputs, in)
		}
	}
	labels := elementsByTag(doc, "label")
	labelFor := make(map[string]bool, len(labels))
	for _, l := range labels {
		if f := attr(l, "for"); f != "" {
			labelFor[f] = true
		}
	}
	for _, in := range inputs {
		if id := attr(in, "id"); id != "" && !labelFor[id] {
			issues = append(issues, "Input without label: "+id)
		}
	}

	headings := elementsByTag(doc, "h1", "h2", "h3", "h4", "h5", "h6")
	if len(headings) == 0 {
		issues = append(issues, "No heading structure found")
	}

	status, message := StatusPassed, "Accessibility test passed"
	if len(issues) > 0 {
		status = StatusFailed
		message = "Accessibility issues: " + strings.Join(truncate(issues, 3), "; ")
	}
	return TestResult{
		TestID:        tc.ID,
		RequirementID: tc.RequirementID,
		Status:        status,
		Message:       message,
		Artifacts: map[string]interface{}{
			"images_count":   len(images),
			"inputs_count":   len(inputs),
			"headings_count": len(headings),
			"issues":         issues,
		},
		Timestamp: time.Now(),
	}
}

// checkRegression is the composite checker: functional + ui + content must
// all pass.
func (r *Runner) checkRegression(ctx context.Context, tc TestCase, projectURL string) TestResult {
	functional := r.checkFunctional(ctx, tc, projectURL)
	ui := r.checkUI(ctx, tc, projectURL)
	content := r.checkContent(ctx, tc, projectURL)

	allPassed := functional.Status == StatusPassed && ui.Status == StatusPassed && content.Status == StatusPassed

	var messages []string
	if functional.Status != StatusPassed {
		messages = append(messages, "Functional: "+functional.Message)
	}
	if ui.Status != StatusPassed {
		messages = append(messages, "UI: "+ui.Message)
	}
	if content.Status != StatusPassed {
		messages = append(messages, "Content: "+content.Message)
	}

	status, message := StatusPassed, "All regression tests passed"
	if !allPassed {
		status = StatusFailed
		message = "Regression failures: " + strings.Join(truncate(messages, 2), "; ")
	}
	return TestResult{
		TestID:        tc.ID,
		RequirementID: tc.RequirementID,
		Status:        status,
		Message:       message,
		Artifacts: map[string]interface{}{
			"functional_status": string(functional.Status),
			"ui_status":         string(ui.Status),
			"content_status":    string(content.Status),
		},
		Timestamp: time.Now(),
	}
}

// truncate limits a message list to n entries.
func truncate(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
