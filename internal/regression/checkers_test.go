package regression

import (
	"context"
	"strings"
	"testing"
)

const barePage = `<!DOCTYPE html>
<html><head><title>Bare</title></head>
<body><p>tiny</p></body></html>`

func checkerRunner(t *testing.T, page string) (*Runner, string) {
	t.Helper()
	srv := siteServer(t, "site", page)
	return NewRunner(srv.URL), srv.URL + "/app/site"
}

func TestCheckFunctionalButtons(t *testing.T) {
	tests := []struct {
		name string
		page string
		want Status
	}{
		{"labelled button passes", goodPage, StatusPassed},
		{"no buttons fails", barePage, StatusFailed},
		{
			"unlabelled button fails",
			`<!DOCTYPE html><html><body><button></button></body></html>`,
			StatusFailed,
		},
		{
			"aria-label counts as a label",
			`<!DOCTYPE html><html><body><button aria-label="close"></button></body></html>`,
			StatusPassed,
		},
		{
			"input value counts as text",
			`<!DOCTYPE html><html><body><input type="submit" value="Send"></body></html>`,
			StatusPassed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, url := checkerRunner(t, tt.page)
			tc := TestCase{ID: "t", RequirementID: "r", Type: TypeFunctional, ExpectedResult: "The button responds to clicks"}
			res := r.checkFunctional(context.Background(), tc, url)
			if res.Status != tt.want {
				t.Errorf("status = %s (%s), want %s", res.Status, res.Message, tt.want)
			}
		})
	}
}

func TestCheckFunctionalMenu(t *testing.T) {
	r, url := checkerRunner(t, goodPage)
	tc := TestCase{ID: "t", RequirementID: "r", ExpectedResult: "The navigation menu works"}
	res := r.checkFunctional(context.Background(), tc, url)
	if res.Status != StatusPassed {
		t.Errorf("menu check = %s (%s), want passed", res.Status, res.Message)
	}

	r2, url2 := checkerRunner(t, `<!DOCTYPE html><html><body><p>nothing here</p></body></html>`)
	res2 := r2.checkFunctional(context.Background(), tc, url2)
	if res2.Status != StatusFailed {
		t.Errorf("menu check without nav = %s, want failed", res2.Status)
	}
}

func TestCheckFunctionalRelevance(t *testing.T) {
	r, url := checkerRunner(t, goodPage)

	// Most keywords appear in the page text.
	hit := TestCase{ID: "t", RequirementID: "r", ExpectedResult: "welcome to the demo"}
	if res := r.checkFunctional(context.Background(), hit, url); res.Status != StatusPassed {
		t.Errorf("relevant case = %s (%s), want passed", res.Status, res.Message)
	}

	miss := TestCase{ID: "t", RequirementID: "r", ExpectedResult: "cryptocurrency exchange wallet integration"}
	if res := r.checkFunctional(context.Background(), miss, url); res.Status != StatusFailed {
		t.Errorf("irrelevant case = %s, want failed", res.Status)
	}
}

func TestCheckUIColors(t *testing.T) {
	r, url := checkerRunner(t, goodPage)
	tc := TestCase{ID: "t", RequirementID: "r", Type: TypeUI, ExpectedResult: "The color scheme matches the request"}
	if res := r.checkUI(context.Background(), tc, url); res.Status != StatusPassed {
		t.Errorf("colors = %s (%s), want passed", res.Status, res.Message)
	}

	r2, url2 := checkerRunner(t, barePage)
	if res := r2.checkUI(context.Background(), tc, url2); res.Status != StatusFailed {
		t.Errorf("colors on unstyled page = %s, want failed", res.Status)
	}
}

func TestCheckUIResponsive(t *testing.T) {
	tc := TestCase{ID: "t", RequirementID: "r", Type: TypeUI, ExpectedResult: "The layout is responsive"}

	r, url := checkerRunner(t, goodPage)
	if res := r.checkUI(context.Background(), tc, url); res.Status != StatusPassed {
		t.Errorf("responsive = %s (%s), want passed", res.Status, res.Message)
	}

	// Viewport meta but no media queries still fails.
	page := `<!DOCTYPE html><html><head><meta name="viewport" content="width=device-width"></head><body></body></html>`
	r2, url2 := checkerRunner(t, page)
	res := r2.checkUI(context.Background(), tc, url2)
	if res.Status != StatusFailed {
		t.Fatalf("responsive without media queries = %s, want failed", res.Status)
	}
	if !strings.Contains(res.Message, "media quer") {
		t.Errorf("message %q should name the missing media queries", res.Message)
	}
}

func TestCheckContent(t *testing.T) {
	r, url := checkerRunner(t, goodPage)
	tc := TestCase{ID: "t", RequirementID: "r", Type: TypeContent}
	if res := r.checkContent(context.Background(), tc, url); res.Status != StatusPassed {
		t.Errorf("content = %s (%s), want passed", res.Status, res.Message)
	}

	r2, url2 := checkerRunner(t, barePage)
	res := r2.checkContent(context.Background(), tc, url2)
	if res.Status != StatusFailed {
		t.Fatalf("thin page = %s, want failed", res.Status)
	}
	if !strings.Contains(res.Message, "Insufficient content") {
		t.Errorf("message %q should flag insufficient content", res.Message)
	}
}

func TestCheckPerformance(t *testing.T) {
	r, url := checkerRunner(t, goodPage)
	tc := TestCase{ID: "t", RequirementID: "r", Type: TypePerformance}
	if res := r.checkPerformance(context.Background(), tc, url); res.Status != StatusPassed {
		t.Errorf("small fast page = %s (%s), want passed", res.Status, res.Message)
	}

	// A page over the size limit fails regardless of speed.
	big := "<!DOCTYPE html><html><body>" + strings.Repeat("x", maxContentSize+1) + "</body></html>"
	r2, url2 := checkerRunner(t, big)
	res := r2.checkPerformance(context.Background(), tc, url2)
	if res.Status != StatusFailed {
		t.Fatalf("oversized page = %s, want failed", res.Status)
	}
	if !strings.Contains(res.Message, "Large content size") {
		t.Errorf("message %q should flag the content size", res.Message)
	}
}

func TestCheckAccessibility(t *testing.T) {
	r, url := checkerRunner(t, goodPage)
	tc := TestCase{ID: "t", RequirementID: "r", Type: TypeAccessibility}
	if res := r.checkAccessibility(context.Background(), tc, url); res.Status != StatusPassed {
		t.Errorf("accessible page = %s (%s), want passed", res.Status, res.Message)
	}

	bad := `<!DOCTYPE html><html><body>
		<h1>Title</h1>
		<img src="a.png">
		<input type="text" id="name">
	</body></html>`
	r2, url2 := checkerRunner(t, bad)
	res := r2.checkAccessibility(context.Background(), tc, url2)
	if res.Status != StatusFailed {
		t.Fatalf("inaccessible page = %s, want failed", res.Status)
	}
	if !strings.Contains(res.Message, "alt text") && !strings.Contains(res.Message, "label") {
		t.Errorf("message %q should name the accessibility issues", res.Message)
	}
}

func TestCheckRegressionComposite(t *testing.T) {
	tc := TestCase{ID: "t", RequirementID: "r", Type: TypeRegression, ExpectedResult: "welcome to the demo"}

	r, url := checkerRunner(t, goodPage)
	if res := r.checkRegression(context.Background(), tc, url); res.Status != StatusPassed {
		t.Errorf("composite on good page = %s (%s), want passed", res.Status, res.Message)
	}

	// One failing leg fails the composite.
	r2, url2 := checkerRunner(t, barePage)
	if res := r2.checkRegression(context.Background(), tc, url2); res.Status != StatusFailed {
		t.Errorf("composite on bare page = %s, want failed", res.Status)
	}
}

func TestVisibleTextSkipsScriptAndStyle(t *testing.T) {
	r, url := checkerRunner(t, `<!DOCTYPE html><html><head>
		<style>body { color: secretstyleword; }</style>
		<script>var secretscriptword = 1;</script>
		</head><body><p>visible words here</p></body></html>`)

	doc, _, _, _, err := r.fetchPage(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	text := visibleText(doc)
	if !strings.Contains(text, "visible words here") {
		t.Error("visible text missing body copy")
	}
	if strings.Contains(text, "secretstyleword") || strings.Contains(text, "secretscriptword") {
		t.Error("visible text leaked script or style content")
	}
}
