package regression

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"webforge/internal/logging"
)

// Runner executes heuristic test cases against a generated site served at
// {baseURL}/app/{slug}/.
type Runner struct {
	baseURL string
	client  *http.Client
	log     *zap.SugaredLogger
}

// NewRunner creates a runner probing sites under baseURL.
func NewRunner(baseURL string) *Runner {
	return &Runner{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     logging.Named("regression").Sugar(),
	}
}

// RunAll executes the test cases against one project, one at a time.
//
// An initial availability probe gates the whole run: when it fails, the
// returned map holds exactly one entry keyed "project_check" with status
// error. Otherwise cases run in descending priority order (stable for ties).
// When a case of priority >= 3 errors, execution stops and later cases get
// no result entry at all.
func (r *Runner) RunAll(ctx context.Context, cases []TestCase, slug string) map[string]TestResult {
	results := make(map[string]TestResult)
	projectURL := fmt.Sprintf("%s/app/%s", r.baseURL, slug)

	r.log.Infow("starting regression tests", "slug", slug, "cases", len(cases))

	if !r.projectExists(ctx, projectURL) {
		results["project_check"] = TestResult{
			TestID:        "project_check",
			RequirementID: "system",
			Status:        StatusError,
			Message:       fmt.Sprintf("Project not accessible at %s", projectURL),
			Timestamp:     time.Now(),
		}
		return results
	}

	sorted := make([]TestCase, len(cases))
	copy(sorted, cases)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	for _, tc := range sorted {
		start := time.Now()
		result := r.runSingle(ctx, tc, projectURL)
		result.ExecutionTime = time.Since(start).Seconds()
		results[tc.ID] = result

		r.log.Infow("test finished", "test", tc.ID, "status", result.Status, "message", result.Message)

		if result.Status == StatusError && tc.Priority >= 3 {
			r.log.Warn("critical test errored, stopping execution")
			break
		}
	}

	return results
}

// projectExists probes the generated index page.
func (r *Runner) projectExists(ctx context.Context, projectURL string) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", projectURL+"/index.html", nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// runSingle dispatches one case to its checker. Checker panics or transport
// errors come back as an error-status result, never as a Go error.
func (r *Runner) runSingle(ctx context.Context, tc TestCase, projectURL string) (result TestResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = errorResult(tc, fmt.Sprintf("Test execution error: %v", rec))
		}
	}()

	switch tc.Type {
	case TypeFunctional:
		return r.checkFunctional(ctx, tc, projectURL)
	case TypeUI:
		return r.checkUI(ctx, tc, projectURL)
	case TypeContent:
		return r.checkContent(ctx, tc, projectURL)
	case TypePerformance:
		return r.checkPerformance(ctx, tc, projectURL)
	case TypeAccessibility:
		return r.checkAccessibility(ctx, tc, projectURL)
	default:
		return r.checkRegression(ctx, tc, projectURL)
	}
}

// errorResult builds an error-status result for a case.
func errorResult(tc TestCase, msg string) TestResult {
	return TestResult{
		TestID:        tc.ID,
		RequirementID: tc.RequirementID,
		Status:        StatusError,
		Message:       msg,
		ErrorDetails:  msg,
		Timestamp:     time.Now(),
	}
}
