package regression

import (
	"math"
	"time"
)

// Report aggregates the results of one run.
type Report struct {
	Summary             Summary           `json:"summary"`
	RequirementCoverage map[string]string `json:"requirement_coverage"`
	TestDetails         map[string]string `json:"test_details"`
	FailedTests         []FailedTest      `json:"failed_tests"`
	GeneratedAt         time.Time         `json:"generated_at"`
}

// Summary carries the aggregate counters of a run.
type Summary struct {
	TotalTests    int     `json:"total_tests"`
	Passed        int     `json:"passed"`
	Failed        int     `json:"failed"`
	Errors        int     `json:"errors"`
	PassRate      float64 `json:"pass_rate"` // percentage, two decimals
	ExecutionTime float64 `json:"execution_time"`
}

// FailedTest summarizes one failed or errored test.
type FailedTest struct {
	TestID  string `json:"test_id"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// GenerateReport is a pure aggregation over a result map: counts by status,
// pass rate, and a per-requirement rollup. A requirement counts as PASSED
// only when every one of its results passed; a requirement with zero
// associated results is vacuously PASSED (kept as-is, see DESIGN.md).
func GenerateReport(results map[string]TestResult) Report {
	var passed, failed, errors int
	var execTime float64
	for _, res := range results {
		switch res.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		case StatusError:
			errors++
		}
		execTime += res.ExecutionTime
	}

	total := len(results)
	passRate := 0.0
	if total > 0 {
		passRate = math.Round(float64(passed)/float64(total)*100*100) / 100
	}

	byRequirement := make(map[string][]TestResult)
	for _, res := range results {
		byRequirement[res.RequirementID] = append(byRequirement[res.RequirementID], res)
	}

	coverage := make(map[string]string, len(byRequirement))
	for reqID, reqResults := range byRequirement {
		reqPassed := true
		for _, res := range reqResults {
			if res.Status != StatusPassed {
				reqPassed = false
				break
			}
		}
		if reqPassed {
			coverage[reqID] = "PASSED"
		} else {
			coverage[reqID] = "FAILED"
		}
	}

	details := make(map[string]string, len(results))
	var failedTests []FailedTest
	for testID, res := range results {
		details[testID] = res.Message
		if res.Status == StatusFailed || res.Status == StatusError {
			failedTests = append(failedTests, FailedTest{
				TestID:  testID,
				Message: res.Message,
				Error:   res.ErrorDetails,
			})
		}
	}

	return Report{
		Summary: Summary{
			TotalTests:    total,
			Passed:        passed,
			Failed:        failed,
			Errors:        errors,
			PassRate:      passRate,
			ExecutionTime: execTime,
		},
		RequirementCoverage: coverage,
		TestDetails:         details,
		FailedTests:         failedTests,
		GeneratedAt:         time.Now(),
	}
}

// CoverageFor rolls up pass/fail per requirement over an explicit
// requirement list. A requirement with zero associated results reports
// PASSED, mirroring an all() over an empty set.
func CoverageFor(requirementIDs []string, results map[string]TestResult) map[string]string {
	coverage := make(map[string]string, len(requirementIDs))
	for _, reqID := range requirementIDs {
		passed := true
		for _, res := range results {
			if res.RequirementID == reqID && res.Status != StatusPassed {
				passed = false
				break
			}
		}
		if passed {
			coverage[reqID] = "PASSED"
		} else {
			coverage[reqID] = "FAILED"
		}
	}
	return coverage
}
