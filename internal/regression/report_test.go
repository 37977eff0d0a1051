package regression

import "testing"

func result(reqID string, status Status) TestResult {
	return TestResult{RequirementID: reqID, Status: status}
}

func TestGenerateReportPassRate(t *testing.T) {
	tests := []struct {
		name     string
		results  map[string]TestResult
		passRate float64
		passed   int
		failed   int
		errors   int
	}{
		{
			name:     "empty run",
			results:  map[string]TestResult{},
			passRate: 0,
		},
		{
			name: "one of three passes rounds to two decimals",
			results: map[string]TestResult{
				"t1": result("r1", StatusPassed),
				"t2": result("r1", StatusFailed),
				"t3": result("r2", StatusFailed),
			},
			passRate: 33.33,
			passed:   1,
			failed:   2,
		},
		{
			name: "errors count against the rate",
			results: map[string]TestResult{
				"t1": result("r1", StatusPassed),
				"t2": result("r1", StatusError),
			},
			passRate: 50,
			passed:   1,
			errors:   1,
		},
		{
			name: "all passed",
			results: map[string]TestResult{
				"t1": result("r1", StatusPassed),
				"t2": result("r2", StatusPassed),
			},
			passRate: 100,
			passed:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := GenerateReport(tt.results)
			if report.Summary.PassRate != tt.passRate {
				t.Errorf("pass rate = %v, want %v", report.Summary.PassRate, tt.passRate)
			}
			if report.Summary.Passed != tt.passed || report.Summary.Failed != tt.failed || report.Summary.Errors != tt.errors {
				t.Errorf("counts = %d/%d/%d, want %d/%d/%d",
					report.Summary.Passed, report.Summary.Failed, report.Summary.Errors,
					tt.passed, tt.failed, tt.errors)
			}
			if report.Summary.TotalTests != len(tt.results) {
				t.Errorf("total = %d, want %d", report.Summary.TotalTests, len(tt.results))
			}
		})
	}
}

func TestGenerateReportRequirementRollup(t *testing.T) {
	report := GenerateReport(map[string]TestResult{
		"t1": result("r1", StatusPassed),
		"t2": result("r1", StatusFailed),
		"t3": result("r2", StatusPassed),
		"t4": result("r3", StatusError),
	})

	want := map[string]string{"r1": "FAILED", "r2": "PASSED", "r3": "FAILED"}
	for reqID, status := range want {
		if got := report.RequirementCoverage[reqID]; got != status {
			t.Errorf("coverage[%s] = %q, want %q", reqID, got, status)
		}
	}
}

func TestGenerateReportFailedTests(t *testing.T) {
	report := GenerateReport(map[string]TestResult{
		"t1": {RequirementID: "r1", Status: StatusPassed, Message: "ok"},
		"t2": {RequirementID: "r1", Status: StatusFailed, Message: "broken"},
		"t3": {RequirementID: "r2", Status: StatusError, Message: "boom", ErrorDetails: "stack"},
	})

	if len(report.FailedTests) != 2 {
		t.Fatalf("failed tests = %d, want 2", len(report.FailedTests))
	}
	if len(report.TestDetails) != 3 {
		t.Errorf("test details = %d, want 3", len(report.TestDetails))
	}
}

func TestCoverageForVacuousPass(t *testing.T) {
	results := map[string]TestResult{
		"t1": result("r1", StatusFailed),
	}

	coverage := CoverageFor([]string{"r1", "r_untested"}, results)

	if coverage["r1"] != "FAILED" {
		t.Errorf("r1 = %q, want FAILED", coverage["r1"])
	}
	// A requirement with no results at all rolls up as passed.
	if coverage["r_untested"] != "PASSED" {
		t.Errorf("r_untested = %q, want PASSED", coverage["r_untested"])
	}
}
