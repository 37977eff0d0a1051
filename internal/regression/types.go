// Package regression implements the heuristic regression tester for
// generated sites: fetch pages, parse markup, and evaluate presence and
// threshold checks against generated test cases.
package regression

import "time"

// Status of one test execution.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Type selects which checker evaluates a test case.
type Type string

const (
	TypeFunctional    Type = "functional"
	TypeUI            Type = "ui"
	TypeContent       Type = "content"
	TypePerformance   Type = "performance"
	TypeAccessibility Type = "accessibility"
	TypeRegression    Type = "regression"
)

// TestCase describes one heuristic check derived from a requirement.
// Immutable after creation.
type TestCase struct {
	ID             string        `json:"id"`
	RequirementID  string        `json:"requirement_id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Type           Type          `json:"type"`
	Priority       int           `json:"priority"` // >=3 is high/critical
	TestSteps      []string      `json:"test_steps,omitempty"`
	ExpectedResult string        `json:"expected_result"`
	FilesToCheck   []string      `json:"files_to_check,omitempty"`
	Timeout        time.Duration `json:"timeout,omitempty"`
}

// TestResult is produced by running one TestCase. A fresh value is created
// on every run; results are never mutated.
type TestResult struct {
	TestID        string                 `json:"test_id"`
	RequirementID string                 `json:"requirement_id"`
	Status        Status                 `json:"status"`
	Message       string                 `json:"message"`
	ExecutionTime float64                `json:"execution_time"` // seconds
	ErrorDetails  string                 `json:"error_details,omitempty"`
	Artifacts     map[string]interface{} `json:"artifacts,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}
