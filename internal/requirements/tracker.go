// Package requirements tracks user-stated requirements extracted from chat
// input and derives regression test cases from their acceptance criteria.
package requirements

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"webforge/internal/ai"
	"webforge/internal/logging"
	"webforge/internal/regression"
	"webforge/pkg/models"
)

// Tracker holds the requirements of one project. Mutations happen on the
// build goroutine; the mutex only guards dashboard reads.
type Tracker struct {
	projectID uint

	mu           sync.RWMutex
	requirements map[string]*models.Requirement
	ordered      []string // insertion order
	history      []HistoryEntry

	db  *gorm.DB // optional; nil skips persistence
	llm ai.Generator
}

// HistoryEntry records one tracker mutation.
type HistoryEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"`
	Data      map[string]interface{} `json:"data"`
}

// extractedRequirement is the JSON shape requested from the LLM.
type extractedRequirement struct {
	Type               string   `json:"type"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	Priority           int      `json:"priority"`
	Tags               []string `json:"tags"`
}

// NewTracker creates a tracker for one project. db may be nil; llm may be
// nil to force rule-based extraction.
func NewTracker(projectID uint, db *gorm.DB, llm ai.Generator) *Tracker {
	return &Tracker{
		projectID:    projectID,
		requirements: make(map[string]*models.Requirement),
		db:           db,
		llm:          llm,
	}
}

// LoadTracker rebuilds a tracker from a project's persisted requirements.
func LoadTracker(projectID uint, db *gorm.DB, llm ai.Generator) (*Tracker, error) {
	t := NewTracker(projectID, db, llm)
	var stored []models.Requirement
	if err := db.Where("project_id = ?", projectID).Order("created_at asc").Find(&stored).Error; err != nil {
		return nil, err
	}
	for i := range stored {
		req := &stored[i]
		t.requirements[req.RequirementID] = req
		t.ordered = append(t.ordered, req.RequirementID)
	}
	return t, nil
}

// Extract splits the user's chat input into requirements. An LLM pass runs
// first when a generator is configured; on any LLM failure the rule-based
// extraction below serves as the fallback.
func (t *Tracker) Extract(ctx context.Context, userInput string) []*models.Requirement {
	extracted := ruleBasedExtract(userInput)

	if t.llm != nil {
		prompt := fmt.Sprintf(
			"Split this website request into individual requirements.\n"+
				"Request: %q\n"+
				"Reply with a JSON object {\"requirements\": [{\"type\": \"functional|ui_ux|content|performance\", "+
				"\"title\": str, \"description\": str, \"acceptance_criteria\": [str], \"priority\": 1-4, \"tags\": [str]}]}.",
			userInput)
		var wrapper struct {
			Requirements []extractedRequirement `json:"requirements"`
		}
		out, ok := ai.CompleteJSON(ctx, t.llm, &ai.Request{
			Capability:   ai.CapabilityRequirementExtraction,
			SystemPrompt: "You are a requirements analyst for a website builder. Extract concrete, testable requirements.",
			Prompt:       prompt,
		}, wrapper)
		if ok && len(out.Requirements) > 0 {
			extracted = out.Requirements
		}
	}

	var created []*models.Requirement
	for _, e := range extracted {
		req := &models.Requirement{
			RequirementID:      generateRequirementID(e.Title),
			ProjectID:          t.projectID,
			Type:               e.Type,
			Title:              e.Title,
			Description:        e.Description,
			UserInput:          userInput,
			AcceptanceCriteria: e.AcceptanceCriteria,
			Priority:           e.Priority,
			Status:             models.RequirementStatusPending,
			Tags:               e.Tags,
		}

		t.mu.Lock()
		t.requirements[req.RequirementID] = req
		t.ordered = append(t.ordered, req.RequirementID)
		t.mu.Unlock()

		t.record("requirement_created", map[string]interface{}{
			"requirement_id": req.RequirementID,
			"user_input":     userInput,
		})

		if t.db != nil {
			if err := t.db.Create(req).Error; err != nil {
				logging.S().Warnw("failed to persist requirement", "id", req.RequirementID, "error", err)
			}
		}
		created = append(created, req)
	}
	return created
}

// ruleBasedExtract is the keyword fallback used when no LLM is available or
// the LLM reply was unusable.
func ruleBasedExtract(userInput string) []extractedRequirement {
	input := strings.ToLower(userInput)
	var reqs []extractedRequirement

	if strings.Contains(input, "website") || strings.Contains(input, "site") ||
		strings.Contains(input, "page") || strings.Contains(input, "app") {
		reqs = append(reqs, extractedRequirement{
			Type:        "functional",
			Title:       "Build the website",
			Description: "Build the website the user asked for: " + userInput,
			AcceptanceCriteria: []string{
				"The page displays in a browser",
				"The layout is responsive",
				"The page loads without errors",
			},
			Priority: 3,
			Tags:     []string{"website", "create"},
		})
	}

	if strings.Contains(input, "color") || strings.Contains(input, "theme") {
		reqs = append(reqs, extractedRequirement{
			Type:        "ui_ux",
			Title:       "Apply the requested color scheme",
			Description: "Style the site with the requested colors: " + userInput,
			AcceptanceCriteria: []string{
				"The color scheme matches the request",
				"Colors are consistent across the page",
				"Text stays readable and accessible",
			},
			Priority: 2,
			Tags:     []string{"color", "design", "ui"},
		})
	}

	if strings.Contains(input, "button") {
		reqs = append(reqs, extractedRequirement{
			Type:        "functional",
			Title:       "Add the requested buttons",
			Description: "Add working buttons: " + userInput,
			AcceptanceCriteria: []string{
				"The button is visible",
				"The button responds to clicks",
				"The button has a hover effect",
			},
			Priority: 2,
			Tags:     []string{"button", "interactive", "ui"},
		})
	}

	if strings.Contains(input, "contact") || strings.Contains(input, "form") {
		reqs = append(reqs, extractedRequirement{
			Type:        "functional",
			Title:       "Add a contact form",
			Description: "Provide a form for visitors to reach out: " + userInput,
			AcceptanceCriteria: []string{
				"The form displays all fields",
				"Form inputs have labels",
			},
			Priority: 2,
			Tags:     []string{"form", "contact"},
		})
	}

	return reqs
}

// UpdateStatus sets a requirement status. Transitions are not enforced; the
// orchestrator sets statuses imperatively after each phase.
func (t *Tracker) UpdateStatus(reqID, newStatus string) bool {
	t.mu.Lock()
	req, ok := t.requirements[reqID]
	if !ok {
		t.mu.Unlock()
		return false
	}
	oldStatus := req.Status
	req.Status = newStatus
	t.mu.Unlock()

	t.record("status_updated", map[string]interface{}{
		"requirement_id": reqID,
		"old_status":     oldStatus,
		"new_status":     newStatus,
	})

	if t.db != nil {
		if err := t.db.Model(&models.Requirement{}).
			Where("requirement_id = ?", reqID).
			Update("status", newStatus).Error; err != nil {
			logging.S().Warnw("failed to persist requirement status", "id", reqID, "error", err)
		}
	}
	return true
}

// AddImplementedFiles attaches generated files to a requirement.
func (t *Tracker) AddImplementedFiles(reqID string, files []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	req, ok := t.requirements[reqID]
	if !ok {
		return
	}
	req.ImplementedFiles = append(req.ImplementedFiles, files...)
}

// All returns the requirements in insertion order.
func (t *Tracker) All() []*models.Requirement {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*models.Requirement, 0, len(t.ordered))
	for _, id := range t.ordered {
		out = append(out, t.requirements[id])
	}
	return out
}

// ActiveIDs returns the IDs of all non-deprecated requirements.
func (t *Tracker) ActiveIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var ids []string
	for _, id := range t.ordered {
		if t.requirements[id].Status != models.RequirementStatusDeprecated {
			ids = append(ids, id)
		}
	}
	return ids
}

// GenerateRegressionTests builds one test case per acceptance criterion of
// every implemented, tested, or verified requirement.
func (t *Tracker) GenerateRegressionTests() []regression.TestCase {
	eligible := map[string]bool{
		models.RequirementStatusImplemented: true,
		models.RequirementStatusTested:      true,
		models.RequirementStatusVerified:    true,
	}

	var tests []regression.TestCase
	for _, req := range t.All() {
		if !eligible[req.Status] {
			continue
		}
		for i, criteria := range req.AcceptanceCriteria {
			tests = append(tests, regression.TestCase{
				ID:             fmt.Sprintf("%s_test_%d", req.RequirementID, i),
				RequirementID:  req.RequirementID,
				Title:          "Test: " + criteria,
				Description:    "Verify that " + criteria,
				Type:           testTypeFor(req.Type, criteria),
				Priority:       req.Priority,
				ExpectedResult: criteria,
				FilesToCheck:   req.ImplementedFiles,
			})
		}
	}
	return tests
}

// testTypeFor maps a requirement type and criterion text to a checker type.
func testTypeFor(reqType, criteria string) regression.Type {
	c := strings.ToLower(criteria)
	switch {
	case strings.Contains(c, "load") && strings.Contains(c, "time"):
		return regression.TypePerformance
	case strings.Contains(c, "accessib") || strings.Contains(c, "label") || strings.Contains(c, "alt text"):
		return regression.TypeAccessibility
	case reqType == "ui_ux" || strings.Contains(c, "color") || strings.Contains(c, "responsive") || strings.Contains(c, "layout"):
		return regression.TypeUI
	case reqType == "content" || strings.Contains(c, "text") || strings.Contains(c, "heading"):
		return regression.TypeContent
	case reqType == "performance":
		return regression.TypePerformance
	default:
		return regression.TypeFunctional
	}
}

// History returns a copy of the mutation log.
func (t *Tracker) History() []HistoryEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]HistoryEntry, len(t.history))
	copy(out, t.history)
	return out
}

// record appends one entry to the mutation log.
func (t *Tracker) record(action string, data map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = append(t.history, HistoryEntry{
		Timestamp: time.Now(),
		Action:    action,
		Data:      data,
	})
}

// generateRequirementID builds a unique requirement ID from the title.
func generateRequirementID(title string) string {
	stamp := time.Now().UnixMilli()
	hash := fmt.Sprintf("%x", md5.Sum([]byte(title)))[:8]
	return fmt.Sprintf("req_%d_%s", stamp, hash)
}
