package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered webforge user.
type User struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Username     string `json:"username" gorm:"uniqueIndex;not null"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	// Relationships
	Projects []Project `json:"projects" gorm:"foreignKey:OwnerID"`
}

// Project statuses. Transitions are plain field assignments set by the
// orchestrator after each phase; nothing enforces ordering.
const (
	ProjectStatusPending   = "pending"
	ProjectStatusBuilding  = "building"
	ProjectStatusTesting   = "testing"
	ProjectStatusHealing   = "healing"
	ProjectStatusReady     = "ready"
	ProjectStatusPartial   = "partial" // finished below target but above the acceptance floor
	ProjectStatusFailed    = "failed"
)

// Project represents one generated website instance.
type Project struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Identity
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"` // filesystem-safe, e.g. myapp-20260830-142501
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"` // original chat request

	// Ownership
	OwnerID uint `json:"owner_id" gorm:"not null"`
	Owner   User `json:"owner" gorm:"foreignKey:OwnerID"`

	// Build outcome
	Status     string  `json:"status" gorm:"default:'pending'"`
	PassRate   float64 `json:"pass_rate" gorm:"default:0"`
	Attempts   int     `json:"attempts" gorm:"default:0"`
	PreviewURL string  `json:"preview_url"`
	Message    string  `json:"message"` // free-text result message, verbatim on failure

	// Generated artifact inventory
	Files []string `json:"files" gorm:"serializer:json"`

	// Relationships
	Requirements  []Requirement  `json:"requirements" gorm:"foreignKey:ProjectID"`
	BuildAttempts []BuildAttempt `json:"build_attempts" gorm:"foreignKey:ProjectID"`
	Deployments   []Deployment   `json:"deployments" gorm:"foreignKey:ProjectID"`
}

// Requirement statuses. Forward-only by convention; any caller can set any
// status, matching the tracker's imperative update model.
const (
	RequirementStatusPending     = "pending"
	RequirementStatusInProgress  = "in_progress"
	RequirementStatusImplemented = "implemented"
	RequirementStatusTested      = "tested"
	RequirementStatusVerified    = "verified"
	RequirementStatusDeprecated  = "deprecated"
)

// Requirement is a user-stated desire split out of free-form chat input.
type Requirement struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	RequirementID string  `json:"requirement_id" gorm:"uniqueIndex;not null"` // req_<stamp>_<hash>
	ProjectID     uint    `json:"project_id" gorm:"index"`
	Project       Project `json:"-" gorm:"foreignKey:ProjectID"`

	Type               string   `json:"type" gorm:"not null"` // functional, ui_ux, content, performance
	Title              string   `json:"title" gorm:"not null"`
	Description        string   `json:"description" gorm:"type:text"`
	UserInput          string   `json:"user_input" gorm:"type:text"`
	AcceptanceCriteria []string `json:"acceptance_criteria" gorm:"serializer:json"`
	Priority           int      `json:"priority" gorm:"default:2"`
	Status             string   `json:"status" gorm:"default:'pending'"`
	ImplementedFiles   []string `json:"implemented_files" gorm:"serializer:json"`
	Tags               []string `json:"tags" gorm:"serializer:json"`
}

// BuildAttempt records one cycle of the self-healing build loop.
type BuildAttempt struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`

	ProjectID uint    `json:"project_id" gorm:"index;not null"`
	Project   Project `json:"-" gorm:"foreignKey:ProjectID"`

	Attempt        int     `json:"attempt" gorm:"not null"` // 1-based
	PassRate       float64 `json:"pass_rate"`
	TestsRun       int     `json:"tests_run"`
	TestsPassed    int     `json:"tests_passed"`
	PatchesApplied int     `json:"patches_applied"`
	Error          string  `json:"error,omitempty"`

	// Full test report snapshot
	Report map[string]interface{} `json:"report" gorm:"serializer:json"`
}

// Deployment statuses. A record can be constructed directly in any state;
// there is no guarded state machine.
const (
	DeploymentStatusPending    = "pending"
	DeploymentStatusBuilding   = "building"
	DeploymentStatusDeploying  = "deploying"
	DeploymentStatusDeployed   = "deployed"
	DeploymentStatusFailed     = "failed"
	DeploymentStatusRolledBack = "rolled_back"
)

// Deployment records one simulated deploy of a generated site.
type Deployment struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DeploymentID string  `json:"deployment_id" gorm:"uniqueIndex;not null"`
	ProjectID    uint    `json:"project_id" gorm:"index;not null"`
	Project      Project `json:"-" gorm:"foreignKey:ProjectID"`

	Platform    string `json:"platform" gorm:"not null"` // vercel, netlify, railway, render
	Environment string `json:"environment" gorm:"default:'production'"`
	Status      string `json:"status" gorm:"default:'pending'"`
	URL         string `json:"url"`
	Message     string `json:"message"`
	DurationMS  int64  `json:"duration_ms" gorm:"default:0"`
}

// ChatMessage stores one message of a build conversation.
type ChatMessage struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`

	SessionID string `json:"session_id" gorm:"index;not null"`
	UserID    uint   `json:"user_id" gorm:"index"`
	ProjectID *uint  `json:"project_id"`

	Role    string `json:"role" gorm:"not null"` // user, assistant, system
	Content string `json:"content" gorm:"type:text;not null"`
	Type    string `json:"type" gorm:"default:'text'"` // text, status, progress, completed, error
}

// AICall records one round trip to an AI provider for usage accounting.
type AICall struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`

	// Not unique: a request that falls through providers leaves one row
	// per attempt.
	RequestID  string  `json:"request_id" gorm:"index;not null"`
	UserID     uint    `json:"user_id" gorm:"index"`
	ProjectID  *uint   `json:"project_id"`
	Provider   string  `json:"provider" gorm:"not null"`
	Capability string  `json:"capability" gorm:"not null"`
	TokensUsed int     `json:"tokens_used" gorm:"default:0"`
	Cost       float64 `json:"cost" gorm:"default:0"`
	DurationMS int64   `json:"duration_ms" gorm:"default:0"`
	Status     string  `json:"status" gorm:"default:'completed'"` // completed, failed, fallback
	ErrorMsg   string  `json:"error_msg"`
}
