// Package ai provides the multi-provider LLM client layer for webforge.
package ai

import (
	"context"
	"time"
)

// Provider identifies an AI backend.
type Provider string

const (
	ProviderGPT4   Provider = "gpt4"
	ProviderClaude Provider = "claude"
)

// Capability represents the AI use cases of the build pipeline.
type Capability string

const (
	CapabilityRequirementExtraction Capability = "requirement_extraction"
	CapabilityDesignAnalysis        Capability = "design_analysis"
	CapabilityContentGeneration     Capability = "content_generation"
	CapabilityCodeGeneration        Capability = "code_generation"
	CapabilityDiagnosis             Capability = "diagnosis"
	CapabilityDeployPlanning        Capability = "deploy_planning"
)

// Request represents one prompt sent to a provider.
type Request struct {
	ID           string     `json:"id"`
	Capability   Capability `json:"capability"`
	SystemPrompt string     `json:"system_prompt"`
	Prompt       string     `json:"prompt"`
	MaxTokens    int        `json:"max_tokens,omitempty"`
	Temperature  float32    `json:"temperature,omitempty"`
	JSONMode     bool       `json:"json_mode,omitempty"` // ask the model for a JSON object reply
	UserID       uint       `json:"user_id,omitempty"`
	ProjectID    *uint      `json:"project_id,omitempty"`
}

// Response represents a provider reply.
type Response struct {
	ID        string        `json:"id"`
	Provider  Provider      `json:"provider"`
	Content   string        `json:"content"`
	Usage     *Usage        `json:"usage,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Usage tracks token and cost accounting for one reply.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost"`
}

// Client is implemented by each AI provider.
type Client interface {
	// Generate sends the request and returns the provider reply.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Provider returns the provider identifier.
	Provider() Provider

	// Health checks that the provider is reachable.
	Health(ctx context.Context) error

	// Usage returns accumulated usage statistics.
	Usage() *ProviderUsage
}

// ProviderUsage tracks usage statistics for one provider.
type ProviderUsage struct {
	Provider     Provider  `json:"provider"`
	RequestCount int64     `json:"request_count"`
	TotalTokens  int64     `json:"total_tokens"`
	TotalCost    float64   `json:"total_cost"`
	AvgLatency   float64   `json:"avg_latency"`
	ErrorCount   int64     `json:"error_count"`
	LastUsed     time.Time `json:"last_used"`
}

// record folds one completed call into the running statistics.
func (u *ProviderUsage) record(totalTokens int, cost float64, d time.Duration) {
	u.RequestCount++
	u.TotalTokens += int64(totalTokens)
	u.TotalCost += cost
	u.AvgLatency = (u.AvgLatency*float64(u.RequestCount-1) + d.Seconds()) / float64(u.RequestCount)
	u.LastUsed = time.Now()
}
