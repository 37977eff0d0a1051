package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ClaudeClient implements the Anthropic Messages API client.
type ClaudeClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	usage      *ProviderUsage
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
	Temperature float32         `json:"temperature,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClaudeClient creates a new Anthropic API client.
func NewClaudeClient(apiKey string) *ClaudeClient {
	return &ClaudeClient{
		apiKey:  apiKey,
		baseURL: "https://api.anthropic.com/v1/messages",
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		usage: &ProviderUsage{
			Provider: ProviderClaude,
			LastUsed: time.Now(),
		},
	}
}

// Generate implements the Client interface for Claude.
func (c *ClaudeClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	system := req.SystemPrompt
	if req.JSONMode {
		// The Messages API has no JSON response mode; instruct via system prompt.
		system += "\nRespond with a single valid JSON object and nothing else."
	}

	apiReq := &claudeRequest{
		Model:       "claude-3-5-sonnet-20241022",
		MaxTokens:   maxTokensFor(req),
		System:      system,
		Temperature: req.Temperature,
		Messages: []claudeMessage{
			{Role: "user", Content: req.Prompt},
		},
	}

	resp, err := c.makeRequest(ctx, apiReq)
	if err != nil {
		c.usage.ErrorCount++
		return nil, err
	}

	totalTokens := resp.Usage.InputTokens + resp.Usage.OutputTokens
	cost := c.calculateCost(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	c.usage.record(totalTokens, cost, time.Since(start))

	content := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &Response{
		ID:       req.ID,
		Provider: ProviderClaude,
		Content:  content,
		Usage: &Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      totalTokens,
			Cost:             cost,
		},
		Duration:  time.Since(start),
		CreatedAt: time.Now(),
	}, nil
}

// makeRequest sends the HTTP request to the Anthropic API.
func (c *ClaudeClient) makeRequest(ctx context.Context, req *claudeRequest) (*claudeResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp claudeResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("Anthropic API error: %s", apiResp.Error.Message)
	}

	return &apiResp, nil
}

// Provider returns the provider identifier.
func (c *ClaudeClient) Provider() Provider {
	return ProviderClaude
}

// Health checks if the Anthropic API is accessible.
func (c *ClaudeClient) Health(ctx context.Context) error {
	probe := &claudeRequest{
		Model:     "claude-3-5-haiku-20241022",
		MaxTokens: 5,
		Messages: []claudeMessage{
			{Role: "user", Content: "ping"},
		},
	}
	_, err := c.makeRequest(ctx, probe)
	return err
}

// Usage returns current usage statistics.
func (c *ClaudeClient) Usage() *ProviderUsage {
	return c.usage
}

// calculateCost estimates cost from Anthropic pricing.
func (c *ClaudeClient) calculateCost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000*0.003 + float64(outputTokens)/1000*0.015
}
