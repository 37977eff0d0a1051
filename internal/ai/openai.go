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

// OpenAIClient implements the OpenAI chat completions client.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	usage      *ProviderUsage
}

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float32         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIClient creates a new OpenAI API client.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: "https://api.openai.com/v1/chat/completions",
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		usage: &ProviderUsage{
			Provider: ProviderGPT4,
			LastUsed: time.Now(),
		},
	}
}

// Generate implements the Client interface for OpenAI.
func (o *OpenAIClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	apiReq := &openAIRequest{
		Model:       o.modelFor(req.Capability),
		Messages:    buildMessages(req),
		MaxTokens:   maxTokensFor(req),
		Temperature: req.Temperature,
	}
	if req.JSONMode {
		apiReq.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	resp, err := o.makeRequest(ctx, apiReq)
	if err != nil {
		o.usage.ErrorCount++
		return nil, err
	}

	cost := o.calculateCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, apiReq.Model)
	o.usage.record(resp.Usage.TotalTokens, cost, time.Since(start))

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &Response{
		ID:       req.ID,
		Provider: ProviderGPT4,
		Content:  content,
		Usage: &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
			Cost:             cost,
		},
		Duration:  time.Since(start),
		CreatedAt: time.Now(),
	}, nil
}

// makeRequest sends the HTTP request to the OpenAI API.
func (o *OpenAIClient) makeRequest(ctx context.Context, req *openAIRequest) (*openAIResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", o.apiKey))

	resp, err := o.httpClient.Do(httpReq)
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

	var apiResp openAIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("OpenAI API error: %s", apiResp.Error.Message)
	}

	return &apiResp, nil
}

// modelFor selects the OpenAI model for the capability.
func (o *OpenAIClient) modelFor(capability Capability) string {
	switch capability {
	case CapabilityCodeGeneration, CapabilityDiagnosis:
		return "gpt-4-turbo"
	default:
		return "gpt-4"
	}
}

// Provider returns the provider identifier.
func (o *OpenAIClient) Provider() Provider {
	return ProviderGPT4
}

// Health checks if the OpenAI API is accessible.
func (o *OpenAIClient) Health(ctx context.Context) error {
	probe := &openAIRequest{
		Model: "gpt-4",
		Messages: []openAIMessage{
			{Role: "user", Content: "ping"},
		},
		MaxTokens: 5,
	}
	_, err := o.makeRequest(ctx, probe)
	return err
}

// Usage returns current usage statistics.
func (o *OpenAIClient) Usage() *ProviderUsage {
	return o.usage
}

// calculateCost estimates cost from OpenAI pricing.
func (o *OpenAIClient) calculateCost(inputTokens, outputTokens int, model string) float64 {
	var inPer1K, outPer1K float64
	switch model {
	case "gpt-4-turbo":
		inPer1K, outPer1K = 0.01, 0.03
	default:
		inPer1K, outPer1K = 0.03, 0.06
	}
	return float64(inputTokens)/1000*inPer1K + float64(outputTokens)/1000*outPer1K
}

// buildMessages assembles the system+user message pair shared by providers.
func buildMessages(req *Request) []openAIMessage {
	msgs := make([]openAIMessage, 0, 2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openAIMessage{Role: "system", Content: req.SystemPrompt})
	}
	msgs = append(msgs, openAIMessage{Role: "user", Content: req.Prompt})
	return msgs
}

// maxTokensFor determines the response budget per capability.
func maxTokensFor(req *Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	switch req.Capability {
	case CapabilityCodeGeneration:
		return 4000
	case CapabilityContentGeneration:
		return 2500
	case CapabilityDiagnosis:
		return 2000
	default:
		return 1500
	}
}
