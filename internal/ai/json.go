package ai

import (
	"context"
	"encoding/json"
	"strings"

	"webforge/internal/logging"
	"webforge/internal/metrics"
)

// Generator is the minimal generation surface the engines depend on. The
// Router satisfies it; tests substitute stubs.
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// CompleteJSON sends a JSON-mode request and decodes the reply into a T.
// On ANY failure (provider error, malformed JSON, missing object) the
// caller-supplied fallback is returned instead, with ok=false. Downstream
// code never sees an error from an analysis step; this is the system's one
// error-handling convention for LLM calls.
func CompleteJSON[T any](ctx context.Context, g Generator, req *Request, fallback T) (T, bool) {
	req.JSONMode = true

	resp, err := g.Generate(ctx, req)
	if err != nil {
		logging.S().Warnw("LLM call failed, using fallback",
			"capability", req.Capability, "error", err)
		metrics.RecordAIFallback(string(req.Capability))
		return fallback, false
	}

	var out T
	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), &out); err != nil {
		logging.S().Warnw("LLM reply was not valid JSON, using fallback",
			"capability", req.Capability, "error", err)
		metrics.RecordAIFallback(string(req.Capability))
		return fallback, false
	}
	return out, true
}

// extractJSON strips markdown code fences and surrounding prose, returning
// the outermost JSON object or array in the reply.
func extractJSON(content string) string {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end <= start {
		return s
	}
	return s[start : end+1]
}
