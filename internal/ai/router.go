package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"webforge/internal/logging"
	"webforge/internal/metrics"
	"webforge/pkg/models"
)

// Router routes generation requests across the configured providers with
// fallback and per-provider rate limiting.
type Router struct {
	clients  map[Provider]Client
	order    []Provider // preference order; the first healthy provider wins
	limiters map[Provider]*rate.Limiter

	mu     sync.RWMutex
	health map[Provider]bool

	db   *gorm.DB // optional; enables durable usage accounting
	stop chan struct{}
}

// Requests per minute allowed per provider.
var providerRateLimits = map[Provider]int{
	ProviderGPT4:   80,
	ProviderClaude: 100,
}

// NewRouter creates a router over the providers with non-empty keys.
func NewRouter(openAIKey, claudeKey string) *Router {
	clients := make(map[Provider]Client)
	var order []Provider

	if openAIKey != "" {
		clients[ProviderGPT4] = NewOpenAIClient(openAIKey)
		order = append(order, ProviderGPT4)
	}
	if claudeKey != "" {
		clients[ProviderClaude] = NewClaudeClient(claudeKey)
		order = append(order, ProviderClaude)
	}

	limiters := make(map[Provider]*rate.Limiter)
	for provider := range clients {
		perMin := providerRateLimits[provider]
		limiters[provider] = rate.NewLimiter(rate.Limit(float64(perMin)/60), perMin)
	}

	r := &Router{
		clients:  clients,
		order:    order,
		limiters: limiters,
		health:   make(map[Provider]bool),
		stop:     make(chan struct{}),
	}

	// Assume healthy until the first probe says otherwise.
	for provider := range clients {
		r.health[provider] = true
	}
	go r.monitorHealth()

	return r
}

// SetStore enables durable per-call usage records in addition to the
// Prometheus counters. db may be nil.
func (r *Router) SetStore(db *gorm.DB) {
	r.db = db
}

// Available reports whether at least one provider is configured.
func (r *Router) Available() bool {
	return len(r.clients) > 0
}

// Generate sends the request to the first healthy, non-rate-limited provider,
// falling through the preference order on error.
func (r *Router) Generate(ctx context.Context, req *Request) (*Response, error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Temperature == 0 {
		req.Temperature = 0.7
	}

	if len(r.order) == 0 {
		return nil, fmt.Errorf("no AI providers configured")
	}

	var lastErr error
	for _, provider := range r.order {
		client := r.clients[provider]
		if !r.isHealthy(provider) {
			continue
		}
		if !r.limiters[provider].Allow() {
			logging.S().Warnw("provider rate limited, trying next", "provider", provider)
			continue
		}

		start := time.Now()
		resp, err := client.Generate(ctx, req)
		if err == nil {
			tokens := 0
			if resp.Usage != nil {
				tokens = resp.Usage.TotalTokens
			}
			metrics.RecordAICall(string(provider), string(req.Capability), "completed", tokens, time.Since(start))
			r.recordCall(req, provider, "completed", tokens, "", time.Since(start))
			return resp, nil
		}
		metrics.RecordAICall(string(provider), string(req.Capability), "failed", 0, time.Since(start))
		r.recordCall(req, provider, "failed", 0, err.Error(), time.Since(start))
		lastErr = err
		logging.S().Warnw("provider failed, falling back", "provider", provider, "error", err)
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("all providers rate limited or unhealthy")
	}
	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}

// recordCall writes one usage record; best effort, off the request path.
func (r *Router) recordCall(req *Request, provider Provider, status string, tokens int, errMsg string, duration time.Duration) {
	if r.db == nil {
		return
	}
	call := &models.AICall{
		RequestID:  req.ID,
		UserID:     req.UserID,
		ProjectID:  req.ProjectID,
		Provider:   string(provider),
		Capability: string(req.Capability),
		TokensUsed: tokens,
		DurationMS: duration.Milliseconds(),
		Status:     status,
		ErrorMsg:   errMsg,
	}
	go func() {
		if err := r.db.Create(call).Error; err != nil {
			logging.S().Warnw("failed to record AI call", "request", req.ID, "error", err)
		}
	}()
}

// isHealthy checks the last recorded health state for a provider.
func (r *Router) isHealthy(provider Provider) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.health[provider]
}

// monitorHealth probes all providers every 30 seconds.
func (r *Router) monitorHealth() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.performHealthChecks()
		}
	}
}

// performHealthChecks probes each provider concurrently.
func (r *Router) performHealthChecks() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for provider, client := range r.clients {
		go func(p Provider, c Client) {
			healthy := c.Health(ctx) == nil
			if !healthy {
				logging.S().Warnw("provider health check failed", "provider", p)
			}
			r.mu.Lock()
			r.health[p] = healthy
			r.mu.Unlock()
		}(provider, client)
	}
}

// Close stops the background health monitor.
func (r *Router) Close() {
	close(r.stop)
}

// ProviderUsage returns usage statistics for all providers.
func (r *Router) ProviderUsage() map[Provider]*ProviderUsage {
	usage := make(map[Provider]*ProviderUsage, len(r.clients))
	for provider, client := range r.clients {
		usage[provider] = client.Usage()
	}
	return usage
}

// HealthStatus returns the last recorded health state of all providers.
func (r *Router) HealthStatus() map[Provider]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := make(map[Provider]bool, len(r.clients))
	for provider := range r.clients {
		status[provider] = r.health[provider]
	}
	return status
}
