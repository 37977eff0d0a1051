// Package metrics provides Prometheus metrics for webforge monitoring:
// HTTP traffic, AI provider usage, the build pipeline, and regression runs.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	instance *Metrics
)

// Metrics holds all Prometheus metric collectors for webforge.
type Metrics struct {
	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// AI providers
	AIRequestsTotal   *prometheus.CounterVec
	AIRequestDuration *prometheus.HistogramVec
	AITokensUsed      *prometheus.CounterVec
	AIFallbacksTotal  *prometheus.CounterVec

	// Build pipeline
	BuildsTotal   *prometheus.CounterVec
	BuildDuration *prometheus.HistogramVec
	BuildAttempts prometheus.Histogram

	// Regression runs
	RegressionRunsTotal prometheus.Counter
	RegressionTestsRun  prometheus.Counter
	RegressionPassRate  prometheus.Histogram

	// WebSocket
	WSConnectionsGauge prometheus.Gauge
	WSMessagesTotal    *prometheus.CounterVec
}

// Get returns the singleton Metrics instance.
func Get() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

func newMetrics() *Metrics {
	m := &Metrics{}

	m.HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webforge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint, method, and status code",
		},
		[]string{"endpoint", "method", "status"},
	)
	m.HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "webforge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "method"},
	)
	m.HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "webforge",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)

	m.AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webforge",
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "Total AI provider requests by provider, capability, and outcome",
		},
		[]string{"provider", "capability", "status"},
	)
	m.AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "webforge",
			Subsystem: "ai",
			Name:      "request_duration_seconds",
			Help:      "AI provider request duration in seconds",
			Buckets:   []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)
	m.AITokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webforge",
			Subsystem: "ai",
			Name:      "tokens_used_total",
			Help:      "Total tokens consumed by provider",
		},
		[]string{"provider"},
	)
	m.AIFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webforge",
			Subsystem: "ai",
			Name:      "fallbacks_total",
			Help:      "Times a deterministic fallback replaced an AI reply, by capability",
		},
		[]string{"capability"},
	)

	m.BuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webforge",
			Subsystem: "build",
			Name:      "total",
			Help:      "Completed builds by terminal status",
		},
		[]string{"status"},
	)
	m.BuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "webforge",
			Subsystem: "build",
			Name:      "duration_seconds",
			Help:      "End-to-end build duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"status"},
	)
	m.BuildAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "webforge",
			Subsystem: "build",
			Name:      "attempts",
			Help:      "Self-heal attempts used per build",
			Buckets:   []float64{1, 2, 3},
		},
	)

	m.RegressionRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "webforge",
			Subsystem: "regression",
			Name:      "runs_total",
			Help:      "Total regression test runs",
		},
	)
	m.RegressionTestsRun = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "webforge",
			Subsystem: "regression",
			Name:      "tests_run_total",
			Help:      "Total individual regression tests executed",
		},
	)
	m.RegressionPassRate = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "webforge",
			Subsystem: "regression",
			Name:      "pass_rate",
			Help:      "Pass rate per regression run (percent)",
			Buckets:   []float64{0, 25, 50, 80, 90, 100},
		},
	)

	m.WSConnectionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "webforge",
			Subsystem: "websocket",
			Name:      "connections",
			Help:      "Currently connected websocket clients",
		},
	)
	m.WSMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webforge",
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Websocket messages by direction and type",
		},
		[]string{"direction", "type"},
	)

	return m
}

// RecordBuild records one finished build.
func RecordBuild(status string, duration time.Duration) {
	m := Get()
	m.BuildsTotal.WithLabelValues(status).Inc()
	m.BuildDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordRegressionRun records one full regression run.
func RecordRegressionRun(testsRun int, passRate float64) {
	m := Get()
	m.RegressionRunsTotal.Inc()
	m.RegressionTestsRun.Add(float64(testsRun))
	m.RegressionPassRate.Observe(passRate)
}

// RecordAICall records one provider round trip.
func RecordAICall(provider, capability, status string, tokens int, duration time.Duration) {
	m := Get()
	m.AIRequestsTotal.WithLabelValues(provider, capability, status).Inc()
	m.AIRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if tokens > 0 {
		m.AITokensUsed.WithLabelValues(provider).Add(float64(tokens))
	}
}

// RecordAIFallback counts one fallback substitution.
func RecordAIFallback(capability string) {
	Get().AIFallbacksTotal.WithLabelValues(capability).Inc()
}
