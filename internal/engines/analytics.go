package engines

import (
	"sync"
	"time"
)

// AlertThresholds configure when the analytics engine raises an alert.
type AlertThresholds struct {
	BuildFailureStreak int     // consecutive failed builds
	MinPassRate        float64 // percent; builds finishing below alert
}

// DefaultThresholds are the out-of-the-box alert settings.
var DefaultThresholds = AlertThresholds{
	BuildFailureStreak: 3,
	MinPassRate:        50,
}

// Alert is one raised analytics condition.
type Alert struct {
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is a point-in-time view of build activity for the dashboard.
type Snapshot struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	Events        map[string]int64 `json:"events"`
	BuildsStarted int64            `json:"builds_started"`
	BuildsReady   int64            `json:"builds_ready"`
	BuildsPartial int64            `json:"builds_partial"`
	BuildsFailed  int64            `json:"builds_failed"`
	AvgPassRate   float64          `json:"avg_pass_rate"`
	FailureStreak int              `json:"failure_streak"`
	Alerts        []Alert          `json:"alerts"`
}

// Analytics counts build events in memory and raises threshold alerts.
// Counters reset on process restart; the durable record lives in the
// BuildAttempt table.
type Analytics struct {
	mu sync.Mutex

	thresholds AlertThresholds
	events     map[string]int64

	started, ready, partial, failed int64
	passRateSum                     float64
	passRateCount                   int64
	failureStreak                   int

	alerts []Alert
}

// NewAnalytics creates an analytics engine with the given thresholds.
func NewAnalytics(thresholds AlertThresholds) *Analytics {
	return &Analytics{
		thresholds: thresholds,
		events:     make(map[string]int64),
	}
}

// Track increments a named event counter.
func (a *Analytics) Track(event string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events[event]++
}

// BuildStarted records the start of a build.
func (a *Analytics) BuildStarted() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started++
	a.events["build_started"]++
}

// BuildFinished records a build outcome. status is a models.ProjectStatus*
// terminal value; passRate is the final percentage.
func (a *Analytics) BuildFinished(status string, passRate float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.passRateSum += passRate
	a.passRateCount++

	switch status {
	case "ready":
		a.ready++
		a.failureStreak = 0
	case "partial":
		a.partial++
		a.failureStreak = 0
	default:
		a.failed++
		a.failureStreak++
	}
	a.events["build_finished"]++

	if a.failureStreak >= a.thresholds.BuildFailureStreak && a.thresholds.BuildFailureStreak > 0 {
		a.raise("failure_streak", "consecutive build failures reached the alert threshold")
	}
	if passRate < a.thresholds.MinPassRate {
		a.raise("low_pass_rate", "build finished below the minimum pass rate")
	}
}

// raise appends an alert; caller holds the lock.
func (a *Analytics) raise(kind, message string) {
	a.alerts = append(a.alerts, Alert{Kind: kind, Message: message, Timestamp: time.Now()})
	if len(a.alerts) > 100 {
		a.alerts = a.alerts[len(a.alerts)-100:]
	}
}

// Snapshot returns the current counters and alerts.
func (a *Analytics) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	events := make(map[string]int64, len(a.events))
	for k, v := range a.events {
		events[k] = v
	}
	alerts := make([]Alert, len(a.alerts))
	copy(alerts, a.alerts)

	avg := 0.0
	if a.passRateCount > 0 {
		avg = a.passRateSum / float64(a.passRateCount)
	}

	return Snapshot{
		GeneratedAt:   time.Now(),
		Events:        events,
		BuildsStarted: a.started,
		BuildsReady:   a.ready,
		BuildsPartial: a.partial,
		BuildsFailed:  a.failed,
		AvgPassRate:   avg,
		FailureStreak: a.failureStreak,
		Alerts:        alerts,
	}
}
