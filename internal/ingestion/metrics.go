package ingestion

import (
	"sync"
	"time"
)

// Metrics counts what the ingestion loop has done so far.
type Metrics struct {
	TicksCompleted  int64     `json:"ticks_completed"`
	ManualRefreshes int64     `json:"manual_refreshes"`
	SamplesApplied  int64     `json:"samples_applied"`
	SamplesRejected int64     `json:"samples_rejected"`
	AlarmsRaised    int64     `json:"alarms_raised"`
	SourceErrors    int64     `json:"source_errors"`
	LastTickAt      time.Time `json:"last_tick_at"`
}

// MetricsTracker is a goroutine-safe wrapper around Metrics.
type MetricsTracker struct {
	mu      sync.RWMutex
	metrics Metrics
}

// NewMetricsTracker builds a tracker with zeroed metrics.
func NewMetricsTracker() *MetricsTracker {
	return &MetricsTracker{}
}

// Update applies a mutation under the lock.
func (t *MetricsTracker) Update(fn func(*Metrics)) {
	if fn == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.metrics)
}

// Snapshot returns a copy of the current metrics.
func (t *MetricsTracker) Snapshot() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metrics
}

// Reset clears accumulated metrics.
func (t *MetricsTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = Metrics{}
}
