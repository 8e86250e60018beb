package ingestion

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"hotel-beacon-monitor/internal/engine"
	"hotel-beacon-monitor/pkg/clock"
)

// Loop is the timer-driven ingestion controller. It has two states: Idle (no
// timer) and Running (one periodic trigger at the configured interval). Every
// transition cancels the previous timer synchronously before installing a new
// one, so two timers can never fire for the same loop.
type Loop struct {
	eng     *engine.Engine
	source  Source
	clk     clock.Clock
	log     *zap.Logger
	metrics *MetricsTracker

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	running  bool
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}

	busy atomic.Bool
}

// NewLoop builds an idle loop.
func NewLoop(eng *engine.Engine, source Source, clk clock.Clock, opts ...LoopOption) *Loop {
	ctx, cancel := context.WithCancel(context.Background())

	l := &Loop{
		eng:     eng,
		source:  source,
		clk:     clk,
		log:     zap.L(),
		metrics: NewMetricsTracker(),
		ctx:     ctx,
		cancel:  cancel,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoopOption customizes loop construction.
type LoopOption func(*Loop)

// WithLoopLogger overrides the loop logger.
func WithLoopLogger(log *zap.Logger) LoopOption {
	return func(l *Loop) {
		l.log = log
	}
}

// Reconfigure moves the loop to the state the settings demand. When a timer
// is already running it is stopped first and this call does not return until
// the old timer goroutine has exited, so no tick from the old timer can be
// observed afterwards.
func (l *Loop) Reconfigure(autoRefresh bool, interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		close(l.stop)
		<-l.done
		l.running = false
	}

	if !autoRefresh || interval <= 0 {
		l.interval = 0
		l.log.Info("ingestion loop idle")
		return
	}

	l.interval = interval
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	l.running = true

	// The ticker is created here, not in the goroutine, so the Running
	// transition is complete when Reconfigure returns.
	ticker := l.clk.Ticker(interval)
	go l.run(l.stop, l.done, ticker)

	l.log.Info("ingestion loop running", zap.Duration("interval", interval))
}

// Close stops the loop and releases its context.
func (l *Loop) Close() {
	l.Reconfigure(false, 0)
	l.cancel()
}

// Running reports whether a periodic timer is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Interval returns the active tick interval, zero when idle.
func (l *Loop) Interval() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interval
}

// Metrics returns a copy of the ingestion counters.
func (l *Loop) Metrics() Metrics {
	return l.metrics.Snapshot()
}

// Busy reports whether a manual refresh is in flight.
func (l *Loop) Busy() bool {
	return l.busy.Load()
}

// ManualRefresh runs a one-shot ingestion cycle on its own goroutine and
// returns a channel closed on completion. The second result is false when a
// manual refresh is already in flight, in which case nothing is scheduled.
func (l *Loop) ManualRefresh() (<-chan struct{}, bool) {
	if !l.busy.CompareAndSwap(false, true) {
		return nil, false
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer l.busy.Store(false)

		l.tick(l.clk.Now())
		l.metrics.Update(func(m *Metrics) {
			m.ManualRefreshes++
		})
	}()

	return done, true
}

func (l *Loop) run(stop, done chan struct{}, ticker clock.Ticker) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.Chan():
			l.tick(now)
		}
	}
}

// tick pulls one batch and applies it. The engine serializes the apply
// against commands, so a tick interleaving with a command never exposes
// statistics computed from a different beacon set.
func (l *Loop) tick(now time.Time) {
	batch, err := l.source.Pull(l.ctx, now, l.eng.Beacons())
	if err != nil {
		l.metrics.Update(func(m *Metrics) {
			m.SourceErrors++
		})
		l.log.Warn("telemetry pull failed", zap.Error(err))
		return
	}

	applied, rejected := l.eng.ApplyTelemetry(batch)

	l.metrics.Update(func(m *Metrics) {
		m.TicksCompleted++
		m.SamplesApplied += int64(applied)
		m.SamplesRejected += int64(rejected)
		m.AlarmsRaised += int64(len(batch.Alarms))
		m.LastTickAt = now
	})

	l.log.Debug("ingestion tick",
		zap.Int("applied", applied),
		zap.Int("rejected", rejected),
		zap.Int("alarms", len(batch.Alarms)),
	)
}
