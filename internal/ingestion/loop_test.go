package ingestion

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-beacon-monitor/internal/domain/beacon"
	"hotel-beacon-monitor/internal/engine"
	"hotel-beacon-monitor/pkg/clock"
)

// fakeClock hands out manually fired tickers.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Ticker(d time.Duration) clock.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTicker{interval: d, ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

// ticker returns the i-th ticker handed out so far.
func (c *fakeClock) ticker(t *testing.T, i int) *fakeTicker {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.Greater(t, len(c.tickers), i, "ticker %d was never created", i)
	return c.tickers[i]
}

func (c *fakeClock) tickerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

type fakeTicker struct {
	interval time.Duration
	ch       chan time.Time

	mu      sync.Mutex
	stopped bool
}

func (t *fakeTicker) Chan() <-chan time.Time {
	return t.ch
}

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *fakeTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// fire delivers one tick and returns once the loop goroutine picked it up.
func (t *fakeTicker) fire(now time.Time) {
	t.ch <- now
}

// stubSource counts pulls and refreshes every beacon's last-seen timestamp.
type stubSource struct {
	mu    sync.Mutex
	pulls int
	gate  chan struct{} // when non-nil, Pull blocks until the gate closes
}

func (s *stubSource) Pull(_ context.Context, now time.Time, fleet []beacon.Beacon) (beacon.TelemetryBatch, error) {
	s.mu.Lock()
	s.pulls++
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}

	batch := beacon.TelemetryBatch{}
	for i := range fleet {
		seen := now
		batch.Samples = append(batch.Samples, beacon.TelemetrySample{
			BeaconID: fleet[i].ID,
			LastSeen: &seen,
		})
	}
	return batch, nil
}

func (s *stubSource) pullCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulls
}

func newTestLoop(t *testing.T) (*Loop, *engine.Engine, *fakeClock, *stubSource) {
	t.Helper()

	clk := newFakeClock()
	eng := engine.New(clk)
	src := &stubSource{}
	loop := NewLoop(eng, src, clk)
	t.Cleanup(loop.Close)

	return loop, eng, clk, src
}

func addFleetBeacon(t *testing.T, eng *engine.Engine, mac, room string) beacon.Beacon {
	t.Helper()
	b, err := eng.AddBeacon(engine.BeaconPatch{MACAddress: &mac, RoomNumber: &room})
	require.NoError(t, err)
	return b
}

func waitForTicks(t *testing.T, loop *Loop, n int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return loop.Metrics().TicksCompleted >= n
	}, time.Second, time.Millisecond, "expected %d ticks", n)
}

func TestLoopRunsExactlyOncePerTick(t *testing.T) {
	loop, eng, clk, src := newTestLoop(t)
	addFleetBeacon(t, eng, "AA:BB:CC:DD:EE:FF", "101")

	loop.Reconfigure(true, 5*time.Second)
	require.True(t, loop.Running())
	require.Equal(t, 5*time.Second, loop.Interval())

	ticker := clk.ticker(t, 0)
	assert.Equal(t, 5*time.Second, ticker.interval)

	for i := 0; i < 3; i++ {
		ticker.fire(clk.Now())
	}
	waitForTicks(t, loop, 3)

	assert.Equal(t, 3, src.pullCount())
	assert.Equal(t, int64(3), loop.Metrics().TicksCompleted)
	assert.Equal(t, int64(3), loop.Metrics().SamplesApplied)

	// Each cycle recomputed statistics against the refreshed fleet.
	stats := eng.Statistics()
	assert.Equal(t, 1, stats.Active)

	loop.Reconfigure(false, 0)
	assert.False(t, loop.Running())
	assert.True(t, ticker.Stopped(), "disabling the loop must stop its timer")
	assert.Equal(t, int64(3), loop.Metrics().TicksCompleted, "no ticks after disable")
}

func TestLoopTickWithEmptyBatchRefreshesStatistics(t *testing.T) {
	clk := newFakeClock()
	eng := engine.New(clk)
	loop := NewLoop(eng, emptySource{}, clk)
	t.Cleanup(loop.Close)

	seen := clk.Now()
	mac, room := "AA:BB:CC:DD:EE:FF", "104"
	_, err := eng.AddBeacon(engine.BeaconPatch{MACAddress: &mac, RoomNumber: &room, LastSeen: &seen})
	require.NoError(t, err)
	require.Equal(t, 1, eng.Statistics().Active)

	clk.Advance(10 * time.Minute)

	loop.Reconfigure(true, 5*time.Second)
	clk.ticker(t, 0).fire(clk.Now())
	waitForTicks(t, loop, 1)

	// Nothing reported, yet the quiet beacon must drop out of the active count.
	stats := eng.Statistics()
	assert.Equal(t, 0, stats.Active)
	assert.Equal(t, 1, stats.Offline)
}

type emptySource struct{}

func (emptySource) Pull(context.Context, time.Time, []beacon.Beacon) (beacon.TelemetryBatch, error) {
	return beacon.TelemetryBatch{}, nil
}

func TestLoopIntervalChangeReplacesTimer(t *testing.T) {
	loop, _, clk, _ := newTestLoop(t)

	loop.Reconfigure(true, 5*time.Second)
	first := clk.ticker(t, 0)

	loop.Reconfigure(true, 2*time.Second)
	second := clk.ticker(t, 1)

	assert.True(t, first.Stopped(), "old timer must be cancelled before the new one starts")
	assert.False(t, second.Stopped())
	assert.Equal(t, 2*time.Second, second.interval)
	assert.Equal(t, 2*time.Second, loop.Interval())
	assert.Equal(t, 2, clk.tickerCount())
}

func TestLoopReconfigureIsIdempotentWhenIdle(t *testing.T) {
	loop, _, clk, _ := newTestLoop(t)

	loop.Reconfigure(false, 0)
	loop.Reconfigure(false, 0)

	assert.False(t, loop.Running())
	assert.Equal(t, 0, clk.tickerCount())
}

func TestManualRefreshRunsOnce(t *testing.T) {
	loop, eng, _, src := newTestLoop(t)
	addFleetBeacon(t, eng, "AA:BB:CC:DD:EE:FF", "102")

	done, ok := loop.ManualRefresh()
	require.True(t, ok)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("manual refresh did not complete")
	}

	assert.False(t, loop.Busy())
	assert.Equal(t, 1, src.pullCount())
	assert.Equal(t, int64(1), loop.Metrics().ManualRefreshes)
	assert.Equal(t, 1, eng.Statistics().Active)
}

func TestManualRefreshRejectsConcurrentRuns(t *testing.T) {
	loop, eng, _, src := newTestLoop(t)
	addFleetBeacon(t, eng, "AA:BB:CC:DD:EE:FF", "103")

	gate := make(chan struct{})
	src.mu.Lock()
	src.gate = gate
	src.mu.Unlock()

	done, ok := loop.ManualRefresh()
	require.True(t, ok)

	require.Eventually(t, loop.Busy, time.Second, time.Millisecond)

	_, ok = loop.ManualRefresh()
	assert.False(t, ok, "a second refresh must be rejected while one is in flight")

	close(gate)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("manual refresh did not complete")
	}

	assert.False(t, loop.Busy())
	assert.Equal(t, int64(1), loop.Metrics().ManualRefreshes)
}

func TestLoopCountsSourceErrors(t *testing.T) {
	clk := newFakeClock()
	eng := engine.New(clk)
	loop := NewLoop(eng, failingSource{}, clk)
	t.Cleanup(loop.Close)

	done, ok := loop.ManualRefresh()
	require.True(t, ok)
	<-done

	m := loop.Metrics()
	assert.Equal(t, int64(1), m.SourceErrors)
	assert.Equal(t, int64(0), m.TicksCompleted)
}

type failingSource struct{}

func (failingSource) Pull(context.Context, time.Time, []beacon.Beacon) (beacon.TelemetryBatch, error) {
	return beacon.TelemetryBatch{}, context.DeadlineExceeded
}
