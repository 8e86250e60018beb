package ingestion

import (
	"context"
	"time"

	"hotel-beacon-monitor/internal/domain/beacon"
)

// Source produces one batch of already-parsed telemetry per tick. The fleet
// snapshot lets the source address existing beacons; how many it refreshes
// and which fields it fills is the source's concern.
type Source interface {
	Pull(ctx context.Context, now time.Time, fleet []beacon.Beacon) (beacon.TelemetryBatch, error)
}
