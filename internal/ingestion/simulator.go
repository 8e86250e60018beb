package ingestion

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"hotel-beacon-monitor/internal/domain/beacon"
)

// Simulator fabricates telemetry for the current fleet. Each beacon is
// refreshed independently with a configurable probability, and alarms are
// occasionally seeded the way a real uplink source would raise them.
type Simulator struct {
	mu                 sync.Mutex
	rnd                *rand.Rand
	refreshProbability float64
	alarmProbability   float64
}

// NewSimulator builds a simulator. A fixed seed makes runs reproducible.
func NewSimulator(seed int64) *Simulator {
	return &Simulator{
		rnd:                rand.New(rand.NewSource(seed)),
		refreshProbability: 0.7,
		alarmProbability:   0.05,
	}
}

var simulatedModes = []string{
	"Standby Mode",
	"Periodic Mode",
	"In Movement",
	"End of Movement",
}

// Pull fabricates one batch for the given fleet.
func (s *Simulator) Pull(_ context.Context, now time.Time, fleet []beacon.Beacon) (beacon.TelemetryBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := beacon.TelemetryBatch{}

	for i := range fleet {
		if s.rnd.Float64() >= s.refreshProbability {
			continue
		}

		b := &fleet[i]

		seen := now
		rssi := -30 - s.rnd.Intn(66) // -30..-95 dBm
		battery := s.nextBattery(b.BatteryLevel)
		charging := s.rnd.Float64() < 0.2
		mode := simulatedModes[s.rnd.Intn(len(simulatedModes))]
		aux := "None"
		distance := EstimateDistance(rssi)

		batch.Samples = append(batch.Samples, beacon.TelemetrySample{
			BeaconID:          b.ID,
			LastSeen:          &seen,
			RSSI:              &rssi,
			BatteryLevel:      &battery,
			Charging:          &charging,
			DeviceMode:        &mode,
			AuxOperation:      &aux,
			EstimatedDistance: &distance,
		})

		if s.rnd.Float64() < s.alarmProbability {
			batch.Alarms = append(batch.Alarms, s.alarmFor(b.ID, battery, rssi))
		}
	}

	return batch, nil
}

// nextBattery drains the previous reading slightly, starting from a random
// charge for beacons that never reported one.
func (s *Simulator) nextBattery(prev *int) int {
	if prev == nil {
		return 20 + s.rnd.Intn(81)
	}

	next := *prev - s.rnd.Intn(3)
	if next < 0 {
		next = 0
	}
	return next
}

func (s *Simulator) alarmFor(id uuid.UUID, battery, rssi int) beacon.AlarmEvent {
	switch {
	case battery <= beacon.LowBatteryThreshold:
		return beacon.AlarmEvent{
			BeaconID: id,
			Kind:     beacon.AlarmLowBattery,
			Severity: beacon.SeverityHigh,
			Message:  fmt.Sprintf("battery at %d%%", battery),
		}
	case rssi <= -90:
		return beacon.AlarmEvent{
			BeaconID: id,
			Kind:     beacon.AlarmSignalWeak,
			Severity: beacon.SeverityLow,
			Message:  fmt.Sprintf("signal at %d dBm", rssi),
		}
	case s.rnd.Float64() < 0.3:
		return beacon.AlarmEvent{
			BeaconID: id,
			Kind:     beacon.AlarmDisconnected,
			Severity: beacon.SeverityMedium,
			Message:  "device stopped reporting",
		}
	default:
		return beacon.AlarmEvent{
			BeaconID: id,
			Kind:     beacon.AlarmMaintenance,
			Severity: beacon.SeverityMedium,
			Message:  "maintenance check requested",
		}
	}
}
