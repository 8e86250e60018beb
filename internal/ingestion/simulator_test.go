package ingestion

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-beacon-monitor/internal/domain/beacon"
)

func simulatedFleet(n int) []beacon.Beacon {
	fleet := make([]beacon.Beacon, n)
	for i := range fleet {
		fleet[i] = beacon.Beacon{
			ID:         uuid.New(),
			MACAddress: "AA:BB:CC:DD:EE:00",
			RoomNumber: "100",
		}
	}
	return fleet
}

func TestSimulatorSamplesStayInRange(t *testing.T) {
	sim := NewSimulator(1)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	fleet := simulatedFleet(50)

	batch, err := sim.Pull(context.Background(), now, fleet)
	require.NoError(t, err)
	require.NotEmpty(t, batch.Samples)

	ids := make(map[uuid.UUID]bool, len(fleet))
	for _, b := range fleet {
		ids[b.ID] = true
	}

	for _, s := range batch.Samples {
		assert.True(t, ids[s.BeaconID], "sample must target a fleet beacon")

		require.NotNil(t, s.LastSeen)
		assert.Equal(t, now, *s.LastSeen)

		require.NotNil(t, s.RSSI)
		assert.GreaterOrEqual(t, *s.RSSI, -95)
		assert.LessOrEqual(t, *s.RSSI, -30)

		require.NotNil(t, s.BatteryLevel)
		assert.GreaterOrEqual(t, *s.BatteryLevel, 0)
		assert.LessOrEqual(t, *s.BatteryLevel, 100)

		require.NotNil(t, s.EstimatedDistance)
		assert.InDelta(t, EstimateDistance(*s.RSSI), *s.EstimatedDistance, 0.001)

		require.NotNil(t, s.DeviceMode)
		assert.Contains(t, simulatedModes, *s.DeviceMode)
	}
}

func TestSimulatorDrainsBattery(t *testing.T) {
	sim := NewSimulator(2)
	now := time.Now()

	level := 40
	fleet := simulatedFleet(1)
	fleet[0].BatteryLevel = &level

	// The beacon is not refreshed on every pull, so iterate until it is.
	for i := 0; i < 100; i++ {
		batch, err := sim.Pull(context.Background(), now, fleet)
		require.NoError(t, err)
		if len(batch.Samples) == 0 {
			continue
		}

		next := *batch.Samples[0].BatteryLevel
		assert.LessOrEqual(t, next, level)
		assert.GreaterOrEqual(t, next, level-2)
		return
	}
	t.Fatal("simulator never refreshed the beacon")
}

func TestSimulatorAlarmsReferenceFleetBeacons(t *testing.T) {
	sim := NewSimulator(3)
	now := time.Now()
	fleet := simulatedFleet(20)

	ids := make(map[uuid.UUID]bool, len(fleet))
	for _, b := range fleet {
		ids[b.ID] = true
	}

	var alarms []beacon.AlarmEvent
	for i := 0; i < 50 && len(alarms) == 0; i++ {
		batch, err := sim.Pull(context.Background(), now, fleet)
		require.NoError(t, err)
		alarms = append(alarms, batch.Alarms...)
	}
	require.NotEmpty(t, alarms, "alarm probability never hit across 50 pulls")

	for _, a := range alarms {
		assert.True(t, ids[a.BeaconID])
		assert.NotEmpty(t, a.Message)
		assert.Contains(t, []beacon.Severity{
			beacon.SeverityLow, beacon.SeverityMedium, beacon.SeverityHigh, beacon.SeverityCritical,
		}, a.Severity)
	}
}

func TestSimulatorEmptyFleet(t *testing.T) {
	sim := NewSimulator(4)

	batch, err := sim.Pull(context.Background(), time.Now(), nil)
	require.NoError(t, err)
	assert.True(t, batch.Empty())
}
