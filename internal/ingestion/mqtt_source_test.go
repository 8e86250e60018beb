package ingestion

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hotel-beacon-monitor/internal/domain/beacon"
)

func newTestMQTTSource(alarmInterval time.Duration) *MQTTSource {
	return &MQTTSource{
		cfg:         &MQTTSourceConfig{AlarmInterval: alarmInterval},
		log:         zap.NewNop(),
		lastAlarmAt: map[string]time.Time{},
	}
}

func envelopeFor(t *testing.T, payload []byte, fport int) []byte {
	t.Helper()

	env := map[string]any{
		"PayloadData": base64.StdEncoding.EncodeToString(payload),
		"WirelessMetadata": map[string]any{
			"LoRaWAN": map[string]any{"FPort": fport},
		},
	}
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return raw
}

// 75% battery, periodic mode, one beacon record at -72 dBm.
func uplinkPayload(mac [6]byte, battery byte, aux byte) []byte {
	payload := []byte{battery, 0x30 | aux, 0x00, 0x0A}
	payload = append(payload, mac[:]...)
	return append(payload, 0xB8)
}

func TestMQTTSourceBuffersAndDrainsUplinks(t *testing.T) {
	src := newTestMQTTSource(15 * time.Second)

	mac := [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	src.handleMessage("uplink", envelopeFor(t, uplinkPayload(mac, 75, 0), 8))

	fleet := []beacon.Beacon{{
		ID: uuid.New(),
		// Stored lowercase to exercise case-insensitive matching.
		MACAddress: "aa:bb:cc:dd:ee:ff",
		RoomNumber: "201",
	}}

	batch, err := src.Pull(context.Background(), time.Now(), fleet)
	require.NoError(t, err)
	require.Len(t, batch.Samples, 1)

	s := batch.Samples[0]
	assert.Equal(t, fleet[0].ID, s.BeaconID)
	assert.Equal(t, 75, *s.BatteryLevel)
	assert.Equal(t, -72, *s.RSSI)
	assert.Equal(t, "Periodic Mode", *s.DeviceMode)
	assert.Empty(t, batch.Alarms)

	// The buffer was drained.
	batch, err = src.Pull(context.Background(), time.Now(), fleet)
	require.NoError(t, err)
	assert.True(t, batch.Empty())
}

func TestMQTTSourceDropsUnmappedReadings(t *testing.T) {
	src := newTestMQTTSource(15 * time.Second)

	mac := [6]byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	src.handleMessage("uplink", envelopeFor(t, uplinkPayload(mac, 75, 0), 8))

	fleet := []beacon.Beacon{{ID: uuid.New(), MACAddress: "AA:BB:CC:DD:EE:FF"}}

	batch, err := src.Pull(context.Background(), time.Now(), fleet)
	require.NoError(t, err)
	assert.True(t, batch.Empty(), "a reading for an unregistered MAC is dropped")
}

func TestMQTTSourceIgnoresMalformedMessages(t *testing.T) {
	src := newTestMQTTSource(15 * time.Second)

	src.handleMessage("uplink", []byte("not json"))
	src.handleMessage("uplink", []byte(`{"PayloadData":"!!!"}`))
	src.handleMessage("uplink", envelopeFor(t, []byte{0x01}, 8)) // too short

	batch, err := src.Pull(context.Background(), time.Now(), nil)
	require.NoError(t, err)
	assert.True(t, batch.Empty())
}

func TestMQTTSourceAlarmRateLimit(t *testing.T) {
	src := newTestMQTTSource(15 * time.Second)

	mac := [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	fleet := []beacon.Beacon{{ID: uuid.New(), MACAddress: "AA:BB:CC:DD:EE:FF", RoomNumber: "202"}}

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	// SOS aux operation raises a critical alarm.
	src.handleMessage("uplink", envelopeFor(t, uplinkPayload(mac, 75, 4), 8))
	batch, err := src.Pull(context.Background(), now, fleet)
	require.NoError(t, err)
	require.Len(t, batch.Alarms, 1)
	assert.Equal(t, beacon.SeverityCritical, batch.Alarms[0].Severity)

	// A second alarm inside the interval is suppressed; the sample is kept.
	src.handleMessage("uplink", envelopeFor(t, uplinkPayload(mac, 75, 4), 8))
	batch, err = src.Pull(context.Background(), now.Add(5*time.Second), fleet)
	require.NoError(t, err)
	assert.Len(t, batch.Samples, 1)
	assert.Empty(t, batch.Alarms)

	// After the interval elapses the device may alarm again.
	src.handleMessage("uplink", envelopeFor(t, uplinkPayload(mac, 75, 4), 8))
	batch, err = src.Pull(context.Background(), now.Add(16*time.Second), fleet)
	require.NoError(t, err)
	assert.Len(t, batch.Alarms, 1)
}

func TestMQTTSourceLowBatteryAlarm(t *testing.T) {
	src := newTestMQTTSource(15 * time.Second)

	mac := [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	fleet := []beacon.Beacon{{ID: uuid.New(), MACAddress: "AA:BB:CC:DD:EE:FF", RoomNumber: "203"}}

	src.handleMessage("uplink", envelopeFor(t, uplinkPayload(mac, 12, 0), 8))
	batch, err := src.Pull(context.Background(), time.Now(), fleet)
	require.NoError(t, err)

	require.Len(t, batch.Alarms, 1)
	assert.Equal(t, beacon.AlarmLowBattery, batch.Alarms[0].Kind)
	assert.Equal(t, beacon.SeverityHigh, batch.Alarms[0].Severity)
}
