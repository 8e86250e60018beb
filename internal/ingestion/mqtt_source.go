package ingestion

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"hotel-beacon-monitor/internal/domain/beacon"
	pkgmqtt "hotel-beacon-monitor/pkg/mqtt"
)

// uplinkEnvelope is the JSON wrapper the LoRaWAN network server publishes on
// the uplink topic. The device payload itself is base64 inside PayloadData.
type uplinkEnvelope struct {
	PayloadData      string `json:"PayloadData"`
	WirelessMetadata struct {
		LoRaWAN struct {
			FPort int `json:"FPort"`
		} `json:"LoRaWAN"`
	} `json:"WirelessMetadata"`
}

// MQTTSourceConfig describes the uplink subscription.
type MQTTSourceConfig struct {
	Client        *pkgmqtt.Config
	Topic         string
	QoS           byte
	AlarmInterval time.Duration // minimum gap between alarms for one device
}

// MQTTSource adapts broker uplinks into telemetry batches. Decoded readings
// are buffered as they arrive and drained by the next Pull, where MACs are
// resolved against the fleet snapshot.
type MQTTSource struct {
	cfg    *MQTTSourceConfig
	client *pkgmqtt.Client
	log    *zap.Logger

	mu          sync.Mutex
	started     bool
	pending     []pendingUplink
	lastAlarmAt map[string]time.Time
}

type pendingUplink struct {
	receivedAt time.Time
	report     UplinkReport
}

// NewMQTTSource builds the source. The listener receives transport
// connectivity transitions and may be nil.
func NewMQTTSource(cfg *MQTTSourceConfig, log *zap.Logger, listener pkgmqtt.ConnectionListener) (*MQTTSource, error) {
	if cfg == nil || cfg.Client == nil {
		return nil, fmt.Errorf("mqtt source is not configured")
	}
	if log == nil {
		log = zap.L()
	}

	client, err := pkgmqtt.NewClient(cfg.Client, log, listener)
	if err != nil {
		return nil, err
	}

	if cfg.AlarmInterval <= 0 {
		cfg.AlarmInterval = 15 * time.Second
	}

	return &MQTTSource{
		cfg:         cfg,
		client:      client,
		log:         log,
		lastAlarmAt: map[string]time.Time{},
	}, nil
}

// Start connects and subscribes to the uplink topic.
func (s *MQTTSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if err := s.client.Connect(); err != nil {
		return err
	}

	if err := s.client.Subscribe(s.cfg.Topic, s.cfg.QoS, s.handleMessage); err != nil {
		s.client.Disconnect()
		return err
	}

	s.started = true
	return nil
}

// Stop unsubscribes and disconnects.
func (s *MQTTSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if err := s.client.Unsubscribe(s.cfg.Topic); err != nil {
		s.log.Warn("unsubscribe failed", zap.Error(err))
	}
	s.client.Disconnect()
	s.started = false
}

func (s *MQTTSource) handleMessage(topic string, payload []byte) {
	var env uplinkEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		s.log.Warn("uplink envelope parse failed", zap.String("topic", topic), zap.Error(err))
		return
	}

	raw, err := base64.StdEncoding.DecodeString(env.PayloadData)
	if err != nil {
		s.log.Warn("uplink payload is not valid base64", zap.String("topic", topic), zap.Error(err))
		return
	}

	report, err := DecodeUplink(raw, env.WirelessMetadata.LoRaWAN.FPort)
	if err != nil {
		s.log.Warn("uplink decode failed", zap.String("topic", topic), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.pending = append(s.pending, pendingUplink{receivedAt: time.Now(), report: *report})
	s.mu.Unlock()
}

// Pull drains buffered uplinks and maps their readings onto the fleet. A
// reading for a MAC no beacon carries is dropped with a warning; it never
// aborts the rest of the batch.
func (s *MQTTSource) Pull(_ context.Context, now time.Time, fleet []beacon.Beacon) (beacon.TelemetryBatch, error) {
	s.mu.Lock()
	uplinks := s.pending
	s.pending = nil
	s.mu.Unlock()

	byMAC := make(map[string]*beacon.Beacon, len(fleet))
	for i := range fleet {
		byMAC[strings.ToUpper(fleet[i].MACAddress)] = &fleet[i]
	}

	batch := beacon.TelemetryBatch{}

	for _, u := range uplinks {
		for _, r := range u.report.Beacons {
			b, ok := byMAC[strings.ToUpper(r.MAC)]
			if !ok {
				s.log.Warn("uplink reading for unmapped beacon", zap.String("mac", r.MAC))
				continue
			}

			seen := u.receivedAt
			rssi := r.RSSI
			battery := u.report.BatteryLevel
			charging := u.report.Charging
			mode := u.report.DeviceMode
			aux := u.report.AuxOperation
			distance := r.EstimatedDistance

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

			if ev, ok := s.alarmFromUplink(now, b, &u.report, r.RSSI); ok {
				batch.Alarms = append(batch.Alarms, ev)
			}
		}
	}

	return batch, nil
}

// alarmFromUplink raises source-side alarms for alarm-class auxiliary
// operations and low battery readings, rate-limited per device so a
// sustained condition does not fire on every uplink.
func (s *MQTTSource) alarmFromUplink(now time.Time, b *beacon.Beacon, report *UplinkReport, rssi int) (beacon.AlarmEvent, bool) {
	var ev beacon.AlarmEvent

	switch {
	case report.AuxOperation == "SOS Alarm":
		ev = beacon.AlarmEvent{
			BeaconID: b.ID,
			Kind:     beacon.AlarmMaintenance,
			Severity: beacon.SeverityCritical,
			Message:  "SOS alarm raised by device",
		}
	case report.AuxOperation == "Alert Alarm":
		ev = beacon.AlarmEvent{
			BeaconID: b.ID,
			Kind:     beacon.AlarmMaintenance,
			Severity: beacon.SeverityHigh,
			Message:  "alert alarm raised by device",
		}
	case report.BatteryLevel <= beacon.LowBatteryThreshold:
		ev = beacon.AlarmEvent{
			BeaconID: b.ID,
			Kind:     beacon.AlarmLowBattery,
			Severity: beacon.SeverityHigh,
			Message:  fmt.Sprintf("battery at %d%%", report.BatteryLevel),
		}
	case rssi <= -90:
		ev = beacon.AlarmEvent{
			BeaconID: b.ID,
			Kind:     beacon.AlarmSignalWeak,
			Severity: beacon.SeverityLow,
			Message:  fmt.Sprintf("signal at %d dBm", rssi),
		}
	default:
		return beacon.AlarmEvent{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToUpper(b.MACAddress)
	if last, ok := s.lastAlarmAt[key]; ok && now.Sub(last) < s.cfg.AlarmInterval {
		return beacon.AlarmEvent{}, false
	}
	s.lastAlarmAt[key] = now

	return ev, true
}
