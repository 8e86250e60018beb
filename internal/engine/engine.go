package engine

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hotel-beacon-monitor/internal/domain/beacon"
	"hotel-beacon-monitor/pkg/clock"
	apperrors "hotel-beacon-monitor/pkg/errors"
)

// Engine owns every entity collection and is the single writer for all of
// them. Commands and ingestion ticks serialize on one exclusive lock around
// the mutate-then-recompute sequence; snapshot reads take the shared side and
// always observe statistics computed from the beacon set they see.
type Engine struct {
	clk clock.Clock
	log *zap.Logger

	mu          sync.RWMutex
	beacons     []beacon.Beacon
	activityLog []beacon.ActivityLogEntry
	logCap      int
	alarms      []beacon.Alarm
	connection  beacon.ConnectionStatus
	settings    beacon.Settings
	stats       beacon.FleetStatistics

	// reconfigMu serializes settings merges with the loop reconfiguration
	// they trigger, so two racing UpdateSettings calls cannot leave the
	// timer configured from the losing merge.
	reconfigMu  sync.Mutex
	reconfigure ReconfigureFunc
}

// Option customizes engine construction.
type Option func(*Engine)

// WithActivityLogCap overrides the activity log bound.
func WithActivityLogCap(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.logCap = n
		}
	}
}

// WithInitialSettings seeds the settings singleton.
func WithInitialSettings(s beacon.Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithLogger overrides the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// New builds an empty engine. The fleet starts disconnected.
func New(clk clock.Clock, opts ...Option) *Engine {
	e := &Engine{
		clk:    clk,
		log:    zap.L(),
		logCap: beacon.DefaultActivityLogCap,
		connection: beacon.ConnectionStatus{
			Connected: false,
			State:     beacon.StateDisconnected,
		},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// SetReconfigure registers the hook invoked when a settings update changes an
// ingestion knob.
func (e *Engine) SetReconfigure(fn ReconfigureFunc) {
	e.reconfigMu.Lock()
	defer e.reconfigMu.Unlock()
	e.reconfigure = fn
}

// AddBeacon registers a new beacon. The engine assigns id, creation time and
// liveness; caller-supplied values for those are ignored.
func (e *Engine) AddBeacon(patch BeaconPatch) (beacon.Beacon, error) {
	if patch.MACAddress == nil || strings.TrimSpace(*patch.MACAddress) == "" {
		return beacon.Beacon{}, apperrors.NewValidationError("mac address is required")
	}
	if patch.RoomNumber == nil || strings.TrimSpace(*patch.RoomNumber) == "" {
		return beacon.Beacon{}, apperrors.NewValidationError("room number is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	b := beacon.Beacon{
		ID:                uuid.New(),
		MACAddress:        *patch.MACAddress,
		RoomNumber:        *patch.RoomNumber,
		Description:       patch.Description,
		LastSeen:          patch.LastSeen,
		RSSI:              patch.RSSI,
		BatteryLevel:      patch.BatteryLevel,
		DeviceMode:        patch.DeviceMode,
		AuxOperation:      patch.AuxOperation,
		EstimatedDistance: patch.EstimatedDistance,
		Charging:          patch.Charging,
		CreatedAt:         now,
		IsActive:          beacon.IsActive(patch.LastSeen, now),
	}

	e.beacons = append(e.beacons, b)
	e.appendLogLocked(now, beacon.EventRegistered, &b,
		fmt.Sprintf("beacon registered for room %s (%s)", b.RoomNumber, b.MACAddress))
	e.recomputeLocked(now)

	e.log.Info("beacon registered",
		zap.String("beacon_id", b.ID.String()),
		zap.String("room", b.RoomNumber),
		zap.String("mac", b.MACAddress),
	)

	return b, nil
}

// UpdateBeacon merges the patch over the stored beacon. A BEACON_UPDATED
// entry is appended only when the patch touches a telemetry field (last
// seen, battery or signal strength).
func (e *Engine) UpdateBeacon(id uuid.UUID, patch BeaconPatch) (beacon.Beacon, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.findBeaconLocked(id)
	if idx < 0 {
		return beacon.Beacon{}, apperrors.NewNotFoundError(
			fmt.Sprintf("beacon %s not found", id), beacon.ErrBeaconNotFound)
	}

	now := e.clk.Now()
	b := &e.beacons[idx]
	mergeBeacon(b, patch)
	b.IsActive = beacon.IsActive(b.LastSeen, now)

	if summary := telemetryChangeSummary(patch); summary != "" {
		e.appendLogLocked(now, beacon.EventBeaconUpdated, b, summary)
	}
	e.recomputeLocked(now)

	return *b, nil
}

// DeleteBeacon removes the beacon immediately. Deletions are not logged.
func (e *Engine) DeleteBeacon(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.findBeaconLocked(id)
	if idx < 0 {
		return apperrors.NewNotFoundError(
			fmt.Sprintf("beacon %s not found", id), beacon.ErrBeaconNotFound)
	}

	e.beacons = append(e.beacons[:idx], e.beacons[idx+1:]...)
	e.recomputeLocked(e.clk.Now())

	return nil
}

// AcknowledgeAlarm marks the alarm acknowledged. Re-acknowledging is a no-op;
// the flag is monotonic.
func (e *Engine) AcknowledgeAlarm(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.alarms {
		if e.alarms[i].ID == id {
			e.alarms[i].Acknowledged = true
			return nil
		}
	}

	return apperrors.NewNotFoundError(
		fmt.Sprintf("alarm %s not found", id), beacon.ErrAlarmNotFound)
}

// ClearAlarms empties the alarm collection.
func (e *Engine) ClearAlarms() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alarms = nil
}

// ClearActivityLog empties the audit trail.
func (e *Engine) ClearActivityLog() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activityLog = nil
}

// ToggleConnection flips the connected flag. The SYSTEM log entry describes
// the transition based on the state before the flip.
func (e *Engine) ToggleConnection() beacon.ConnectionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setConnectedLocked(!e.connection.Connected)
}

// SetConnecting marks a transport connect attempt in flight. It has no
// effect while connected.
func (e *Engine) SetConnecting() beacon.ConnectionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.connection.Connected {
		e.connection.State = beacon.StateConnecting
	}

	return e.connection
}

// SetConnected moves the connection to the given state. Setting the current
// state again is a no-op, so lastConnected is stamped exactly once per
// transition into connected.
func (e *Engine) SetConnected(connected bool) beacon.ConnectionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setConnectedLocked(connected)
}

func (e *Engine) setConnectedLocked(connected bool) beacon.ConnectionStatus {
	if e.connection.Connected == connected {
		// Still resolve a dangling Connecting label.
		if !connected {
			e.connection.State = beacon.StateDisconnected
		}
		return e.connection
	}

	now := e.clk.Now()
	wasConnected := e.connection.Connected

	e.connection.Connected = connected
	if connected {
		e.connection.State = beacon.StateConnected
		e.connection.LastConnected = &now
	} else {
		e.connection.State = beacon.StateDisconnected
	}

	detail := "connection established"
	if wasConnected {
		detail = "connection terminated"
	}
	e.appendLogLocked(now, beacon.EventSystem, nil, detail)

	return e.connection
}

// UpdateSettings merges the patch over the stored settings. When either
// ingestion knob changed, the registered reconfigure hook runs before this
// call returns.
func (e *Engine) UpdateSettings(patch SettingsPatch) beacon.Settings {
	e.reconfigMu.Lock()
	defer e.reconfigMu.Unlock()

	e.mu.Lock()
	prev := e.settings
	mergeSettings(&e.settings, patch)
	merged := e.settings
	e.mu.Unlock()

	knobsChanged := merged.AutoRefresh != prev.AutoRefresh ||
		merged.RefreshIntervalSeconds != prev.RefreshIntervalSeconds

	if knobsChanged && e.reconfigure != nil {
		e.reconfigure(merged.AutoRefresh,
			time.Duration(merged.RefreshIntervalSeconds)*time.Second)
	}

	return merged
}

// ApplyTelemetry applies one ingestion batch: sample merges, source-raised
// alarms, at most one TELEMETRY log entry and a statistics recomputation, all
// under a single critical section. A failing sample is skipped, not fatal to
// the batch. An empty batch still re-derives liveness and statistics, so a
// fleet that stops reporting goes offline on the next tick. It returns how
// many samples were applied and rejected.
func (e *Engine) ApplyTelemetry(batch beacon.TelemetryBatch) (applied, rejected int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()

	for _, s := range batch.Samples {
		idx := e.findBeaconLocked(s.BeaconID)
		if idx < 0 {
			rejected++
			e.log.Warn("telemetry sample for unknown beacon",
				zap.String("beacon_id", s.BeaconID.String()))
			continue
		}

		b := &e.beacons[idx]
		mergeBeacon(b, BeaconPatch{
			LastSeen:          s.LastSeen,
			RSSI:              s.RSSI,
			BatteryLevel:      s.BatteryLevel,
			Charging:          s.Charging,
			DeviceMode:        s.DeviceMode,
			AuxOperation:      s.AuxOperation,
			EstimatedDistance: s.EstimatedDistance,
		})
		applied++
	}

	for _, ev := range batch.Alarms {
		idx := e.findBeaconLocked(ev.BeaconID)
		if idx < 0 {
			e.log.Warn("alarm event for unknown beacon",
				zap.String("beacon_id", ev.BeaconID.String()),
				zap.String("kind", string(ev.Kind)))
			continue
		}

		b := e.beacons[idx]
		e.alarms = append([]beacon.Alarm{{
			ID:         uuid.New(),
			Timestamp:  now,
			BeaconID:   b.ID,
			MACAddress: b.MACAddress,
			RoomNumber: b.RoomNumber,
			Kind:       ev.Kind,
			Message:    ev.Message,
			Severity:   ev.Severity,
		}}, e.alarms...)

		e.appendLogLocked(now, beacon.EventAlert, &b,
			fmt.Sprintf("%s alarm: %s", ev.Kind, ev.Message))
	}

	if applied > 0 {
		e.appendLogLocked(now, beacon.EventTelemetry, nil,
			fmt.Sprintf("telemetry refresh applied to %d of %d beacons", applied, len(e.beacons)))
	}

	e.recomputeLocked(now)

	return applied, rejected
}

// recomputeLocked re-derives liveness for the whole fleet and rebuilds the
// statistics singleton. Every mutation path ends here.
func (e *Engine) recomputeLocked(now time.Time) {
	for i := range e.beacons {
		e.beacons[i].IsActive = beacon.IsActive(e.beacons[i].LastSeen, now)
	}
	e.stats = beacon.Aggregate(e.beacons, now)
}

// appendLogLocked prepends an entry and evicts from the tail past the cap.
func (e *Engine) appendLogLocked(now time.Time, kind beacon.EventKind, b *beacon.Beacon, details string) {
	entry := beacon.ActivityLogEntry{
		ID:        uuid.New(),
		Timestamp: now,
		Kind:      kind,
		Details:   details,
	}
	if b != nil {
		id := b.ID
		room := b.RoomNumber
		mac := b.MACAddress
		entry.BeaconID = &id
		entry.RoomNumber = &room
		entry.MACAddress = &mac
	}

	e.activityLog = append([]beacon.ActivityLogEntry{entry}, e.activityLog...)
	if len(e.activityLog) > e.logCap {
		e.activityLog = e.activityLog[:e.logCap]
	}
}

func (e *Engine) findBeaconLocked(id uuid.UUID) int {
	for i := range e.beacons {
		if e.beacons[i].ID == id {
			return i
		}
	}
	return -1
}

func mergeBeacon(b *beacon.Beacon, patch BeaconPatch) {
	if patch.RoomNumber != nil {
		b.RoomNumber = *patch.RoomNumber
	}
	if patch.MACAddress != nil {
		b.MACAddress = *patch.MACAddress
	}
	if patch.Description != nil {
		b.Description = patch.Description
	}
	if patch.LastSeen != nil {
		b.LastSeen = patch.LastSeen
	}
	if patch.RSSI != nil {
		b.RSSI = patch.RSSI
	}
	if patch.BatteryLevel != nil {
		b.BatteryLevel = patch.BatteryLevel
	}
	if patch.DeviceMode != nil {
		b.DeviceMode = patch.DeviceMode
	}
	if patch.AuxOperation != nil {
		b.AuxOperation = patch.AuxOperation
	}
	if patch.EstimatedDistance != nil {
		b.EstimatedDistance = patch.EstimatedDistance
	}
	if patch.Charging != nil {
		b.Charging = patch.Charging
	}
	// patch.IsActive is deliberately ignored: liveness is always re-derived.
}

func mergeSettings(s *beacon.Settings, patch SettingsPatch) {
	if patch.Endpoint != nil {
		s.Endpoint = *patch.Endpoint
	}
	if patch.ClientID != nil {
		s.ClientID = *patch.ClientID
	}
	if patch.Topic != nil {
		s.Topic = *patch.Topic
	}
	if patch.CertFile != nil {
		s.CertFile = *patch.CertFile
	}
	if patch.KeyFile != nil {
		s.KeyFile = *patch.KeyFile
	}
	if patch.CAFile != nil {
		s.CAFile = *patch.CAFile
	}
	if patch.Port != nil {
		s.Port = *patch.Port
	}
	if patch.AutoRefresh != nil {
		s.AutoRefresh = *patch.AutoRefresh
	}
	if patch.RefreshIntervalSeconds != nil && *patch.RefreshIntervalSeconds > 0 {
		s.RefreshIntervalSeconds = *patch.RefreshIntervalSeconds
	}
}

// telemetryChangeSummary describes which telemetry fields a patch touches,
// omitting fields not present. Empty when the patch is not log-worthy.
func telemetryChangeSummary(patch BeaconPatch) string {
	parts := []string{}
	if patch.LastSeen != nil {
		parts = append(parts, fmt.Sprintf("last_seen=%s", patch.LastSeen.Format(time.RFC3339)))
	}
	if patch.BatteryLevel != nil {
		parts = append(parts, fmt.Sprintf("battery=%d%%", *patch.BatteryLevel))
	}
	if patch.RSSI != nil {
		parts = append(parts, fmt.Sprintf("rssi=%d dBm", *patch.RSSI))
	}
	if len(parts) == 0 {
		return ""
	}
	return "telemetry updated: " + strings.Join(parts, ", ")
}
