package engine

import "hotel-beacon-monitor/internal/domain/beacon"

// Snapshot returns an atomic view of every collection. All slices are copies
// so callers never alias engine-owned storage.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Snapshot{
		Beacons:     copyBeacons(e.beacons),
		ActivityLog: copyLog(e.activityLog),
		Alarms:      copyAlarms(e.alarms),
		Connection:  e.connection,
		Settings:    e.settings,
		Statistics:  e.stats,
	}
}

// Beacons returns a copy of the current fleet in registration order.
func (e *Engine) Beacons() []beacon.Beacon {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return copyBeacons(e.beacons)
}

// ActivityLog returns a copy of the audit trail, newest first.
func (e *Engine) ActivityLog() []beacon.ActivityLogEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return copyLog(e.activityLog)
}

// Alarms returns a copy of the alarm collection, newest first.
func (e *Engine) Alarms() []beacon.Alarm {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return copyAlarms(e.alarms)
}

// Connection returns the current connection status.
func (e *Engine) Connection() beacon.ConnectionStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connection
}

// Settings returns the current settings.
func (e *Engine) Settings() beacon.Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// Statistics returns the counts computed by the last beacon-set mutation.
func (e *Engine) Statistics() beacon.FleetStatistics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

func copyBeacons(src []beacon.Beacon) []beacon.Beacon {
	out := make([]beacon.Beacon, len(src))
	copy(out, src)
	return out
}

func copyLog(src []beacon.ActivityLogEntry) []beacon.ActivityLogEntry {
	out := make([]beacon.ActivityLogEntry, len(src))
	copy(out, src)
	return out
}

func copyAlarms(src []beacon.Alarm) []beacon.Alarm {
	out := make([]beacon.Alarm, len(src))
	copy(out, src)
	return out
}
