package engine

import (
	"time"

	"hotel-beacon-monitor/internal/domain/beacon"
)

// BeaconPatch carries caller-supplied beacon fields. Nil fields are left
// untouched on update and unset on add. IsActive is accepted for
// compatibility with callers that round-trip snapshots, but the liveness
// policy always overwrites it.
type BeaconPatch struct {
	MACAddress        *string
	RoomNumber        *string
	Description       *string
	LastSeen          *time.Time
	RSSI              *int
	BatteryLevel      *int
	DeviceMode        *string
	AuxOperation      *string
	EstimatedDistance *float64
	Charging          *bool
	IsActive          *bool
}

// SettingsPatch merges over the stored settings. Nil fields keep their
// previous value.
type SettingsPatch struct {
	Endpoint *string
	ClientID *string
	Topic    *string
	CertFile *string
	KeyFile  *string
	CAFile   *string
	Port     *int

	AutoRefresh            *bool
	RefreshIntervalSeconds *int
}

// Snapshot is an atomic, self-consistent view of every collection the engine
// owns. Statistics were computed from exactly the beacon set it contains.
type Snapshot struct {
	Beacons     []beacon.Beacon
	ActivityLog []beacon.ActivityLogEntry
	Alarms      []beacon.Alarm
	Connection  beacon.ConnectionStatus
	Settings    beacon.Settings
	Statistics  beacon.FleetStatistics
}

// ReconfigureFunc is invoked after a settings update changed either ingestion
// knob, before UpdateSettings returns.
type ReconfigureFunc func(autoRefresh bool, interval time.Duration)
