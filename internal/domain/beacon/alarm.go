package beacon

import (
	"time"

	"github.com/google/uuid"
)

// AlarmKind classifies an operator-facing alert.
type AlarmKind string

const (
	AlarmLowBattery   AlarmKind = "LOW_BATTERY"
	AlarmDisconnected AlarmKind = "DISCONNECTED"
	AlarmSignalWeak   AlarmKind = "SIGNAL_WEAK"
	AlarmMaintenance  AlarmKind = "MAINTENANCE"
)

// Severity orders alarms from least to most urgent.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank maps a severity onto its position in the low < medium < high <
// critical ordering. Unknown severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Alarm is an operator-actionable alert distinct from routine activity log
// entries. MAC and room number are denormalized at raise time.
type Alarm struct {
	ID           uuid.UUID `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	BeaconID     uuid.UUID `json:"beacon_id"`
	MACAddress   string    `json:"mac_address"`
	RoomNumber   string    `json:"room_number"`
	Kind         AlarmKind `json:"kind"`
	Message      string    `json:"message"`
	Severity     Severity  `json:"severity"`
	Acknowledged bool      `json:"acknowledged"`
}
