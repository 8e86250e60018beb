package beacon

import (
	"time"

	"github.com/google/uuid"
)

// DefaultActivityLogCap bounds the activity log when no cap is configured.
const DefaultActivityLogCap = 50

// EventKind classifies an activity log entry.
type EventKind string

const (
	EventSystem        EventKind = "SYSTEM"
	EventTelemetry     EventKind = "TELEMETRY"
	EventAlert         EventKind = "ALERT"
	EventBeaconUpdated EventKind = "BEACON_UPDATED"
	EventRegistered    EventKind = "REGISTERED"
)

// ActivityLogEntry is one immutable record in the audit trail. Room number
// and MAC are denormalized at write time because the referenced beacon may
// later change or be deleted.
type ActivityLogEntry struct {
	ID         uuid.UUID  `json:"id"`
	Timestamp  time.Time  `json:"timestamp"`
	BeaconID   *uuid.UUID `json:"beacon_id,omitempty"`
	Kind       EventKind  `json:"kind"`
	Details    string     `json:"details"`
	RoomNumber *string    `json:"room_number,omitempty"`
	MACAddress *string    `json:"mac_address,omitempty"`
}
