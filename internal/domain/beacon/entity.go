package beacon

import (
	"time"

	"github.com/google/uuid"
)

// ActiveWindow is how recently a beacon must have reported telemetry to be
// considered active.
const ActiveWindow = 5 * time.Minute

// Beacon represents one tracked device, one per hotel room.
type Beacon struct {
	ID                uuid.UUID
	MACAddress        string
	RoomNumber        string
	Description       *string
	LastSeen          *time.Time
	RSSI              *int // dBm
	BatteryLevel      *int // percent, 0-100
	DeviceMode        *string
	AuxOperation      *string
	EstimatedDistance *float64 // meters
	Charging          *bool
	CreatedAt         time.Time
	IsActive          bool
}

// IsActive reports whether a device with the given last-seen timestamp counts
// as active at time now. A beacon that has never reported is never active.
func IsActive(lastSeen *time.Time, now time.Time) bool {
	if lastSeen == nil {
		return false
	}
	return lastSeen.After(now.Add(-ActiveWindow))
}
