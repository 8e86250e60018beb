package beacon

import (
	"time"

	"github.com/google/uuid"
)

// TelemetrySample is one already-parsed reading for a single beacon. Nil
// fields were not reported and leave the stored value untouched.
type TelemetrySample struct {
	BeaconID          uuid.UUID
	LastSeen          *time.Time
	RSSI              *int
	BatteryLevel      *int
	Charging          *bool
	DeviceMode        *string
	AuxOperation      *string
	EstimatedDistance *float64
}

// AlarmEvent is an alarm raised by the ingestion source. Alarms are not
// derived from current beacon state; the source decides when one fires.
type AlarmEvent struct {
	BeaconID uuid.UUID
	Kind     AlarmKind
	Severity Severity
	Message  string
}

// TelemetryBatch is the unit of work one ingestion tick applies.
type TelemetryBatch struct {
	Samples []TelemetrySample
	Alarms  []AlarmEvent
}

// Empty reports whether the batch carries no work at all.
func (b TelemetryBatch) Empty() bool {
	return len(b.Samples) == 0 && len(b.Alarms) == 0
}
