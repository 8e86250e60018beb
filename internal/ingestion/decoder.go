package ingestion

import (
	"fmt"
	"math"
)

// LW004-PB uplink layout: byte 0 carries the battery percentage in the low 7
// bits with the charging flag in the MSB, byte 1 packs the device mode in the
// high nibble and the auxiliary operation in the low nibble, bytes 2-3 are
// the reading age in seconds, and on the location ports each subsequent
// 7-byte record is a detected beacon (6-byte MAC + 1-byte signed RSSI).
const (
	uplinkHeaderLen  = 4
	beaconRecordLen  = 7
	maxBeaconRecords = 3
)

// Location-fix ports of the LW004-PB firmware.
var locationPorts = map[int]bool{8: true, 12: true}

var deviceModes = map[int]string{
	1: "Standby Mode",
	2: "Timing Mode",
	3: "Periodic Mode",
	4: "Stationary in Motion Mode",
	5: "Start of Movement",
	6: "In Movement",
	7: "End of Movement",
}

var auxOperations = map[int]string{
	0: "None",
	1: "Downlink for Position",
	2: "Man Down Status",
	3: "Alert Alarm",
	4: "SOS Alarm",
}

// UplinkReport is one decoded uplink.
type UplinkReport struct {
	BatteryLevel int
	Charging     bool
	DeviceMode   string
	AuxOperation string
	AgeSeconds   int
	Beacons      []BeaconReading
}

// BeaconReading is one detected beacon inside an uplink.
type BeaconReading struct {
	MAC               string
	RSSI              int
	EstimatedDistance float64
}

// DecodeUplink parses a raw LW004-PB payload for the given fPort.
func DecodeUplink(payload []byte, fport int) (*UplinkReport, error) {
	if len(payload) < uplinkHeaderLen {
		return nil, fmt.Errorf("payload too short: %d bytes", len(payload))
	}

	report := &UplinkReport{
		BatteryLevel: int(payload[0] & 0x7F),
		Charging:     payload[0]&0x80 != 0,
		AgeSeconds:   int(payload[2])<<8 | int(payload[3]),
	}

	mode := int(payload[1] >> 4 & 0x0F)
	aux := int(payload[1] & 0x0F)
	report.DeviceMode = lookupOrUnknown(deviceModes, mode)
	report.AuxOperation = lookupOrUnknown(auxOperations, aux)

	if !locationPorts[fport] {
		return report, nil
	}

	offset := uplinkHeaderLen
	for offset+beaconRecordLen <= len(payload) && len(report.Beacons) < maxBeaconRecords {
		mac := fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
			payload[offset], payload[offset+1], payload[offset+2],
			payload[offset+3], payload[offset+4], payload[offset+5])

		rssi := int(int8(payload[offset+6]))

		report.Beacons = append(report.Beacons, BeaconReading{
			MAC:               mac,
			RSSI:              rssi,
			EstimatedDistance: EstimateDistance(rssi),
		})

		offset += beaconRecordLen
	}

	return report, nil
}

// Path loss model calibration for the LW004-PB.
const (
	measuredPower    = -65.0 // dBm at 1m
	pathLossExponent = 2.5
)

// EstimateDistance converts an RSSI reading into an estimated distance in
// meters using the log-distance path loss model.
func EstimateDistance(rssi int) float64 {
	d := math.Pow(10, (measuredPower-float64(rssi))/(10*pathLossExponent))
	return math.Round(d*100) / 100
}

func lookupOrUnknown(table map[int]string, key int) string {
	if v, ok := table[key]; ok {
		return v
	}
	return fmt.Sprintf("Unknown (%d)", key)
}
