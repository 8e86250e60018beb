package beacon

import "time"

// LowBatteryThreshold is the battery percentage at or below which a beacon
// counts towards the low-battery statistic.
const LowBatteryThreshold = 30

// FleetStatistics holds the derived fleet-wide counts. It is recomputed after
// every beacon-set mutation and never mutated directly.
type FleetStatistics struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	LowBattery int `json:"low_battery"`
	Offline    int `json:"offline"`
}

// Aggregate computes fleet statistics over the given beacons in a single
// pass. Liveness is evaluated against now so the counts match the liveness
// policy at the moment of aggregation.
func Aggregate(beacons []Beacon, now time.Time) FleetStatistics {
	stats := FleetStatistics{Total: len(beacons)}

	for i := range beacons {
		if IsActive(beacons[i].LastSeen, now) {
			stats.Active++
		}
		if beacons[i].BatteryLevel != nil && *beacons[i].BatteryLevel <= LowBatteryThreshold {
			stats.LowBattery++
		}
	}

	stats.Offline = stats.Total - stats.Active

	return stats
}
