package handler

import (
	"time"

	"github.com/google/uuid"

	"hotel-beacon-monitor/internal/domain/beacon"
	"hotel-beacon-monitor/internal/engine"
)

type AddBeaconRequest struct {
	MACAddress        string     `json:"mac_address" validate:"required,mac"`
	RoomNumber        string     `json:"room_number" validate:"required,max=32"`
	Description       *string    `json:"description" validate:"omitempty,max=500"`
	LastSeen          *time.Time `json:"last_seen"`
	RSSI              *int       `json:"rssi" validate:"omitempty,min=-150,max=0"`
	BatteryLevel      *int       `json:"battery_level" validate:"omitempty,min=0,max=100"`
	DeviceMode        *string    `json:"device_mode" validate:"omitempty,max=64"`
	AuxOperation      *string    `json:"aux_operation" validate:"omitempty,max=64"`
	EstimatedDistance *float64   `json:"estimated_distance" validate:"omitempty,gte=0"`
	Charging          *bool      `json:"charging"`
	IsActive          *bool      `json:"is_active"` // accepted, always recomputed
}

type UpdateBeaconRequest struct {
	MACAddress        *string    `json:"mac_address" validate:"omitempty,mac"`
	RoomNumber        *string    `json:"room_number" validate:"omitempty,min=1,max=32"`
	Description       *string    `json:"description" validate:"omitempty,max=500"`
	LastSeen          *time.Time `json:"last_seen"`
	RSSI              *int       `json:"rssi" validate:"omitempty,min=-150,max=0"`
	BatteryLevel      *int       `json:"battery_level" validate:"omitempty,min=0,max=100"`
	DeviceMode        *string    `json:"device_mode" validate:"omitempty,max=64"`
	AuxOperation      *string    `json:"aux_operation" validate:"omitempty,max=64"`
	EstimatedDistance *float64   `json:"estimated_distance" validate:"omitempty,gte=0"`
	Charging          *bool      `json:"charging"`
	IsActive          *bool      `json:"is_active"` // accepted, always recomputed
}

type UpdateSettingsRequest struct {
	Endpoint *string `json:"endpoint" validate:"omitempty,max=255"`
	ClientID *string `json:"client_id" validate:"omitempty,max=128"`
	Topic    *string `json:"topic" validate:"omitempty,max=255"`
	CertFile *string `json:"cert_file" validate:"omitempty,max=512"`
	KeyFile  *string `json:"key_file" validate:"omitempty,max=512"`
	CAFile   *string `json:"ca_file" validate:"omitempty,max=512"`
	Port     *int    `json:"port" validate:"omitempty,min=1,max=65535"`

	AutoRefresh            *bool `json:"auto_refresh"`
	RefreshIntervalSeconds *int  `json:"refresh_interval_seconds" validate:"omitempty,min=1"`
}

type BeaconResponse struct {
	ID                uuid.UUID  `json:"id"`
	MACAddress        string     `json:"mac_address"`
	RoomNumber        string     `json:"room_number"`
	Description       *string    `json:"description,omitempty"`
	LastSeen          *time.Time `json:"last_seen,omitempty"`
	RSSI              *int       `json:"rssi,omitempty"`
	BatteryLevel      *int       `json:"battery_level,omitempty"`
	DeviceMode        *string    `json:"device_mode,omitempty"`
	AuxOperation      *string    `json:"aux_operation,omitempty"`
	EstimatedDistance *float64   `json:"estimated_distance,omitempty"`
	Charging          *bool      `json:"charging,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	IsActive          bool       `json:"is_active"`
}

type FleetSnapshotResponse struct {
	Beacons     []BeaconResponse          `json:"beacons"`
	ActivityLog []beacon.ActivityLogEntry `json:"activity_log"`
	Alarms      []beacon.Alarm            `json:"alarms"`
	Connection  beacon.ConnectionStatus   `json:"connection"`
	Settings    beacon.Settings           `json:"settings"`
	Statistics  beacon.FleetStatistics    `json:"statistics"`
}

func (r *AddBeaconRequest) ToPatch() engine.BeaconPatch {
	return engine.BeaconPatch{
		MACAddress:        &r.MACAddress,
		RoomNumber:        &r.RoomNumber,
		Description:       r.Description,
		LastSeen:          r.LastSeen,
		RSSI:              r.RSSI,
		BatteryLevel:      r.BatteryLevel,
		DeviceMode:        r.DeviceMode,
		AuxOperation:      r.AuxOperation,
		EstimatedDistance: r.EstimatedDistance,
		Charging:          r.Charging,
		IsActive:          r.IsActive,
	}
}

func (r *UpdateBeaconRequest) ToPatch() engine.BeaconPatch {
	return engine.BeaconPatch{
		MACAddress:        r.MACAddress,
		RoomNumber:        r.RoomNumber,
		Description:       r.Description,
		LastSeen:          r.LastSeen,
		RSSI:              r.RSSI,
		BatteryLevel:      r.BatteryLevel,
		DeviceMode:        r.DeviceMode,
		AuxOperation:      r.AuxOperation,
		EstimatedDistance: r.EstimatedDistance,
		Charging:          r.Charging,
		IsActive:          r.IsActive,
	}
}

func (r *UpdateSettingsRequest) ToPatch() engine.SettingsPatch {
	return engine.SettingsPatch{
		Endpoint:               r.Endpoint,
		ClientID:               r.ClientID,
		Topic:                  r.Topic,
		CertFile:               r.CertFile,
		KeyFile:                r.KeyFile,
		CAFile:                 r.CAFile,
		Port:                   r.Port,
		AutoRefresh:            r.AutoRefresh,
		RefreshIntervalSeconds: r.RefreshIntervalSeconds,
	}
}

func ToBeaconResponse(b beacon.Beacon) BeaconResponse {
	return BeaconResponse{
		ID:                b.ID,
		MACAddress:        b.MACAddress,
		RoomNumber:        b.RoomNumber,
		Description:       b.Description,
		LastSeen:          b.LastSeen,
		RSSI:              b.RSSI,
		BatteryLevel:      b.BatteryLevel,
		DeviceMode:        b.DeviceMode,
		AuxOperation:      b.AuxOperation,
		EstimatedDistance: b.EstimatedDistance,
		Charging:          b.Charging,
		CreatedAt:         b.CreatedAt,
		IsActive:          b.IsActive,
	}
}

func ToBeaconResponses(beacons []beacon.Beacon) []BeaconResponse {
	out := make([]BeaconResponse, len(beacons))
	for i, b := range beacons {
		out[i] = ToBeaconResponse(b)
	}
	return out
}
