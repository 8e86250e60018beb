package beacon

import "errors"

var (
	ErrBeaconNotFound = errors.New("beacon not found")
	ErrAlarmNotFound  = errors.New("alarm not found")
)
