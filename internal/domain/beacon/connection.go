package beacon

import "time"

// ConnectionState labels the transport connection. The label and the
// Connected flag are kept as a single synchronized value: Connected and
// Disconnected always match the flag, and Connecting is a transitional state
// entered only while a connect attempt is in flight.
type ConnectionState string

const (
	StateConnected    ConnectionState = "Connected"
	StateDisconnected ConnectionState = "Disconnected"
	StateConnecting   ConnectionState = "Connecting"
)

// ConnectionStatus is the singleton transport status. LastConnected only
// advances forward, and only on a transition into the connected state.
type ConnectionStatus struct {
	Connected     bool            `json:"connected"`
	State         ConnectionState `json:"state"`
	LastConnected *time.Time      `json:"last_connected,omitempty"`
}
