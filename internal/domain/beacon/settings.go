package beacon

// Settings holds the transport identity fields plus the two knobs the
// ingestion loop consumes. Everything except AutoRefresh and
// RefreshIntervalSeconds is opaque to the engine and passed through to the
// transport collaborator.
type Settings struct {
	Endpoint string `json:"endpoint"`
	ClientID string `json:"client_id"`
	Topic    string `json:"topic"`
	CertFile string `json:"cert_file"`
	KeyFile  string `json:"key_file"`
	CAFile   string `json:"ca_file"`
	Port     int    `json:"port"`

	AutoRefresh            bool `json:"auto_refresh"`
	RefreshIntervalSeconds int  `json:"refresh_interval_seconds"`
}
