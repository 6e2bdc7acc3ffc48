package owl

const (
	// RegisterPath accepts registration payloads.
	RegisterPath = "/api/register_user"
	// StatusPath serves the global enabled flag.
	StatusPath = "/api/app_status"
	// CountPath serves the number of stored registrations.
	CountPath = "/api/user_count"
	// UpdatesPath serves release artifacts when an update folder is configured.
	UpdatesPath = "/updates/"
)

// Registration is the payload the installer sends for one invocation.
// The server stores whatever JSON object it receives; this type only fixes
// what opi itself sends.
type Registration struct {
	User      string `json:"user"`
	Host      string `json:"host"`
	OS        string `json:"os"`
	Python    string `json:"python"`
	Pip       string `json:"pip"`
	Timestamp string `json:"timestamp"`
	Log       string `json:"log"`
	Version   string `json:"version"`
	SessionID string `json:"session_id,omitempty"`
	Location  string `json:"location,omitempty"`
}

// RegisterResponse is returned by a successful registration.
type RegisterResponse struct {
	OK        bool `json:"ok"`
	UserCount int  `json:"user_count"`
}

// StatusResponse carries the global enabled flag.
// Enabled is a pointer so that clients can tell an absent field from false.
type StatusResponse struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// IsEnabled treats an absent flag as enabled.
func (r *StatusResponse) IsEnabled() bool {
	return r == nil || r.Enabled == nil || *r.Enabled
}

// CountResponse carries the number of stored registrations.
type CountResponse struct {
	UserCount int `json:"user_count"`
}

// ErrorResponse is the body of every 4xx and 5xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
