package status

import (
	"fmt"
	"time"
)

// Actor identifies who changed the flag.
type Actor struct {
	// Hostname is the machine name where the change was made.
	Hostname string `json:"hostname"`
	// Username is the system user who made the change.
	Username string `json:"username"`
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// String renders the actor as user@host.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return fmt.Sprintf("%s@%s", a.Username, a.Hostname)
}

// State is the global enabled flag at a specific point in time.
type State struct {
	// Enabled reports whether installers may proceed.
	Enabled bool `json:"enabled"`
	// Timestamp is when the flag was last changed.
	Timestamp time.Time `json:"timestamp,omitzero"`
	// LastActor is the administrator who last changed the flag.
	LastActor *Actor `json:"last_actor,omitempty"`
}

// Default returns the state used before any administrator touched the flag.
func Default() *State {
	return &State{Enabled: true}
}

// Clone returns a copy of the state to avoid leaking internal references.
func (s *State) Clone() *State {
	return &State{
		Enabled:   s.Enabled,
		Timestamp: s.Timestamp,
		LastActor: s.LastActor.Clone(),
	}
}

// String renders the state for logs and the admin CLI.
func (s *State) String() string {
	label := "disabled"
	if s.Enabled {
		label = "enabled"
	}

	if s.Timestamp.IsZero() {
		return label + " (default)"
	}

	return fmt.Sprintf("%s by %s (%s)", label, s.LastActor, s.Timestamp.Format(time.RFC3339))
}
