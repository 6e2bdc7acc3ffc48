package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/oshokin/owl-installer/internal/domain/status"
	"github.com/oshokin/owl-installer/internal/logger"
	"github.com/oshokin/owl-installer/internal/repository/registration"
	statusrepo "github.com/oshokin/owl-installer/internal/repository/status"
)

const (
	// unknownHost replaces a missing host field in registration keys.
	unknownHost = "unknown"
	// keyTimestampLayout renders the server clock when the timestamp field is missing.
	keyTimestampLayout = "2006-01-02T15:04:05.000000"
)

// service encapsulates registration and status logic.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// registrations stores installer registrations.
	registrations registration.Repository
	// status holds the global enabled flag; it is read on every request.
	status statusrepo.Repository
	// now is the clock used for default registration timestamps.
	now func() time.Time
}

// newService creates a service backed by the provided repositories.
func newService(registrations registration.Repository, status statusrepo.Repository) *service {
	return &service{
		registrations: registrations,
		status:        status,
		now:           time.Now,
	}
}

// Register stores payload under "<host>_<timestamp>" and returns the new total.
func (s *service) Register(ctx context.Context, payload json.RawMessage) (int, error) {
	key, err := registrationKey(payload, s.now())
	if err != nil {
		return 0, err
	}

	count, err := s.registrations.Put(ctx, key, payload)
	if err != nil {
		return 0, fmt.Errorf("persist registration: %w", err)
	}

	logger.InfoKV(ctx, "Registration stored", "key", key, "user_count", count)

	return count, nil
}

// UserCount returns the number of stored registrations.
func (s *service) UserCount(ctx context.Context) (int, error) {
	return s.registrations.Count(ctx)
}

// AppStatus reads the enabled flag; a flag nobody set yet is enabled.
func (s *service) AppStatus(ctx context.Context) (*domain.State, error) {
	if s.status == nil {
		return domain.Default(), nil
	}

	state, err := s.status.Load(ctx)

	switch {
	case err == nil:
		return state, nil
	case errors.Is(err, statusrepo.ErrNotFound):
		return domain.Default(), nil
	default:
		return nil, fmt.Errorf("load status: %w", err)
	}
}

// SetAppStatus updates the enabled flag and persists it.
func (s *service) SetAppStatus(ctx context.Context, actor *domain.Actor, enabled bool) (*domain.State, error) {
	state := &domain.State{
		Enabled:   enabled,
		Timestamp: s.now(),
		LastActor: actor.Clone(),
	}

	if err := s.status.Save(ctx, state); err != nil {
		logger.Errorf(ctx, "Failed to persist status: %v", err)

		return nil, fmt.Errorf("persist status: %w", err)
	}

	logger.InfoKV(ctx, "Status updated", "enabled", state.Enabled, "actor", state.LastActor.String())

	return state.Clone(), nil
}

// registrationKey derives the store key from the host and timestamp fields.
func registrationKey(payload json.RawMessage, now time.Time) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return "", fmt.Errorf("decode registration: %w", err)
	}

	host := fieldText(fields["host"], unknownHost)
	timestamp := fieldText(fields["timestamp"], now.UTC().Format(keyTimestampLayout))

	return host + "_" + timestamp, nil
}

// fieldText renders a JSON value for use in a key: strings unquoted, other
// values as their JSON text, and missing or null values as fallback.
func fieldText(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 || string(raw) == "null" {
		return fallback
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	return string(raw)
}
