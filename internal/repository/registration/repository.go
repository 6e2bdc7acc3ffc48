package registration

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oshokin/owl-installer/internal/config"
)

// Repository persists registration records.
type Repository interface {
	// Put stores record under key, overwriting an existing record with the same key,
	// and returns the number of stored records afterwards.
	Put(ctx context.Context, key string, record json.RawMessage) (int, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
	// Close releases resources held by the repository.
	Close() error
}

// Open creates the repository selected by driver.
//
//nolint:ireturn // Callers choose the backend through configuration.
func Open(ctx context.Context, driver, path string) (Repository, error) {
	switch driver {
	case config.StoreDriverJSON, "":
		return NewFileRepository(path), nil
	case config.StoreDriverSQLite:
		return NewSQLiteRepository(ctx, path)
	default:
		return nil, fmt.Errorf("store driver %q: %w", driver, ErrUnknownDriver)
	}
}
