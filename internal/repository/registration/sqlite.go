package registration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	// Registers the pure-Go "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS registrations (
    key        TEXT PRIMARY KEY,
    payload    TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteRepository keeps records in an SQLite database.
// Put runs the upsert and the count in one transaction, so concurrent
// registrations are never lost.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (and creates if needed) the database at path.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open registrations database: %w", err)
	}

	// SQLite only allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, statement := range []string{"PRAGMA journal_mode = WAL", schema} {
		if _, err = db.ExecContext(ctx, statement); err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("prepare registrations database: %w", err)
		}
	}

	return &SQLiteRepository{db: db}, nil
}

// Put upserts record under key and returns the new total.
func (r *SQLiteRepository) Put(ctx context.Context, key string, record json.RawMessage) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin registration: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO registrations (key, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, string(record))
	if err != nil {
		return 0, fmt.Errorf("store registration: %w", err)
	}

	var count int
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM registrations").Scan(&count); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit registration: %w", err)
	}

	return count, nil
}

// Count returns the number of stored records.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM registrations").Scan(&count); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}

	return count, nil
}

// Payload returns the stored record for key, mainly for inspection and tests.
func (r *SQLiteRepository) Payload(ctx context.Context, key string) (json.RawMessage, error) {
	var payload string

	err := r.db.QueryRowContext(ctx, "SELECT payload FROM registrations WHERE key = ?", key).Scan(&payload)
	if err != nil {
		return nil, fmt.Errorf("load registration %q: %w", key, err)
	}

	return json.RawMessage(payload), nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}

	return nil
}
