package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oshokin/owl-installer/internal/config"
)

var (
	// ErrUnknownDriver is returned by Open for unsupported store drivers.
	ErrUnknownDriver = errors.New("unknown store driver")
	// ErrCorruptStore is returned when the JSON document cannot be decoded.
	// Writes are refused so that an unreadable store is never replaced by an empty one.
	ErrCorruptStore = errors.New("registration store is corrupt")
)

// FileRepository keeps all records in one JSON object on disk.
//
// Every Put reads the whole document, inserts the record and rewrites the file.
// The mutex serialises writers inside one process only; two processes sharing
// the file can still race and the loser's record is dropped. Count does not take
// part in the write protocol of other processes and may observe a stale file.
type FileRepository struct {
	// path is the filesystem location of the JSON document.
	path string
	// mu serialises read-modify-write cycles of this process.
	mu sync.Mutex
}

// NewFileRepository creates a repository backed by the JSON document at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Put stores record under key and rewrites the document.
func (r *FileRepository) Put(_ context.Context, key string, record json.RawMessage) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return 0, err
	}

	records[key] = record

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode registrations: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return 0, fmt.Errorf("write registrations: %w", err)
	}

	return len(records), nil
}

// Count returns the number of records in the document.
func (r *FileRepository) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return 0, err
	}

	return len(records), nil
}

// Close is a no-op for the file backend.
func (r *FileRepository) Close() error {
	return nil
}

// load reads the document; a missing or empty file is an empty store.
func (r *FileRepository) load() (map[string]json.RawMessage, error) {
	records := make(map[string]json.RawMessage)

	contents, err := os.ReadFile(r.path)

	switch {
	case errors.Is(err, os.ErrNotExist):
		return records, nil
	case err != nil:
		return nil, fmt.Errorf("read registrations: %w", err)
	case len(contents) == 0:
		return records, nil
	}

	if err = json.Unmarshal(contents, &records); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", r.path, ErrCorruptStore, err)
	}

	if records == nil {
		records = make(map[string]json.RawMessage)
	}

	return records, nil
}
