package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oshokin/owl-installer/internal/config"
	domain "github.com/oshokin/owl-installer/internal/domain/status"
)

// Repository defines persistence operations for the enabled flag.
type Repository interface {
	Load(ctx context.Context) (*domain.State, error)
	Save(ctx context.Context, state *domain.State) error
}

// FileRepository persists the enabled flag to a JSON file on disk.
// The file is re-read on every Load so that an administrator flipping the flag
// with opi-server enable/disable takes effect without restarting the service.
type FileRepository struct {
	// path is the filesystem location of the JSON status file.
	path string
	// mu serialises access to the status file within one process.
	mu sync.Mutex
}

// ErrNotFound is returned when the status file does not exist yet.
var ErrNotFound = errors.New("status not found")

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the flag from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read status file: %w", err)
	}

	var state domain.State
	if err = json.Unmarshal(contents, &state); err != nil {
		return nil, fmt.Errorf("decode status file: %w", err)
	}

	return &state, nil
}

// Save writes the flag to disk.
func (r *FileRepository) Save(_ context.Context, state *domain.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}

	return nil
}
