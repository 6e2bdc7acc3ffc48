package brain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/oshokin/owl-installer/internal/config"
)

const (
	// DirName is the hidden per-project directory owned by the installer.
	DirName = ".owl_brain"
	// RecordFilename is the trust record inside DirName.
	RecordFilename = "activate_owl_child.logs"

	dirPermissions = 0o755
)

// ErrNotFound is returned when the project has no trust record yet.
var ErrNotFound = errors.New("trust record not found")

// Record is the trust record of one project directory.
type Record struct {
	// Project is the base name of the project directory.
	Project string `json:"project"`
	// Path is the absolute project directory the operator confirmed.
	Path string `json:"path"`
	// Env is the environment kind chosen on the last run.
	Env string `json:"env"`
	// Timestamp is when the record was written.
	Timestamp time.Time `json:"timestamp"`
}

// Trusts reports whether the record was written for exactly the directory dir.
func (r *Record) Trusts(dir string) bool {
	return r != nil && r.Path != "" && r.Path == dir
}

// FileRepository stores the record under <project>/.owl_brain.
type FileRepository struct {
	dir string
}

// NewFileRepository creates a repository for the project rooted at projectDir.
func NewFileRepository(projectDir string) *FileRepository {
	return &FileRepository{
		dir: filepath.Join(projectDir, DirName),
	}
}

// Dir returns the hidden directory holding the record.
func (r *FileRepository) Dir() string {
	return r.dir
}

// Load reads the record. Hand-edited files may contain comments and trailing commas.
func (r *FileRepository) Load(_ context.Context) (*Record, error) {
	contents, err := os.ReadFile(filepath.Join(r.dir, RecordFilename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read trust record: %w", err)
	}

	var record Record
	if err = json.Unmarshal(jsonc.ToJSON(contents), &record); err != nil {
		return nil, fmt.Errorf("decode trust record: %w", err)
	}

	return &record, nil
}

// Save writes the record, creating the hidden directory when needed.
func (r *FileRepository) Save(_ context.Context, record *Record) error {
	if err := os.MkdirAll(r.dir, dirPermissions); err != nil {
		return fmt.Errorf("create %s: %w", DirName, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode trust record: %w", err)
	}

	if err = os.WriteFile(filepath.Join(r.dir, RecordFilename), data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write trust record: %w", err)
	}

	return nil
}
