package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ps "github.com/mitchellh/go-ps"

	"github.com/oshokin/owl-installer/internal/config"
)

// lockFilename is the instance lock inside the project's hidden directory.
const lockFilename = "opi.lock"

// Lock marks a project as being worked on by one installer process.
type Lock struct {
	path string
}

// AcquireLock takes the lock in dir. A lock left by a process that is no
// longer running is taken over.
func AcquireLock(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, logDirPermissions); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	path := filepath.Join(dir, lockFilename)

	pid, err := readLockPID(path)
	if err != nil {
		return nil, err
	}

	if pid > 0 && pid != os.Getpid() {
		process, findErr := ps.FindProcess(pid)
		if findErr != nil {
			return nil, fmt.Errorf("look up process %d: %w", pid, findErr)
		}

		if process != nil {
			return nil, fmt.Errorf("pid %d (%s) holds %s: %w", pid, process.Executable(), path, ErrAlreadyRunning)
		}
	}

	if err = os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), config.DefaultFilePermissions); err != nil {
		return nil, fmt.Errorf("write lock: %w", err)
	}

	return &Lock{path: path}, nil
}

// Release removes the lock file.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock: %w", err)
	}

	return nil
}

// readLockPID returns the PID stored at path, zero when there is no usable lock.
func readLockPID(path string) (int, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}

		return 0, fmt.Errorf("read lock: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil {
		return 0, nil //nolint:nilerr // A garbled lock is treated as stale.
	}

	return pid, nil
}
