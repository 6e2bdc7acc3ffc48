package installer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/owl-installer/internal/config"
)

const (
	// sessionLogDir is the session log directory relative to the home directory.
	sessionLogDir = ".owl_dev/owl_logs"
	// sessionLogFilename is the session log file name.
	sessionLogFilename = "owl_dev_installer.logs"

	logDirPermissions = 0o755
)

// SessionLogPath returns the session log location under home.
func SessionLogPath(home string) string {
	return filepath.Join(home, filepath.FromSlash(sessionLogDir), sessionLogFilename)
}

// writeSessionLog overwrites the session log with text.
func writeSessionLog(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), logDirPermissions); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(text), config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write session log: %w", err)
	}

	return nil
}

// ShowSessionLog copies the session log of the last run to out.
func ShowSessionLog(home string, out io.Writer) error {
	contents, err := os.ReadFile(SessionLogPath(home))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			_, err = fmt.Fprintln(out, "No log file found.")
			return err
		}

		return fmt.Errorf("read session log: %w", err)
	}

	_, err = out.Write(contents)

	return err
}
