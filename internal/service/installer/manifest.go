package installer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/oshokin/owl-installer/internal/domain/install"
)

const (
	// commentMarker starts a comment line in a requirements file.
	commentMarker = "#"
	// byteOrderMark is written at the start of the file by some Windows editors.
	byteOrderMark = "\ufeff"
)

// LoadManifest reads the requirements file at path.
func LoadManifest(path string) ([]install.Specifier, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrManifestNotFound)
		}

		return nil, fmt.Errorf("read manifest: %w", err)
	}

	if !utf8.Valid(contents) {
		return nil, fmt.Errorf("%s: %w", path, ErrManifestEncoding)
	}

	return ParseManifest(bytes.NewReader(contents))
}

// ParseManifest returns the specifiers of a requirements file in file order.
// Blank lines and lines starting with "#" (after trimming) are skipped; nothing
// else is validated, pip rejects malformed specifiers itself.
func ParseManifest(r io.Reader) ([]install.Specifier, error) {
	var specs []install.Specifier

	scanner := bufio.NewScanner(r)
	for first := true; scanner.Scan(); first = false {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, byteOrderMark)
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}

		specs = append(specs, install.Specifier(line))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan manifest: %w", err)
	}

	return specs, nil
}
