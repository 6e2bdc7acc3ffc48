package updater

import (
	"crypto"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/owl-installer/internal/version"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// VersionFilename stores the release description in the update folder.
	VersionFilename = "opi-version.yaml"

	// DefaultFileMode is used when applying executables.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction is used to calculate artifact hashes.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// artifactPrefix starts the name of every installer artifact.
	artifactPrefix = "opi"

	// defaultMapCapacity is the default initial capacity for maps.
	defaultMapCapacity = 16
)

var errHashUnavailable = errors.New("hash function unavailable")

// Description contains metadata about a published release.
type Description struct {
	// VersionNumber is the semantic version of this release.
	VersionNumber string `yaml:"version"`
	// Files maps artifact names to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// NewDescription produces a Description for the running build.
func NewDescription() *Description {
	return &Description{
		VersionNumber: version.Short(),
		Files:         make(map[string]string, defaultMapCapacity),
	}
}

// ArtifactName returns the published file name of opi for a platform.
func ArtifactName(goos, goarch string) string {
	name := fmt.Sprintf("%s-%s-%s", artifactPrefix, goos, goarch)
	if goos == "windows" {
		name += ".exe"
	}

	return name
}

// FileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func FileChecksum(path string) ([]byte, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = file.Close()
	}()

	return Checksum(file)
}

// Checksum hashes everything read from r with DefaultChecksumFunction.
func Checksum(r io.Reader) ([]byte, error) {
	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}
