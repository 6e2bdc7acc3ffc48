package packager

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/owl-installer/internal/service/updater"
)

// TestRun_WritesDescription hashes every artifact and skips directories and the description.
func TestRun_WritesDescription(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "opi-linux-amd64"), []byte("linux"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "opi-windows-amd64.exe"), []byte("windows"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, updater.VersionFilename), []byte("stale"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "notes"), 0o755))

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), &Options{Folder: dir, Version: "2.0.0", Out: &out}))

	data, err := os.ReadFile(filepath.Join(dir, updater.VersionFilename))
	require.NoError(t, err)

	var desc updater.Description
	require.NoError(t, yaml.Unmarshal(data, &desc))
	require.Equal(t, "2.0.0", desc.VersionNumber)
	require.Len(t, desc.Files, 2)

	checksum, err := updater.FileChecksum(filepath.Join(dir, "opi-linux-amd64"))
	require.NoError(t, err)
	require.Equal(t, base64.StdEncoding.EncodeToString(checksum), desc.Files["opi-linux-amd64"])

	require.Contains(t, out.String(), "Release 2.0.0 is ready")
	require.Contains(t, out.String(), "  opi-windows-amd64.exe\n")
}

// TestRun_Errors rejects missing folders, files and folders without artifacts.
func TestRun_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	require.Error(t, Run(context.Background(), &Options{Folder: filepath.Join(dir, "missing")}))

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	require.ErrorIs(t, Run(context.Background(), &Options{Folder: file}), os.ErrInvalid)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))
	require.ErrorIs(t, Run(context.Background(), &Options{Folder: empty, Out: new(bytes.Buffer)}), errNoArtifacts)
}
