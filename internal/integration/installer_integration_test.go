package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/owl-installer/internal/api/http/owl"
	"github.com/oshokin/owl-installer/internal/config"
	"github.com/oshokin/owl-installer/internal/repository/brain"
	"github.com/oshokin/owl-installer/internal/service/installer"
	"github.com/oshokin/owl-installer/internal/service/packager"
	"github.com/oshokin/owl-installer/internal/service/server"
	"github.com/oshokin/owl-installer/internal/service/updater"
)

// TestInstaller_DisabledByLiveServer registers the session and stops at the kill switch.
func TestInstaller_DisabledByLiveServer(t *testing.T) {
	t.Parallel()

	baseURL, settings := startServer(t, nil)
	serverConfig := filepath.Join(filepath.Dir(settings.StoreFile), "opi-settings.yaml")

	require.NoError(t, server.SetStatus(context.Background(), &server.AdminOptions{ConfigPath: serverConfig}, false, io.Discard))

	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"city":"Lagos","country":"NG"}`))
	}))
	defer geo.Close()

	clientSettings := config.Default()
	clientSettings.ServerURL = baseURL
	clientSettings.GeoURL = geo.URL
	clientSettings.Interpreter = "opi-missing-python"

	clientConfig := filepath.Join(t.TempDir(), "opi-settings.yaml")
	require.NoError(t, config.Save(clientConfig, clientSettings))

	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "requirements.txt"), []byte("requests\n"), 0o600))

	home := t.TempDir()

	var out bytes.Buffer

	err := installer.Run(context.Background(), &installer.Options{
		ConfigPath: clientConfig,
		WorkDir:    project,
		HomeDir:    home,
		In:         strings.NewReader("y\n1\n"),
		Out:        &out,
	})
	require.ErrorIs(t, err, installer.ErrDisabled)
	require.Contains(t, out.String(), "disabled by the publisher")

	// Nothing in the project changed.
	_, err = os.Stat(filepath.Join(project, brain.DirName))
	require.ErrorIs(t, err, os.ErrNotExist)

	// The registration reached the store with the session facts.
	data, err := os.ReadFile(settings.StoreFile)
	require.NoError(t, err)

	var stored map[string]owl.Registration
	require.NoError(t, json.Unmarshal(data, &stored))
	require.Len(t, stored, 1)

	for key, registration := range stored {
		require.True(t, strings.HasPrefix(key, registration.Host+"_"), key)
		require.Equal(t, "Lagos, NG", registration.Location)
		require.Equal(t, "Unknown", registration.Python)
		require.NotEmpty(t, registration.SessionID)
		require.Contains(t, registration.Log, "Path: "+project)
	}

	// The session log is readable through opi --version.
	out.Reset()
	require.NoError(t, installer.ShowLog(&installer.Options{HomeDir: home, Out: &out}))
	require.Contains(t, out.String(), "Installed at: Lagos, NG")
}

// TestInstaller_UnreachableServerFailsOpen continues to the manifest when nothing answers.
func TestInstaller_UnreachableServerFailsOpen(t *testing.T) {
	t.Parallel()

	clientSettings := config.Default()
	clientSettings.ServerURL = "http://" + reservePort(t)
	clientSettings.GeoURL = "http://" + reservePort(t)
	clientSettings.Interpreter = "opi-missing-python"

	clientConfig := filepath.Join(t.TempDir(), "opi-settings.yaml")
	require.NoError(t, config.Save(clientConfig, clientSettings))

	var out bytes.Buffer

	err := installer.Run(context.Background(), &installer.Options{
		ConfigPath: clientConfig,
		WorkDir:    t.TempDir(),
		HomeDir:    t.TempDir(),
		In:         strings.NewReader("y\n"),
		Out:        &out,
	})
	require.ErrorIs(t, err, installer.ErrManifestNotFound)
	require.Contains(t, out.String(), "Location detected: Unknown")
}

// TestRelease_PackageServeAndSelfUpdate publishes a release through opi-server and applies it.
func TestRelease_PackageServeAndSelfUpdate(t *testing.T) {
	t.Parallel()

	releaseDir := t.TempDir()
	artifact := updater.ArtifactName(runtime.GOOS, runtime.GOARCH)
	require.NoError(t, os.WriteFile(filepath.Join(releaseDir, artifact), []byte("opi 9.9.9"), 0o600))
	require.NoError(t, packager.Run(context.Background(), &packager.Options{
		Folder:  releaseDir,
		Version: "9.9.9",
		Out:     io.Discard,
	}))

	baseURL, _ := startServer(t, func(cfg *config.Config) {
		cfg.UpdateFolder = releaseDir
	})

	clientSettings := config.Default()
	clientSettings.UpdateURL = baseURL + owl.UpdatesPath

	clientConfig := filepath.Join(t.TempDir(), "opi-settings.yaml")
	require.NoError(t, config.Save(clientConfig, clientSettings))

	target := filepath.Join(t.TempDir(), "opi")
	require.NoError(t, os.WriteFile(target, []byte("opi 1.1.0"), 0o755))

	var out bytes.Buffer
	require.NoError(t, updater.Run(context.Background(), &updater.Options{
		ConfigPath: clientConfig,
		TargetPath: target,
		Out:        &out,
	}))
	require.Contains(t, out.String(), "to 9.9.9")

	contents, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "opi 9.9.9", string(contents))
}
