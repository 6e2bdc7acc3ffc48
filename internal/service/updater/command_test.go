package updater

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/owl-installer/internal/version"
)

// releaseServer publishes a description and one artifact.
type releaseServer struct {
	// desc is served as VersionFilename.
	desc *Description
	// artifacts maps file names to contents.
	artifacts map[string][]byte
	// failures is the number of requests answered with 503 before serving.
	failures atomic.Int32
	// requests counts every request.
	requests atomic.Int32
}

// ServeHTTP implements http.Handler.
func (s *releaseServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)

	if s.failures.Add(-1) >= 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	name := filepath.Base(r.URL.Path)
	if name == VersionFilename {
		data, err := yaml.Marshal(s.desc)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		_, _ = w.Write(data)

		return
	}

	data, ok := s.artifacts[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	_, _ = w.Write(data)
}

// newRelease describes payload as the linux/amd64 artifact of version v.
func newRelease(t *testing.T, v string, payload []byte) *releaseServer {
	t.Helper()

	checksum, err := Checksum(bytes.NewReader(payload))
	require.NoError(t, err)

	artifact := ArtifactName("linux", "amd64")

	return &releaseServer{
		desc: &Description{
			VersionNumber: v,
			Files:         map[string]string{artifact: base64.StdEncoding.EncodeToString(checksum)},
		},
		artifacts: map[string][]byte{artifact: payload},
	}
}

// newTestRunner targets a temporary binary and the given server.
func newTestRunner(t *testing.T, serverURL string) (*runner, *bytes.Buffer) {
	t.Helper()

	target := filepath.Join(t.TempDir(), "opi")
	require.NoError(t, os.WriteFile(target, []byte("old binary"), DefaultFileMode))

	updateURL, err := url.Parse(serverURL + "/updates/")
	require.NoError(t, err)

	var out bytes.Buffer

	return &runner{
		updateURL:  updateURL,
		targetPath: target,
		goos:       "linux",
		goarch:     "amd64",
		httpClient: &http.Client{Timeout: 5 * time.Second},
		delay:      time.Millisecond,
		out:        &out,
	}, &out
}

// TestRunner_AppliesNewRelease replaces the target after transient failures.
func TestRunner_AppliesNewRelease(t *testing.T) {
	t.Parallel()

	release := newRelease(t, "9.9.9", []byte("new binary"))
	release.failures.Store(2)

	srv := httptest.NewServer(release)
	defer srv.Close()

	u, out := newTestRunner(t, srv.URL)
	require.NoError(t, u.run(context.Background()))

	contents, err := os.ReadFile(u.targetPath)
	require.NoError(t, err)
	require.Equal(t, "new binary", string(contents))
	require.Contains(t, out.String(), "to 9.9.9")
	require.Equal(t, int32(4), release.requests.Load())
}

// TestRunner_UpToDate leaves the binary alone when versions match.
func TestRunner_UpToDate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newRelease(t, version.Short(), []byte("same")))
	defer srv.Close()

	u, out := newTestRunner(t, srv.URL)
	require.NoError(t, u.run(context.Background()))
	require.Contains(t, out.String(), "is up to date")

	contents, err := os.ReadFile(u.targetPath)
	require.NoError(t, err)
	require.Equal(t, "old binary", string(contents))
}

// TestRunner_Rejects keeps the binary on checksum problems.
func TestRunner_Rejects(t *testing.T) {
	t.Parallel()

	// Tampered artifact.
	release := newRelease(t, "9.9.9", []byte("new binary"))
	release.artifacts[ArtifactName("linux", "amd64")] = []byte("tampered")

	srv := httptest.NewServer(release)
	defer srv.Close()

	u, _ := newTestRunner(t, srv.URL)
	require.Error(t, u.run(context.Background()))

	contents, err := os.ReadFile(u.targetPath)
	require.NoError(t, err)
	require.Equal(t, "old binary", string(contents))

	// No artifact for the platform.
	u.goos = "plan9"
	require.ErrorIs(t, u.run(context.Background()), errNoChecksum)

	// Persistent outage gives up after the retries.
	release.failures.Store(100)
	require.Error(t, u.run(context.Background()))
}

// TestRunner_DoesNotRetryClientErrors gives up on the first 404.
func TestRunner_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	u, _ := newTestRunner(t, srv.URL)
	require.Error(t, u.run(context.Background()))
	require.Equal(t, int32(1), requests.Load())
}

// TestRunner_StopsWaitingOnCancel abandons the backoff when the context ends.
func TestRunner_StopsWaitingOnCancel(t *testing.T) {
	t.Parallel()

	release := newRelease(t, "9.9.9", []byte("new binary"))
	release.failures.Store(100)

	srv := httptest.NewServer(release)
	defer srv.Close()

	u, _ := newTestRunner(t, srv.URL)
	u.delay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.Error(t, u.run(ctx))
	require.Less(t, time.Since(start), 5*time.Second)
	require.Equal(t, int32(1), release.requests.Load())
}

// TestRun_RequiresUpdateURL fails fast without an update folder.
func TestRun_RequiresUpdateURL(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "opi-settings.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("timeout: 1s\n"), 0o600))

	require.ErrorIs(t, Run(context.Background(), &Options{ConfigPath: configPath}), errNoUpdateURL)
}

// TestArtifactName appends the Windows extension.
func TestArtifactName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "opi-linux-amd64", ArtifactName("linux", "amd64"))
	require.Equal(t, "opi-windows-arm64.exe", ArtifactName("windows", "arm64"))
}
