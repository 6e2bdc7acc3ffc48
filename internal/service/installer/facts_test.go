package installer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestGeolocator covers the successful lookup and every fallback to Unknown.
func TestGeolocator(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /full", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"203.0.113.7","city":"Lagos","country":"NG"}`))
	})
	mux.HandleFunc("GET /country", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"country":"NG"}`))
	})
	mux.HandleFunc("GET /empty", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("GET /garbage", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`rate limited`))
	})
	mux.HandleFunc("GET /limited", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	cases := map[string]string{
		"/full":    "Lagos, NG",
		"/country": "NG",
		"/empty":   unknownValue,
		"/garbage": unknownValue,
		"/limited": unknownValue,
	}

	for path, want := range cases {
		got := NewGeolocator(srv.URL+path, time.Second).Locate(context.Background())
		require.Equal(t, want, got, path)
	}

	require.Equal(t, unknownValue, NewGeolocator("http://127.0.0.1:1/", time.Second).Locate(context.Background()))
}

// TestInterpreterVersions parses the interpreter answers and falls back to Unknown.
func TestInterpreterVersions(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{handle: new(pythonWorld).handle}

	python, pip := interpreterVersions(context.Background(), runner, "python3")
	require.Equal(t, "3.12.1", python)
	require.Equal(t, "pip 24.0 from /usr/lib/python3/site-packages/pip (python 3.12)", pip)
	require.Equal(t, []string{"python3 --version", "python3 -m pip --version"}, runner.lines())

	runner = &fakeRunner{handle: func(Command) (string, error) { return "", errExitStatus }}

	python, pip = interpreterVersions(context.Background(), runner, "python3")
	require.Equal(t, unknownValue, python)
	require.Equal(t, unknownValue, pip)
}

// TestFacts_SessionLogAndRegistration checks the rendered log and payload.
func TestFacts_SessionLogAndRegistration(t *testing.T) {
	t.Parallel()

	facts := &Facts{
		User:     "ada",
		Host:     "lab-7",
		OS:       "linux/amd64",
		Python:   "3.12.1",
		Pip:      "pip 24.0",
		Dir:      "/home/ada/projects/owl",
		Location: "Lagos, NG",
		Time:     time.Date(2026, 10, 15, 9, 4, 5, 6000, time.Local),
	}

	log := facts.SessionLog("V1.1.0 OPI")
	require.Contains(t, log, "Version: V1.1.0 OPI\n")
	require.Contains(t, log, "Time: 2026-10-15 09:04:05\n")
	require.Contains(t, log, "Installed at: Lagos, NG\n")
	require.Contains(t, log, "Path: /home/ada/projects/owl\n")
	require.Equal(t, "owl", facts.Project())

	payload := facts.Registration("V1.1.0 OPI", log, "session-1")
	require.Equal(t, "lab-7", payload.Host)
	require.Equal(t, "2026-10-15T09:04:05.000006", payload.Timestamp)
	require.Equal(t, log, payload.Log)
	require.Equal(t, "session-1", payload.SessionID)
	require.Equal(t, "Lagos, NG", payload.Location)
}
