package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/oshokin/owl-installer/internal/api/http/owl"
	"github.com/oshokin/owl-installer/internal/logger"
	"github.com/oshokin/owl-installer/internal/service/common"
)

const (
	// unknownValue replaces facts that could not be collected.
	unknownValue = "Unknown"
	// logTimeLayout formats the session time in the session log.
	logTimeLayout = time.DateTime
	// timestampLayout formats the registration timestamp.
	timestampLayout = "2006-01-02T15:04:05.000000"
	// maxGeoBody bounds the geolocation response.
	maxGeoBody = 64 << 10
)

// Facts describes the machine and project of one installer run.
type Facts struct {
	// User is the operator name.
	User string
	// Host is the machine hostname.
	Host string
	// OS is the operating system and architecture.
	OS string
	// Python is the interpreter version, without the "Python " prefix.
	Python string
	// Pip is the first line of "pip --version".
	Pip string
	// Dir is the absolute project directory.
	Dir string
	// Location is "city, country" or Unknown.
	Location string
	// Time is the local start time of the run.
	Time time.Time
}

// Project returns the base name of the project directory.
func (f *Facts) Project() string {
	return projectName(f.Dir)
}

// SessionLog renders the text of the local session log.
func (f *Facts) SessionLog(version string) string {
	var b strings.Builder

	b.WriteString("\n🦉 Owl dev Installer Log\n")
	fmt.Fprintf(&b, "Version: %s\n", version)
	fmt.Fprintf(&b, "Time: %s\n", f.Time.Format(logTimeLayout))
	fmt.Fprintf(&b, "Installed at: %s\n", f.Location)
	fmt.Fprintf(&b, "Host: %s\n", f.Host)
	fmt.Fprintf(&b, "Running: %s\n", f.OS)
	fmt.Fprintf(&b, "Python: %s\n", f.Python)
	fmt.Fprintf(&b, "Pip: %s\n", f.Pip)
	fmt.Fprintf(&b, "Path: %s\n", f.Dir)

	return b.String()
}

// Registration builds the payload sent to the registration endpoint.
func (f *Facts) Registration(version, sessionLog, sessionID string) *owl.Registration {
	return &owl.Registration{
		User:      f.User,
		Host:      f.Host,
		OS:        f.OS,
		Python:    f.Python,
		Pip:       f.Pip,
		Timestamp: f.Time.Format(timestampLayout),
		Log:       sessionLog,
		Version:   version,
		SessionID: sessionID,
		Location:  f.Location,
	}
}

// interpreterVersions asks the base interpreter for its own and pip's version.
func interpreterVersions(ctx context.Context, runner CommandRunner, interpreter string) (string, string) {
	python, err := output(ctx, runner, Command{Name: interpreter, Args: []string{"--version"}})
	if err != nil || python == "" {
		logger.DebugKV(ctx, "Python version unavailable", "error", err)

		python = unknownValue
	}

	pip, err := output(ctx, runner, Command{Name: interpreter, Args: []string{"-m", "pip", "--version"}})
	if err != nil || pip == "" {
		logger.DebugKV(ctx, "Pip version unavailable", "error", err)

		pip = unknownValue
	}

	python = strings.TrimPrefix(firstLine(python), "Python ")

	return python, firstLine(pip)
}

// platformName describes the running operating system.
func platformName() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// geoResponse is the part of the geolocation answer opi uses.
type geoResponse struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Geolocator resolves the approximate location of the machine.
type Geolocator struct {
	url        string
	httpClient *http.Client
}

// NewGeolocator creates a geolocator querying url with the given timeout.
func NewGeolocator(url string, timeout time.Duration) *Geolocator {
	return &Geolocator{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Locate returns "city, country", or Unknown when the lookup fails in any way.
func (g *Geolocator) Locate(ctx context.Context) string {
	location, err := g.locate(ctx)
	if err != nil {
		logger.DebugKV(ctx, "Geolocation failed", "error", err)
		return unknownValue
	}

	return location
}

func (g *Geolocator) locate(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("query %s: %w", g.url, err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("query %s: %w: %s", g.url, common.ErrBadStatus, resp.Status)
	}

	var geo geoResponse
	if err = json.NewDecoder(io.LimitReader(resp.Body, maxGeoBody)).Decode(&geo); err != nil {
		return "", fmt.Errorf("decode location: %w", err)
	}

	parts := make([]string, 0, 2)

	for _, part := range []string{geo.City, geo.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	if len(parts) == 0 {
		return unknownValue, nil
	}

	return strings.Join(parts, ", "), nil
}

// hostname returns the machine name or Unknown.
func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return unknownValue
	}

	return name
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
