package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds settings shared by the opi and opi-server binaries.
type Config struct {
	// ServerURL is the base URL of the registration/status service used by the installer.
	ServerURL string `yaml:"server_url"`
	// GeoURL is the IP geolocation endpoint used to annotate the session log.
	GeoURL string `yaml:"geo_url"`
	// UpdateURL is the folder URL where opi release artifacts are published.
	UpdateURL string `yaml:"update_url"`
	// Manifest is the requirements file read by the installer.
	Manifest string `yaml:"manifest"`
	// Interpreter is the Python executable used to create environments.
	Interpreter string `yaml:"interpreter"`
	// Timeout bounds the geolocation lookup, the registration POST and release downloads.
	Timeout time.Duration `yaml:"timeout"`
	// StatusTimeout bounds the remote gate status request.
	StatusTimeout time.Duration `yaml:"status_timeout"`

	// ListenAddress is the HTTP listen address of opi-server.
	ListenAddress string `yaml:"listen_address"`
	// AdminAddress is an optional gRPC listen address for the health endpoint.
	AdminAddress string `yaml:"admin_address"`
	// StoreDriver selects the registration store backend: "json" or "sqlite".
	StoreDriver string `yaml:"store_driver"`
	// StoreFile is the path of the registration store.
	StoreFile string `yaml:"store_file"`
	// StatusFile is the path of the JSON file holding the global enabled flag.
	StatusFile string `yaml:"status_file"`
	// UpdateFolder is a local directory served under /updates/ when set.
	UpdateFolder string `yaml:"update_folder"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "opi-settings.yaml"

	// DefaultServerURL is the registration/status service used when nothing is configured.
	DefaultServerURL = "http://127.0.0.1:5000"

	// DefaultGeoURL is the IP geolocation endpoint.
	DefaultGeoURL = "https://ipinfo.io/json"

	// DefaultManifest is the requirements file looked up in the working directory.
	DefaultManifest = "requirements.txt"

	// DefaultInterpreter is the Python executable used to create environments.
	DefaultInterpreter = "python3"

	// DefaultTimeout is the default duration for best-effort network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultStatusTimeout is the default duration for the remote gate.
	DefaultStatusTimeout = 3 * time.Second

	// DefaultListenAddress is the default HTTP listen address of opi-server.
	DefaultListenAddress = ":5000"

	// DefaultStoreFilename is the default registration store path.
	DefaultStoreFilename = "users.json"

	// DefaultStatusFilename is the default status flag path.
	DefaultStatusFilename = "app-status.json"

	// DefaultFilePermissions is the default file permission for files written by the binaries.
	DefaultFilePermissions = 0o600

	// StoreDriverJSON keeps registrations in a single JSON document.
	StoreDriverJSON = "json"

	// StoreDriverSQLite keeps registrations in an SQLite database.
	StoreDriverSQLite = "sqlite"

	// EnvServerURL overrides ServerURL.
	EnvServerURL = "OPI_SERVER_URL"

	// EnvServerPort overrides the port of ListenAddress.
	EnvServerPort = "OPI_SERVER_PORT"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownStoreDriver is returned for store drivers other than json and sqlite.
	errUnknownStoreDriver = errors.New("unknown store driver")
	// errInvalidPort is returned when the port override is not a TCP port.
	errInvalidPort = errors.New("invalid port")
)

// Default returns settings with every field set to its default value.
func Default() *Config {
	return &Config{
		ServerURL:     DefaultServerURL,
		GeoURL:        DefaultGeoURL,
		Manifest:      DefaultManifest,
		Interpreter:   DefaultInterpreter,
		Timeout:       DefaultTimeout,
		StatusTimeout: DefaultStatusTimeout,
		ListenAddress: DefaultListenAddress,
		StoreDriver:   StoreDriverJSON,
		StoreFile:     DefaultStoreFilename,
		StatusFile:    DefaultStatusFilename,
	}
}

// Load reads configuration from the provided path, applies environment overrides
// and validates the result. A missing file at the default location yields defaults,
// a missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	explicit := path != "" && path != DefaultConfigFilename
	if path == "" {
		path = DefaultConfigFilename
	}

	cfg := Default()

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case err == nil:
		if err = yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Defaults only.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// ApplyEnv overrides settings from environment variables looked up with lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if value, ok := lookup(EnvServerURL); ok && value != "" {
		cfg.ServerURL = value
	}

	value, ok := lookup(EnvServerPort)
	if !ok || value == "" {
		return nil
	}

	port, err := strconv.Atoi(value)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("%s=%q: %w", EnvServerPort, value, errInvalidPort)
	}

	host := ""
	if cfg.ListenAddress != "" {
		if h, _, splitErr := net.SplitHostPort(cfg.ListenAddress); splitErr == nil {
			host = h
		}
	}

	cfg.ListenAddress = net.JoinHostPort(host, value)

	return nil
}

// Validate checks the provided settings for formatting and fills in defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerURL == "" {
		settings.ServerURL = DefaultServerURL
	}

	if _, err := url.ParseRequestURI(settings.ServerURL); err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	if settings.UpdateURL != "" {
		if _, err := url.ParseRequestURI(settings.UpdateURL); err != nil {
			return fmt.Errorf("invalid update URL: %w", err)
		}
	}

	// Set default timeouts if not specified.
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.StatusTimeout <= 0 {
		settings.StatusTimeout = DefaultStatusTimeout
	}

	if settings.Manifest == "" {
		settings.Manifest = DefaultManifest
	}

	if settings.Interpreter == "" {
		settings.Interpreter = DefaultInterpreter
	}

	if settings.ListenAddress == "" {
		settings.ListenAddress = DefaultListenAddress
	}

	if _, _, err := net.SplitHostPort(settings.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if settings.AdminAddress != "" {
		if _, _, err := net.SplitHostPort(settings.AdminAddress); err != nil {
			return fmt.Errorf("invalid admin address: %w", err)
		}
	}

	switch settings.StoreDriver {
	case "":
		settings.StoreDriver = StoreDriverJSON
	case StoreDriverJSON, StoreDriverSQLite:
	default:
		return fmt.Errorf("%q: %w", settings.StoreDriver, errUnknownStoreDriver)
	}

	if settings.StoreFile == "" {
		settings.StoreFile = DefaultStoreFilename
	}

	if settings.StatusFile == "" {
		settings.StatusFile = DefaultStatusFilename
	}

	return nil
}
