package updater

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/codeGROOVE-dev/retry"
	goupdate "github.com/doitdistributed/go-update"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/owl-installer/internal/config"
	"github.com/oshokin/owl-installer/internal/logger"
	"github.com/oshokin/owl-installer/internal/service/common"
	"github.com/oshokin/owl-installer/internal/version"
)

const (
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 10 * time.Second

	// maxArtifactSize bounds downloads.
	maxArtifactSize = 256 << 20
)

var (
	errNoUpdateURL       = errors.New("update_url is not configured")
	errEmptyDescription  = errors.New("update description is empty")
	errNoChecksum        = errors.New("checksum missing for file")
	errArtifactTooLarge  = errors.New("artifact exceeds the size limit")
	errChecksumMalformed = errors.New("checksum is not valid base64")
)

// Options are inputs accepted by the updater entry point.
type Options struct {
	// ConfigPath is the optional path to settings YAML file.
	ConfigPath string
	// TargetPath is the binary to replace; the running executable when empty.
	TargetPath string
	// Out receives the operator-facing result.
	Out io.Writer
}

// runner holds the state of a single update execution.
type runner struct {
	updateURL  *url.URL
	targetPath string
	goos       string
	goarch     string
	httpClient *http.Client
	delay      time.Duration
	out        io.Writer
}

// Run checks the update folder and replaces the binary when a different release is published.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "opi-updater")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if settings.UpdateURL == "" {
		return errNoUpdateURL
	}

	updateURL, err := url.Parse(settings.UpdateURL)
	if err != nil {
		return fmt.Errorf("parse update URL: %w", err)
	}

	targetPath := opts.TargetPath
	if targetPath == "" {
		if targetPath, err = os.Executable(); err != nil {
			return fmt.Errorf("locate executable: %w", err)
		}
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	u := &runner{
		updateURL:  updateURL,
		targetPath: targetPath,
		goos:       runtime.GOOS,
		goarch:     runtime.GOARCH,
		httpClient: &http.Client{Timeout: settings.Timeout},
		delay:      initialBackoff,
		out:        out,
	}

	return u.run(ctx)
}

func (u *runner) run(ctx context.Context) error {
	logger.Info(ctx, "Downloading the update description")

	desc, err := u.fetchDescription(ctx)
	if err != nil {
		return fmt.Errorf("download update description: %w", err)
	}

	if desc.VersionNumber == version.Short() {
		_, _ = fmt.Fprintf(u.out, "opi %s is up to date.\n", desc.VersionNumber)
		return nil
	}

	artifact := ArtifactName(u.goos, u.goarch)

	encoded, ok := desc.Files[artifact]
	if !ok {
		return fmt.Errorf("checksum for %s: %w", artifact, errNoChecksum)
	}

	checksum, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%s: %w", artifact, errChecksumMalformed)
	}

	logger.InfoKV(ctx, "Downloading release", "artifact", artifact, "version", desc.VersionNumber)

	data, err := u.download(ctx, artifact)
	if err != nil {
		return fmt.Errorf("download %s: %w", artifact, err)
	}

	logger.InfoKV(ctx, "Applying update", "target", u.targetPath)

	err = goupdate.Apply(bytes.NewReader(data), goupdate.Options{
		TargetPath: u.targetPath,
		TargetMode: DefaultFileMode,
		Checksum:   checksum,
		Hash:       DefaultChecksumFunction,
	})
	if err != nil {
		if rollbackErr := goupdate.RollbackError(err); rollbackErr != nil {
			logger.ErrorKV(ctx, "Rollback failed", "error", rollbackErr)
		}

		return fmt.Errorf("apply update: %w", err)
	}

	_, _ = fmt.Fprintf(u.out, "opi updated from %s to %s.\n", version.Short(), desc.VersionNumber)

	return nil
}

// fetchDescription downloads and parses the release description.
func (u *runner) fetchDescription(ctx context.Context) (*Description, error) {
	data, err := u.download(ctx, VersionFilename)
	if err != nil {
		return nil, err
	}

	var desc Description
	if err = yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", VersionFilename, err)
	}

	if desc.VersionNumber == "" {
		return nil, errEmptyDescription
	}

	return &desc, nil
}

// download fetches one file of the update folder, retrying transient failures.
func (u *runner) download(ctx context.Context, fileName string) ([]byte, error) {
	fileURL := u.updateURL.JoinPath(path.Base(fileName)).String()

	return retry.DoWithData(func() ([]byte, error) {
		return u.get(ctx, fileURL)
	},
		retry.Context(ctx),
		retry.Attempts(maxRetries),
		retry.Delay(u.delay),
		retry.MaxDelay(maxBackoff),
	)
}

// get performs one download attempt.
func (u *runner) get(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("%s, %s: %w", fileURL, resp.Status, common.ErrBadStatus)
		if resp.StatusCode < http.StatusInternalServerError {
			// Only server-side failures are worth another attempt.
			return nil, retry.Unrecoverable(err)
		}

		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSize+1))
	if err != nil {
		return nil, err
	}

	if len(data) > maxArtifactSize {
		return nil, errArtifactTooLarge
	}

	return data, nil
}
