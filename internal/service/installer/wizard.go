package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/owl-installer/internal/api/http/owl"
	"github.com/oshokin/owl-installer/internal/config"
	"github.com/oshokin/owl-installer/internal/domain/install"
	"github.com/oshokin/owl-installer/internal/logger"
	"github.com/oshokin/owl-installer/internal/repository/brain"
	"github.com/oshokin/owl-installer/internal/service/common"
	"github.com/oshokin/owl-installer/internal/version"
)

// Options controls one opi run.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// WorkDir is the project directory; the current directory when empty.
	WorkDir string
	// HomeDir holds the session log; the user's home directory when empty.
	HomeDir string
	// Strict makes packages that are still failed after the retry pass an error.
	Strict bool
	// In supplies the operator's answers.
	In io.Reader
	// Out receives the console output.
	Out io.Writer
}

// remoteService is the part of the backend client the wizard uses.
type remoteService interface {
	StatusChecker
	Notify(ctx context.Context, payload *owl.Registration)
}

// trustStore persists the trust record of the project.
type trustStore interface {
	Load(ctx context.Context) (*brain.Record, error)
	Save(ctx context.Context, record *brain.Record) error
	Dir() string
}

// locator resolves the approximate location of the machine.
type locator interface {
	Locate(ctx context.Context) string
}

// wizard is one interactive installer session.
type wizard struct {
	settings *config.Config
	workDir  string
	logPath  string
	strict   bool

	console  *Console
	prompter *Prompter
	remote   remoteService
	trust    trustStore
	geo      locator
	runner   CommandRunner

	now       func() time.Time
	sessionID func() string
	user      func() string
	// newPackages creates the package manager for the environment interpreter.
	newPackages func(python string) PackageManager
}

// Run executes the installer wizard in the project directory.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "opi")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	workDir, err := resolveDir(opts.WorkDir, os.Getwd)
	if err != nil {
		return fmt.Errorf("resolve project directory: %w", err)
	}

	home, err := resolveDir(opts.HomeDir, os.UserHomeDir)
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}

	client, err := common.NewClient(
		settings.ServerURL,
		common.WithCallTimeout(settings.Timeout),
		common.WithStatusTimeout(settings.StatusTimeout),
	)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	in := opts.In
	if in == nil {
		in = os.Stdin
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	console := NewConsole(out)
	runner := NewExecRunner(workDir)

	w := &wizard{
		settings:  settings,
		workDir:   workDir,
		logPath:   SessionLogPath(home),
		strict:    opts.Strict,
		console:   console,
		prompter:  NewPrompter(in, console),
		remote:    client,
		trust:     brain.NewFileRepository(workDir),
		geo:       NewGeolocator(settings.GeoURL, settings.Timeout),
		runner:    runner,
		now:       time.Now,
		sessionID: uuid.NewString,
		user: func() string {
			return common.OperatorName(os.LookupEnv, hostname())
		},
		newPackages: func(python string) PackageManager {
			return NewPip(python, runner, out)
		},
	}

	return w.run(ctx)
}

// ShowLog prints the session log of the last run.
func ShowLog(opts *Options) error {
	home, err := resolveDir(opts.HomeDir, os.UserHomeDir)
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return ShowSessionLog(home, out)
}

//nolint:funlen,cyclop // The wizard is a fixed sequence of steps.
func (w *wizard) run(ctx context.Context) error {
	w.console.Plain("")
	w.console.Banner("🦉 Welcome to OWL PACKAGE MANAGER INSTALLER %s 🦉", version.Banner())
	w.console.Plain("")

	facts := w.collectFacts(ctx)
	sessionLog := facts.SessionLog(version.Banner())

	if err := writeSessionLog(w.logPath, sessionLog); err != nil {
		logger.WarnKV(ctx, "Session log not written", "path", w.logPath, "error", err)
	} else {
		w.console.Success("📡 Log created at: %s", w.logPath)
	}

	w.console.Info("🌍 Location detected: %s", facts.Location)

	w.remote.Notify(ctx, facts.Registration(version.Banner(), sessionLog, w.sessionID()))

	if !remoteEnabled(ctx, w.remote) {
		w.console.Plain("")
		w.console.Fail("🛑 This application has been disabled by the publisher.")

		return ErrDisabled
	}

	if err := w.confirmProject(ctx, facts); err != nil {
		return err
	}

	specs, err := LoadManifest(filepath.Join(w.workDir, w.settings.Manifest))
	if err != nil {
		w.reportManifestError(err)
		return err
	}

	w.console.Plain("")
	w.console.Info("🧠 Owl is preparing your python environment for '%s' project...", facts.Project())
	w.console.Warn("%s, Owl wizard will build your environment and install required packages.", facts.User)

	kind, err := w.prompter.ChooseEnv()
	if err != nil {
		return err
	}

	lock, err := AcquireLock(w.trust.Dir())
	if err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			w.console.Fail("⏳ Another Owl installer is working in this project. Delete %s if it crashed.", lockFilename)
		}

		return err
	}

	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			logger.WarnKV(ctx, "Lock not released", "error", releaseErr)
		}
	}()

	record := &brain.Record{
		Project:   facts.Project(),
		Path:      w.workDir,
		Env:       string(kind),
		Timestamp: w.now(),
	}

	if err = w.trust.Save(ctx, record); err != nil {
		logger.WarnKV(ctx, "Trust record not saved", "error", err)
	}

	python, err := NewProvisioner(w.workDir, w.settings.Interpreter, w.runner, w.console).Ensure(ctx, kind)
	if err != nil {
		w.console.Fail("❌ Owl could not prepare the '%s' environment: %v", kind, err)
		return err
	}

	w.console.Plain("")
	w.console.Banner("📦 Owl found %d packages to install.", len(specs))

	report, err := NewInstaller(w.newPackages(python), w.console).Run(ctx, specs)
	if err != nil {
		return fmt.Errorf("install interrupted: %w", err)
	}

	w.summarize(report)

	if failed := report.Failed(); w.strict && len(failed) > 0 {
		return fmt.Errorf("%d of %d: %w", len(failed), len(specs), ErrPackagesFailed)
	}

	return nil
}

// collectFacts gathers what the session log and the registration describe.
func (w *wizard) collectFacts(ctx context.Context) *Facts {
	python, pip := interpreterVersions(ctx, w.runner, w.settings.Interpreter)

	return &Facts{
		User:     w.user(),
		Host:     hostname(),
		OS:       platformName(),
		Python:   python,
		Pip:      pip,
		Dir:      w.workDir,
		Location: w.geo.Locate(ctx),
		Time:     w.now(),
	}
}

// confirmProject skips the question when the trust record names this directory.
func (w *wizard) confirmProject(ctx context.Context, facts *Facts) error {
	record, err := w.trust.Load(ctx)
	if err != nil && !errors.Is(err, brain.ErrNotFound) {
		logger.DebugKV(ctx, "Trust record ignored", "error", err)
	}

	if err == nil && record.Trusts(w.workDir) {
		w.console.Plain("")
		w.console.Note("🧠 Owl brain detected. Continuing in trusted project: %s", record.Project)

		return nil
	}

	w.console.Plain("")
	w.console.Info("Hello %s, Owl wants to confirm your working directory:", facts.User)
	w.console.Warn("📁 %s (project: %s)", w.workDir, facts.Project())

	confirmed, err := w.prompter.Confirm("Is this your intended project folder?")
	if err != nil {
		return err
	}

	if !confirmed {
		w.console.Fail("❌ Owl cannot proceed without confirmation. Exiting.")
		return ErrNotConfirmed
	}

	return nil
}

func (w *wizard) reportManifestError(err error) {
	switch {
	case errors.Is(err, ErrManifestNotFound):
		w.console.Fail("❌ No %s found. Please ensure you're in your project root.", w.settings.Manifest)
	case errors.Is(err, ErrManifestEncoding):
		w.console.Fail("❌ %s encoding error. Please save it as UTF-8.", w.settings.Manifest)
	default:
		w.console.Fail("❌ %v", err)
	}
}

// summarize prints the per-outcome totals and the closing banner.
func (w *wizard) summarize(report *install.Report) {
	w.console.Plain("")
	w.console.Plain(
		"Summary: %d installed, %d already present, %d recovered on retry, %d failed.",
		report.Count(install.Installed),
		report.Count(install.AlreadyPresent),
		len(report.Recovered()),
		len(report.Failed()),
	)

	for _, spec := range report.Failed() {
		w.console.Fail("  ❌ %s", spec)
	}

	w.console.Plain("")
	w.console.Banner("🎉 Owl wizard has completed your environment setup!")
	w.console.Info("📄 View logs at: %s", w.logPath)
	w.console.Warn("🦉 Re-run 'opi' anytime to continue working in this project.")
}

// resolveDir returns dir as an absolute path, asking fallback when dir is empty.
func resolveDir(dir string, fallback func() (string, error)) (string, error) {
	if dir == "" {
		var err error
		if dir, err = fallback(); err != nil {
			return "", err
		}
	}

	return filepath.Abs(dir)
}

func projectName(dir string) string {
	return filepath.Base(dir)
}
