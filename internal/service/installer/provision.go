package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/oshokin/owl-installer/internal/domain/install"
	"github.com/oshokin/owl-installer/internal/logger"
)

// Provisioner creates the isolated Python environment of a project.
type Provisioner struct {
	projectDir  string
	interpreter string
	runner      CommandRunner
	console     *Console
}

// NewProvisioner creates a provisioner that uses interpreter to create
// environments inside projectDir.
func NewProvisioner(projectDir, interpreter string, runner CommandRunner, console *Console) *Provisioner {
	return &Provisioner{
		projectDir:  projectDir,
		interpreter: interpreter,
		runner:      runner,
		console:     console,
	}
}

// EnvDir returns the environment directory for kind.
func (p *Provisioner) EnvDir(kind install.EnvKind) string {
	return filepath.Join(p.projectDir, string(kind))
}

// Ensure creates the environment unless its directory already exists and
// returns the path of the environment's interpreter.
func (p *Provisioner) Ensure(ctx context.Context, kind install.EnvKind) (string, error) {
	envDir := p.EnvDir(kind)

	info, err := os.Stat(envDir)

	switch {
	case err == nil && !info.IsDir():
		return "", fmt.Errorf("%s exists and is not a directory: %w", envDir, ErrEnvironment)
	case err == nil:
		p.console.Warn("🧠 Environment '%s' already exists.", kind)
	case errors.Is(err, os.ErrNotExist):
		if err = p.create(ctx, kind); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("stat %s: %w", envDir, err)
	}

	python := EnvPython(envDir)
	if _, err = os.Stat(python); err != nil {
		return "", fmt.Errorf("%s has no interpreter at %s: %w", envDir, python, ErrEnvironment)
	}

	p.console.Info("💻 Using the environment directly for installation.")

	return python, nil
}

func (p *Provisioner) create(ctx context.Context, kind install.EnvKind) error {
	p.console.Info("🛠️ Creating environment at '%s'...", kind)

	cmd := Command{
		Name: p.interpreter,
		Args: []string{"-m", "venv", string(kind)},
	}

	if err := p.runner.Run(ctx, cmd, p.console.Writer()); err != nil {
		logger.ErrorKV(ctx, "Environment creation failed", "command", cmd, "error", err)

		return fmt.Errorf("%w: %w", ErrEnvironment, err)
	}

	p.console.Success("✅ Environment created.")

	return nil
}

// EnvPython returns the interpreter path inside the environment at envDir.
func EnvPython(envDir string) string {
	return envPython(envDir, runtime.GOOS)
}

func envPython(envDir, goos string) string {
	if goos == "windows" {
		return filepath.Join(envDir, "Scripts", "python.exe")
	}

	return filepath.Join(envDir, "bin", "python")
}
