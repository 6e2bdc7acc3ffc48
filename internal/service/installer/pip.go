package installer

import (
	"context"
	"fmt"
	"io"

	"github.com/oshokin/owl-installer/internal/domain/install"
)

// PackageManager is the subset of pip the install loop depends on.
type PackageManager interface {
	// IsInstalled reports whether a distribution with the given name is present.
	// The version is not compared.
	IsInstalled(ctx context.Context, name string) bool
	// Install installs one specifier.
	Install(ctx context.Context, spec install.Specifier) error
	// Uninstall removes a distribution without asking for confirmation.
	Uninstall(ctx context.Context, name string) error
}

// Pip drives "python -m pip" for one interpreter.
type Pip struct {
	python string
	runner CommandRunner
	out    io.Writer
}

// NewPip creates a package manager for the interpreter at python.
// Install and uninstall output is copied to out.
func NewPip(python string, runner CommandRunner, out io.Writer) *Pip {
	return &Pip{
		python: python,
		runner: runner,
		out:    out,
	}
}

// IsInstalled implements PackageManager with "pip show".
func (p *Pip) IsInstalled(ctx context.Context, name string) bool {
	return p.runner.Run(ctx, p.command("show", name), io.Discard) == nil
}

// Install implements PackageManager.
func (p *Pip) Install(ctx context.Context, spec install.Specifier) error {
	if err := p.runner.Run(ctx, p.command("install", spec.String()), p.out); err != nil {
		return fmt.Errorf("pip install %s: %w", spec, err)
	}

	return nil
}

// Uninstall implements PackageManager.
func (p *Pip) Uninstall(ctx context.Context, name string) error {
	if err := p.runner.Run(ctx, p.command("uninstall", "-y", name), p.out); err != nil {
		return fmt.Errorf("pip uninstall %s: %w", name, err)
	}

	return nil
}

func (p *Pip) command(args ...string) Command {
	return Command{
		Name: p.python,
		Args: append([]string{"-m", "pip"}, args...),
	}
}
