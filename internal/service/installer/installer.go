package installer

import (
	"context"

	"github.com/oshokin/owl-installer/internal/domain/install"
	"github.com/oshokin/owl-installer/internal/logger"
)

// Installer processes specifiers strictly one after another.
type Installer struct {
	packages PackageManager
	console  *Console
}

// NewInstaller creates an install loop over the given package manager.
func NewInstaller(packages PackageManager, console *Console) *Installer {
	return &Installer{
		packages: packages,
		console:  console,
	}
}

// Run installs every specifier in order and then retries the failures once.
// A failed specifier never aborts the pass. Run stops early only when ctx is
// canceled, returning the partial report together with the context error.
func (i *Installer) Run(ctx context.Context, specs []install.Specifier) (*install.Report, error) {
	ctx = logger.WithName(ctx, "installer")
	report := &install.Report{
		Results: make([]install.Result, 0, len(specs)),
	}

	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Results = append(report.Results, i.first(ctx, spec))
	}

	var failed []install.Specifier

	for _, result := range report.Results {
		if result.Outcome == install.Failed {
			failed = append(failed, result.Specifier)
		}
	}

	if len(failed) == 0 {
		return report, nil
	}

	i.console.Plain("")
	i.console.Warn("🔁 Owl is retrying failed packages...")

	for _, spec := range failed {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Retries = append(report.Retries, i.retry(ctx, spec))
	}

	return report, nil
}

// first handles one specifier in the initial pass.
func (i *Installer) first(ctx context.Context, spec install.Specifier) install.Result {
	name := spec.Name()

	i.console.Info("🦉 Checking %s...", name)

	if i.packages.IsInstalled(ctx, name) {
		i.console.Success("✅ %s already installed. Skipping...", name)

		return install.Result{Specifier: spec, Outcome: install.AlreadyPresent}
	}

	i.console.Note("🚀 Installing %s...", spec)

	if err := i.packages.Install(ctx, spec); err != nil {
		logger.DebugKV(ctx, "Install failed", "specifier", spec, "error", err)
		i.console.Fail("❌ Failed to install %s. Reason: %v", spec, err)

		return install.Result{Specifier: spec, Outcome: install.Failed, Err: err}
	}

	return install.Result{Specifier: spec, Outcome: install.Installed}
}

// retry uninstalls whatever a failed attempt left behind and installs once more.
func (i *Installer) retry(ctx context.Context, spec install.Specifier) install.Result {
	i.console.Fail("🧹 Cleaning up incomplete install for %s...", spec)

	if err := i.packages.Uninstall(ctx, spec.Name()); err != nil {
		logger.DebugKV(ctx, "Cleanup failed", "specifier", spec, "error", err)
	}

	if err := i.packages.Install(ctx, spec); err != nil {
		i.console.Fail("❌ Still failed: %s", spec)

		return install.Result{Specifier: spec, Outcome: install.Failed, Err: err}
	}

	i.console.Success("✅ Retried and installed %s", spec)

	return install.Result{Specifier: spec, Outcome: install.Installed}
}
