package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/owl-installer/internal/config"
	"github.com/oshokin/owl-installer/internal/logger"
	"github.com/oshokin/owl-installer/internal/service/installer"
	"github.com/oshokin/owl-installer/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// logLevel is the minimum level of diagnostic logs written to stderr.
	logLevel string
	// strict turns packages that are still failed after the retry pass into a non-zero exit.
	strict bool
	// showLog prints the session log of the last run instead of running the wizard.
	showLog bool

	// rootCmd represents the base command for running the installer wizard.
	rootCmd = &cobra.Command{
		Use:   "opi",
		Short: "Build the Python environment of the current project.",
		Long: `Owl package installer.

Run it from the root of a Python project. opi confirms the project folder,
creates a venv (or legacy .env) environment and installs every line of
requirements.txt into it, one package at a time. Packages that fail are
uninstalled and retried once at the end.

Installers can be switched off remotely through the status service; when it
cannot be reached opi carries on. A short session log is kept in
~/.owl_dev/owl_logs and printed by "opi --version".`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.SetLevelName(logLevel)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &installer.Options{
				ConfigPath: configPath,
				Strict:     strict,
				In:         cmd.InOrStdin(),
				Out:        cmd.OutOrStdout(),
			}

			if showLog {
				return installer.ShowLog(options)
			}

			return installer.Run(ctx, options)
		},
	}
)

// Execute runs the opi CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(selfUpdateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "diagnostic log level: debug, info, warn, error")
	rootCmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when packages are still failed after the retry")
	rootCmd.Flags().BoolVarP(&showLog, "version", "v", false, "print the session log of the last run")
}
