package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/owl-installer/internal/config"
	"github.com/oshokin/owl-installer/internal/logger"
	"github.com/oshokin/owl-installer/internal/service/server"
	"github.com/oshokin/owl-installer/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel is the minimum level of logs written to stderr.
	logLevel string
	// storeFile overrides the registration store path.
	storeFile string
	// statusFile overrides the path of the enabled flag.
	statusFile string

	// rootCmd represents the base command for running the HTTP server.
	rootCmd = &cobra.Command{
		Use:   "opi-server [listen-address]",
		Short: "Collect installer registrations and serve the enabled flag.",
		Long: `Starts the HTTP service used by opi.

POST /api/register_user stores one registration per host and timestamp,
GET /api/app_status returns the global enabled flag and GET /api/user_count
the number of stored registrations. The listen address can be given as an
argument (e.g. :5000, 127.0.0.1:8080) to override the configuration file;
OPI_SERVER_PORT overrides only the port.

When admin_address is configured a gRPC health service reports SERVING while
installers are enabled.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.SetLevelName(logLevel)
		},
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				StoreFile:     storeFile,
				StatusFile:    statusFile,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the opi-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(enableCmd, disableCmd, statusCmd, packageCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().
		StringVar(&statusFile, "status-file", "", "path of the enabled flag (default from configuration)")
	rootCmd.Flags().
		StringVarP(&storeFile, "store-file", "s", "", "path of the registration store (default from configuration)")
	packageCmd.Flags().StringVar(&releaseVersion, "release-version", "", "version written to the description (default: this build)")
}
