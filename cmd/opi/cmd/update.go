package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/owl-installer/internal/service/updater"
)

// selfUpdateCmd replaces the running binary with the published release.
var selfUpdateCmd = &cobra.Command{
	Use:   "self-update",
	Short: "Download and apply the latest published opi release.",
	Long: `Downloads opi-version.yaml from update_url and, when the published version
differs from this build, replaces the running binary with the artifact for
this platform after verifying its SHA-512 checksum.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return updater.Run(ctx, &updater.Options{
			ConfigPath: configPath,
			Out:        cmd.OutOrStdout(),
		})
	},
}
