package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/owl-installer/internal/service/packager"
	"github.com/oshokin/owl-installer/internal/service/server"
)

// releaseVersion overrides the version of a packaged release.
var releaseVersion string

var (
	// enableCmd lets installers run again.
	enableCmd = &cobra.Command{
		Use:   "enable",
		Short: "Allow installers to run.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return server.SetStatus(cmd.Context(), adminOptions(), true, cmd.OutOrStdout())
		},
	}

	// disableCmd is the kill switch.
	disableCmd = &cobra.Command{
		Use:   "disable",
		Short: "Stop every installer at its next status check.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return server.SetStatus(cmd.Context(), adminOptions(), false, cmd.OutOrStdout())
		},
	}

	// statusCmd prints the stored flag.
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print whether installers are enabled.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return server.ShowStatus(cmd.Context(), adminOptions(), cmd.OutOrStdout())
		},
	}

	// packageCmd writes the release description of a folder.
	packageCmd = &cobra.Command{
		Use:   "package <release-folder>",
		Short: "Write opi-version.yaml for the opi binaries in a folder.",
		Long: `Hashes every file of the release folder with SHA-512 and writes
opi-version.yaml next to them. Artifacts are named opi-<os>-<arch>, with .exe
on Windows. Serve the folder with update_folder or upload it to update_url.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return packager.Run(ctx, &packager.Options{
				Folder:  args[0],
				Version: releaseVersion,
				Out:     cmd.OutOrStdout(),
			})
		},
	}
)

// adminOptions collects the persistent flags shared by the admin commands.
func adminOptions() *server.AdminOptions {
	return &server.AdminOptions{
		ConfigPath: configPath,
		StatusFile: statusFile,
	}
}
