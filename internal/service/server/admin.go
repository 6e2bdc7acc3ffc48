package server

import (
	"context"
	"fmt"
	"io"

	"github.com/oshokin/owl-installer/internal/logger"
	statusrepo "github.com/oshokin/owl-installer/internal/repository/status"
	"github.com/oshokin/owl-installer/internal/service/common"
)

// AdminOptions selects the status file the admin commands operate on.
type AdminOptions struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// StatusFile overrides the status flag path.
	StatusFile string
}

// SetStatus enables or disables installers by rewriting the status file.
// A running server picks the change up on its next status request.
func SetStatus(ctx context.Context, opts *AdminOptions, enabled bool, out io.Writer) error {
	ctx = logger.WithName(ctx, "opi-server-admin")

	svc, err := adminService(opts)
	if err != nil {
		return err
	}

	actor, err := common.DetectActor()
	if err != nil {
		return fmt.Errorf("detect actor: %w", err)
	}

	state, err := svc.SetAppStatus(ctx, actor, enabled)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "Installers are now %s\n", state)

	return err
}

// ShowStatus prints the current flag.
func ShowStatus(ctx context.Context, opts *AdminOptions, out io.Writer) error {
	ctx = logger.WithName(ctx, "opi-server-admin")

	svc, err := adminService(opts)
	if err != nil {
		return err
	}

	state, err := svc.AppStatus(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "Installers are %s\n", state)

	return err
}

// adminService builds a service that only touches the status file.
func adminService(opts *AdminOptions) (*service, error) {
	settings, err := loadSettings(&Options{ConfigPath: opts.ConfigPath, StatusFile: opts.StatusFile})
	if err != nil {
		return nil, err
	}

	return newService(nil, statusrepo.NewFileRepository(settings.StatusFile)), nil
}
