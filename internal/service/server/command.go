package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"

	"github.com/oshokin/owl-installer/internal/api/grpc/health"
	"github.com/oshokin/owl-installer/internal/api/http/owl"
	"github.com/oshokin/owl-installer/internal/config"
	"github.com/oshokin/owl-installer/internal/logger"
	"github.com/oshokin/owl-installer/internal/repository/registration"
	statusrepo "github.com/oshokin/owl-installer/internal/repository/status"
)

const (
	// readHeaderTimeout bounds slow clients.
	readHeaderTimeout = 10 * time.Second
	// shutdownTimeout bounds graceful shutdown of the HTTP server.
	shutdownTimeout = 5 * time.Second
)

// Options controls the opi-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the HTTP server.
	ListenAddress string
	// StoreFile overrides the registration store path.
	StoreFile string
	// StatusFile overrides the status flag path.
	StatusFile string
	// Ready, when set, receives the bound HTTP address once the server listens.
	Ready chan<- string
}

// Run starts the HTTP server (and the gRPC admin server when configured)
// and blocks until the context is canceled or a server stops.
//
//nolint:funlen // Linear setup of two listeners reads better in one place.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "opi-server")

	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}

	registrations, err := registration.Open(ctx, settings.StoreDriver, settings.StoreFile)
	if err != nil {
		return fmt.Errorf("open registration store: %w", err)
	}

	defer func() {
		_ = registrations.Close()
	}()

	svc := newService(registrations, statusrepo.NewFileRepository(settings.StatusFile))

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", settings.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", settings.ListenAddress, err)
	}

	var handlerOptions []owl.Option
	if settings.UpdateFolder != "" {
		handlerOptions = append(handlerOptions, owl.WithUpdateFolder(settings.UpdateFolder))
	}

	httpServer := &http.Server{
		Handler:           owl.NewServer(svc, handlerOptions...).Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       requestBaseContext(ctx),
	}

	errs := make(chan error, 2)

	go func() {
		if serveErr := httpServer.Serve(lis); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errs <- fmt.Errorf("serve HTTP: %w", serveErr)
		}
	}()

	logger.InfoKV(ctx, "OWL backend listening",
		"listen_address", lis.Addr().String(),
		"store_driver", settings.StoreDriver,
		"store_file", settings.StoreFile,
		"status_file", settings.StatusFile,
	)

	var grpcServer *grpc.Server

	if settings.AdminAddress != "" {
		adminListener, listenErr := lc.Listen(ctx, "tcp", settings.AdminAddress)
		if listenErr != nil {
			_ = httpServer.Close()

			return fmt.Errorf("listen on %s: %w", settings.AdminAddress, listenErr)
		}

		grpcServer = grpc.NewServer()
		health.Register(grpcServer, svc)

		go func() {
			if serveErr := grpcServer.Serve(adminListener); serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
				errs <- fmt.Errorf("serve gRPC: %w", serveErr)
			}
		}()

		logger.InfoKV(ctx, "Admin health endpoint listening", "admin_address", adminListener.Addr().String())
	}

	if opts.Ready != nil {
		opts.Ready <- lis.Addr().String()
	}

	select {
	case <-ctx.Done():
		logger.Info(ctx, "Shutting down")
	case err = <-errs:
		logger.ErrorKV(ctx, "Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.ErrorKV(ctx, "HTTP shutdown failed", "error", shutdownErr)
	}

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	logger.Info(ctx, "Server stopped")

	return err
}

// loadSettings loads configuration and applies command line overrides.
func loadSettings(opts *Options) (*config.Config, error) {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.ListenAddress != "" {
		settings.ListenAddress = opts.ListenAddress
	}

	if opts.StoreFile != "" {
		settings.StoreFile = opts.StoreFile
	}

	if opts.StatusFile != "" {
		settings.StatusFile = opts.StatusFile
	}

	return settings, nil
}

// requestBaseContext gives requests the values of ctx without its cancellation.
func requestBaseContext(ctx context.Context) func(net.Listener) context.Context {
	base := context.WithoutCancel(ctx)

	return func(net.Listener) context.Context {
		return base
	}
}
