package health

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	domain "github.com/oshokin/owl-installer/internal/domain/status"
)

// ServiceName is the service name clients may ask about explicitly.
const ServiceName = "owl.Installer"

// StatusSource abstracts where the enabled flag comes from.
type StatusSource interface {
	AppStatus(ctx context.Context) (*domain.State, error)
}

// Server implements grpc.health.v1.Health on top of the enabled flag.
type Server struct {
	healthpb.UnimplementedHealthServer

	// source provides the flag on every check.
	source StatusSource
}

// NewServer wires the provided source into a health handler.
func NewServer(source StatusSource) *Server {
	return &Server{
		source: source,
	}
}

// Register attaches a health server for source to grpcServer.
func Register(grpcServer *grpc.Server, source StatusSource) {
	healthpb.RegisterHealthServer(grpcServer, NewServer(source))
}

// Check reports SERVING while installers are enabled and NOT_SERVING otherwise.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if name := req.GetService(); name != "" && name != ServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", name)
	}

	state, err := s.source.AppStatus(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to read status")
	}

	response := &healthpb.HealthCheckResponse{
		Status: healthpb.HealthCheckResponse_NOT_SERVING,
	}

	if state.Enabled {
		response.Status = healthpb.HealthCheckResponse_SERVING
	}

	return response, nil
}
