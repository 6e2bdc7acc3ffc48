package owl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	domain "github.com/oshokin/owl-installer/internal/domain/status"
	"github.com/oshokin/owl-installer/internal/logger"
)

// maxRequestBody caps registration payloads.
const maxRequestBody = 1 << 20

const indexPage = "OWL Backend API<br>" +
	RegisterPath + " (POST: register)<br>" +
	StatusPath + " (GET: global enable/disable)<br>" +
	CountPath + " (GET: total registered users)"

var (
	errEmptyBody = errors.New("request body is required")
	errNotObject = errors.New("request body must be a JSON object")
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Register(ctx context.Context, payload json.RawMessage) (int, error)
	UserCount(ctx context.Context) (int, error)
	AppStatus(ctx context.Context) (*domain.State, error)
}

// Server implements the HTTP API.
type Server struct {
	// service provides the business logic.
	service Service
	// updateFolder is served under UpdatesPath when not empty.
	updateFolder string
}

// Option configures the Server.
type Option func(*Server)

// WithUpdateFolder serves release artifacts from dir under UpdatesPath.
func WithUpdateFolder(dir string) Option {
	return func(s *Server) {
		s.updateFolder = dir
	}
}

// NewServer wires the provided service implementation into HTTP handlers.
func NewServer(service Service, opts ...Option) *Server {
	s := &Server{
		service: service,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST "+RegisterPath, s.handleRegister)
	mux.HandleFunc("GET "+StatusPath, s.handleStatus)
	mux.HandleFunc("GET "+CountPath, s.handleCount)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	if s.updateFolder != "" {
		mux.Handle("GET "+UpdatesPath, http.StripPrefix(UpdatesPath, http.FileServer(http.Dir(s.updateFolder))))
	}

	return mux
}

// handleRegister validates the body and stores it.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := readObject(w, r)
	if err != nil {
		logger.DebugKV(ctx, "Rejected registration", "error", err)
		writeJSON(ctx, w, http.StatusBadRequest, &ErrorResponse{Error: err.Error()})

		return
	}

	count, err := s.service.Register(ctx, payload)
	if err != nil {
		logger.ErrorKV(ctx, "Registration failed", "error", err)
		writeJSON(ctx, w, http.StatusInternalServerError, &ErrorResponse{Error: "unable to store registration"})

		return
	}

	writeJSON(ctx, w, http.StatusOK, &RegisterResponse{OK: true, UserCount: count})
}

// handleStatus returns the enabled flag.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state, err := s.service.AppStatus(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Status lookup failed", "error", err)
		writeJSON(ctx, w, http.StatusInternalServerError, &ErrorResponse{Error: "unable to read status"})

		return
	}

	enabled := state.Enabled
	writeJSON(ctx, w, http.StatusOK, &StatusResponse{Enabled: &enabled})
}

// handleCount returns the number of stored registrations.
func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := s.service.UserCount(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Count failed", "error", err)
		writeJSON(ctx, w, http.StatusInternalServerError, &ErrorResponse{Error: "unable to count registrations"})

		return
	}

	writeJSON(ctx, w, http.StatusOK, &CountResponse{UserCount: count})
}

// handleIndex lists the endpoints.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, indexPage)
}

// readObject reads the body and checks that it is a single JSON object.
func readObject(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		return nil, err
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errEmptyBody
	}

	var fields map[string]json.RawMessage
	if err = json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, errNotObject
	}

	return json.RawMessage(body), nil
}

// writeJSON renders value with the given status code.
func writeJSON(ctx context.Context, w http.ResponseWriter, code int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(value); err != nil {
		logger.DebugKV(ctx, "Write response failed", "error", err)
	}
}
