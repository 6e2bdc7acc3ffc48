//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/oshokin/owl-installer/internal/api/http/owl"
	"github.com/oshokin/owl-installer/internal/config"
	"github.com/oshokin/owl-installer/internal/logger"
)

// maxResponseBody caps how much of a response the client reads.
const maxResponseBody = 1 << 20

// Client wraps the registration/status HTTP API with convenience helpers.
type Client struct {
	// baseURL is the service root, for example https://owl.example.com.
	baseURL *url.URL
	// httpClient performs the requests.
	httpClient *http.Client

	// callTimeout is the default timeout for individual calls.
	callTimeout time.Duration
	// statusTimeout is the timeout of AppStatus calls.
	statusTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithStatusTimeout sets the timeout of the status request used by the remote gate.
func WithStatusTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.statusTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// ErrBadStatus is returned for non-2xx responses.
	ErrBadStatus = errors.New("unexpected http status")
)

// NewClient creates a client for the service rooted at address.
func NewClient(address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	baseURL, err := url.ParseRequestURI(address)
	if err != nil {
		return nil, fmt.Errorf("parse server address: %w", err)
	}

	client := &Client{
		baseURL:       baseURL,
		httpClient:    new(http.Client),
		callTimeout:   config.DefaultTimeout,
		statusTimeout: config.DefaultStatusTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// AppStatus retrieves the global enabled flag.
func (c *Client) AppStatus(ctx context.Context) (*owl.StatusResponse, error) {
	callCtx, cancel := withTimeout(ctx, c.statusTimeout)
	defer cancel()

	var response owl.StatusResponse
	if err := c.do(callCtx, http.MethodGet, owl.StatusPath, nil, &response); err != nil {
		return nil, fmt.Errorf("get app status: %w", err)
	}

	return &response, nil
}

// Register sends a registration payload and returns the server's answer.
func (c *Client) Register(ctx context.Context, payload *owl.Registration) (*owl.RegisterResponse, error) {
	callCtx, cancel := withTimeout(ctx, c.callTimeout)
	defer cancel()

	var response owl.RegisterResponse
	if err := c.do(callCtx, http.MethodPost, owl.RegisterPath, payload, &response); err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	return &response, nil
}

// Notify sends a registration and never reports failure to the caller.
// Errors are only visible at debug level.
func (c *Client) Notify(ctx context.Context, payload *owl.Registration) {
	response, err := c.Register(ctx, payload)
	if err != nil {
		logger.DebugKV(ctx, "Registration skipped", "error", err)
		return
	}

	logger.DebugKV(ctx, "Registration sent", "user_count", response.UserCount)
}

// UserCount retrieves the number of stored registrations.
func (c *Client) UserCount(ctx context.Context) (int, error) {
	callCtx, cancel := withTimeout(ctx, c.callTimeout)
	defer cancel()

	var response owl.CountResponse
	if err := c.do(callCtx, http.MethodGet, owl.CountPath, nil, &response); err != nil {
		return 0, fmt.Errorf("get user count: %w", err)
	}

	return response.UserCount, nil
}

// do performs one JSON request and decodes a 2xx response into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	body := io.Reader(http.NoBody)

	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}

		body = bytes.NewReader(data)
	}

	endpoint := c.baseURL.JoinPath(path)

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s %s: %s: %w", method, endpoint.Path, resp.Status, ErrBadStatus)
	}

	if err = json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// withTimeout returns a context with the timeout if configured,
// otherwise a cancellable child context without a deadline.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}
