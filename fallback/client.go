package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jonwraymond/cmdbridge/auth"
	"github.com/jonwraymond/cmdbridge/bridge"
)

// DefaultMaxResponseBytes bounds how much of a response body is read.
const DefaultMaxResponseBytes = 10 << 20

// Client is the HTTP fallback transport.
//
// Client has no timeout of its own; callers bound each call through the
// context, which aborts the request when it ends.
type Client struct {
	baseURL  string
	http     *http.Client
	tokens   auth.TokenSource
	tracing  bool
	maxBytes int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. The client is copied, so
// later options never modify the caller's value.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			cp := *hc
			c.http = &cp
		}
	}
}

// WithTokenSource adds an Authorization: Bearer header to every request.
func WithTokenSource(ts auth.TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithTracing instruments requests with otelhttp so trace context is
// propagated to the server.
func WithTracing() Option {
	return func(c *Client) {
		c.tracing = true
	}
}

// WithMaxResponseBytes bounds the response body size.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}

	c := &Client{
		baseURL:  baseURL,
		http:     &http.Client{},
		maxBytes: DefaultMaxResponseBytes,
	}
	for _, opt := range opts {
		opt(c)
	}

	rt := c.http.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	if c.tokens != nil {
		rt = &auth.Transport{Source: c.tokens, Base: rt}
	}
	if c.tracing {
		rt = otelhttp.NewTransport(rt)
	}
	c.http.Transport = rt

	return c, nil
}

// Name returns "http".
func (c *Client) Name() string {
	return "http"
}

// BaseURL returns the resolved base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call posts command to {base}/invoke and decodes the envelope.
//
// A {"result": T} body yields T. A {"error": {...}} body yields a
// *RemoteError whatever the status code. Anything else is
// ErrMalformedResponse.
func (c *Client) Call(ctx context.Context, command string, args map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(Request{Cmd: command, Args: args})
	if err != nil {
		return nil, fmt.Errorf("fallback: encode %s: %w", command, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+InvokePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fallback: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fallback: %s: %w", command, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("fallback: read response: %w", err)
	}

	result, err := decodeEnvelope(data)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	// An error envelope is reported as a RemoteError whatever the status, so
	// a 401 from the server still carries its message. A non-2xx response
	// without one, or any result envelope on a non-2xx status, is malformed.
	var remote *RemoteError
	switch {
	case errors.As(err, &remote):
		remote.Status = resp.StatusCode
		return nil, remote
	case err != nil || !ok:
		return nil, fmt.Errorf("%w: status %d", ErrMalformedResponse, resp.StatusCode)
	}
	return result, nil
}

// Ping reports whether the server's health endpoint answers 2xx.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("fallback: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fallback: ping: %w", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fallback: ping: status %d", resp.StatusCode)
	}
	return nil
}

var _ bridge.Transport = (*Client)(nil)
