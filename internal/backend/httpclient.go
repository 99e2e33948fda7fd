package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"querymind/cli/internal/manifest"
)

// TokenSource supplies the bearer token for outgoing requests.
// *tokenstore.Store implements it.
type TokenSource interface {
	Get() (string, bool)
}

// Response is a completed 2xx response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client dispatches requests against the backend, attaching the stored bearer token.
// It never interprets status codes beyond 2xx versus the rest, never rewrites
// response bodies and never modifies the token store.
type Client struct {
	// baseURL is the base URL for all HTTP requests (e.g., "http://localhost:8000")
	baseURL string
	// endpoints contains the URL paths for the typed calls
	endpoints manifest.HTTPEndpoints
	// client is the underlying HTTP client; Timeout 0 means no timeout
	client *http.Client
	// timeout overrides client.Timeout when hasTimeout is set
	timeout    time.Duration
	hasTimeout bool
	tokens     TokenSource
	userAgent  string
	log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Client) { h.client = c }
}

// WithTimeout sets the per-request timeout. Zero disables it.
// A client passed through WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(h *Client) {
		h.timeout = d
		h.hasTimeout = true
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Client) {
		if l != nil {
			h.log = l
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(h *Client) { h.userAgent = ua }
}

// NewClient creates a client for baseURL. tokens may be nil for fully anonymous use.
func NewClient(baseURL string, endpoints manifest.HTTPEndpoints, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: endpoints,
		client:    &http.Client{},
		tokens:    tokens,
		userAgent: "querymind-cli",
		log:       zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.hasTimeout {
		cp := *c.client
		cp.Timeout = c.timeout
		c.client = &cp
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Request sends method path with an optional body. When the token source holds a
// token it is sent as "Authorization: Bearer <token>"; otherwise the request goes out
// unauthenticated. Any failure, including a non-2xx status, is a *TransportError.
func (c *Client) Request(ctx context.Context, method, path string, body Body) (*Response, error) {
	fail := func(status int, respBody []byte, err error) (*Response, error) {
		return nil, &TransportError{Method: method, Path: path, StatusCode: status, Body: respBody, Err: err}
	}

	var rd io.Reader
	if body != nil {
		r, err := body.Reader()
		if err != nil {
			return fail(0, nil, err)
		}
		rd = r
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fail(0, nil, err)
	}
	c.setStandardHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", body.ContentType())
	}
	authorized := false
	if c.tokens != nil {
		if token, ok := c.tokens.Get(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
			authorized = true
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", method), zap.String("path", path),
			zap.Bool("authorized", authorized), zap.Error(err))
		return fail(0, nil, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.log.Debug("request finished",
		zap.String("method", method), zap.String("path", path),
		zap.Bool("authorized", authorized), zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)), zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		return fail(0, nil, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, data, errors.New(resp.Status))
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) setStandardHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}
