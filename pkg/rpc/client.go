package rpc

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

	"github.com/cenkalti/backoff/v4"

	"github.com/woonieit/octra/pkg/log"
)

var (
	// ErrNotFound matches any *Error with a 404 status.
	ErrNotFound = errors.New("not found")
	// ErrUnexpectedResponse is returned when a 200 answer cannot be understood.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultShortTimeout = 5 * time.Second
)

// Error is a request the node answered with a failure, or that never reached it
// (Status 0).
type Error struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Response is the raw outcome of a request.
type Response struct {
	Method string
	Path   string
	Status int
	Text   string
	// JSON holds the body when it is valid JSON.
	JSON json.RawMessage
}

// Error converts the response into an *Error.
func (r Response) Error() error {
	return &Error{Method: r.Method, Path: r.Path, Status: r.Status, Body: r.Text}
}

// Decode unmarshals the JSON body into v.
func (r Response) Decode(v any) error {
	if len(r.JSON) == 0 {
		return fmt.Errorf("%w: %s %s returned no JSON", ErrUnexpectedResponse, r.Method, r.Path)
	}
	if err := json.Unmarshal(r.JSON, v); err != nil {
		return fmt.Errorf("%w: %s", ErrUnexpectedResponse, err.Error())
	}
	return nil
}

// Client talks to a single Octra node.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	timeout      time.Duration
	shortTimeout time.Duration
	retryElapsed time.Duration
	metrics      *Metrics
	lg           log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithShortTimeout sets the timeout of the staging and transaction lookups.
func WithShortTimeout(d time.Duration) Option {
	return func(c *Client) { c.shortTimeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records request metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(lg log.Logger) Option {
	return func(c *Client) { c.lg = lg }
}

// WithRetry retries failed read requests for up to maxElapsed. Zero disables
// retries.
func WithRetry(maxElapsed time.Duration) Option {
	return func(c *Client) { c.retryElapsed = maxElapsed }
}

// NewClient creates a client for the node at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{},
		timeout:      DefaultTimeout,
		shortTimeout: DefaultShortTimeout,
		lg:           log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lg = c.lg.WithName("rpc")
	return c
}

// BaseURL returns the node address.
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends a request with an optional JSON body. A zero timeout uses the
// client default.
func (c *Client) Do(ctx context.Context, method, path string, body any, timeout time.Duration) Response {
	resp := Response{Method: method, Path: path}
	if timeout <= 0 {
		timeout = c.timeout
	}

	start := time.Now()
	defer func() {
		c.metrics.observeRequest(path, resp.Status, time.Since(start))
		c.lg.Debug("node request", "method", method, "path", path, "status", resp.Status, "duration", time.Since(start))
	}()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			resp.Text = err.Error()
			return resp
		}
		reader = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		resp.Text = err.Error()
		return resp
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			resp.Text = "timeout"
		} else {
			resp.Text = err.Error()
		}
		return resp
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		resp.Text = err.Error()
		return resp
	}

	resp.Status = httpResp.StatusCode
	resp.Text = string(data)
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && json.Valid(trimmed) {
		resp.JSON = json.RawMessage(trimmed)
	}
	return resp
}

// get performs a GET, retrying transport failures and 5xx answers when
// retries are enabled.
func (c *Client) get(ctx context.Context, path string, timeout time.Duration) Response {
	var resp Response
	op := func() error {
		resp = c.Do(ctx, http.MethodGet, path, nil, timeout)
		if resp.Status == 0 || resp.Status >= http.StatusInternalServerError {
			return resp.Error()
		}
		return nil
	}

	if c.retryElapsed <= 0 {
		_ = op()
		return resp
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = c.retryElapsed

	notify := func(err error, next time.Duration) {
		c.lg.Warn("retrying node request", "path", path, "error", err, "backoff", next)
	}
	_ = backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
	return resp
}
