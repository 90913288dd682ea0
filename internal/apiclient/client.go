// Package apiclient is a thin HTTP client for the task API and its auth
// gateway. It returns raw responses so callers can assert on status codes,
// headers and bodies of both successful and deliberately invalid requests.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-Id"

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client, e.g. to share a transport.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.http = c
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(client *Client) {
		if logger != nil {
			client.logger = logger
		}
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes one call. Body is marshalled as JSON unless it is nil;
// any value is accepted so malformed payloads can be sent on purpose.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Header  http.Header
	Timeout time.Duration
	// NoRequestID leaves X-Request-Id unset so the server has to mint one.
	NoRequestID bool
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
	Duration   time.Duration
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body %q: %w", truncate(r.Text(), 200), err)
	}
	return nil
}

func (r *Response) Text() string {
	return string(r.Body)
}

func (r *Response) String() string {
	return fmt.Sprintf("HTTP %d (request %s): %s", r.StatusCode, r.RequestID, truncate(r.Text(), 300))
}

// Do sends req and reads the whole response body. A fresh X-Request-Id is
// attached unless the caller already set one.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	requestID := httpReq.Header.Get(RequestIDHeader)
	if requestID == "" && !req.NoRequestID {
		requestID = uuid.NewString()
		httpReq.Header.Set(RequestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("HTTP request failed",
			zap.String("method", req.Method),
			zap.String("url", target),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if requestID == "" {
		requestID = resp.Header.Get(RequestIDHeader)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		RequestID:  requestID,
		Duration:   time.Since(start),
	}

	c.logger.Debug("HTTP request",
		zap.String("method", req.Method),
		zap.String("url", target),
		zap.Int("status", out.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("latency", out.Duration),
		zap.Int("size", len(data)),
	)

	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: method, Path: path, Body: body})
}

// Health calls GET /api/health.
func (c *Client) Health(ctx context.Context) (*Response, error) {
	return c.get(ctx, "/api/health", nil)
}

// Preflight sends a CORS preflight for method on path.
func (c *Client) Preflight(ctx context.Context, path, origin, method string) (*Response, error) {
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	if method != "" {
		header.Set("Access-Control-Request-Method", method)
		header.Set("Access-Control-Request-Headers", "content-type")
	}
	return c.Do(ctx, Request{Method: http.MethodOptions, Path: path, Header: header})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
