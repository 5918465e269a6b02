// Package api provides the typed REST client for the EnterViu backend.
//
// Every endpoint wraps its payload in the standard envelope
// {error_code, message, data, errors}: error_code 0 is success (data may be
// null), anything else surfaces as *Error. Credentials come from an explicit
// TokenSource dependency rather than a mutable shared header.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/luongnguyenminhan/enterviu-go/internal/metrics"
)

// TokenSource supplies the bearer token attached to authenticated requests.
// Implementations may refresh behind the scenes; returning an empty token
// sends the request unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// Client is the REST client for the EnterViu backend.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	uploadClient *http.Client
	tokens       TokenSource
	logger       *slog.Logger
	stats        *metrics.Collector
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource sets the credential provider for authenticated requests.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithHTTPClient overrides the default HTTP client (testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		c.uploadClient = hc
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithStats sets the call statistics collector.
func WithStats(stats *metrics.Collector) Option {
	return func(c *Client) { c.stats = stats }
}

// New creates a REST client for the given base URL.
// If baseURL is empty, uses ENTERVIU_API_URL or defaults to localhost:8000.
// Timeouts can be configured via ENTERVIU_CLIENT_TIMEOUT and
// ENTERVIU_UPLOAD_TIMEOUT; the upload timeout is long because CV analysis is
// a slow multipart endpoint.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("ENTERVIU_API_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8000/api/v1"
	}

	timeout := 30 * time.Second
	if t := os.Getenv("ENTERVIU_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}
	uploadTimeout := 2 * time.Minute
	if t := os.Getenv("ENTERVIU_UPLOAD_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			uploadTimeout = d
		}
	}

	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		uploadClient: &http.Client{Timeout: uploadTimeout},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Origin returns the scheme://host part of the API base URL, used by the
// login handshake origin allow-list.
func (c *Client) Origin() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	return u.Scheme + "://" + u.Host, nil
}

// envelope is the standard response wrapper of every REST endpoint.
type envelope struct {
	ErrorCode int                 `json:"error_code"`
	Message   string              `json:"message"`
	Data      json.RawMessage     `json:"data"`
	Errors    map[string][]string `json:"errors,omitempty"`
}

// Page is a paginated result list.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// do executes a JSON request against path and returns the unwrapped data
// payload. op names the call for logging and statistics.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any) (json.RawMessage, error) {
	return c.send(ctx, c.httpClient, op, method, path, query, func() (io.Reader, string, error) {
		if body == nil {
			return nil, "", nil
		}
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("marshal request: %w", err)
		}
		return bytes.NewReader(payload), "application/json", nil
	})
}

// send executes a request with the given body factory and unwraps the
// response envelope. The zero-length data payload of a null-data success is
// returned as-is; callers decode it into their result type.
func (c *Client) send(
	ctx context.Context,
	hc *http.Client,
	op, method, path string,
	query url.Values,
	makeBody func() (io.Reader, string, error),
) (json.RawMessage, error) {
	start := time.Now()
	data, err := c.sendOnce(ctx, hc, method, path, query, makeBody)
	duration := time.Since(start)

	if c.stats != nil {
		c.stats.RecordTiming(op, duration, err != nil)
	}
	if err != nil {
		c.logger.Debug("request failed",
			"op", op, "method", method, "path", path,
			"duration_ms", duration.Milliseconds(), "error", err)
		return nil, err
	}
	c.logger.Debug("request completed",
		"op", op, "method", method, "path", path,
		"duration_ms", duration.Milliseconds())
	return data, nil
}

func (c *Client) sendOnce(
	ctx context.Context,
	hc *http.Client,
	method, path string,
	query url.Values,
	makeBody func() (io.Reader, string, error),
) (json.RawMessage, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	body, contentType, err := makeBody()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		// No response received: network failure with status 0.
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &Error{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("malformed response: %s", truncateBody(raw)),
		}
	}

	if env.ErrorCode != 0 {
		return nil, &Error{
			Status:    resp.StatusCode,
			ErrorCode: env.ErrorCode,
			Message:   env.Message,
			Fields:    env.Errors,
		}
	}

	return env.Data, nil
}

// call decodes the data payload of a successful envelope into T. A null or
// absent payload yields the zero value, never an error.
func call[T any](ctx context.Context, c *Client, op, method, path string, query url.Values, body any) (T, error) {
	data, err := c.do(ctx, op, method, path, query, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeData[T](data)
}

// decodeData decodes an unwrapped data payload into T, treating null or
// empty payloads as the zero value.
func decodeData[T any](data json.RawMessage) (T, error) {
	var out T
	if len(data) == 0 || string(data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("unmarshal data: %w", err)
	}
	return out, nil
}

// maxBodyLogLen bounds response bodies embedded in error messages.
const maxBodyLogLen = 200

func truncateBody(raw []byte) string {
	s := string(raw)
	if len(s) <= maxBodyLogLen {
		return s
	}
	return s[:maxBodyLogLen-3] + "..."
}
