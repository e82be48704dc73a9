// Package api is the typed JSON client for the trackmyfish REST service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultUserAgent = "trackmyfish-client"

	// error bodies are small JSON documents; anything bigger is not one
	maxErrorBodyBytes = 64 << 10
)

// ResponseHook observes every completed request. status is zero when no
// response was received.
type ResponseHook func(method, path string, status int, elapsed time.Duration, err error)

// Config holds client configuration
type Config struct {
	// BaseURL is the root of the REST API, e.g. http://localhost:8443/api/v1alpha1
	BaseURL string
	// Timeout is applied per request when the context has no deadline.
	// Zero leaves timeouts to the transport.
	Timeout time.Duration
	// UserAgent is added to all requests
	UserAgent string
	// HTTPClient overrides the underlying client
	HTTPClient *http.Client
}

// Client issues JSON requests against the REST service.
// Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	userAgent  string
	logger     *zap.Logger

	hookMu sync.RWMutex
	hook   ResponseHook
}

// New creates a new REST client
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("api: BaseURL is required")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: cfg.HTTPClient,
		baseURL:    baseURL,
		timeout:    cfg.Timeout,
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}, nil
}

// BaseURL returns the normalized API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetResponseHook installs fn to be called after each request
func (c *Client) SetResponseHook(fn ResponseHook) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.hook = fn
}

// Get decodes the JSON body of GET path into out
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post sends in as JSON and decodes the response into out
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

// Delete issues DELETE path; any response body is discarded
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	status := 0
	defer func() {
		c.hookMu.RLock()
		hook := c.hook
		c.hookMu.RUnlock()
		if hook != nil {
			hook(method, path, status, time.Since(start), err)
		}
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	c.logger.Debug("api response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(method, path, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Method: method, Path: path, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func decodeError(method, path string, resp *http.Response) error {
	apiErr := &Error{Method: method, Path: path, StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return apiErr
	}

	// Non-JSON bodies (proxies, HTML error pages) carry no usable message
	var body errorBody
	_ = json.Unmarshal(data, &body)
	apiErr.Code = body.Code
	apiErr.Message = strings.TrimSpace(body.Message)

	return apiErr
}
