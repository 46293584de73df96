// Package riot talks to the Riot Games API.
//
// Client is a thin HTTP layer that knows nothing about Riot semantics.
// Gateway owns routing, response shapes and the mapping of upstream
// failures to the error kinds in errors.go.
package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds every upstream call.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 16 << 20
)

// Recorder receives the outcome of every upstream call. statusCode is 0
// when no response was received.
type Recorder interface {
	RecordUpstreamCall(routing string, statusCode int, d time.Duration)
}

// HTTPError is returned by Client.Get for non-2xx responses, transport
// failures and unreadable bodies.
type HTTPError struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Err        error
}

func (e *HTTPError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("riot request failed: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("riot responded %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("riot responded %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// Client performs authenticated GET requests against one Riot base URL.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	routing    string
	recorder   Recorder
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client. Its timeout is kept as is.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRecorder reports call outcomes to r.
func WithRecorder(r Recorder) ClientOption {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates a Client. routing labels the client in metrics
// ("platform" or "continental"). A non-positive timeout means DefaultTimeout.
func NewClient(baseURL, apiKey, routing string, timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		routing:    routing,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches path (already percent-encoded) with the given query and
// returns the raw JSON body of a 2xx response.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &HTTPError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("X-Riot-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(0, start)
		return nil, &HTTPError{Err: err}
	}
	defer resp.Body.Close()
	c.record(resp.StatusCode, start)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Header: resp.Header, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
	}
	if !json.Valid(body) {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Header: resp.Header, Body: body, Err: errors.New("response is not valid JSON")}
	}
	return json.RawMessage(body), nil
}

func (c *Client) record(status int, start time.Time) {
	if c.recorder != nil {
		c.recorder.RecordUpstreamCall(c.routing, status, time.Since(start))
	}
}
