// Package chat implements the transport to the Shoplite chat service.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Version is reported in the User-Agent header.
var Version = "dev"

// Sender sends one prompt and reports the outcome.
type Sender interface {
	Send(ctx context.Context, prompt string) Result
}

// Client talks to a Shoplite chat service.
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A nil client keeps the
// default. The given client is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout bounds each request. Zero leaves requests unbounded. It applies
// regardless of its order relative to WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.client
		hc.Timeout = c.timeout
		c.client = &hc
	}
	return c
}

// BaseURL returns the service address the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type chatRequest struct {
	Prompt string `json:"prompt"`
}

// Send posts prompt to /chat. It never returns a nil-valued Result: every
// failure is reported as a TransportError inside the Result.
func (c *Client) Send(ctx context.Context, prompt string) Result {
	var payload map[string]any
	if err := c.doJSONRoundTrip(ctx, http.MethodPost, "/chat", chatRequest{Prompt: prompt}, &payload); err != nil {
		return Failure(err)
	}
	if payload == nil {
		// A literal "null" body decodes without error but is not an object.
		return Failure(&TransportError{
			Method: http.MethodPost,
			URL:    c.baseURL + "/chat",
			Err:    fmt.Errorf("parsing response: expected a JSON object, got null"),
		})
	}
	return Success(payload)
}

// Health probes GET /health and returns nil on a 2xx response.
func (c *Client) Health(ctx context.Context) error {
	if err := c.doJSONRoundTrip(ctx, http.MethodGet, "/health", nil, nil); err != nil {
		return err
	}
	return nil
}

// doJSONRoundTrip performs one request. A nil reqBody sends no body and a nil
// respBody skips decoding. Any error returned is a *TransportError.
func (c *Client) doJSONRoundTrip(ctx context.Context, method, path string, reqBody, respBody any) *TransportError {
	url := c.baseURL + path
	fail := func(status int, err error) *TransportError {
		return &TransportError{Method: method, URL: url, StatusCode: status, Err: err}
	}

	var body io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return fail(0, fmt.Errorf("encoding request: %w", err))
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fail(0, err)
	}
	requestID := uuid.NewString()
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	// ngrok serves an HTML interstitial to unknown clients unless told otherwise.
	req.Header.Set("ngrok-skip-browser-warning", "true")
	req.Header.Set("User-Agent", "shoplite/"+Version)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	c.logger.Printf("[chat] %s %s id=%s", method, url, requestID)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Printf("[chat] %s %s id=%s failed: %v", method, url, requestID, err)
		return fail(0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}
	c.logger.Printf("[chat] %s %s id=%s status=%d bytes=%d in %s",
		method, url, requestID, resp.StatusCode, len(raw), time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, &StatusError{Status: resp.Status, Body: truncate(strings.TrimSpace(string(raw)), 200)})
	}
	if respBody == nil {
		return nil
	}
	if err := json.Unmarshal(raw, respBody); err != nil {
		return fail(resp.StatusCode, fmt.Errorf("parsing response: %w", err))
	}
	return nil
}

// truncate shortens s to at most maxLen runes, appending "..." when cut.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
