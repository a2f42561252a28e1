// Package platform is the client for the SmartEvents REST API.
//
// Every request goes through Client.Do, which reads the live credential at
// dispatch time and attaches it as a bearer token. The client keeps no
// credential of its own, never retries, and never reacts to 401 responses;
// callers decide what an error means for the user.
package platform

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

	"github.com/felixgeelhaar/smartevents/internal/log"
	"github.com/felixgeelhaar/smartevents/internal/version"
)

// CredentialSource provides the bearer credential for outgoing requests.
// An empty string means no session.
type CredentialSource interface {
	Credential() string
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func() string

// Credential calls f.
func (f CredentialFunc) Credential() string { return f() }

// Client is the SmartEvents platform API client
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialSource
	logger      *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the transport timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithTransport sets the RoundTripper of the default http.Client, e.g. to
// trace requests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the API served at apiURL
// (e.g. http://localhost:5000). Endpoints live under apiURL/api.
func NewClient(apiURL string, credentials CredentialSource, opts ...Option) *Client {
	if credentials == nil {
		credentials = CredentialFunc(func() string { return "" })
	}
	c := &Client{
		baseURL:     strings.TrimRight(apiURL, "/") + "/api",
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		credentials: credentials,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.DefaultLogger()
	}
	c.logger = c.logger.With("component", "platform")
	return c
}

// BaseURL returns the API root all paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do dispatches req, adding "Authorization: Bearer <credential>" when a
// session is present. The request is cloned; nothing else is changed.
// Transport errors and non-2xx responses are returned untouched.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if credential := c.credentials.Credential(); credential != "" {
		out.Header.Set("Authorization", "Bearer "+credential)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(out)
	if err != nil {
		c.logger.DebugContext(out.Context(), "request failed", "method", out.Method, "path", out.URL.Path, "error", err)
		return nil, err
	}
	c.logger.DebugContext(out.Context(), "request completed",
		"method", out.Method,
		"path", out.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

// NewRequest builds a request for path relative to the API root with an
// optional JSON body.
func (c *Client) NewRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// call performs method on path and decodes a 2xx JSON body into target.
func (c *Client) call(ctx context.Context, method, path string, body, target interface{}) error {
	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}

	return parseResponse(resp, target)
}

// StatusError is a non-2xx API response.
type StatusError struct {
	StatusCode int
	// Message is the server's "message" (or "error") field, if any.
	Message string
	// Body is the raw response body.
	Body []byte
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, body)
}

// IsUnauthorized reports a 401 response.
func (e *StatusError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsForbidden reports a 403 response.
func (e *StatusError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// parseResponse parses the response body into the target struct
func parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)

		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: body}
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil {
			statusErr.Message = errResp.Message
			if statusErr.Message == "" {
				statusErr.Message = errResp.Error
			}
		}
		return statusErr
	}

	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
