package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/felixgeelhaar/smartevents/internal/config"
	"github.com/felixgeelhaar/smartevents/internal/session"
)

// Requester is the part of the API client the API check needs.
type Requester interface {
	BaseURL() string
	NewRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error)
	Do(req *http.Request) (*http.Response, error)
}

// APIChecker checks that the API server answers.
type APIChecker struct {
	client Requester
}

// NewAPIChecker creates an API checker.
func NewAPIChecker(client Requester) *APIChecker {
	return &APIChecker{client: client}
}

func (c *APIChecker) Name() string {
	return "api"
}

// Check requests the public event list. Any HTTP answer below 500 counts as
// reachable.
func (c *APIChecker) Check(ctx context.Context) *Result {
	start := time.Now()

	req, err := c.client.NewRequest(ctx, http.MethodGet, "/events", nil)
	if err != nil {
		return Unhealthy("cannot build request").
			WithDetail("error", err.Error())
	}

	resp, err := c.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return Unhealthy(fmt.Sprintf("cannot reach %s", c.client.BaseURL())).
			WithDetail("error", err.Error()).
			WithLatency(latency)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return Degraded(fmt.Sprintf("server error: %s", resp.Status)).
			WithDetail("url", c.client.BaseURL()).
			WithDetail("status_code", resp.StatusCode).
			WithLatency(latency)
	}

	return Healthy(fmt.Sprintf("reachable at %s", c.client.BaseURL())).
		WithDetail("url", c.client.BaseURL()).
		WithDetail("status_code", resp.StatusCode).
		WithLatency(latency)
}

// ConfigChecker checks that the configuration file parses.
type ConfigChecker struct {
	path string
}

// NewConfigChecker creates a config checker for the file at path.
func NewConfigChecker(path string) *ConfigChecker {
	return &ConfigChecker{path: path}
}

func (c *ConfigChecker) Name() string {
	return "config"
}

func (c *ConfigChecker) Check(ctx context.Context) *Result {
	if _, err := os.Stat(c.path); errors.Is(err, os.ErrNotExist) {
		return Healthy("no config file, using defaults").
			WithDetail("path", c.path)
	}

	cfg, err := config.LoadFile(c.path)
	if err != nil {
		return Unhealthy(err.Error()).
			WithDetail("path", c.path)
	}

	return Healthy(fmt.Sprintf("loaded %s", c.path)).
		WithDetail("path", c.path).
		WithDetail("api_url", cfg.APIURL)
}

// StateSource exposes the session state.
type StateSource interface {
	State() session.State
}

// SessionChecker checks the stored session and the permissions of the
// session file.
type SessionChecker struct {
	source StateSource
	path   string
	now    func() time.Time
}

// NewSessionChecker creates a session checker. An empty path means the
// session is not persisted and the file check is skipped.
func NewSessionChecker(source StateSource, path string) *SessionChecker {
	return &SessionChecker{source: source, path: path, now: time.Now}
}

func (c *SessionChecker) Name() string {
	return "session"
}

func (c *SessionChecker) Check(ctx context.Context) *Result {
	if c.path != "" {
		info, err := os.Stat(c.path)
		if err == nil && info.Mode().Perm()&0o077 != 0 {
			return Degraded("session file is readable by other users").
				WithDetail("path", c.path).
				WithDetail("mode", info.Mode().Perm().String())
		}
	}

	st := c.source.State()
	if st.Loading {
		return Degraded("session is still loading")
	}
	if !st.IsAuthenticated() {
		return Degraded("not logged in").
			WithDetail("hint", "run 'smartevents auth login'")
	}

	s := st.Session
	result := Healthy(fmt.Sprintf("logged in as %s (%s)", s.DisplayName, s.Role)).
		WithDetail("role", s.Role.String())
	if c.path != "" {
		result.WithDetail("path", c.path)
	}

	if exp, ok := session.CredentialExpiry(s.Credential); ok {
		result.WithDetail("expires_at", exp.Format(time.RFC3339))
		if c.now().After(exp) {
			result.Status = StatusDegraded
			result.Message = "session has expired, log in again"
		}
	}
	return result
}
