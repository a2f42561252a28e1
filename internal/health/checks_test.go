package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/felixgeelhaar/smartevents/internal/platform"
	"github.com/felixgeelhaar/smartevents/internal/session"
)

func TestAPIChecker(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   Status
	}{
		{"ok", http.StatusOK, StatusHealthy},
		{"client error still reachable", http.StatusNotFound, StatusHealthy},
		{"server error", http.StatusBadGateway, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			result := NewAPIChecker(platform.NewClient(srv.URL, nil)).Check(context.Background())

			if result.Status != tt.want {
				t.Errorf("status = %s, want %s (%s)", result.Status, tt.want, result.Message)
			}
			if gotPath != "/api/events" {
				t.Errorf("path = %q, want /api/events", gotPath)
			}
			if result.Details["status_code"] != tt.status {
				t.Errorf("status_code = %v, want %d", result.Details["status_code"], tt.status)
			}
		})
	}
}

func TestAPICheckerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	result := NewAPIChecker(platform.NewClient(url, nil)).Check(context.Background())

	if result.Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", result.Status)
	}
	if !strings.Contains(result.Message, url) {
		t.Errorf("message %q should name the server", result.Message)
	}
}

func TestConfigChecker(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		result := NewConfigChecker(filepath.Join(dir, "absent.yaml")).Check(context.Background())
		if result.Status != StatusHealthy {
			t.Errorf("status = %s, want healthy", result.Status)
		}
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "ok.yaml")
		if err := os.WriteFile(path, []byte("api_url: http://events.campus.edu\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		result := NewConfigChecker(path).Check(context.Background())
		if result.Status != StatusHealthy {
			t.Errorf("status = %s, want healthy (%s)", result.Status, result.Message)
		}
		if result.Details["api_url"] != "http://events.campus.edu" {
			t.Errorf("api_url = %v", result.Details["api_url"])
		}
	})

	t.Run("broken file", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		if err := os.WriteFile(path, []byte("api_url: [unterminated\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		result := NewConfigChecker(path).Check(context.Background())
		if result.Status != StatusUnhealthy {
			t.Errorf("status = %s, want unhealthy", result.Status)
		}
	})
}

type staticState session.State

func (s staticState) State() session.State { return session.State(s) }

func TestSessionChecker(t *testing.T) {
	student := &session.Session{Credential: "opaque", DisplayName: "Ada", Role: session.RoleStudent}

	t.Run("logged in", func(t *testing.T) {
		result := NewSessionChecker(staticState{Session: student}, "").Check(context.Background())
		if result.Status != StatusHealthy {
			t.Errorf("status = %s, want healthy", result.Status)
		}
		if result.Message != "logged in as Ada (student)" {
			t.Errorf("message = %q", result.Message)
		}
	})

	t.Run("logged out", func(t *testing.T) {
		result := NewSessionChecker(staticState{}, "").Check(context.Background())
		if result.Status != StatusDegraded {
			t.Errorf("status = %s, want degraded", result.Status)
		}
	})

	t.Run("expired credential", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(-time.Hour).Unix(),
		}).SignedString([]byte("k"))
		if err != nil {
			t.Fatal(err)
		}
		expired := &session.Session{Credential: token, DisplayName: "Ada", Role: session.RoleStudent}

		result := NewSessionChecker(staticState{Session: expired}, "").Check(context.Background())
		if result.Status != StatusDegraded {
			t.Errorf("status = %s, want degraded", result.Status)
		}
		if _, ok := result.Details["expires_at"]; !ok {
			t.Error("expires_at detail missing")
		}
	})

	t.Run("world readable file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := os.Chmod(path, 0o644); err != nil {
			t.Fatal(err)
		}

		result := NewSessionChecker(staticState{Session: student}, path).Check(context.Background())
		if result.Status != StatusDegraded {
			t.Errorf("status = %s, want degraded", result.Status)
		}
		if result.Details["mode"] != "-rw-r--r--" {
			t.Errorf("mode = %v", result.Details["mode"])
		}
	})
}
