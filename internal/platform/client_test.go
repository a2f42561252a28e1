package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/smartevents/internal/log"
	"github.com/felixgeelhaar/smartevents/internal/session"
)

// recorder captures the requests a test server receives.
type recorder struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   [][]byte
}

func (r *recorder) record(req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	r.bodies = append(r.bodies, body)
}

func (r *recorder) last() (*http.Request, []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.requests)
	return r.requests[n-1], r.bodies[n-1]
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Level: log.LevelError, Output: log.NewOutput(&bytes.Buffer{})})
}

func newStore(t *testing.T) *session.Store {
	t.Helper()
	store := session.NewStore(session.NewMemoryStorage(nil), session.WithLogger(quietLogger()))
	store.Initialize(context.Background())
	return store
}

func TestCredentialAttachedWhenSessionPresent(t *testing.T) {
	srv, rec := newTestServer(t, jsonHandler(http.StatusOK, `[]`))
	store := newStore(t)
	client := NewClient(srv.URL, store, WithLogger(quietLogger()))
	ctx := context.Background()

	require.NoError(t, store.Login(ctx, session.Session{Credential: "tokXYZ", Role: session.RoleStudent, UserID: "u1", DisplayName: "Alex"}))
	_, err := client.ListEvents(ctx, EventFilter{})
	require.NoError(t, err)

	req, _ := rec.last()
	assert.Equal(t, "Bearer tokXYZ", req.Header.Get("Authorization"))
	assert.Equal(t, "/api/events", req.URL.Path)
	assert.True(t, strings.HasPrefix(req.Header.Get("User-Agent"), "smartevents/"))
}

func TestCredentialOmittedWithoutSession(t *testing.T) {
	srv, rec := newTestServer(t, jsonHandler(http.StatusOK, `[]`))
	client := NewClient(srv.URL, newStore(t), WithLogger(quietLogger()))

	_, err := client.ListCategories(context.Background())
	require.NoError(t, err)

	req, _ := rec.last()
	_, present := req.Header["Authorization"]
	assert.False(t, present)
}

func TestNoStaleCredentialAfterLogout(t *testing.T) {
	srv, rec := newTestServer(t, jsonHandler(http.StatusOK, `[]`))
	store := newStore(t)
	client := NewClient(srv.URL, store, WithLogger(quietLogger()))
	ctx := context.Background()

	require.NoError(t, store.Login(ctx, session.Session{Credential: "first", Role: session.RoleStudent}))
	_, err := client.RegisteredEvents(ctx)
	require.NoError(t, err)
	first, _ := rec.last()
	assert.Equal(t, "Bearer first", first.Header.Get("Authorization"))

	require.NoError(t, store.Logout(ctx))
	_, err = client.ListEvents(ctx, EventFilter{})
	require.NoError(t, err)
	second, _ := rec.last()
	assert.Empty(t, second.Header.Get("Authorization"))

	require.NoError(t, store.Login(ctx, session.Session{Credential: "second", Role: session.RoleAdmin}))
	_, err = client.ListUsers(ctx)
	require.NoError(t, err)
	third, _ := rec.last()
	assert.Equal(t, "Bearer second", third.Header.Get("Authorization"))
}

func TestDoDoesNotMutateCallerRequest(t *testing.T) {
	srv, rec := newTestServer(t, jsonHandler(http.StatusOK, `{}`))
	client := NewClient(srv.URL, CredentialFunc(func() string { return "tok" }), WithLogger(quietLogger()))

	req, err := client.NewRequest(context.Background(), http.MethodGet, "/settings", nil)
	require.NoError(t, err)
	req.Header.Set("X-Trace", "abc")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, req.Header.Get("Authorization"))
	sent, _ := rec.last()
	assert.Equal(t, "abc", sent.Header.Get("X-Trace"))
	assert.Equal(t, "Bearer tok", sent.Header.Get("Authorization"))
}

func TestDoPassesNon2xxThrough(t *testing.T) {
	srv, _ := newTestServer(t, jsonHandler(http.StatusUnauthorized, `{"message":"Not authorized, token failed"}`))
	client := NewClient(srv.URL, nil, WithLogger(quietLogger()))

	req, err := client.NewRequest(context.Background(), http.MethodGet, "/users/profile", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStatusErrorCarriesServerMessage(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantError   string
	}{
		{"message field", http.StatusUnauthorized, `{"message":"Invalid email or password"}`, "Invalid email or password", "Invalid email or password"},
		{"error field", http.StatusForbidden, `{"error":"forbidden"}`, "forbidden", "forbidden"},
		{"plain body", http.StatusInternalServerError, `upstream exploded`, "", "request failed with status 500: upstream exploded"},
		{"empty body", http.StatusNotFound, ``, "", "request failed with status 404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, jsonHandler(tt.status, tt.body))
			client := NewClient(srv.URL, nil, WithLogger(quietLogger()))

			_, err := client.GetProfile(context.Background())

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.wantMessage, statusErr.Message)
			assert.Equal(t, tt.body, string(statusErr.Body))
			assert.Equal(t, tt.wantError, err.Error())
		})
	}
}

func TestTransportErrorsAreNotWrapped(t *testing.T) {
	sentinel := errors.New("dial tcp: connection refused")
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, sentinel
	})}
	client := NewClient("http://campus.invalid", nil, WithHTTPClient(hc), WithLogger(quietLogger()))

	_, err := client.ListEvents(context.Background(), EventFilter{})

	var urlErr *url.Error
	require.ErrorAs(t, err, &urlErr)
	assert.ErrorIs(t, err, sentinel)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestLoginReturnsPayloadWithoutTouchingCredentials(t *testing.T) {
	srv, rec := newTestServer(t, jsonHandler(http.StatusOK,
		`{"_id":"u1","name":"Alex","email":"alex@college.edu","role":"student","token":"tokXYZ"}`))
	client := NewClient(srv.URL, nil, WithLogger(quietLogger()))

	payload, err := client.Login(context.Background(), LoginRequest{Email: "alex@college.edu", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, "tokXYZ", payload.Credential)
	assert.Equal(t, session.RoleStudent, payload.Role)
	assert.Equal(t, "Alex", payload.DisplayName)

	req, body := rec.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/users/login", req.URL.Path)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"email":"alex@college.edu","password":"pw"}`, string(body))
}

func TestBaseURLTrimsTrailingSlash(t *testing.T) {
	client := NewClient("http://localhost:5000/", nil, WithLogger(quietLogger()))
	assert.Equal(t, "http://localhost:5000/api", client.BaseURL())
}

func TestDecodeFailure(t *testing.T) {
	srv, _ := newTestServer(t, jsonHandler(http.StatusOK, `{not json`))
	client := NewClient(srv.URL, nil, WithLogger(quietLogger()))

	_, err := client.AdminStats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestRequestBodiesAreJSON(t *testing.T) {
	srv, rec := newTestServer(t, jsonHandler(http.StatusOK, `{"_id":"s1","settingName":"registrations","settingValue":"false"}`))
	client := NewClient(srv.URL, nil, WithLogger(quietLogger()))

	setting, err := client.UpdateSetting(context.Background(), "s1", false)
	require.NoError(t, err)
	assert.False(t, setting.Enabled())

	req, body := rec.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/api/settings/s1", req.URL.Path)

	var sent map[string]string
	require.NoError(t, json.Unmarshal(body, &sent))
	assert.Equal(t, "false", sent["settingValue"])
}
