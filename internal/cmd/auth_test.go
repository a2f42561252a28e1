package cmd

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/felixgeelhaar/smartevents/internal/errors"
	"github.com/felixgeelhaar/smartevents/internal/exitcode"
)

func TestLoginPersistsSessionForLaterCommands(t *testing.T) {
	e := newEnv(t)
	e.api.handle("POST /api/users/login", http.StatusOK, studentRecord)
	e.api.handle("GET /api/users/registeredevents", http.StatusOK, `[]`)

	out, _, err := e.run("auth", "login", "--email", "ada@campus.edu", "--password", "s3cret!")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Ada (student)")
	assert.Contains(t, out, "--view /student")
	assert.JSONEq(t, `{"email":"ada@campus.edu","password":"s3cret!"}`, e.api.body("POST", "/api/users/login"))

	persisted, err := os.ReadFile(e.sessionPath)
	require.NoError(t, err)
	assert.JSONEq(t, studentRecord, string(persisted))

	// A new command restores the session and attaches the credential.
	_, _, err = e.run("events", "registered")
	require.NoError(t, err)
	assert.Equal(t, "Bearer student-token", e.api.last().Header.Get("Authorization"))
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	e := newEnv(t)
	e.api.handle("POST /api/users/login", http.StatusOK, studentRecord)
	e.stdin = "from-stdin\n"

	_, _, err := e.run("auth", "login", "--email", "ada@campus.edu", "--password-stdin")
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"ada@campus.edu","password":"from-stdin"}`, e.api.body("POST", "/api/users/login"))
}

func TestLoginFailures(t *testing.T) {
	t.Run("rejected credentials", func(t *testing.T) {
		e := newEnv(t)
		e.api.handle("POST /api/users/login", http.StatusUnauthorized, `{"message":"Invalid email or password"}`)

		_, _, err := e.run("auth", "login", "--email", "ada@campus.edu", "--password", "wrong")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeLoginFailed))
		assert.Contains(t, err.Error(), "Invalid email or password")
		assert.NoFileExists(t, e.sessionPath)
	})

	t.Run("malformed email never reaches the server", func(t *testing.T) {
		e := newEnv(t)

		_, _, err := e.run("auth", "login", "--email", "not-an-email", "--password", "x")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInputInvalid))
		assert.Nil(t, e.api.last())
	})

	t.Run("missing password without a terminal", func(t *testing.T) {
		e := newEnv(t)

		_, _, err := e.run("auth", "login", "--email", "ada@campus.edu")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInputRequired))
	})

	t.Run("payload without a role", func(t *testing.T) {
		e := newEnv(t)
		e.api.handle("POST /api/users/login", http.StatusOK, `{"token":"t","name":"Ada"}`)

		_, _, err := e.run("auth", "login", "--email", "ada@campus.edu", "--password", "x")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSessionPayload))
		assert.NoFileExists(t, e.sessionPath)
	})
}

func TestLoginKeepsSessionWhenItCannotBeSaved(t *testing.T) {
	e := newEnv(t)
	e.api.handle("POST /api/users/login", http.StatusOK, studentRecord)

	// A regular file where the session directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	e.sessionPath = filepath.Join(blocker, "session.json")

	out, errOut, err := e.run("auth", "login", "--email", "ada@campus.edu", "--password", "x")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Ada")
	assert.Contains(t, errOut, "could not be saved")
}

func TestLogout(t *testing.T) {
	e := newEnv(t)
	e.seed(studentRecord)

	out, _, err := e.run("auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out Ada")
	assert.NoFileExists(t, e.sessionPath)

	out, _, err = e.run("auth", "logout")
	require.NoError(t, err, "logout is idempotent")
	assert.Contains(t, out, "Not logged in")
}

func TestStatus(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		e := newEnv(t)

		out, _, err := e.run("auth", "status", "--format", "json")
		require.NoError(t, err)
		v := decodeJSON(t, out)
		assert.Equal(t, false, v["loggedIn"])
		assert.Equal(t, e.api.URL+"/api", v["apiUrl"])
	})

	t.Run("jwt credential shows expiry", func(t *testing.T) {
		e := newEnv(t)
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).
			SignedString([]byte("server-secret"))
		require.NoError(t, err)
		e.seed(`{"token":"` + token + `","_id":"u1","name":"Root","role":"admin"}`)

		out, _, err := e.run("auth", "status", "--format", "json")
		require.NoError(t, err)
		v := decodeJSON(t, out)
		assert.Equal(t, true, v["loggedIn"])
		assert.Equal(t, "admin", v["role"])
		assert.NotContains(t, out, token, "the credential is never printed")

		got, err := time.Parse(time.RFC3339, v["expiresAt"].(string))
		require.NoError(t, err)
		assert.True(t, exp.Equal(got))
		assert.Nil(t, v["expired"])
	})

	t.Run("incomplete record is treated as logged out", func(t *testing.T) {
		e := newEnv(t)
		e.seed(`{"token":"t","role":"superuser"}`)

		out, _, err := e.run("auth", "status")
		require.NoError(t, err)
		assert.Contains(t, out, "Not logged in")
	})
}

func TestProtectedCommandsWithoutSession(t *testing.T) {
	e := newEnv(t)

	_, _, err := e.run("events", "registered")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotLoggedIn))
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))
	assert.Nil(t, e.api.last(), "no request is sent")
}

func TestProtectedCommandsWithWrongRole(t *testing.T) {
	e := newEnv(t)
	e.seed(studentRecord)

	_, _, err := e.run("admin", "pending")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeForbidden))
	assert.Contains(t, err.Error(), "smartevents admin pending")
	assert.Contains(t, err.Error(), `"student"`)
	assert.Equal(t, exitcode.ForbiddenError, exitcode.DetermineExitCode(err))
	assert.Nil(t, e.api.last())
}

func TestRegisterLogsInNewAccount(t *testing.T) {
	e := newEnv(t)
	e.api.handle("POST /api/users", http.StatusCreated, organizerRecord)

	_, _, err := e.run("auth", "register", "--role", "organizer", "--name", "Lin",
		"--email", "lin@campus.edu", "--password", "s3cret!")
	require.Error(t, err, "organizers must name their society")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInputInvalid))

	out, _, err := e.run("auth", "register", "--role", "organizer", "--name", "Lin",
		"--email", "lin@campus.edu", "--password", "s3cret!", "--society", "Robotics Club")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Lin (organizer)")
	assert.FileExists(t, e.sessionPath)
}

func TestPasswordReset(t *testing.T) {
	e := newEnv(t)
	e.api.handle("POST /api/users/forgotpassword", http.StatusOK, `{"message":"Email sent"}`)
	e.api.handle("PUT /api/users/resetpassword/{token}", http.StatusOK, `{"message":"Password reset successful"}`)

	out, _, err := e.run("auth", "forgot-password", "ada@campus.edu")
	require.NoError(t, err)
	assert.Contains(t, out, "Email sent")

	out, _, err = e.run("auth", "reset-password", "abc123", "--password", "n3wpass")
	require.NoError(t, err)
	assert.Contains(t, out, "Password reset successful")
	assert.JSONEq(t, `{"password":"n3wpass","confirmPassword":"n3wpass"}`,
		e.api.body("PUT", "/api/users/resetpassword/abc123"))
}

func TestProfileUpdateRefreshesStoredName(t *testing.T) {
	e := newEnv(t)
	e.seed(studentRecord)
	e.api.handle("PUT /api/users/profile", http.StatusOK,
		`{"_id":"u-student","name":"Ada L.","email":"ada@campus.edu","role":"student"}`)

	_, _, err := e.run("profile", "update", "--name", "Ada L.")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada L."}`, e.api.body("PUT", "/api/users/profile"))

	persisted, err := os.ReadFile(e.sessionPath)
	require.NoError(t, err)
	assert.Contains(t, string(persisted), `"name":"Ada L."`)
	assert.Contains(t, string(persisted), `"token":"student-token"`)
}
