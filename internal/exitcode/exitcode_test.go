package exitcode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	apperrors "github.com/felixgeelhaar/smartevents/internal/errors"
	"github.com/felixgeelhaar/smartevents/internal/platform"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected int
	}{
		{"Success", Success, 0},
		{"GeneralError", GeneralError, 1},
		{"UsageError", UsageError, 2},
		{"InputError", InputError, 3},
		{"ForbiddenError", ForbiddenError, 4},
		{"AuthError", AuthError, 5},
		{"NetworkError", NetworkError, 6},
		{"APIError", APIError, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.expected {
				t.Errorf("Exit code %s = %d, want %d", tt.name, tt.code, tt.expected)
			}
		})
	}
}

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error returns success",
			err:      nil,
			expected: Success,
		},
		{
			name:     "not logged in",
			err:      apperrors.NewNotLoggedInError(),
			expected: AuthError,
		},
		{
			name:     "forbidden view",
			err:      fmt.Errorf("admin stats: %w", apperrors.NewForbiddenError("/admin", "student", []string{"admin"})),
			expected: ForbiddenError,
		},
		{
			name:     "invalid input",
			err:      apperrors.NewInputInvalidError("title is required", nil),
			expected: InputError,
		},
		{
			name:     "unknown config key",
			err:      apperrors.NewConfigKeyError("provider", []string{"api_url"}),
			expected: InputError,
		},
		{
			name:     "session write failure",
			err:      apperrors.NewSessionWriteError(errors.New("read-only file system")),
			expected: GeneralError,
		},
		{
			name:     "401 response",
			err:      &platform.StatusError{StatusCode: http.StatusUnauthorized},
			expected: AuthError,
		},
		{
			name:     "403 response",
			err:      &platform.StatusError{StatusCode: http.StatusForbidden},
			expected: ForbiddenError,
		},
		{
			name:     "400 response",
			err:      fmt.Errorf("register: %w", &platform.StatusError{StatusCode: http.StatusBadRequest, Message: "Already registered"}),
			expected: APIError,
		},
		{
			name:     "deadline exceeded",
			err:      fmt.Errorf("get: %w", context.DeadlineExceeded),
			expected: NetworkError,
		},
		{
			name:     "dial error",
			err:      &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connect: connection refused")},
			expected: NetworkError,
		},
		{
			name:     "connection refused text",
			err:      errors.New("dial tcp 127.0.0.1:5000: connect: connection refused"),
			expected: NetworkError,
		},
		{
			name:     "usage error - unknown flag",
			err:      errors.New("unknown flag: --bar"),
			expected: UsageError,
		},
		{
			name:     "usage error - unknown command",
			err:      errors.New(`unknown command "foo" for "smartevents"`),
			expected: UsageError,
		},
		{
			name:     "usage error - arg count",
			err:      errors.New("accepts 1 arg(s), received 0"),
			expected: UsageError,
		},
		{
			name:     "generic error",
			err:      errors.New("something went wrong"),
			expected: GeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := DetermineExitCode(tt.err)
			if code != tt.expected {
				t.Errorf("DetermineExitCode(%v) = %d, want %d", tt.err, code, tt.expected)
			}
		})
	}
}

func TestGetExitCodeDescription(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{Success, "Success"},
		{GeneralError, "General error"},
		{UsageError, "Usage error (invalid flags or arguments)"},
		{InputError, "Invalid input or configuration"},
		{ForbiddenError, "Forbidden for the active role"},
		{AuthError, "Authentication error"},
		{NetworkError, "Network error"},
		{APIError, "API error"},
		{99, "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := GetExitCodeDescription(tt.code)
			if result != tt.expected {
				t.Errorf("GetExitCodeDescription(%d) = %s, want %s", tt.code, result, tt.expected)
			}
		})
	}
}
