package exitcode

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"

	apperrors "github.com/felixgeelhaar/smartevents/internal/errors"
	"github.com/felixgeelhaar/smartevents/internal/log"
	"github.com/felixgeelhaar/smartevents/internal/platform"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// InputError indicates rejected input or configuration values
	InputError = 3

	// ForbiddenError indicates the active role may not perform the action
	ForbiddenError = 4

	// AuthError indicates a missing or rejected session
	AuthError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6

	// APIError indicates the server answered with a non-2xx status
	APIError = 7

	// Interrupted indicates the run was cancelled by SIGINT or SIGTERM
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	code := DetermineExitCode(err)
	log.DefaultLogger().Debug("exiting", "code", code, "reason", GetExitCodeDescription(code))
	Exit(code)
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeNotLoggedIn, apperrors.ErrCodeLoginFailed:
		return AuthError
	case apperrors.ErrCodeForbidden:
		return ForbiddenError
	case apperrors.ErrCodeInputInvalid, apperrors.ErrCodeInputRequired,
		apperrors.ErrCodeConfigInvalid, apperrors.ErrCodeConfigKey:
		return InputError
	}

	var statusErr *platform.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.IsUnauthorized():
			return AuthError
		case statusErr.IsForbidden():
			return ForbiddenError
		default:
			return APIError
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NetworkError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return NetworkError
	}

	errMsg := strings.ToLower(err.Error())

	// Network errors
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host") {
		return NetworkError
	}

	// Usage errors
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") ||
		strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown shorthand flag") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "accepts ") {
		return UsageError
	}

	// Default to general error
	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case InputError:
		return "Invalid input or configuration"
	case ForbiddenError:
		return "Forbidden for the active role"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case APIError:
		return "API error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
