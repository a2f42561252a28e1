package ux

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	apperrors "github.com/felixgeelhaar/smartevents/internal/errors"
	"github.com/felixgeelhaar/smartevents/internal/platform"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError analyzes an error and adds contextual suggestions.
// Coded errors already carry their own suggestions and are returned as is.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var coded *apperrors.Error
	if errors.As(err, &coded) {
		return err
	}

	var statusErr *platform.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.IsUnauthorized():
			return NewErrorWithSuggestion(err,
				"Your session may have expired. Run 'smartevents auth login' to sign in again")
		case statusErr.IsForbidden():
			return NewErrorWithSuggestion(err,
				"Your account role is not allowed to do this. Run 'smartevents auth status' to check it")
		case statusErr.StatusCode == http.StatusNotFound:
			return NewErrorWithSuggestion(err,
				"Check the id. 'smartevents events list' shows the available events")
		case statusErr.StatusCode >= 500:
			return NewErrorWithSuggestion(err,
				"The SmartEvents server reported an internal error. Try again later")
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewErrorWithSuggestion(err,
			"The request timed out. Raise it with 'smartevents config set timeout 60s'")
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewErrorWithSuggestion(err,
			"The request timed out. Raise it with 'smartevents config set timeout 60s'")
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host") ||
		strings.Contains(errMsg, "no route to host") {
		return NewErrorWithSuggestion(err,
			"Could not reach the API. Check that it is running and that 'smartevents config get api_url' is correct")
	}

	if strings.Contains(errMsg, "permission denied") {
		return NewErrorWithSuggestion(err,
			"Check the permissions of ~/.smartevents and the session file")
	}

	if strings.Contains(errMsg, "failed to decode response") {
		return NewErrorWithSuggestion(err,
			"The server sent an unexpected response. Check that api_url points at the SmartEvents API")
	}

	return err
}

// ServerMessage returns the message a user should see for err: the
// server-provided message for API failures, the error text otherwise.
func ServerMessage(err error) string {
	var statusErr *platform.StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	var coded *apperrors.Error
	if errors.As(err, &coded) {
		return coded.Message
	}
	return err.Error()
}
