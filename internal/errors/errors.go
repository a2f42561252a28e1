package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Session errors (SESSION-001 to SESSION-099)
	ErrCodeSessionWrite   ErrorCode = "SESSION-001"
	ErrCodeSessionClear   ErrorCode = "SESSION-002"
	ErrCodeSessionPayload ErrorCode = "SESSION-003"

	// Authorization errors (AUTH-001 to AUTH-099)
	ErrCodeNotLoggedIn ErrorCode = "AUTH-001"
	ErrCodeForbidden   ErrorCode = "AUTH-002"
	ErrCodeLoginFailed ErrorCode = "AUTH-003"

	// API errors (API-001 to API-099)
	ErrCodeAPIRequest  ErrorCode = "API-001"
	ErrCodeAPIResponse ErrorCode = "API-002"
	ErrCodeAPIDecode   ErrorCode = "API-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigRead    ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid ErrorCode = "CONFIG-002"
	ErrCodeConfigWrite   ErrorCode = "CONFIG-003"
	ErrCodeConfigKey     ErrorCode = "CONFIG-004"

	// Input errors (INPUT-001 to INPUT-099)
	ErrCodeInputInvalid  ErrorCode = "INPUT-001"
	ErrCodeInputRequired ErrorCode = "INPUT-002"
)

// Error represents an enhanced error with code, suggestions, and documentation
type Error struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new Error wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *Error) WithSuggestions(suggestions ...string) *Error {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *Error) WithDocs(url string) *Error {
	e.DocsURL = url
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// Common error constructors

// NewNotLoggedInError is returned when a protected command runs without a session
func NewNotLoggedInError() *Error {
	return New(ErrCodeNotLoggedIn, "not logged in").
		WithSuggestion("Run 'smartevents auth login' to authenticate")
}

// NewForbiddenError is returned when the session role may not open a view
func NewForbiddenError(path, role string, allowed []string) *Error {
	return New(ErrCodeForbidden, fmt.Sprintf("role %q cannot access %s", role, path)).
		WithSuggestion(fmt.Sprintf("This view is available to: %s", strings.Join(allowed, ", "))).
		WithSuggestion("Run 'smartevents auth status' to check the active account")
}

// NewSessionWriteError reports that a session could not be persisted.
// The in-memory session is still active for the current process.
func NewSessionWriteError(cause error) *Error {
	return Wrap(ErrCodeSessionWrite, "session is active but could not be saved", cause).
		WithSuggestion("Check permissions and free space of the session file").
		WithSuggestion("You will need to log in again after this command finishes")
}

// NewInputRequiredError creates a required input error
func NewInputRequiredError(field string) *Error {
	return New(ErrCodeInputRequired, fmt.Sprintf("%s is required", field))
}

// NewInputInvalidError creates an invalid input error
func NewInputInvalidError(details string, cause error) *Error {
	return Wrap(ErrCodeInputInvalid, fmt.Sprintf("invalid input: %s", details), cause)
}

// NewConfigKeyError creates an unknown configuration key error
func NewConfigKeyError(key string, known []string) *Error {
	return New(ErrCodeConfigKey, fmt.Sprintf("unknown configuration key: %s", key)).
		WithSuggestion(fmt.Sprintf("Known keys: %s", strings.Join(known, ", ")))
}
