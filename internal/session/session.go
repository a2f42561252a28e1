// Package session owns the identity of the logged-in user.
//
// The Store is the single source of truth for who is logged in. It is
// initialized once from durable storage, mutated only through Login and
// Logout, and read by everything else through Current, Credential and
// Subscribe. No other package touches the persisted session record.
package session

import (
	"github.com/go-playground/validator/v10"
)

// Session is the authenticated identity held by the client.
//
// The JSON shape matches the login payload returned by POST /api/users/login,
// which is also the persisted record.
type Session struct {
	Credential  string `json:"token" yaml:"-" validate:"required"`
	UserID      string `json:"_id,omitempty" yaml:"user_id"`
	DisplayName string `json:"name,omitempty" yaml:"name"`
	Email       string `json:"email,omitempty" yaml:"email" validate:"omitempty,email"`
	Role        Role   `json:"role" yaml:"role" validate:"required,role"`
	AvatarURL   string `json:"profilePicture,omitempty" yaml:"avatar_url,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return Role(fl.Field().String()).Valid()
	})
	return v
}

// Validate checks that the session is well formed: a non-empty credential,
// a role from the closed set and, if present, a plausible email address.
//
// The Store only checks presence on Login; callers holding a payload from
// the API should run Validate first.
func (s *Session) Validate() error {
	return validate.Struct(s)
}

// complete reports whether the session carries the fields the client relies on.
func (s *Session) complete() bool {
	return s != nil && s.Credential != "" && s.Role.Valid()
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// State is a point-in-time view of the Store.
type State struct {
	Loading bool
	Session *Session
}

// IsAuthenticated reports whether a session is present.
func (st State) IsAuthenticated() bool {
	return st.Session != nil
}
