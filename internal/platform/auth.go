package platform

import (
	"context"
	"net/http"

	"github.com/felixgeelhaar/smartevents/internal/session"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the signup body. Student and organizer accounts carry
// extra profile fields; organizers also name their society.
type RegisterRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	Role           string `json:"role" validate:"required,oneof=student organizer"`
	Gender         string `json:"gender,omitempty"`
	RollNo         string `json:"rollNo,omitempty"`
	Department     string `json:"department,omitempty"`
	SocietyName    string `json:"societyName,omitempty" validate:"required_if=Role organizer"`
	ProfilePicture string `json:"profilePicture,omitempty" validate:"omitempty,url"`
}

// ResetPasswordRequest is the body for PUT /users/resetpassword/{token}.
type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// Login authenticates and returns the session payload. It does not change
// any client state; hand the payload to session.Store.Login.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*session.Session, error) {
	var payload session.Session
	if err := c.call(ctx, http.MethodPost, "/users/login", req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Register creates an account. The response is a session payload, so a new
// user is logged in right away.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*session.Session, error) {
	var payload session.Session
	if err := c.call(ctx, http.MethodPost, "/users", req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ForgotPassword asks the server to email a reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*Message, error) {
	var msg Message
	body := map[string]string{"email": email}
	if err := c.call(ctx, http.MethodPost, "/users/forgotpassword", body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ResetPassword sets a new password using the emailed reset token.
func (c *Client) ResetPassword(ctx context.Context, token string, req ResetPasswordRequest) (*Message, error) {
	var msg Message
	if err := c.call(ctx, http.MethodPut, "/users/resetpassword/"+escape(token), req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetProfile retrieves the currently authenticated user
func (c *Client) GetProfile(ctx context.Context) (*User, error) {
	var user User
	if err := c.call(ctx, http.MethodGet, "/users/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the current user's profile.
func (c *Client) UpdateProfile(ctx context.Context, update UserUpdate) (*User, error) {
	var user User
	if err := c.call(ctx, http.MethodPut, "/users/profile", update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
