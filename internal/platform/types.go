package platform

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Ref is a reference to another document that the API returns either as a
// bare id or as a populated object with a name.
type Ref struct {
	ID   string `json:"_id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// UnmarshalJSON accepts "id" or {"_id": "...", "name": "..."}.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = Ref{ID: id}
		return nil
	}
	type plain Ref
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("reference must be an id or an object: %w", err)
	}
	*r = Ref(p)
	return nil
}

// String returns the name when populated, the id otherwise.
func (r Ref) String() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// Event is a campus event.
type Event struct {
	ID          string `json:"_id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Date        string `json:"date" yaml:"date"`
	StartTime   string `json:"startTime,omitempty" yaml:"start_time,omitempty"`
	EndTime     string `json:"endTime,omitempty" yaml:"end_time,omitempty"`
	Location    string `json:"location" yaml:"location"`
	Category    Ref    `json:"category" yaml:"category"`
	Organizer   *Ref   `json:"organizer,omitempty" yaml:"organizer,omitempty"`
	EventImage  string `json:"eventImage,omitempty" yaml:"event_image,omitempty"`
	IsApproved  bool   `json:"isApproved" yaml:"approved"`
}

// EventInput is the body for creating or updating an event.
type EventInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=5000"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"startTime,omitempty" validate:"omitempty,datetime=15:04"`
	EndTime     string `json:"endTime,omitempty" validate:"omitempty,datetime=15:04"`
	Location    string `json:"location" validate:"required"`
	Category    string `json:"category" validate:"required"`
	EventImage  string `json:"eventImage,omitempty" validate:"omitempty,url"`
}

// EventFilter narrows GET /events.
type EventFilter struct {
	Keyword   string
	Category  string
	DateRange string
	SortBy    string
	Order     string
}

// Category groups events.
type Category struct {
	ID   string `json:"_id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// User is an account as seen by the profile and admin endpoints.
type User struct {
	ID             string `json:"_id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Email          string `json:"email" yaml:"email"`
	Role           string `json:"role" yaml:"role"`
	Gender         string `json:"gender,omitempty" yaml:"gender,omitempty"`
	RollNo         string `json:"rollNo,omitempty" yaml:"roll_no,omitempty"`
	Department     string `json:"department,omitempty" yaml:"department,omitempty"`
	SocietyName    string `json:"societyName,omitempty" yaml:"society_name,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty" yaml:"profile_picture,omitempty"`
}

// UserUpdate is the body for PUT /users/profile and PUT /users/{id}.
// Empty fields are left unchanged by the server.
type UserUpdate struct {
	Name           string `json:"name,omitempty"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	Password       string `json:"password,omitempty" validate:"omitempty,min=6"`
	Role           string `json:"role,omitempty" validate:"omitempty,oneof=student organizer admin"`
	Gender         string `json:"gender,omitempty"`
	RollNo         string `json:"rollNo,omitempty"`
	Department     string `json:"department,omitempty"`
	SocietyName    string `json:"societyName,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty" validate:"omitempty,url"`
}

// Setting is a system toggle. Values are the strings "true" and "false".
type Setting struct {
	ID    string `json:"_id" yaml:"id"`
	Name  string `json:"settingName" yaml:"name"`
	Value string `json:"settingValue" yaml:"value"`
}

// Enabled reports whether the toggle is on.
func (s Setting) Enabled() bool {
	on, _ := strconv.ParseBool(s.Value)
	return on
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers     int `json:"totalUsers" yaml:"total_users"`
	TotalEvents    int `json:"totalEvents" yaml:"total_events"`
	ApprovedEvents int `json:"approvedEvents" yaml:"approved_events"`
	PendingEvents  int `json:"pendingEvents" yaml:"pending_events"`
}

// CountBucket is one bar of an admin chart.
type CountBucket struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// UnmarshalJSON accepts aggregation output keyed by _id, name or month.
func (b *CountBucket) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID    json.RawMessage `json:"_id"`
		Name  string          `json:"name"`
		Month string          `json:"month"`
		Label string          `json:"label"`
		Count int             `json:"count"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	b.Count = aux.Count
	switch {
	case aux.Label != "":
		b.Label = aux.Label
	case aux.Name != "":
		b.Label = aux.Name
	case aux.Month != "":
		b.Label = aux.Month
	case len(aux.ID) > 0:
		var s string
		if err := json.Unmarshal(aux.ID, &s); err == nil {
			b.Label = s
		} else {
			b.Label = string(aux.ID)
		}
	}
	return nil
}

// QRPass is the opaque pass payload for an event registration.
type QRPass struct {
	Code string `json:"qrCode" yaml:"code"`
}

// QRVerification is the result of POST /events/verifyqr.
type QRVerification struct {
	Message string `json:"message" yaml:"message"`
	Event   *Ref   `json:"event,omitempty" yaml:"event,omitempty"`
	User    *User  `json:"user,omitempty" yaml:"user,omitempty"`
}

// Message is the {"message": ...} or {"data": ...} acknowledgement some
// endpoints return.
type Message struct {
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	Data    string `json:"data,omitempty" yaml:"data,omitempty"`
}

// Text returns whichever field is set.
func (m Message) Text() string {
	if m.Message != "" {
		return m.Message
	}
	return m.Data
}
