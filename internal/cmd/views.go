package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/smartevents/internal/platform"
)

// Output types. List types render as tables in text mode; detail types
// implement fmt.Stringer. JSON and YAML marshal the underlying values.

type eventList []platform.Event

func (l eventList) Table() ([]string, [][]string) {
	rows := make([][]string, len(l))
	for i, ev := range l {
		rows[i] = []string{ev.ID, ev.Title, ev.Date, timeRange(ev.StartTime, ev.EndTime), ev.Location, ev.Category.String(), approval(ev.IsApproved)}
	}
	return []string{"ID", "TITLE", "DATE", "TIME", "LOCATION", "CATEGORY", "STATUS"}, rows
}

type eventDetail platform.Event

func (e eventDetail) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", e.Title)
	fmt.Fprintf(&b, "  ID:        %s\n", e.ID)
	fmt.Fprintf(&b, "  Date:      %s %s\n", e.Date, timeRange(e.StartTime, e.EndTime))
	fmt.Fprintf(&b, "  Location:  %s\n", e.Location)
	fmt.Fprintf(&b, "  Category:  %s\n", e.Category.String())
	if e.Organizer != nil {
		fmt.Fprintf(&b, "  Organizer: %s\n", e.Organizer.String())
	}
	fmt.Fprintf(&b, "  Status:    %s\n", approval(e.IsApproved))
	if e.EventImage != "" {
		fmt.Fprintf(&b, "  Image:     %s\n", e.EventImage)
	}
	if e.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", e.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func timeRange(start, end string) string {
	switch {
	case start != "" && end != "":
		return start + "-" + end
	default:
		return start + end
	}
}

func approval(approved bool) string {
	if approved {
		return "approved"
	}
	return "pending"
}

type userList []platform.User

func (l userList) Table() ([]string, [][]string) {
	rows := make([][]string, len(l))
	for i, u := range l {
		rows[i] = []string{u.ID, u.Name, u.Email, u.Role}
	}
	return []string{"ID", "NAME", "EMAIL", "ROLE"}, rows
}

type profileView platform.User

func (p profileView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <%s>\n", p.Name, p.Email)
	fmt.Fprintf(&b, "  ID:   %s\n", p.ID)
	fmt.Fprintf(&b, "  Role: %s\n", p.Role)
	for _, f := range []struct{ label, value string }{
		{"Gender", p.Gender},
		{"Roll no", p.RollNo},
		{"Department", p.Department},
		{"Society", p.SocietyName},
		{"Picture", p.ProfilePicture},
	} {
		if f.value != "" {
			fmt.Fprintf(&b, "  %s: %s\n", f.label, f.value)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

type categoryList []platform.Category

func (l categoryList) Table() ([]string, [][]string) {
	rows := make([][]string, len(l))
	for i, c := range l {
		rows[i] = []string{c.ID, c.Name}
	}
	return []string{"ID", "NAME"}, rows
}

type settingList []platform.Setting

func (l settingList) Table() ([]string, [][]string) {
	rows := make([][]string, len(l))
	for i, s := range l {
		rows[i] = []string{s.ID, s.Name, strconv.FormatBool(s.Enabled())}
	}
	return []string{"ID", "NAME", "ENABLED"}, rows
}

// statsView is the admin dashboard: totals plus the two chart series.
type statsView struct {
	Totals     *platform.Stats        `json:"totals" yaml:"totals"`
	ByCategory []platform.CountBucket `json:"byCategory" yaml:"by_category"`
	ByMonth    []platform.CountBucket `json:"byMonth" yaml:"by_month"`
}

func (s statsView) String() string {
	var b strings.Builder
	if s.Totals != nil {
		fmt.Fprintf(&b, "Users:           %d\n", s.Totals.TotalUsers)
		fmt.Fprintf(&b, "Events:          %d\n", s.Totals.TotalEvents)
		fmt.Fprintf(&b, "  approved:      %d\n", s.Totals.ApprovedEvents)
		fmt.Fprintf(&b, "  pending:       %d\n", s.Totals.PendingEvents)
	}
	writeBars(&b, "Events by category", s.ByCategory)
	writeBars(&b, "Events by month", s.ByMonth)
	return strings.TrimRight(b.String(), "\n")
}

func writeBars(b *strings.Builder, title string, buckets []platform.CountBucket) {
	if len(buckets) == 0 {
		return
	}
	width := 0
	for _, bk := range buckets {
		width = max(width, len(bk.Label))
	}
	fmt.Fprintf(b, "\n%s\n", title)
	for _, bk := range buckets {
		fmt.Fprintf(b, "  %-*s %s %d\n", width, bk.Label, strings.Repeat("█", min(bk.Count, 40)), bk.Count)
	}
}

// statusView describes the active session without exposing the credential.
type statusView struct {
	LoggedIn  bool       `json:"loggedIn" yaml:"logged_in"`
	UserID    string     `json:"userId,omitempty" yaml:"user_id,omitempty"`
	Name      string     `json:"name,omitempty" yaml:"name,omitempty"`
	Email     string     `json:"email,omitempty" yaml:"email,omitempty"`
	Role      string     `json:"role,omitempty" yaml:"role,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" yaml:"expires_at,omitempty"`
	Expired   bool       `json:"expired,omitempty" yaml:"expired,omitempty"`
	APIURL    string     `json:"apiUrl" yaml:"api_url"`
}

func (s statusView) String() string {
	if !s.LoggedIn {
		return fmt.Sprintf("Not logged in (API: %s)\n\nRun 'smartevents auth login' to sign in.", s.APIURL)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Logged in as %s", s.Name)
	if s.Email != "" {
		fmt.Fprintf(&b, " <%s>", s.Email)
	}
	fmt.Fprintf(&b, "\n  Role:    %s\n", s.Role)
	fmt.Fprintf(&b, "  User ID: %s\n", s.UserID)
	fmt.Fprintf(&b, "  API:     %s\n", s.APIURL)
	if s.ExpiresAt != nil {
		state := "valid until"
		if s.Expired {
			state = "expired at"
		}
		fmt.Fprintf(&b, "  Token:   %s %s\n", state, s.ExpiresAt.Local().Format(time.RFC1123))
	}
	return strings.TrimRight(b.String(), "\n")
}

type verificationView platform.QRVerification

func (v verificationView) String() string {
	var b strings.Builder
	b.WriteString(v.Message)
	if v.User != nil {
		fmt.Fprintf(&b, "\n  Attendee: %s <%s>", v.User.Name, v.User.Email)
	}
	if v.Event != nil {
		fmt.Fprintf(&b, "\n  Event:    %s", v.Event.String())
	}
	return b.String()
}
