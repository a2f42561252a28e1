// Package router declares the client's views and keeps navigation history.
package router

import (
	"github.com/felixgeelhaar/smartevents/internal/guard"
	"github.com/felixgeelhaar/smartevents/internal/session"
)

// View paths.
const (
	PathHome      = guard.FallbackPath
	PathEvents    = "/events"
	PathLogin     = guard.LoginPath
	PathStudent   = "/student"
	PathOrganizer = "/organizer"
	PathAdmin     = "/admin"
)

// Route describes one view. Protected routes are gated by Spec.
type Route struct {
	Path      string
	Title     string
	Protected bool
	Spec      guard.Spec
}

func protected(path, title string, roles ...session.Role) Route {
	return Route{
		Path:      path,
		Title:     title,
		Protected: true,
		Spec:      guard.Spec{Path: path, AllowedRoles: roles},
	}
}

var routes = []Route{
	{Path: PathHome, Title: "Home"},
	{Path: PathEvents, Title: "Events"},
	{Path: PathLogin, Title: "Sign in"},
	protected(PathStudent, "Student dashboard", session.RoleStudent),
	protected(PathOrganizer, "Organizer dashboard", session.RoleOrganizer),
	protected(PathAdmin, "Admin dashboard", session.RoleAdmin),
}

// Routes returns all declared routes.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Lookup finds the route for path.
func Lookup(path string) (Route, bool) {
	for _, r := range routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// LandingRoute is the dashboard a role lands on after login. Every place
// that branches on role to pick a view goes through this mapping.
func LandingRoute(role session.Role) string {
	switch role {
	case session.RoleStudent:
		return PathStudent
	case session.RoleOrganizer:
		return PathOrganizer
	case session.RoleAdmin:
		return PathAdmin
	default:
		return PathHome
	}
}

// Resolve evaluates the route at path against st. Public routes are always
// Authorized.
func Resolve(st session.State, path string) (Route, guard.Outcome, bool) {
	r, ok := Lookup(path)
	if !ok {
		return Route{}, guard.Outcome{}, false
	}
	if !r.Protected {
		return r, guard.Outcome{Decision: guard.Authorized}, true
	}
	return r, guard.Evaluate(st, r.Spec), true
}
