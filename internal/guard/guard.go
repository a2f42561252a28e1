// Package guard decides whether a protected view may be shown.
package guard

import (
	"slices"
	"sync"

	"github.com/felixgeelhaar/smartevents/internal/session"
)

const (
	// LoginPath is where unauthenticated navigation is sent.
	LoginPath = "/login"
	// FallbackPath is where authenticated users without the right role are sent.
	FallbackPath = "/"
)

// Spec is the access policy declared by a protected view.
// An empty AllowedRoles admits any authenticated role.
type Spec struct {
	Path         string
	AllowedRoles []session.Role
}

// Allows reports whether role may open the view.
func (s Spec) Allows(role session.Role) bool {
	if len(s.AllowedRoles) == 0 {
		return true
	}
	return slices.Contains(s.AllowedRoles, role)
}

// RoleNames returns the allowed roles as strings.
func (s Spec) RoleNames() []string {
	names := make([]string, len(s.AllowedRoles))
	for i, r := range s.AllowedRoles {
		names[i] = r.String()
	}
	return names
}

// Decision is the result of evaluating a Spec against the session state.
type Decision int

const (
	// Pending means the session store is still initializing.
	Pending Decision = iota
	// Unauthorized means nobody is logged in.
	Unauthorized
	// Forbidden means the session role is not allowed.
	Forbidden
	// Authorized means the view may be rendered.
	Authorized
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case Authorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// Outcome is what the caller should do: render, wait, or redirect.
// Redirects always replace the current history entry.
type Outcome struct {
	Decision Decision
	Redirect string
	Replace  bool
}

// Evaluate applies spec to st. While loading the outcome is Pending with no
// redirect. Afterwards Unauthorized, Forbidden and Authorized are checked in
// that order and the first match wins.
func Evaluate(st session.State, spec Spec) Outcome {
	switch {
	case st.Loading:
		return Outcome{Decision: Pending}
	case !st.IsAuthenticated():
		return Outcome{Decision: Unauthorized, Redirect: LoginPath, Replace: true}
	case !spec.Allows(st.Session.Role):
		return Outcome{Decision: Forbidden, Redirect: FallbackPath, Replace: true}
	default:
		return Outcome{Decision: Authorized}
	}
}

// StateSource is the read side of the session store.
type StateSource interface {
	State() session.State
	Subscribe(fn func(session.State)) func()
}

// Guard binds a Spec to a live session store.
type Guard struct {
	source StateSource
	spec   Spec

	mu      sync.Mutex
	settled bool
}

// New creates a Guard for spec.
func New(source StateSource, spec Spec) *Guard {
	return &Guard{source: source, spec: spec}
}

// Spec returns the policy the guard enforces.
func (g *Guard) Spec() Spec {
	return g.spec
}

// Check evaluates the current store state.
func (g *Guard) Check() Outcome {
	return g.evaluate(g.source.State())
}

func (g *Guard) evaluate(st session.State) Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Once a decision has been made the guard never goes back to Pending.
	if g.settled {
		st.Loading = false
	}
	out := Evaluate(st, g.spec)
	if out.Decision != Pending {
		g.settled = true
	}
	return out
}

// Watch calls fn with a fresh Outcome after every store change.
// The returned function stops watching.
func (g *Guard) Watch(fn func(Outcome)) func() {
	return g.source.Subscribe(func(st session.State) {
		fn(g.evaluate(st))
	})
}
