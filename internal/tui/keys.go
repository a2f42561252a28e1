package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/felixgeelhaar/smartevents/internal/router"
	"github.com/felixgeelhaar/smartevents/internal/session"
)

// keyMap defines the keyboard shortcuts
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Home      key.Binding
	Events    key.Binding
	Dashboard key.Binding
	Login     key.Binding
	Logout    key.Binding
	Back      key.Binding
	Refresh   key.Binding
	Register  key.Binding
	Pass      key.Binding
	Verify    key.Binding
	Approve   key.Binding
	Reject    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Home:      key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "home")),
		Events:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "events")),
		Dashboard: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dashboard")),
		Login:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "log in")),
		Logout:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "log out")),
		Back:      key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Refresh:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		Register:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "register")),
		Pass:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "QR pass")),
		Verify:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "verify pass")),
		Approve:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "approve")),
		Reject:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reject")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// scope enables only the bindings that do something on path for the
// given session, so help never advertises a dead key.
func (k *keyMap) scope(path string, s *session.Session) {
	loggedIn := s != nil
	k.Login.SetEnabled(!loggedIn && path != router.PathLogin)
	k.Logout.SetEnabled(loggedIn)
	k.Dashboard.SetEnabled(loggedIn)
	k.Register.SetEnabled(path == router.PathEvents && loggedIn && s.Role == session.RoleStudent)
	k.Pass.SetEnabled(path == router.PathStudent)
	k.Verify.SetEnabled(path == router.PathOrganizer)
	k.Approve.SetEnabled(path == router.PathAdmin)
	k.Reject.SetEnabled(path == router.PathAdmin)
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Events, k.Dashboard, k.Login, k.Logout, k.Back, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Refresh},
		{k.Home, k.Events, k.Dashboard, k.Back},
		{k.Register, k.Pass, k.Verify, k.Approve, k.Reject},
		{k.Login, k.Logout, k.Help, k.Quit},
	}
}
