// Package tui is the interactive SmartEvents client.
//
// The App keeps a navigation history of route paths. Every navigation and
// every session change re-runs the route guard for the current path; a
// guarded view is only entered once the guard reports Authorized.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	apperrors "github.com/felixgeelhaar/smartevents/internal/errors"
	"github.com/felixgeelhaar/smartevents/internal/guard"
	"github.com/felixgeelhaar/smartevents/internal/log"
	"github.com/felixgeelhaar/smartevents/internal/platform"
	"github.com/felixgeelhaar/smartevents/internal/router"
	"github.com/felixgeelhaar/smartevents/internal/session"
	"github.com/felixgeelhaar/smartevents/internal/ux"
)

// Backend is the part of the API client the TUI uses.
type Backend interface {
	Login(ctx context.Context, req platform.LoginRequest) (*session.Session, error)
	ListEvents(ctx context.Context, filter platform.EventFilter) ([]platform.Event, error)
	RegisterForEvent(ctx context.Context, id string) (*platform.Message, error)
	RegisteredEvents(ctx context.Context) ([]platform.Event, error)
	EventQRCode(ctx context.Context, id string) (*platform.QRPass, error)
	MyEvents(ctx context.Context) ([]platform.Event, error)
	VerifyQR(ctx context.Context, token string) (*platform.QRVerification, error)
	PendingEvents(ctx context.Context) ([]platform.Event, error)
	ApproveEvent(ctx context.Context, id string) (*platform.Message, error)
	RejectEvent(ctx context.Context, id string) (*platform.Message, error)
	AdminStats(ctx context.Context) (*platform.Stats, error)
}

var _ Backend = (*platform.Client)(nil)

// maxRedirects bounds guard redirects per resolution. Redirect targets are
// public routes, so a chain never needs more than one hop.
const maxRedirects = 3

type credentials struct {
	Email    string
	Password string
}

// App is the root bubbletea model.
type App struct {
	ctx     context.Context
	store   *session.Store
	api     Backend
	logger  *log.Logger
	history *router.History

	route   router.Route
	outcome guard.Outcome
	guard   *guard.Guard
	entered string

	loginForm  *huh.Form
	creds      *credentials
	verifyForm *huh.Form
	qrPayload  *string

	events  []platform.Event
	cursor  int
	stats   *platform.Stats
	pass    string
	status  string
	err     error
	loading bool

	spinner spinner.Model
	help    help.Model
	keys    keyMap
	styles  Styles

	width    int
	height   int
	quitting bool
}

// Option configures an App.
type Option func(*App)

// WithStartPath opens the App at path instead of the home view.
func WithStartPath(path string) Option {
	return func(a *App) {
		a.history = router.NewHistory(path)
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// NewApp creates the root model. The store must not be initialized yet;
// Init does that and the guard reports Pending until it finishes.
func NewApp(ctx context.Context, store *session.Store, api Backend, opts ...Option) *App {
	a := &App{
		ctx:     ctx,
		store:   store,
		api:     api,
		history: router.NewHistory(router.PathHome),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		keys:    defaultKeyMap(),
		styles:  DefaultStyles(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = log.DefaultLogger()
	}
	a.logger = a.logger.With("component", "tui")
	a.spinner.Style = a.styles.Status
	return a
}

// Messages

// SessionChangedMsg is sent whenever the session store changes.
type SessionChangedMsg struct {
	State session.State
}

type initializedMsg struct{}

type eventsLoadedMsg struct {
	path   string
	events []platform.Event
	err    error
}

type statsLoadedMsg struct {
	stats *platform.Stats
	err   error
}

type loginDoneMsg struct {
	session *session.Session
	err     error
}

type actionDoneMsg struct {
	status string
	err    error
	reload bool
}

type passLoadedMsg struct {
	art string
	err error
}

// Init restores the persisted session in the background.
func (m *App) Init() tea.Cmd {
	return tea.Batch(m.resolve(), m.spinner.Tick, m.initialize)
}

func (m *App) initialize() tea.Msg {
	m.store.Initialize(m.ctx)
	return initializedMsg{}
}

// Update handles messages and updates the model
func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case spinner.TickMsg:
		if m.outcome.Decision != guard.Pending && !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case initializedMsg, SessionChangedMsg:
		return m, m.resolve()

	case loginDoneMsg:
		return m, m.handleLogin(msg)

	case eventsLoadedMsg:
		if msg.path != m.history.Current() {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		m.events = msg.events
		if m.cursor >= len(m.events) {
			m.cursor = 0
		}
		return m, nil

	case statsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.stats = msg.stats
		return m, nil

	case passLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.pass = msg.art
		return m, nil

	case actionDoneMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		cmd := m.resolve()
		if msg.reload && msg.err == nil {
			cmd = tea.Batch(cmd, m.reload())
		}
		return m, cmd
	}

	return m.updateForms(msg)
}

func (m *App) updateForms(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch {
	case m.loginForm != nil && m.route.Path == router.PathLogin:
		form, cmd := m.loginForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.loginForm = f
		}
		switch m.loginForm.State {
		case huh.StateCompleted:
			m.loginForm = nil
			return m, m.submitLogin(m.creds.Email, m.creds.Password)
		case huh.StateAborted:
			m.loginForm = nil
			return m, m.back()
		}
		return m, cmd

	case m.verifyForm != nil:
		form, cmd := m.verifyForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.verifyForm = f
		}
		switch m.verifyForm.State {
		case huh.StateCompleted:
			m.verifyForm = nil
			return m, m.verifyPass(*m.qrPayload)
		case huh.StateAborted:
			m.verifyForm = nil
		}
		return m, cmd
	}
	return m, nil
}

// handleKeyPress handles keyboard input
func (m *App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ctrl+C always quits
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	// Forms own the keyboard while they are open.
	if m.formActive() {
		if key.Matches(msg, m.keys.Back) && msg.String() == "esc" {
			if m.verifyForm != nil {
				m.verifyForm = nil
				return m, nil
			}
			m.loginForm = nil
			return m, m.back()
		}
		return m.updateForms(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.events)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Back):
		return m, m.back()

	case key.Matches(msg, m.keys.Home):
		return m, m.navigate(router.PathHome)

	case key.Matches(msg, m.keys.Events):
		return m, m.navigate(router.PathEvents)

	case key.Matches(msg, m.keys.Login):
		return m, m.navigate(router.PathLogin)

	case key.Matches(msg, m.keys.Dashboard):
		if s := m.store.Current(); s != nil {
			return m, m.navigate(router.LandingRoute(s.Role))
		}

	case key.Matches(msg, m.keys.Logout):
		return m, m.logout()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.reload()

	case key.Matches(msg, m.keys.Register):
		if ev, ok := m.selected(); ok {
			return m, m.register(ev)
		}

	case key.Matches(msg, m.keys.Pass):
		if ev, ok := m.selected(); ok {
			return m, m.loadPass(ev)
		}

	case key.Matches(msg, m.keys.Verify):
		return m, m.openVerifyForm()

	case key.Matches(msg, m.keys.Approve):
		if ev, ok := m.selected(); ok {
			return m, m.moderate(ev, true)
		}

	case key.Matches(msg, m.keys.Reject):
		if ev, ok := m.selected(); ok {
			return m, m.moderate(ev, false)
		}
	}

	return m, nil
}

func (m *App) formActive() bool {
	return (m.loginForm != nil && m.route.Path == router.PathLogin) || m.verifyForm != nil
}

func (m *App) selected() (platform.Event, bool) {
	if m.cursor < 0 || m.cursor >= len(m.events) {
		return platform.Event{}, false
	}
	return m.events[m.cursor], true
}

// Navigation

func (m *App) navigate(path string) tea.Cmd {
	m.history.Push(path)
	return m.resolve()
}

func (m *App) back() tea.Cmd {
	if _, ok := m.history.Back(); !ok {
		return nil
	}
	return m.resolve()
}

// resolve runs the guard for the current path and either waits, follows
// a redirect, or enters the view.
func (m *App) resolve() tea.Cmd {
	for i := 0; i < maxRedirects; i++ {
		path := m.history.Current()
		route, outcome, ok := m.check(path)
		if !ok {
			m.logger.Debug("unknown route", "path", path)
			m.history.Replace(router.PathHome)
			continue
		}
		m.route = route
		m.outcome = outcome
		m.keys.scope(route.Path, m.store.Current())

		switch outcome.Decision {
		case guard.Pending:
			return m.spinner.Tick
		case guard.Unauthorized, guard.Forbidden:
			m.logger.Debug("guard redirect",
				"path", path,
				"decision", outcome.Decision.String(),
				"redirect", outcome.Redirect,
			)
			m.history.Navigate(outcome.Redirect, outcome.Replace)
			m.guard = nil
			m.entered = ""
			continue
		default:
			return m.enter()
		}
	}
	return nil
}

func (m *App) check(path string) (router.Route, guard.Outcome, bool) {
	route, ok := router.Lookup(path)
	if !ok {
		return router.Route{}, guard.Outcome{}, false
	}
	if !route.Protected {
		return route, guard.Outcome{Decision: guard.Authorized}, true
	}
	if m.guard == nil || m.guard.Spec().Path != route.Path {
		m.guard = guard.New(m.store, route.Spec)
	}
	return route, m.guard.Check(), true
}

// enter loads the view's data the first time it becomes active.
func (m *App) enter() tea.Cmd {
	if m.entered == m.route.Path {
		return nil
	}
	m.entered = m.route.Path
	m.events = nil
	m.cursor = 0
	m.stats = nil
	m.pass = ""
	m.verifyForm = nil

	if m.route.Path == router.PathLogin {
		m.loginForm = m.newLoginForm()
		return m.loginForm.Init()
	}
	m.loginForm = nil
	return m.reload()
}

func (m *App) reload() tea.Cmd {
	path := m.route.Path
	var load func(context.Context) ([]platform.Event, error)

	switch path {
	case router.PathEvents:
		load = func(ctx context.Context) ([]platform.Event, error) {
			return m.api.ListEvents(ctx, platform.EventFilter{SortBy: "date", Order: "asc"})
		}
	case router.PathStudent:
		load = m.api.RegisteredEvents
	case router.PathOrganizer:
		load = m.api.MyEvents
	case router.PathAdmin:
		load = m.api.PendingEvents
	default:
		return nil
	}

	m.loading = true
	cmds := []tea.Cmd{m.spinner.Tick, func() tea.Msg {
		events, err := load(m.ctx)
		return eventsLoadedMsg{path: path, events: events, err: err}
	}}
	if path == router.PathAdmin {
		cmds = append(cmds, func() tea.Msg {
			stats, err := m.api.AdminStats(m.ctx)
			return statsLoadedMsg{stats: stats, err: err}
		})
	}
	return tea.Batch(cmds...)
}

// Session

func (m *App) newLoginForm() *huh.Form {
	m.creds = &credentials{}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&m.creds.Email).
				Validate(required("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.creds.Password).
				Validate(required("password")),
		).Title("Sign in to SmartEvents"),
	).WithShowHelp(false)
}

func required(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// submitLogin authenticates and hands the payload to the store.
func (m *App) submitLogin(email, password string) tea.Cmd {
	m.loading = true
	m.err = nil
	return func() tea.Msg {
		req := platform.LoginRequest{Email: email, Password: password}
		if err := platform.Validate(req); err != nil {
			return loginDoneMsg{err: err}
		}
		payload, err := m.api.Login(m.ctx, req)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		if err := payload.Validate(); err != nil {
			return loginDoneMsg{err: apperrors.Wrap(apperrors.ErrCodeSessionPayload, "server returned an incomplete session", err)}
		}
		return loginDoneMsg{session: payload, err: m.store.Login(m.ctx, *payload)}
	}
}

func (m *App) handleLogin(msg loginDoneMsg) tea.Cmd {
	m.loading = false
	if msg.session == nil {
		m.err = msg.err
		m.logger.WithError(msg.err).Debug("login failed")
		m.entered = ""
		return m.resolve()
	}

	// A persistence error leaves the session usable for this run.
	m.err = msg.err
	m.status = fmt.Sprintf("Welcome, %s", msg.session.DisplayName)
	return m.navigate(router.LandingRoute(msg.session.Role))
}

func (m *App) logout() tea.Cmd {
	return func() tea.Msg {
		err := m.store.Logout(m.ctx)
		return actionDoneMsg{status: "Logged out", err: err}
	}
}

// Actions

func (m *App) register(ev platform.Event) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		msg, err := m.api.RegisterForEvent(m.ctx, ev.ID)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		status := msg.Text()
		if status == "" {
			status = fmt.Sprintf("Registered for %s", ev.Title)
		}
		return actionDoneMsg{status: status}
	}
}

func (m *App) loadPass(ev platform.Event) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		pass, err := m.api.EventQRCode(m.ctx, ev.ID)
		if err != nil {
			return passLoadedMsg{err: err}
		}
		art, err := ux.RenderQR(pass.Code)
		return passLoadedMsg{art: art, err: err}
	}
}

func (m *App) openVerifyForm() tea.Cmd {
	payload := ""
	m.qrPayload = &payload
	m.verifyForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Pass payload").
				Description("Paste the scanned QR payload").
				Value(m.qrPayload).
				Validate(required("payload")),
		),
	).WithShowHelp(false)
	return m.verifyForm.Init()
}

func (m *App) verifyPass(payload string) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		result, err := m.api.VerifyQR(m.ctx, payload)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		status := result.Message
		if result.User != nil {
			status = fmt.Sprintf("%s: %s <%s>", status, result.User.Name, result.User.Email)
		}
		return actionDoneMsg{status: status}
	}
}

func (m *App) moderate(ev platform.Event, approve bool) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		var err error
		verb := "Approved"
		if approve {
			_, err = m.api.ApproveEvent(m.ctx, ev.ID)
		} else {
			verb = "Rejected"
			_, err = m.api.RejectEvent(m.ctx, ev.ID)
		}
		return actionDoneMsg{status: fmt.Sprintf("%s %s", verb, ev.Title), err: err, reload: true}
	}
}

// Path returns the active route path.
func (m *App) Path() string {
	return m.history.Current()
}

// Outcome returns the last guard outcome for the active route.
func (m *App) Outcome() guard.Outcome {
	return m.outcome
}

// Run starts the TUI and blocks until it exits. Store changes made outside
// the program (for example by another command) are forwarded as messages.
func Run(ctx context.Context, store *session.Store, api Backend, opts ...Option) error {
	app := NewApp(ctx, store, api, opts...)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := store.Subscribe(func(st session.State) {
		go p.Send(SessionChangedMsg{State: st})
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
