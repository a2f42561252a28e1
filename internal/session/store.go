package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	apperrors "github.com/felixgeelhaar/smartevents/internal/errors"
	"github.com/felixgeelhaar/smartevents/internal/log"
)

// Store holds the current session.
//
// A new Store is loading until Initialize completes. In-memory state changes
// are atomic with respect to readers; durable writes happen after the
// in-memory update and their errors are returned to the caller.
type Store struct {
	storage Storage
	logger  *log.Logger

	mu          sync.RWMutex
	current     *Session
	loading     bool
	initialized bool
	// generation counts Login and Logout calls so Initialize can tell
	// whether its restored record is already stale.
	generation uint64

	listenersMu sync.Mutex
	listeners   map[int]func(State)
	nextID      int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a loading Store backed by storage.
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage:   storage,
		loading:   true,
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.DefaultLogger()
	}
	s.logger = s.logger.With("component", "session")
	return s
}

// Initialize restores the persisted session, if any, and ends the loading
// phase. Missing, unparsable or incomplete records leave the store logged
// out. Initialize never fails and only the first call has any effect.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	gen := s.generation
	s.mu.Unlock()

	restored := s.restore(ctx)

	s.mu.Lock()
	if s.generation == gen {
		s.current = restored
	} else {
		s.logger.DebugContext(ctx, "session changed while restoring, keeping it")
	}
	s.loading = false
	snapshot := s.stateLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

func (s *Store) restore(ctx context.Context) *Session {
	data, err := s.storage.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		s.logger.DebugContext(ctx, "no persisted session")
		return nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "reading persisted session failed", "error", err)
		return nil
	}

	var restored Session
	if err := json.Unmarshal(data, &restored); err != nil {
		s.logger.WarnContext(ctx, "discarding malformed persisted session", "error", err)
		return nil
	}
	if !restored.complete() {
		s.logger.WarnContext(ctx, "discarding incomplete persisted session")
		return nil
	}

	s.logger.DebugContext(ctx, "session restored", "user_id", restored.UserID, "role", restored.Role)
	return &restored
}

// Login makes payload the current session and persists it.
//
// The payload must carry a credential and a role; anything else is the
// caller's responsibility (see Session.Validate). When persisting fails the
// session stays active for this process and a SESSION-001 error is returned.
func (s *Store) Login(ctx context.Context, payload Session) error {
	if payload.Credential == "" || payload.Role == "" {
		return apperrors.New(apperrors.ErrCodeSessionPayload, "login payload must contain a credential and a role")
	}

	next := payload.clone()

	s.mu.Lock()
	s.current = next
	s.generation++
	snapshot := s.stateLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	s.logger.InfoContext(ctx, "logged in", "user_id", next.UserID, "role", next.Role)

	data, err := json.Marshal(next)
	if err != nil {
		return apperrors.NewSessionWriteError(err)
	}
	if err := s.storage.Save(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "persisting session failed", "error", err)
		return apperrors.NewSessionWriteError(err)
	}
	return nil
}

// Logout drops the current session and the persisted record. Logging out
// without a session is a no-op for the in-memory state.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	hadSession := s.current != nil
	s.current = nil
	s.generation++
	snapshot := s.stateLocked()
	s.mu.Unlock()

	if hadSession {
		s.notify(snapshot)
		s.logger.InfoContext(ctx, "logged out")
	}

	if err := s.storage.Clear(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeSessionClear, "could not remove the saved session", err)
	}
	return nil
}

// Current returns a copy of the current session, or nil.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Credential returns the live credential, or "" when logged out.
func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Credential
}

// IsAuthenticated reports whether a session is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// Loading reports whether Initialize has not finished yet.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// State returns a snapshot of the store.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	return State{Loading: s.loading, Session: s.current.clone()}
}

// Subscribe registers fn to be called after every state change. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Store) notify(st State) {
	s.listenersMu.Lock()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
