package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/felixgeelhaar/smartevents/internal/errors"
	"github.com/felixgeelhaar/smartevents/internal/log"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Level: log.LevelError, Output: log.NewOutput(&bytes.Buffer{})})
}

func newTestStore(storage Storage) *Store {
	return NewStore(storage, WithLogger(quietLogger()))
}

func studentSession() Session {
	return Session{
		Credential:  "tokXYZ",
		UserID:      "u1",
		DisplayName: "Alex",
		Role:        RoleStudent,
	}
}

// failingStorage fails every Save and Clear.
type failingStorage struct {
	MemoryStorage
	err error
}

func (f *failingStorage) Save(context.Context, []byte) error { return f.err }
func (f *failingStorage) Clear(context.Context) error        { return f.err }

// blockingStorage holds Load until release is closed.
type blockingStorage struct {
	*MemoryStorage
	loading chan struct{}
	release chan struct{}
}

func newBlockingStorage(data []byte) *blockingStorage {
	return &blockingStorage{
		MemoryStorage: NewMemoryStorage(data),
		loading:       make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (b *blockingStorage) Load(ctx context.Context) ([]byte, error) {
	data, err := b.MemoryStorage.Load(ctx)
	close(b.loading)
	<-b.release
	return data, err
}

func TestNewStoreStartsLoading(t *testing.T) {
	store := newTestStore(NewMemoryStorage(nil))

	assert.True(t, store.Loading())
	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.Current())
}

func TestInitializeWithoutPersistedSession(t *testing.T) {
	store := newTestStore(NewMemoryStorage(nil))

	store.Initialize(context.Background())

	assert.False(t, store.Loading())
	assert.False(t, store.IsAuthenticated())
}

func TestInitializeRestoresPersistedSession(t *testing.T) {
	record := []byte(`{"token":"tok123","_id":"u9","name":"Org","email":"org@college.edu","role":"organizer"}`)
	store := newTestStore(NewMemoryStorage(record))

	store.Initialize(context.Background())

	require.True(t, store.IsAuthenticated())
	current := store.Current()
	assert.Equal(t, "tok123", current.Credential)
	assert.Equal(t, RoleOrganizer, current.Role)
	assert.Equal(t, "u9", current.UserID)
}

func TestInitializeDegradesBadRecords(t *testing.T) {
	tests := []struct {
		name   string
		record string
	}{
		{"corrupted json", `{"token":"tok`},
		{"not an object", `"just a string"`},
		{"missing credential", `{"role":"admin","name":"x"}`},
		{"empty credential", `{"token":"","role":"admin"}`},
		{"missing role", `{"token":"tok"}`},
		{"unknown role", `{"token":"tok","role":"superuser"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(NewMemoryStorage([]byte(tt.record)))

			require.NotPanics(t, func() { store.Initialize(context.Background()) })

			assert.False(t, store.Loading())
			assert.False(t, store.IsAuthenticated())
		})
	}
}

func TestInitializeEndsLoadingOnce(t *testing.T) {
	store := newTestStore(NewMemoryStorage(nil))

	var mu sync.Mutex
	var loadingTransitions int
	store.Subscribe(func(st State) {
		mu.Lock()
		defer mu.Unlock()
		if !st.Loading {
			loadingTransitions++
		}
	})

	store.Initialize(context.Background())
	store.Initialize(context.Background())

	assert.Equal(t, 1, loadingTransitions)
	assert.False(t, store.Loading())
}

func TestInitializeKeepsChangesMadeWhileRestoring(t *testing.T) {
	old, err := json.Marshal(studentSession())
	require.NoError(t, err)

	tests := []struct {
		name   string
		change func(*Store) error
		want   *Session
	}{
		{
			name: "login",
			change: func(s *Store) error {
				return s.Login(context.Background(), Session{Credential: "new", Role: RoleAdmin})
			},
			want: &Session{Credential: "new", Role: RoleAdmin},
		},
		{
			name:   "logout",
			change: func(s *Store) error { return s.Logout(context.Background()) },
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := newBlockingStorage(old)
			store := newTestStore(storage)

			done := make(chan struct{})
			go func() {
				store.Initialize(context.Background())
				close(done)
			}()

			<-storage.loading
			require.NoError(t, tt.change(store))
			close(storage.release)
			<-done

			assert.False(t, store.Loading())
			assert.Equal(t, tt.want, store.Current())
		})
	}
}

func TestLoginIsImmediatelyVisible(t *testing.T) {
	store := newTestStore(NewMemoryStorage(nil))
	store.Initialize(context.Background())

	require.NoError(t, store.Login(context.Background(), studentSession()))

	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, "tokXYZ", store.Credential())
	assert.Equal(t, RoleStudent, store.Current().Role)
}

func TestLoginRequiresCredentialAndRole(t *testing.T) {
	store := newTestStore(NewMemoryStorage(nil))
	store.Initialize(context.Background())

	err := store.Login(context.Background(), Session{Role: RoleAdmin})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSessionPayload))

	err = store.Login(context.Background(), Session{Credential: "tok"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSessionPayload))

	assert.False(t, store.IsAuthenticated())
}

func TestLoginRoundTripsThroughStorage(t *testing.T) {
	storage := NewFileStorage(filepath.Join(t.TempDir(), "nested", "session.json"))

	first := newTestStore(storage)
	first.Initialize(context.Background())
	payload := studentSession()
	payload.Email = "alex@college.edu"
	payload.AvatarURL = "https://example.com/a.png"
	require.NoError(t, first.Login(context.Background(), payload))

	reloaded := newTestStore(storage)
	reloaded.Initialize(context.Background())

	require.True(t, reloaded.IsAuthenticated())
	assert.Equal(t, payload, *reloaded.Current())
}

func TestLoginKeepsSessionWhenPersistFails(t *testing.T) {
	writeErr := errors.New("quota exceeded")
	store := newTestStore(&failingStorage{err: writeErr})
	store.Initialize(context.Background())

	err := store.Login(context.Background(), studentSession())

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSessionWrite))
	assert.ErrorIs(t, err, writeErr)
	assert.True(t, store.IsAuthenticated(), "session must remain usable for the current process")
}

func TestLogoutClearsMemoryAndStorage(t *testing.T) {
	storage := NewMemoryStorage(nil)
	store := newTestStore(storage)
	store.Initialize(context.Background())
	require.NoError(t, store.Login(context.Background(), studentSession()))

	require.NoError(t, store.Logout(context.Background()))

	assert.False(t, store.IsAuthenticated())
	assert.Empty(t, store.Credential())
	_, err := storage.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogoutIsIdempotent(t *testing.T) {
	store := newTestStore(NewMemoryStorage(nil))
	store.Initialize(context.Background())

	var notified int
	store.Subscribe(func(State) { notified++ })

	assert.NoError(t, store.Logout(context.Background()))
	assert.NoError(t, store.Logout(context.Background()))

	assert.False(t, store.IsAuthenticated())
	assert.Zero(t, notified, "no state change means no notification")
}

func TestLogoutReportsStorageFailure(t *testing.T) {
	store := newTestStore(&failingStorage{err: errors.New("read-only")})
	store.Initialize(context.Background())
	_ = store.Login(context.Background(), studentSession())

	err := store.Logout(context.Background())

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSessionClear))
	assert.False(t, store.IsAuthenticated())
}

func TestCurrentReturnsCopy(t *testing.T) {
	store := newTestStore(NewMemoryStorage(nil))
	store.Initialize(context.Background())
	require.NoError(t, store.Login(context.Background(), studentSession()))

	current := store.Current()
	current.Role = RoleAdmin
	current.Credential = "forged"

	assert.Equal(t, RoleStudent, store.Current().Role)
	assert.Equal(t, "tokXYZ", store.Credential())
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	store := newTestStore(NewMemoryStorage(nil))
	var states []State
	unsubscribe := store.Subscribe(func(st State) { states = append(states, st) })

	store.Initialize(context.Background())
	require.NoError(t, store.Login(context.Background(), studentSession()))
	unsubscribe()
	require.NoError(t, store.Logout(context.Background()))

	require.Len(t, states, 2)
	assert.False(t, states[0].Loading)
	assert.False(t, states[0].IsAuthenticated())
	assert.True(t, states[1].IsAuthenticated())
}

func TestPersistedRecordUsesPayloadShape(t *testing.T) {
	storage := NewMemoryStorage(nil)
	store := newTestStore(storage)
	store.Initialize(context.Background())
	require.NoError(t, store.Login(context.Background(), studentSession()))

	data, err := storage.Load(context.Background())
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "tokXYZ", raw["token"])
	assert.Equal(t, "student", raw["role"])
	assert.Equal(t, "u1", raw["_id"])
}
