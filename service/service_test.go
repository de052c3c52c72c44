package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/calyptra/gatehouse/adapters/codec"
	"github.com/calyptra/gatehouse/adapters/events"
	"github.com/calyptra/gatehouse/adapters/hasher"
	"github.com/calyptra/gatehouse/adapters/store"
	"github.com/calyptra/gatehouse/adapters/userstore"
	"github.com/calyptra/gatehouse/core"
)

// testClock is a controllable clock shared by the codec and the services.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type publishedEvent struct {
	kind     string
	username string
	token    string
}

// fakeEvents records published events; failures are injectable.
type fakeEvents struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakeEvents) record(kind, username, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{kind: kind, username: username, token: token})
	return nil
}

func (f *fakeEvents) PublishLogout(ctx context.Context, username, clientKey string) error {
	return f.record(events.TypeLogout, username, "")
}

func (f *fakeEvents) PublishLogoutEverywhere(ctx context.Context, username string) error {
	return f.record(events.TypeLogoutEverywhere, username, "")
}

func (f *fakeEvents) PublishRegistrationRequested(ctx context.Context, username, email, token string) error {
	return f.record(events.TypeRegistrationRequested, username, token)
}

func (f *fakeEvents) PublishPasswordResetRequested(ctx context.Context, username, email, token string) error {
	return f.record(events.TypePasswordResetRequested, username, token)
}

func (f *fakeEvents) lastToken(kind string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].kind == kind {
			return f.events[i].token
		}
	}
	return ""
}

type testEnv struct {
	clock    *testClock
	users    *userstore.MemoryStore
	store    *store.MemoryStore
	codec    *codec.Codec
	hasher   *hasher.Bcrypt
	events   *fakeEvents
	manager  *SessionManager
	gate     *Gate
	accounts *AccountService
	admin    *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// Anchored near real time so store TTLs computed against the wall
	// clock stay positive.
	clock := &testClock{t: time.Now().UTC().Truncate(time.Second)}

	cdc, err := codec.NewWithTimeFunc([]byte("test-secret"), clock.Now)
	require.NoError(t, err)

	env := &testEnv{
		clock:  clock,
		users:  userstore.NewMemoryStore(),
		store:  store.NewMemoryStore(),
		codec:  cdc,
		hasher: hasher.NewBcrypt(4),
		events: &fakeEvents{},
	}

	log := zap.NewNop()
	env.manager = NewSessionManager(env.users, env.store, env.codec, env.hasher, env.events, log, 15*time.Minute, 24*time.Hour)
	env.manager.now = clock.Now
	env.gate = NewGate(env.users, env.store, env.codec)
	env.accounts = NewAccountService(env.users, env.store, env.codec, env.hasher, env.events, log, 0, 0)
	env.accounts.now = clock.Now
	env.admin = NewAdminService(env.users, env.store, log)
	return env
}

// seedUser creates an activated, unlocked user with the given password.
func (env *testEnv) seedUser(t *testing.T, username, password string, roles ...string) *core.User {
	t.Helper()
	hash, err := env.hasher.Hash(password)
	require.NoError(t, err)
	if len(roles) == 0 {
		roles = []string{core.RoleUser}
	}
	now := env.clock.Now()
	user := &core.User{
		ID:           username + "-id",
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Roles:        roles,
		Activated:    true,
		NonLocked:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, env.users.Create(context.Background(), user))
	return user
}
