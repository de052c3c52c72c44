package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calyptra/gatehouse/core"
)

func TestLoginIssuesTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "hunter2")

	res, err := env.manager.Login(ctx, "alice", "hunter2", "10.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	require.Equal(t, "alice", res.User.Username)

	principal, err := env.gate.Authenticate(ctx, core.BearerPrefix+res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "alice", principal.Username)
}

func TestLoginByEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "hunter2")

	res, err := env.manager.Login(context.Background(), "alice@example.com", "hunter2", "10.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "hunter2")

	disabled := env.seedUser(t, "bob", "pw")
	disabled.Activated = false
	require.NoError(t, env.users.Save(ctx, disabled))

	locked := env.seedUser(t, "carol", "pw")
	locked.NonLocked = false
	require.NoError(t, env.users.Save(ctx, locked))

	_, err := env.manager.Login(ctx, "nobody", "pw", "10.0.0.1")
	require.ErrorIs(t, err, core.ErrInvalidCredentials)

	_, err = env.manager.Login(ctx, "alice", "wrong", "10.0.0.1")
	require.ErrorIs(t, err, core.ErrInvalidCredentials)

	_, err = env.manager.Login(ctx, "bob", "pw", "10.0.0.1")
	require.ErrorIs(t, err, core.ErrAccountDisabled)

	_, err = env.manager.Login(ctx, "carol", "pw", "10.0.0.1")
	require.ErrorIs(t, err, core.ErrAccountLocked)
}

func TestLoginReusesRefreshSessionPerClient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "hunter2")

	first, err := env.manager.Login(ctx, "alice", "hunter2", "10.0.0.1")
	require.NoError(t, err)
	second, err := env.manager.Login(ctx, "alice", "hunter2", "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, first.RefreshToken, second.RefreshToken,
		"same client key must reuse the refresh session")

	other, err := env.manager.Login(ctx, "alice", "hunter2", "10.0.0.2")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, other.RefreshToken,
		"a different client key gets its own refresh token")
}

func TestRefreshMintsNewAccessToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "hunter2")

	res, err := env.manager.Login(ctx, "alice", "hunter2", "10.0.0.1")
	require.NoError(t, err)

	access, err := env.manager.Refresh(ctx, res.RefreshToken, "10.0.0.1")
	require.NoError(t, err)

	principal, err := env.gate.Authenticate(ctx, core.BearerPrefix+access)
	require.NoError(t, err)
	require.Equal(t, "alice", principal.Username)

	// Refresh does not rotate the refresh token.
	again, err := env.manager.Login(ctx, "alice", "hunter2", "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, res.RefreshToken, again.RefreshToken)
}

func TestRefreshRejectsWrongClientAndPurpose(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "hunter2")

	res, err := env.manager.Login(ctx, "alice", "hunter2", "10.0.0.1")
	require.NoError(t, err)

	// No session exists for this client key.
	_, err = env.manager.Refresh(ctx, res.RefreshToken, "10.0.0.9")
	require.ErrorIs(t, err, core.ErrRevoked)

	// An access token is not a refresh token.
	_, err = env.manager.Refresh(ctx, res.AccessToken, "10.0.0.1")
	require.ErrorIs(t, err, core.ErrMalformed)
}

func TestLogoutDeviceRevokesOnlyThatDevice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "hunter2")

	laptop, err := env.manager.Login(ctx, "alice", "hunter2", "laptop")
	require.NoError(t, err)
	phone, err := env.manager.Login(ctx, "alice", "hunter2", "phone")
	require.NoError(t, err)

	require.NoError(t, env.manager.LogoutDevice(ctx, laptop.AccessToken, "laptop"))

	// The logged-out access token is blacklisted even though its
	// signature and expiry are still valid.
	_, err = env.gate.Authenticate(ctx, core.BearerPrefix+laptop.AccessToken)
	require.ErrorIs(t, err, core.ErrRevoked)

	// Its refresh session is gone.
	_, err = env.manager.Refresh(ctx, laptop.RefreshToken, "laptop")
	require.ErrorIs(t, err, core.ErrRevoked)

	// The other device is untouched.
	_, err = env.gate.Authenticate(ctx, core.BearerPrefix+phone.AccessToken)
	require.NoError(t, err)
	_, err = env.manager.Refresh(ctx, phone.RefreshToken, "phone")
	require.NoError(t, err)
}

func TestLogoutEverywhere(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "hunter2")

	laptop, err := env.manager.Login(ctx, "alice", "hunter2", "laptop")
	require.NoError(t, err)
	phone, err := env.manager.Login(ctx, "alice", "hunter2", "phone")
	require.NoError(t, err)

	env.clock.Advance(2 * time.Second)
	require.NoError(t, env.manager.LogoutEverywhere(ctx, "alice"))

	// Every access token issued before the cutoff is rejected without a
	// blacklist entry per token.
	_, err = env.gate.Authenticate(ctx, core.BearerPrefix+laptop.AccessToken)
	require.ErrorIs(t, err, core.ErrRevoked)
	_, err = env.gate.Authenticate(ctx, core.BearerPrefix+phone.AccessToken)
	require.ErrorIs(t, err, core.ErrRevoked)

	// All refresh sessions are gone.
	_, err = env.manager.Refresh(ctx, laptop.RefreshToken, "laptop")
	require.ErrorIs(t, err, core.ErrRevoked)
	_, err = env.manager.Refresh(ctx, phone.RefreshToken, "phone")
	require.ErrorIs(t, err, core.ErrRevoked)

	// A login after the cutoff works.
	env.clock.Advance(2 * time.Second)
	fresh, err := env.manager.Login(ctx, "alice", "hunter2", "laptop")
	require.NoError(t, err)
	_, err = env.gate.Authenticate(ctx, core.BearerPrefix+fresh.AccessToken)
	require.NoError(t, err)
}

func TestSessionsListing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "hunter2")

	_, err := env.manager.Login(ctx, "alice", "hunter2", "laptop")
	require.NoError(t, err)
	_, err = env.manager.Login(ctx, "alice", "hunter2", "phone")
	require.NoError(t, err)

	sessions, err := env.manager.Sessions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	keys := []string{sessions[0].ClientKey, sessions[1].ClientKey}
	require.ElementsMatch(t, []string{"laptop", "phone"}, keys)
}

func TestLoginReplacesExpiredRefreshSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "hunter2")

	first, err := env.manager.Login(ctx, "alice", "hunter2", "laptop")
	require.NoError(t, err)

	// Past the refresh token's own expiry the stored session no longer
	// verifies; the next login mints a new one.
	env.clock.Advance(25 * time.Hour)
	second, err := env.manager.Login(ctx, "alice", "hunter2", "laptop")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestLogoutEventPublishFailureDoesNotFailLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "hunter2")

	res, err := env.manager.Login(ctx, "alice", "hunter2", "laptop")
	require.NoError(t, err)

	env.events.err = context.DeadlineExceeded
	require.NoError(t, env.manager.LogoutDevice(ctx, res.AccessToken, "laptop"))

	_, err = env.gate.Authenticate(ctx, core.BearerPrefix+res.AccessToken)
	require.ErrorIs(t, err, core.ErrRevoked)
}
