package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calyptra/gatehouse/core"
)

func TestAdminFindAllUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "pw")
	env.seedUser(t, "bob", "pw")

	users, err := env.admin.FindAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "alice", users[0].Username)
	require.Equal(t, "bob", users[1].Username)
}

func TestAdminChangeRolesBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "pw")
	env.seedUser(t, "bob", "pw")

	err := env.admin.ChangeRoles(ctx, []string{"alice", "bob"}, []string{core.RoleUser, core.RoleAdmin})
	require.NoError(t, err)

	for _, name := range []string{"alice", "bob"} {
		u, err := env.users.FindByUsername(ctx, name)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{core.RoleUser, core.RoleAdmin}, u.Roles)
	}
}

func TestAdminLockUnlock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "pw")

	require.NoError(t, env.admin.Lock(ctx, []string{"alice"}))
	_, err := env.manager.Login(ctx, "alice", "pw", "laptop")
	require.ErrorIs(t, err, core.ErrAccountLocked)

	require.NoError(t, env.admin.Unlock(ctx, []string{"alice"}))
	_, err = env.manager.Login(ctx, "alice", "pw", "laptop")
	require.NoError(t, err)
}

func TestAdminDeleteRemovesSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "pw")

	res, err := env.manager.Login(ctx, "alice", "pw", "laptop")
	require.NoError(t, err)

	require.NoError(t, env.admin.Delete(ctx, []string{"alice"}))

	u, err := env.users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Nil(t, u)

	_, err = env.manager.Refresh(ctx, res.RefreshToken, "laptop")
	require.ErrorIs(t, err, core.ErrRevoked)
}

func TestAdminOperationsIgnoreUnknownUsernames(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "pw")

	require.NoError(t, env.admin.Lock(ctx, []string{"alice", "ghost"}))

	u, err := env.users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.False(t, u.NonLocked)
}
