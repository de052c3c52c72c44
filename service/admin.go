package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/calyptra/gatehouse/core"
	"github.com/calyptra/gatehouse/ports"
)

// AdminService holds the admin operations that feed the gate's checks:
// activation, locking, and role assignment. Because the gate re-reads the
// user record on every request, each of these takes effect on the target's
// very next request, with no token invalidation round.
type AdminService struct {
	users ports.UserStore
	store ports.RevocationStore
	log   *zap.Logger
}

// NewAdminService creates an admin service.
func NewAdminService(users ports.UserStore, store ports.RevocationStore, log *zap.Logger) *AdminService {
	return &AdminService{users: users, store: store, log: log}
}

// FindAllUsers lists every account.
func (s *AdminService) FindAllUsers(ctx context.Context) ([]*core.User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, depErr(err)
	}
	return users, nil
}

// ChangeRoles replaces the role set of each named user.
func (s *AdminService) ChangeRoles(ctx context.Context, usernames, roles []string) error {
	return s.updateEach(ctx, usernames, func(u *core.User) {
		u.Roles = append([]string(nil), roles...)
	})
}

// Lock locks the named accounts; they fail authentication until unlocked.
func (s *AdminService) Lock(ctx context.Context, usernames []string) error {
	return s.updateEach(ctx, usernames, func(u *core.User) { u.NonLocked = false })
}

// Unlock unlocks the named accounts.
func (s *AdminService) Unlock(ctx context.Context, usernames []string) error {
	return s.updateEach(ctx, usernames, func(u *core.User) { u.NonLocked = true })
}

// Activate activates the named accounts without a confirmation token.
func (s *AdminService) Activate(ctx context.Context, usernames []string) error {
	return s.updateEach(ctx, usernames, func(u *core.User) { u.Activated = true })
}

// Deactivate disables the named accounts.
func (s *AdminService) Deactivate(ctx context.Context, usernames []string) error {
	return s.updateEach(ctx, usernames, func(u *core.User) { u.Activated = false })
}

// Delete removes the named accounts and their refresh sessions.
func (s *AdminService) Delete(ctx context.Context, usernames []string) error {
	for _, username := range usernames {
		if err := s.users.Delete(ctx, username); err != nil {
			return depErr(err)
		}
		if err := s.store.DeleteAllRefreshSessions(ctx, username); err != nil {
			return depErr(err)
		}
	}
	return nil
}

func (s *AdminService) updateEach(ctx context.Context, usernames []string, mutate func(*core.User)) error {
	users, err := s.users.FindAllByUsernames(ctx, usernames)
	if err != nil {
		return depErr(err)
	}
	for _, user := range users {
		mutate(user)
		user.UpdatedAt = time.Now().UTC()
		if err := s.users.Save(ctx, user); err != nil {
			return depErr(err)
		}
	}
	return nil
}
