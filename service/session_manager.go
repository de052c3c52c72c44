package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/calyptra/gatehouse/core"
	"github.com/calyptra/gatehouse/ports"
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// LoginResult is returned on a successful login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *core.User
}

// SessionManager orchestrates login, refresh, and logout. It owns no state
// of its own: refresh sessions and blacklist entries live in the revocation
// store, the logout cutoff on the user record.
type SessionManager struct {
	users  ports.UserStore
	store  ports.RevocationStore
	codec  ports.TokenCodec
	hasher ports.PasswordHasher
	events ports.EventPublisher
	log    *zap.Logger

	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

// NewSessionManager creates a session manager with the given dependencies
// and token lifetimes. Non-positive lifetimes select the defaults.
func NewSessionManager(
	users ports.UserStore,
	store ports.RevocationStore,
	codec ports.TokenCodec,
	hasher ports.PasswordHasher,
	events ports.EventPublisher,
	log *zap.Logger,
	accessTTL, refreshTTL time.Duration,
) *SessionManager {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &SessionManager{
		users:      users,
		store:      store,
		codec:      codec,
		hasher:     hasher,
		events:     events,
		log:        log,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Login verifies credentials and returns an access token plus a refresh
// token. An unexpired refresh session for the same (user, clientKey) is
// reused, so repeated logins from one device do not pile up refresh tokens.
func (m *SessionManager) Login(ctx context.Context, usernameOrEmail, password, clientKey string) (*LoginResult, error) {
	user, err := m.users.FindByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return nil, depErr(err)
	}
	if user == nil || !m.hasher.Matches(password, user.PasswordHash) {
		return nil, core.ErrInvalidCredentials
	}
	if !user.Activated {
		return nil, core.ErrAccountDisabled
	}
	if !user.NonLocked {
		return nil, core.ErrAccountLocked
	}

	access, err := m.codec.Mint(user.Username, core.PurposeAccess, m.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := m.store.FindRefreshSession(ctx, user.Username, clientKey)
	if err != nil {
		return nil, depErr(err)
	}
	if refresh != "" {
		// The session may outlive the token's own expiry by a hair;
		// discard it when the stored token no longer verifies.
		if _, err := m.codec.Verify(refresh, core.PurposeRefresh); err != nil {
			refresh = ""
		}
	}
	if refresh == "" {
		refresh, err = m.codec.Mint(user.Username, core.PurposeRefresh, m.refreshTTL)
		if err != nil {
			return nil, err
		}
		if err := m.store.PutRefreshSession(ctx, user.Username, clientKey, refresh, m.refreshTTL); err != nil {
			return nil, depErr(err)
		}
	}

	return &LoginResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// Refresh exchanges a refresh token for a new access token. The presented
// token must match the session stored for (subject, clientKey); a
// signature-valid token whose session is gone has been revoked. The refresh
// token itself is not rotated.
func (m *SessionManager) Refresh(ctx context.Context, refreshToken, clientKey string) (string, error) {
	raw := core.StripBearer(refreshToken)
	info, err := m.codec.Verify(raw, core.PurposeRefresh)
	if err != nil {
		return "", err
	}

	stored, err := m.store.FindRefreshSession(ctx, info.Subject, clientKey)
	if err != nil {
		return "", depErr(err)
	}
	if stored == "" || stored != raw {
		return "", core.ErrRevoked
	}

	return m.codec.Mint(info.Subject, core.PurposeAccess, m.accessTTL)
}

// LogoutDevice revokes one device's session: the access token is
// blacklisted for its remaining lifetime and the (user, clientKey) refresh
// session is deleted. Other devices of the same user stay logged in.
func (m *SessionManager) LogoutDevice(ctx context.Context, accessToken, clientKey string) error {
	raw := core.StripBearer(accessToken)
	info, err := m.codec.Verify(raw, core.PurposeAccess)
	if err != nil {
		return err
	}

	if ttl := time.Until(info.ExpiresAt); ttl > 0 {
		if err := m.store.Blacklist(ctx, raw, ttl); err != nil {
			return depErr(err)
		}
	}
	if err := m.store.DeleteRefreshSession(ctx, info.Subject, clientKey); err != nil {
		return depErr(err)
	}

	if err := m.events.PublishLogout(ctx, info.Subject, clientKey); err != nil {
		m.log.Warn("failed to publish logout event",
			zap.String("username", info.Subject), zap.Error(err))
	}
	return nil
}

// LogoutEverywhere invalidates every outstanding token of the user: the
// logout cutoff on the user record kills all pre-existing access tokens
// without enumerating them, and all refresh sessions are deleted.
func (m *SessionManager) LogoutEverywhere(ctx context.Context, username string) error {
	user, err := m.users.FindByUsername(ctx, username)
	if err != nil {
		return depErr(err)
	}
	if user == nil {
		return core.ErrRevoked
	}

	// Truncated to seconds to match JWT iat granularity, so a login in the
	// same second as the cutoff is not retroactively revoked.
	user.LogoutAt = m.now().Truncate(time.Second)
	user.UpdatedAt = m.now()
	if err := m.users.Save(ctx, user); err != nil {
		return depErr(err)
	}

	if err := m.store.DeleteAllRefreshSessions(ctx, username); err != nil {
		return depErr(err)
	}

	if err := m.events.PublishLogoutEverywhere(ctx, username); err != nil {
		m.log.Warn("failed to publish logout-everywhere event",
			zap.String("username", username), zap.Error(err))
	}
	return nil
}

// Sessions lists the user's active refresh sessions.
func (m *SessionManager) Sessions(ctx context.Context, username string) ([]core.RefreshSession, error) {
	sessions, err := m.store.AllRefreshSessions(ctx, username)
	if err != nil {
		return nil, depErr(err)
	}
	return sessions, nil
}

// depErr marks a store or user-store failure as retryable, distinct from
// authentication failure.
func depErr(err error) error {
	return fmt.Errorf("%w: %v", core.ErrDependencyUnavailable, err)
}
