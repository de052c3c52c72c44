package ports

import (
	"context"
	"time"

	"github.com/calyptra/gatehouse/core"
)

// RevocationStore holds blacklisted access tokens and per-(user, client key)
// refresh sessions. Every entry carries a TTL equal to the token's remaining
// validity; expiry is delegated to the store, so absence is a valid terminal
// state reached without an explicit delete.
type RevocationStore interface {
	// Blacklist records an access token as revoked for ttl. The insert is
	// idempotent; a repeated call overwrites the TTL.
	Blacklist(ctx context.Context, token string, ttl time.Duration) error

	// IsBlacklisted reports whether the token has an active blacklist entry.
	IsBlacklisted(ctx context.Context, token string) (bool, error)

	// FindRefreshSession returns the refresh token stored for the pair, or
	// "" when no session exists.
	FindRefreshSession(ctx context.Context, username, clientKey string) (string, error)

	// PutRefreshSession stores the refresh token for the pair, overwriting
	// any existing session. One session per (username, clientKey).
	PutRefreshSession(ctx context.Context, username, clientKey, token string, ttl time.Duration) error

	// DeleteRefreshSession removes the session for the pair, if any.
	DeleteRefreshSession(ctx context.Context, username, clientKey string) error

	// AllRefreshSessions returns every active session for the user.
	AllRefreshSessions(ctx context.Context, username string) ([]core.RefreshSession, error)

	// DeleteAllRefreshSessions removes every session for the user.
	DeleteAllRefreshSessions(ctx context.Context, username string) error
}
