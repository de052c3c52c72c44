package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/calyptra/gatehouse/core"
	"github.com/calyptra/gatehouse/ports"
)

const (
	blacklistPrefix = "gatehouse:blacklist:"
	refreshPrefix   = "gatehouse:refresh:"
	scanBatch       = 100
)

// RedisStore is a Redis implementation of the RevocationStore. Blacklist
// entries are keyed by the raw token string; refresh sessions by
// (username, clientKey). TTL expiry is left to Redis.
type RedisStore struct {
	client *redis.Client
}

var _ ports.RevocationStore = (*RedisStore)(nil)

// NewRedisStore creates a new Redis revocation store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Blacklist marks an access token as revoked for ttl.
func (s *RedisStore) Blacklist(ctx context.Context, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, blacklistPrefix+token, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// IsBlacklisted checks whether the token has an active blacklist entry.
func (s *RedisStore) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return n > 0, nil
}

// FindRefreshSession returns the stored refresh token for the pair, or ""
// when no session exists.
func (s *RedisStore) FindRefreshSession(ctx context.Context, username, clientKey string) (string, error) {
	token, err := s.client.Get(ctx, refreshKey(username, clientKey)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find refresh session: %w", err)
	}
	return token, nil
}

// PutRefreshSession stores the refresh token for the pair with ttl, replacing
// any existing session.
func (s *RedisStore) PutRefreshSession(ctx context.Context, username, clientKey, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshKey(username, clientKey), token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to put refresh session: %w", err)
	}
	return nil
}

// DeleteRefreshSession removes the session for the pair.
func (s *RedisStore) DeleteRefreshSession(ctx context.Context, username, clientKey string) error {
	if err := s.client.Del(ctx, refreshKey(username, clientKey)).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh session: %w", err)
	}
	return nil
}

// AllRefreshSessions returns every active session for the user.
func (s *RedisStore) AllRefreshSessions(ctx context.Context, username string) ([]core.RefreshSession, error) {
	keys, err := s.userSessionKeys(ctx, username)
	if err != nil {
		return nil, err
	}

	sessions := make([]core.RefreshSession, 0, len(keys))
	for _, key := range keys {
		token, err := s.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			// Expired between SCAN and GET.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load refresh session: %w", err)
		}
		sessions = append(sessions, core.RefreshSession{
			ClientKey: strings.TrimPrefix(key, refreshPrefix+username+":"),
			Token:     token,
		})
	}
	return sessions, nil
}

// DeleteAllRefreshSessions removes every session for the user.
func (s *RedisStore) DeleteAllRefreshSessions(ctx context.Context, username string) error {
	keys, err := s.userSessionKeys(ctx, username)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh sessions: %w", err)
	}
	return nil
}

func (s *RedisStore) userSessionKeys(ctx context.Context, username string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	match := refreshKey(username, "*")
	for {
		batch, next, err := s.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan refresh sessions: %w", err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func refreshKey(username, clientKey string) string {
	return refreshPrefix + username + ":" + clientKey
}
