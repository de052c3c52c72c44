package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/calyptra/gatehouse/core"
	"github.com/calyptra/gatehouse/ports"
)

type entry struct {
	value     string
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryStore is an in-memory RevocationStore for tests and single-node
// development. Entries expire lazily on read, mirroring Redis TTL semantics:
// an expired entry is indistinguishable from an absent one.
type MemoryStore struct {
	mu        sync.RWMutex
	blacklist map[string]entry
	sessions  map[string]entry
}

var _ ports.RevocationStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory revocation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blacklist: make(map[string]entry),
		sessions:  make(map[string]entry),
	}
}

// Blacklist marks an access token as revoked for ttl.
func (s *MemoryStore) Blacklist(ctx context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist[token] = entry{value: "1", expiresAt: time.Now().Add(ttl)}
	return nil
}

// IsBlacklisted reports whether the token has an unexpired blacklist entry.
func (s *MemoryStore) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.blacklist[token]
	if !ok || e.expired(time.Now()) {
		return false, nil
	}
	return true, nil
}

// FindRefreshSession returns the refresh token for the pair, or "".
func (s *MemoryStore) FindRefreshSession(ctx context.Context, username, clientKey string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sessionKey(username, clientKey)]
	if !ok || e.expired(time.Now()) {
		return "", nil
	}
	return e.value, nil
}

// PutRefreshSession stores the refresh token for the pair, replacing any
// existing session.
func (s *MemoryStore) PutRefreshSession(ctx context.Context, username, clientKey, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionKey(username, clientKey)] = entry{value: token, expiresAt: time.Now().Add(ttl)}
	return nil
}

// DeleteRefreshSession removes the session for the pair.
func (s *MemoryStore) DeleteRefreshSession(ctx context.Context, username, clientKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey(username, clientKey))
	return nil
}

// AllRefreshSessions returns every unexpired session for the user.
func (s *MemoryStore) AllRefreshSessions(ctx context.Context, username string) ([]core.RefreshSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	prefix := sessionKey(username, "")
	var sessions []core.RefreshSession
	for key, e := range s.sessions {
		if !strings.HasPrefix(key, prefix) || e.expired(now) {
			continue
		}
		sessions = append(sessions, core.RefreshSession{
			ClientKey: strings.TrimPrefix(key, prefix),
			Token:     e.value,
		})
	}
	return sessions, nil
}

// DeleteAllRefreshSessions removes every session for the user.
func (s *MemoryStore) DeleteAllRefreshSessions(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := sessionKey(username, "")
	for key := range s.sessions {
		if strings.HasPrefix(key, prefix) {
			delete(s.sessions, key)
		}
	}
	return nil
}

func sessionKey(username, clientKey string) string {
	return username + ":" + clientKey
}
