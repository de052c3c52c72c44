package userstore

import (
	"context"
	"sort"
	"sync"

	"github.com/calyptra/gatehouse/core"
	"github.com/calyptra/gatehouse/ports"
)

// MemoryStore is an in-memory UserStore for tests and single-node
// development. It returns copies so callers cannot mutate stored records
// without going through Save.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*core.User // by username
}

var _ ports.UserStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*core.User)}
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[username]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (s *MemoryStore) FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[usernameOrEmail]; ok {
		return cloneUser(u), nil
	}
	for _, u := range s.users {
		if u.Email == usernameOrEmail {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindAllByUsernames(ctx context.Context, usernames []string) ([]*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var users []*core.User
	for _, name := range usernames {
		if u, ok := s.users[name]; ok {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

func (s *MemoryStore) FindAll(ctx context.Context) ([]*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*core.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *MemoryStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.users[username]; ok {
		return true, nil
	}
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Create(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Username] = cloneUser(u)
	return nil
}

// Save replaces the stored record matching the user's ID. The username may
// have changed, so the lookup goes by ID.
func (s *MemoryStore) Save(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, existing := range s.users {
		if existing.ID == u.ID {
			delete(s.users, name)
			break
		}
	}
	s.users[u.Username] = cloneUser(u)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, username)
	return nil
}

func cloneUser(u *core.User) *core.User {
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	return &c
}
