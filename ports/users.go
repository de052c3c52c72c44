package ports

import (
	"context"

	"github.com/calyptra/gatehouse/core"
)

// UserStore is the account repository. Lookups return (nil, nil) when no
// user matches; errors are reserved for store failures.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*core.User, error)
	FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*core.User, error)
	FindAllByUsernames(ctx context.Context, usernames []string) ([]*core.User, error)
	FindAll(ctx context.Context) ([]*core.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, user *core.User) error
	Save(ctx context.Context, user *core.User) error
	Delete(ctx context.Context, username string) error
}

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Matches(plain, hash string) bool
}
