package hasher

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/calyptra/gatehouse/ports"
)

// Bcrypt implements ports.PasswordHasher with bcrypt. Cost 12 is a
// reasonable default for interactive login.
type Bcrypt struct {
	cost int
}

var _ ports.PasswordHasher = (*Bcrypt)(nil)

// NewBcrypt returns a hasher with the given cost, clamped to bcrypt's
// supported range. Cost <= 0 selects the library default.
func NewBcrypt(cost int) *Bcrypt {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Bcrypt{cost: cost}
}

// Hash produces a bcrypt hash of the password.
func (h *Bcrypt) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Matches reports whether plain matches the stored hash.
func (h *Bcrypt) Matches(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
