package core

import (
	"slices"
	"time"
)

// Role names assigned to users and carried on the Principal.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// User is the account record as the auth subsystem sees it.
type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Roles        []string
	Activated    bool
	NonLocked    bool

	// LogoutAt is the "logged out from all devices at" instant. Access
	// tokens issued before it are rejected; zero means never set.
	LogoutAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal is the authenticated identity attached to a request. Roles come
// from the user record at authentication time, never from token claims.
type Principal struct {
	Username string
	Roles    []string
}

// HasRole reports whether the principal carries the given role.
func (p *Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}
