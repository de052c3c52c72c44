package service

import (
	"context"
	"strings"

	"github.com/calyptra/gatehouse/core"
	"github.com/calyptra/gatehouse/ports"
)

// Gate is the request-time authentication check. It verifies the token
// itself, then consults the revocation store and the user record for early
// invalidation the stateless token cannot express.
type Gate struct {
	users ports.UserStore
	store ports.RevocationStore
	codec ports.TokenCodec
}

// NewGate creates an authentication gate.
func NewGate(users ports.UserStore, store ports.RevocationStore, codec ports.TokenCodec) *Gate {
	return &Gate{users: users, store: store, codec: codec}
}

// Authenticate validates a raw Authorization header and returns the
// Principal. Roles are re-read from the user record on every call, never
// taken from token claims, so a role change applies on the next request.
func (g *Gate) Authenticate(ctx context.Context, header string) (*core.Principal, error) {
	if !strings.HasPrefix(header, core.BearerPrefix) {
		return nil, core.ErrMalformed
	}
	raw := core.StripBearer(header)

	info, err := g.codec.Verify(raw, core.PurposeAccess)
	if err != nil {
		return nil, err
	}

	blacklisted, err := g.store.IsBlacklisted(ctx, raw)
	if err != nil {
		return nil, depErr(err)
	}
	if blacklisted {
		return nil, core.ErrRevoked
	}

	user, err := g.users.FindByUsername(ctx, info.Subject)
	if err != nil {
		return nil, depErr(err)
	}
	if user == nil {
		return nil, core.ErrRevoked
	}
	if !user.LogoutAt.IsZero() && info.IssuedAt.Before(user.LogoutAt) {
		return nil, core.ErrRevoked
	}
	if !user.Activated {
		return nil, core.ErrAccountDisabled
	}
	if !user.NonLocked {
		return nil, core.ErrAccountLocked
	}

	return &core.Principal{
		Username: user.Username,
		Roles:    append([]string(nil), user.Roles...),
	}, nil
}
