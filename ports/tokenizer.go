package ports

import (
	"time"

	"github.com/calyptra/gatehouse/core"
)

// TokenCodec mints and verifies signed, self-contained tokens. Verification
// is pure: no I/O and no side effects, which is why a separate revocation
// layer exists for early invalidation.
type TokenCodec interface {
	// Mint encodes subject, issued-at and expires-at into a signed token
	// bound to the given purpose.
	Mint(subject string, purpose core.TokenPurpose, ttl time.Duration) (string, error)

	// Verify checks signature, expiry, and purpose binding. It fails with
	// core.ErrInvalidSignature, core.ErrExpired, or core.ErrMalformed.
	Verify(token string, purpose core.TokenPurpose) (core.TokenInfo, error)
}
