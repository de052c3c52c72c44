package codec

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/calyptra/gatehouse/core"
	"github.com/calyptra/gatehouse/ports"
)

// Codec implements ports.TokenCodec using HMAC-SHA512 signed JWTs with a
// per-deployment shared secret. The token purpose is bound into the audience
// claim and checked on every verification.
type Codec struct {
	secret []byte
	now    func() time.Time
}

var _ ports.TokenCodec = (*Codec)(nil)

// ErrMissingSecret is returned by New when no signing secret is configured.
var ErrMissingSecret = errors.New("codec: signing secret is not configured")

// New creates a codec signing with the given secret.
func New(secret []byte) (*Codec, error) {
	return NewWithTimeFunc(secret, time.Now)
}

// NewWithTimeFunc creates a codec with an explicit clock, used by tests to
// exercise expiry without waiting.
func NewWithTimeFunc(secret []byte, now func() time.Time) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	return &Codec{secret: secret, now: now}, nil
}

// Mint creates a signed token for subject with the given purpose and TTL.
// The jti claim makes every minted token unique even within one second.
func (c *Codec) Mint(subject string, purpose core.TokenPurpose, ttl time.Duration) (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{string(purpose)},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.New().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString(c.secret)
}

// Verify parses the token, checks the signature, expiry, and that it was
// minted for the given purpose. It returns the subject and timestamps.
func (c *Codec) Verify(token string, purpose core.TokenPurpose) (core.TokenInfo, error) {
	parsed, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, core.ErrInvalidSignature
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithAudience(string(purpose)),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return core.TokenInfo{}, translateParseError(err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return core.TokenInfo{}, core.ErrMalformed
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return core.TokenInfo{}, core.ErrMalformed
	}

	return core.TokenInfo{
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// translateParseError maps jwt parse failures onto the error taxonomy. A
// purpose (audience) mismatch counts as malformed: the token is not valid
// for the presented use.
func translateParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return core.ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return core.ErrInvalidSignature
	default:
		return core.ErrMalformed
	}
}
