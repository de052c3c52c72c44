package core

import (
	"strings"
	"time"
)

// TokenPurpose identifies what a signed token may be used for. The purpose is
// bound into the token at mint time and checked on every verification, so a
// token minted for one purpose cannot be replayed as another.
type TokenPurpose string

const (
	// PurposeAccess authorizes API requests.
	PurposeAccess TokenPurpose = "auth:access"

	// PurposeRefresh is exchanged for a new access token.
	PurposeRefresh TokenPurpose = "auth:refresh"

	// PurposeConfirmRegistration activates a freshly registered account.
	PurposeConfirmRegistration TokenPurpose = "auth:confirm-registration"

	// PurposeForgotPassword authorizes a password reset.
	PurposeForgotPassword TokenPurpose = "auth:forgot-password"
)

// BearerPrefix is the scheme prefix tokens carry on the wire.
const BearerPrefix = "Bearer "

// AuthHeader is the HTTP header tokens are transmitted in.
const AuthHeader = "Authorization"

// StripBearer removes the scheme prefix from a token string. It is a no-op
// when the prefix is absent.
func StripBearer(token string) string {
	return strings.TrimPrefix(token, BearerPrefix)
}

// TokenInfo is the verified content of a signed token.
type TokenInfo struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RefreshSession is an active refresh-token session for one (user, client
// key) pair. Sessions live in the revocation store with a TTL mirroring the
// refresh token's expiry.
type RefreshSession struct {
	ClientKey string
	Token     string
}
