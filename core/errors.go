package core

import "errors"

// Authentication failure kinds. Every failure surfaced by the token codec,
// the gate, and the session manager is one of these; the transport layer
// maps them to status codes and messages.
var (
	// ErrMalformed is returned when a token is not well formed, carries no
	// scheme prefix, or was presented for the wrong purpose.
	ErrMalformed = errors.New("malformed token")

	// ErrInvalidSignature is returned when a token is tampered or signed
	// with the wrong secret.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrExpired is returned when a token is past its expiry.
	ErrExpired = errors.New("token has expired")

	// ErrRevoked is returned when a token is blacklisted, issued before
	// the user's logout-everywhere cutoff, or its refresh session is gone.
	ErrRevoked = errors.New("token has been revoked")

	// ErrInvalidCredentials is returned on a failed username/password check.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountLocked is returned when the account is locked by an admin.
	ErrAccountLocked = errors.New("account is locked")

	// ErrAccountDisabled is returned when the account is not activated.
	ErrAccountDisabled = errors.New("account is not activated")

	// ErrDependencyUnavailable is returned when the revocation store or the
	// user store cannot be reached. It is the only kind worth retrying.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Account management failure kinds.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already in use")
	ErrEmailExists    = errors.New("email already in use")
	ErrWrongPassword  = errors.New("wrong password")
)
