package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calyptra/gatehouse/core"
)

// errorMapping translates error kinds to transport responses. Order matters
// only in that the first match wins; the kinds are mutually exclusive.
type errorMapping struct {
	kind    error
	status  int
	message string
}

var errorTable = []errorMapping{
	{core.ErrMalformed, http.StatusUnauthorized, "Invalid authorization token"},
	{core.ErrInvalidSignature, http.StatusUnauthorized, "Invalid authorization token"},
	{core.ErrExpired, http.StatusUnauthorized, "Token expired"},
	{core.ErrRevoked, http.StatusUnauthorized, "Token has been revoked"},
	{core.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password"},
	{core.ErrAccountLocked, http.StatusForbidden, "Account is locked"},
	{core.ErrAccountDisabled, http.StatusForbidden, "Account is not activated"},
	{core.ErrDependencyUnavailable, http.StatusServiceUnavailable, "Service temporarily unavailable"},
	{core.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{core.ErrUsernameExists, http.StatusConflict, "Username already in use"},
	{core.ErrEmailExists, http.StatusConflict, "Email already in use"},
	{core.ErrWrongPassword, http.StatusBadRequest, "Wrong password"},
}

// writeError renders an error through the mapping table. Anything outside
// the taxonomy is a 500 with no detail leaked.
func writeError(c *gin.Context, err error) {
	for _, m := range errorTable {
		if errors.Is(err, m.kind) {
			c.AbortWithStatusJSON(m.status, gin.H{"error": m.message})
			return
		}
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
}
