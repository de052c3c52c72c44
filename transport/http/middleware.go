package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/calyptra/gatehouse/core"
	"github.com/calyptra/gatehouse/service"
)

const principalKey = "principal"

// RequireAuth validates the Authorization header through the gate and
// attaches the Principal to the request context.
func RequireAuth(gate *service.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := gate.Authenticate(c.Request.Context(), c.GetHeader(core.AuthHeader))
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated principal carries
// the role. Must run after RequireAuth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok || !principal.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the Principal set by RequireAuth.
func GetPrincipal(c *gin.Context) (*core.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	principal, ok := value.(*core.Principal)
	return principal, ok
}

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// clientKey identifies the device behind a request: an explicit device
// header when the client sends one, the peer IP otherwise.
func clientKey(c *gin.Context) string {
	if key := c.GetHeader("X-Device-ID"); key != "" {
		return key
	}
	return c.ClientIP()
}
