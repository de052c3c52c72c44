package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/calyptra/gatehouse/core"
	"github.com/calyptra/gatehouse/service"
)

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(auth *AuthHandlers, admin *AdminHandlers, gate *service.Gate, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", auth.Register)
		authGroup.POST("/login", auth.Login)
		authGroup.POST("/refresh", auth.Refresh)
		authGroup.POST("/confirm-registration", auth.ConfirmRegistration)
		authGroup.POST("/resend-confirmation", auth.ResendConfirmation)
		authGroup.POST("/forgot-password", auth.ForgotPassword)
		authGroup.POST("/reset-password", auth.ResetPassword)

		authGroup.POST("/logout", RequireAuth(gate), auth.Logout)
		authGroup.POST("/logout-all", RequireAuth(gate), auth.LogoutAll)
	}

	users := router.Group("/users", RequireAuth(gate))
	{
		users.GET("/me", auth.Me)
		users.GET("/me/sessions", auth.Sessions)
		users.PUT("/me", auth.UpdateProfile)
		users.PUT("/me/password", auth.ChangePassword)
	}

	adminGroup := router.Group("/admin", RequireAuth(gate), RequireRole(core.RoleAdmin))
	{
		adminGroup.GET("/users", admin.ListUsers)
		adminGroup.PUT("/users/roles", admin.ChangeRoles)
		adminGroup.PUT("/users/lock", admin.Lock)
		adminGroup.PUT("/users/unlock", admin.Unlock)
		adminGroup.PUT("/users/activate", admin.Activate)
		adminGroup.PUT("/users/deactivate", admin.Deactivate)
		adminGroup.DELETE("/users", admin.Delete)
	}

	return router
}
