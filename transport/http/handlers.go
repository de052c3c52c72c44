package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/calyptra/gatehouse/core"
	"github.com/calyptra/gatehouse/service"
)

// AuthHandlers contains the HTTP handlers for the auth and account routes.
type AuthHandlers struct {
	sessions  *service.SessionManager
	accounts  *service.AccountService
	accessTTL time.Duration
}

// NewAuthHandlers creates the auth handlers.
func NewAuthHandlers(sessions *service.SessionManager, accounts *service.AccountService, accessTTL time.Duration) *AuthHandlers {
	return &AuthHandlers{sessions: sessions, accounts: accounts, accessTTL: accessTTL}
}

type userResponse struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Roles     []string `json:"roles"`
	Activated bool     `json:"activated"`
	NonLocked bool     `json:"non_locked"`
}

func toUserResponse(u *core.User) userResponse {
	return userResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Roles:     u.Roles,
		Activated: u.Activated,
		NonLocked: u.NonLocked,
	}
}

// Register handles account registration.
func (h *AuthHandlers) Register(c *gin.Context) {
	var req struct {
		Username  string `json:"username" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=8"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login handles the login request.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		UsernameOrEmail string `json:"username_or_email" binding:"required"`
		Password        string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res, err := h.sessions.Login(c.Request.Context(), req.UsernameOrEmail, req.Password, clientKey(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"token_type":    "Bearer",
		"expires_in":    int(h.accessTTL.Seconds()),
		"user":          toUserResponse(res.User),
	})
}

// Refresh exchanges a refresh token for a new access token.
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	access, err := h.sessions.Refresh(c.Request.Context(), req.RefreshToken, clientKey(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": access,
		"token_type":   "Bearer",
		"expires_in":   int(h.accessTTL.Seconds()),
	})
}

// Logout revokes the current device's session.
func (h *AuthHandlers) Logout(c *gin.Context) {
	err := h.sessions.LogoutDevice(c.Request.Context(), c.GetHeader(core.AuthHeader), clientKey(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// LogoutAll revokes every session and outstanding access token of the
// authenticated user.
func (h *AuthHandlers) LogoutAll(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	if err := h.sessions.LogoutEverywhere(c.Request.Context(), principal.Username); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out from all devices"})
}

// ConfirmRegistration activates an account via its confirmation token.
func (h *AuthHandlers) ConfirmRegistration(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.accounts.ConfirmRegistration(c.Request.Context(), req.Token); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account activated"})
}

// ResendConfirmation publishes a fresh confirmation token.
func (h *AuthHandlers) ResendConfirmation(c *gin.Context) {
	var req struct {
		UsernameOrEmail string `json:"username_or_email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.accounts.ResendConfirmation(c.Request.Context(), req.UsernameOrEmail); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Confirmation sent"})
}

// ForgotPassword starts the password recovery flow.
func (h *AuthHandlers) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.accounts.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset requested"})
}

// ResetPassword completes the recovery flow with a reset token.
func (h *AuthHandlers) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.accounts.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandlers) Me(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username": principal.Username,
		"roles":    principal.Roles,
	})
}

// Sessions lists the authenticated user's active refresh sessions.
func (h *AuthHandlers) Sessions(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	sessions, err := h.sessions.Sessions(c.Request.Context(), principal.Username)
	if err != nil {
		writeError(c, err)
		return
	}
	keys := make([]string, 0, len(sessions))
	for _, s := range sessions {
		keys = append(keys, s.ClientKey)
	}
	c.JSON(http.StatusOK, gin.H{"sessions": keys})
}

// UpdateProfile edits the authenticated user's name and email.
func (h *AuthHandlers) UpdateProfile(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	user, err := h.accounts.UpdateProfile(c.Request.Context(), principal.Username, req.FirstName, req.LastName, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// ChangePassword updates the authenticated user's password.
func (h *AuthHandlers) ChangePassword(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.accounts.ChangePassword(c.Request.Context(), principal.Username, req.OldPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}
