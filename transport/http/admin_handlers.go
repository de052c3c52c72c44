package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calyptra/gatehouse/service"
)

// AdminHandlers contains the HTTP handlers for the admin routes.
type AdminHandlers struct {
	admin *service.AdminService
}

// NewAdminHandlers creates the admin handlers.
func NewAdminHandlers(admin *service.AdminService) *AdminHandlers {
	return &AdminHandlers{admin: admin}
}

type usernamesRequest struct {
	Usernames []string `json:"usernames" binding:"required,min=1"`
}

// ListUsers returns every account.
func (h *AdminHandlers) ListUsers(c *gin.Context) {
	users, err := h.admin.FindAllUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// ChangeRoles replaces the role set of the named users.
func (h *AdminHandlers) ChangeRoles(c *gin.Context) {
	var req struct {
		Usernames []string `json:"usernames" binding:"required,min=1"`
		Roles     []string `json:"roles" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.admin.ChangeRoles(c.Request.Context(), req.Usernames, req.Roles); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Roles updated"})
}

// Lock locks the named accounts.
func (h *AdminHandlers) Lock(c *gin.Context) {
	h.batch(c, h.admin.Lock, "Accounts locked")
}

// Unlock unlocks the named accounts.
func (h *AdminHandlers) Unlock(c *gin.Context) {
	h.batch(c, h.admin.Unlock, "Accounts unlocked")
}

// Activate activates the named accounts.
func (h *AdminHandlers) Activate(c *gin.Context) {
	h.batch(c, h.admin.Activate, "Accounts activated")
}

// Deactivate disables the named accounts.
func (h *AdminHandlers) Deactivate(c *gin.Context) {
	h.batch(c, h.admin.Deactivate, "Accounts deactivated")
}

// Delete removes the named accounts.
func (h *AdminHandlers) Delete(c *gin.Context) {
	h.batch(c, h.admin.Delete, "Accounts deleted")
}

func (h *AdminHandlers) batch(c *gin.Context, op func(ctx context.Context, usernames []string) error, message string) {
	var req usernamesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := op(c.Request.Context(), req.Usernames); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}
