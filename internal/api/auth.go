package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/pantrycoach/backend/internal/middleware"
	"github.com/pageza/pantrycoach/backend/internal/models"
	"github.com/pageza/pantrycoach/backend/internal/service"
	"github.com/pageza/pantrycoach/backend/internal/types"
)

// AuthHandler serves registration, login and account deletion
type AuthHandler struct {
	authService service.IAuthService
}

func NewAuthHandler(authService service.IAuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes mounts the public auth routes
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

// RegisterAccountRoutes mounts routes that act on the caller's own account
func (h *AuthHandler) RegisterAccountRoutes(router *gin.RouterGroup) {
	router.DELETE("/account", h.DeleteAccount)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, token, err := h.authService.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, authResponse(user, token))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse(user, token))
}

// DeleteAccount removes the caller and everything they own
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	if err := h.authService.DeleteAccount(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func authResponse(user *models.User, token string) types.AuthResponse {
	return types.AuthResponse{
		Token: token,
		User:  types.UserSummary{ID: user.ID, Email: user.Email},
	}
}
