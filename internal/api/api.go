// Package api exposes the assistant backend over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/pantrycoach/backend/internal/database"
	"github.com/pageza/pantrycoach/backend/internal/middleware"
	"github.com/pageza/pantrycoach/backend/internal/service"
)

const healthTimeout = 2 * time.Second

// Services are the collaborators the HTTP layer dispatches to. Archiver and
// TurnLimiter are optional.
type Services struct {
	DB            *gorm.DB
	Auth          service.IAuthService
	Profiles      service.IProfileService
	Pantry        service.IPantryService
	Conversations service.IConversationService
	Assistant     service.IAssistantService
	Archiver      service.ITranscriptArchiver
	TurnLimiter   *middleware.RateLimiter
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, s Services) {
	router.GET("/health", healthCheck(s.DB))

	v1 := router.Group("/api/v1")

	authHandler := NewAuthHandler(s.Auth)
	authHandler.RegisterRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(s.Auth))
	{
		authHandler.RegisterAccountRoutes(protected)
		NewProfileHandler(s.Profiles).RegisterRoutes(protected)
		NewPantryHandler(s.Pantry).RegisterRoutes(protected)
		NewConversationHandler(s.Conversations, s.Assistant, s.Archiver, s.TurnLimiter).RegisterRoutes(protected)
	}
}

// healthCheck reports liveness and, when a database is wired, its reachability
func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := database.HealthCheck(ctx, db); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}
