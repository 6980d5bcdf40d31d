// Package server wires configuration, storage and services into an HTTP server.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/pantrycoach/backend/config"
	"github.com/pageza/pantrycoach/backend/internal/api"
	"github.com/pageza/pantrycoach/backend/internal/logging"
	"github.com/pageza/pantrycoach/backend/internal/middleware"
	"github.com/pageza/pantrycoach/backend/internal/service"
	"github.com/pageza/pantrycoach/backend/internal/vault"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New creates a server serving services
func New(cfg *config.Config, services api.Services) *Server {
	gin.SetMode(cfg.Environment.GinMode())

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.CORSOrigins))

	api.RegisterRoutes(router, services)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.ServerHost, cfg.ServerPort),
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
			// Turns can run up to the completion timeout, so no write timeout
			IdleTimeout: idleTimeout,
		},
	}
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called
func (s *Server) Start() error {
	logging.Infow("Starting server", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// NewServices builds every service the API needs. redisClient may be nil, in
// which case turns are serialised in-process and not rate limited.
func NewServices(ctx context.Context, cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (api.Services, error) {
	v, err := vault.New(cfg.EncryptionKey)
	if err != nil {
		return api.Services{}, err
	}

	profiles := service.NewProfileService(db, v)
	pantry := service.NewPantryService(db)
	conversations := service.NewConversationService(db)

	opts := []service.AssistantOption{service.WithCompletionTimeout(cfg.LLMTimeout)}
	var turnLimiter *middleware.RateLimiter
	if redisClient != nil {
		opts = append(opts, service.WithTurnLocker(service.NewRedisLocker(redisClient, 2*cfg.LLMTimeout)))
		if cfg.AssistantTurnsPerHour > 0 {
			turnLimiter = middleware.NewAssistantTurnRateLimiter(redisClient, cfg.AssistantTurnsPerHour)
		}
	}

	assistant := service.NewAssistantService(
		conversations,
		profiles,
		service.NewContextAssembler(profiles, pantry),
		v,
		service.NewLLMService(cfg.LLMAPIURL, cfg.LLMModel),
		opts...,
	)

	services := api.Services{
		DB:            db,
		Auth:          service.NewAuthService(db, cfg.JWTSecret),
		Profiles:      profiles,
		Pantry:        pantry,
		Conversations: conversations,
		Assistant:     assistant,
		TurnLimiter:   turnLimiter,
	}

	if cfg.ExportEnabled() {
		store, err := config.NewS3Config(ctx, cfg.S3BucketName, cfg.AWSRegion)
		if err != nil {
			return api.Services{}, err
		}
		services.Archiver = service.NewTranscriptArchiver(conversations, store)
		logging.Infow("Transcript export enabled", "bucket", cfg.S3BucketName)
	}

	return services, nil
}
