package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/pantrycoach/backend/config"
	"github.com/pageza/pantrycoach/backend/internal/database"
	"github.com/pageza/pantrycoach/backend/internal/logging"
	"github.com/pageza/pantrycoach/backend/internal/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Log config failures before the configured logger exists
	if err := logging.Init("info", "json"); err != nil {
		panic(err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal("Failed to load configuration", err)
	}
	if err := logging.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		logging.Fatal("Failed to initialise logging", err)
	}
	defer logging.Sync()

	db, err := database.New(cfg)
	if err != nil {
		logging.Fatal("Failed to connect to database", err)
	}
	if err := database.RunMigrations(db); err != nil {
		logging.Fatal("Failed to run migrations", err)
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient, err = database.NewRedisClient(cfg)
		if err != nil {
			// Continue without distributed locking and rate limiting
			logging.Warnw("Redis unavailable, continuing without it", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	ctx := context.Background()
	services, err := server.NewServices(ctx, cfg, db, redisClient)
	if err != nil {
		logging.Fatal("Failed to build services", err)
	}
	srv := server.New(cfg, services)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logging.Fatal("Server error", err)
		}
		return
	case sig := <-quit:
		logging.Infow("Received signal", "signal", sig.String())
	}

	logging.Infow("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Errorw("Server shutdown error", "error", err)
		return
	}
	logging.Infow("Server stopped")
}
