package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"furniture-assistant/internal/config"
	"furniture-assistant/internal/database"
	"furniture-assistant/internal/logger"
	"furniture-assistant/internal/server"
	"furniture-assistant/migrations"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close conversations, redis and the database
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func openDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (database.Service, error) {
	if cfg.Catalog.Source != config.CatalogSourcePostgres {
		return nil, nil
	}

	dbService, err := database.New(cfg.Database)
	if err != nil {
		return nil, err
	}

	// Check database health
	health := dbService.Health(ctx)
	log.Info("Database health check", zap.Any("health", health))

	// Run migrations
	if err := database.RunMigrations(ctx, dbService.DB(), migrations.FS, ".", log); err != nil {
		_ = dbService.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Database migrations completed successfully")

	return dbService, nil
}

func openRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	if !cfg.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Rate limiting fails open, so an unreachable redis is not fatal
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis is unreachable", zap.String("addr", cfg.Addr()), zap.Error(err))
	}
	return client
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting furniture assistant API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("catalog", cfg.Catalog.Source),
	)

	startupCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// Initialize database
	dbService, err := openDatabase(startupCtx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Create server
	srv := server.NewServer(cfg, log, server.Dependencies{
		Database: dbService,
		Redis:    openRedis(startupCtx, cfg.Redis, log),
	})

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}
