package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"furniture-assistant/internal/config"
	"furniture-assistant/internal/conversation"
	"furniture-assistant/internal/database"
	custommiddleware "furniture-assistant/internal/middleware"
	"furniture-assistant/internal/repository"
	"furniture-assistant/internal/service"
	"furniture-assistant/internal/transport"

	"github.com/go-chi/chi/v5"
	servertiming "github.com/mitchellh/go-server-timing"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	shutdownTimeout     = 10 * time.Second
	minEvictionInterval = time.Second
)

// Dependencies are the external resources a server may run against. A nil
// Database serves the built-in catalog and a nil Redis disables rate limiting.
type Dependencies struct {
	Database database.Service
	Redis    *redis.Client
}

type Server struct {
	*http.Server
	config        *config.Config
	logger        *zap.Logger
	deps          Dependencies
	conversations service.ConversationService

	stopEviction context.CancelFunc
	eviction     sync.WaitGroup
	closeOnce    sync.Once
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))
	router.Use(func(next http.Handler) http.Handler {
		return servertiming.Middleware(next, nil)
	})

	// Initialize services
	catalog := newCatalogSource(deps, logger)
	analyticsService := service.NewAnalyticsService(catalog, logger)
	conversationService := service.NewConversationService(
		newReplyService(cfg.Assistant, logger),
		cfg.Assistant.SessionTTL,
		logger,
		conversation.WithReplyTimeout(cfg.Assistant.ReplyTimeout),
		conversation.WithRetries(cfg.Assistant.MaxRetries, cfg.Assistant.RetryBackoff),
	)

	// Health check endpoint
	router.Get("/health", healthHandler(deps, logger))

	// Register routes
	transport.NewAnalyticsHandler(analyticsService, logger).
		RegisterRoutes(router, analyticsProtection(cfg.Auth, logger)...)
	transport.NewConversationHandler(conversationService, logger).
		RegisterRoutes(router, messageRateLimit(cfg.RateLimit, deps.Redis, logger)...)

	ctx, cancel := context.WithCancel(context.Background())
	server := &Server{
		Server: &http.Server{
			Addr:        fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:     router,
			IdleTimeout: time.Minute,
			ReadTimeout: 10 * time.Second,
			// Long-polls hold the response for up to transport.MaxWait
			WriteTimeout: transport.MaxWait + 10*time.Second,
		},
		config:        cfg,
		logger:        logger,
		deps:          deps,
		conversations: conversationService,
		stopEviction:  cancel,
	}

	if ttl := cfg.Assistant.SessionTTL; ttl > 0 {
		interval := max(ttl/4, minEvictionInterval)
		server.eviction.Add(1)
		go func() {
			defer server.eviction.Done()
			conversationService.RunEviction(ctx, interval)
		}()
		logger.Info("Idle conversation eviction enabled",
			zap.Duration("ttl", ttl),
			zap.Duration("interval", interval),
		)
	}

	return server
}

// Conversations exposes the session registry
func (s *Server) Conversations() service.ConversationService {
	return s.conversations
}

// Close stops eviction, ends every conversation and releases external
// resources. It is safe to call more than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Info("Closing server resources")

		s.stopEviction()
		s.eviction.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.conversations.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to close conversations", zap.Error(err))
		}

		if s.deps.Redis != nil {
			if err := s.deps.Redis.Close(); err != nil {
				s.logger.Error("Failed to close redis client", zap.Error(err))
			}
		}

		// Close database connection
		if s.deps.Database != nil {
			if err := s.deps.Database.Close(); err != nil {
				s.logger.Error("Failed to close database connection", zap.Error(err))
			}
		}

		_ = s.logger.Sync()
	})
	return nil
}

func newCatalogSource(deps Dependencies, logger *zap.Logger) repository.CatalogSource {
	if deps.Database == nil {
		logger.Info("Serving built-in catalog")
		return repository.NewStaticCatalog(repository.DefaultFurniture())
	}
	logger.Info("Serving catalog from PostgreSQL")
	return repository.NewFurnitureRepository(deps.Database.DB())
}

func newReplyService(cfg config.AssistantConfig, logger *zap.Logger) conversation.ReplyService {
	if cfg.BackendURL == "" {
		logger.Info("Using simulated assistant replies", zap.Duration("delay", cfg.ReplyDelay))
		return conversation.NewSimulatedReplyService(cfg.ReplyDelay)
	}

	logger.Info("Using remote assistant backend", zap.String("url", cfg.BackendURL))
	return conversation.NewRemoteReplyService(cfg.BackendURL, &http.Client{Timeout: cfg.ReplyTimeout})
}

func analyticsProtection(cfg config.AuthConfig, logger *zap.Logger) []func(http.Handler) http.Handler {
	if cfg.JWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET is not set, analytics routes are public")
		return nil
	}

	tokens := service.NewTokenService(cfg.JWTSecret)
	return []func(http.Handler) http.Handler{
		custommiddleware.AuthMiddleware(tokens, logger),
		custommiddleware.RequireRole([]string{service.RoleAdmin, service.RoleAnalyst}, logger),
	}
}

func messageRateLimit(cfg config.RateLimitConfig, redisClient *redis.Client, logger *zap.Logger) []func(http.Handler) http.Handler {
	if redisClient == nil || cfg.RequestsPerWindow <= 0 {
		return nil
	}

	return []func(http.Handler) http.Handler{
		custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RequestsPerWindow,
			Window:            cfg.Window,
			KeyPrefix:         "rate:messages",
		}, logger),
	}
}

func healthHandler(deps Dependencies, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]interface{}{"status": "ok"}

		if deps.Database != nil {
			health := deps.Database.Health(r.Context())
			body["database"] = health
			if health["status"] != "up" {
				logger.Warn("Database health check failed", zap.String("error", health["error"]))
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}

		if deps.Redis != nil {
			if err := deps.Redis.Ping(r.Context()).Err(); err != nil {
				body["redis"] = "down"
			} else {
				body["redis"] = "up"
			}
		}

		custommiddleware.RespondWithJSON(w, status, body)
	}
}
