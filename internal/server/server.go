package server

import (
	"context"
	"net/http"
	"time"

	"github.com/aman-churiwal/second-brain/internal/config"
	"github.com/aman-churiwal/second-brain/internal/handler"
	"github.com/aman-churiwal/second-brain/internal/metrics"
	"github.com/aman-churiwal/second-brain/internal/middleware"
	"github.com/aman-churiwal/second-brain/internal/models"
	"github.com/aman-churiwal/second-brain/internal/ratelimit"
	"github.com/aman-churiwal/second-brain/internal/repository"
	"github.com/aman-churiwal/second-brain/internal/service"
	"github.com/aman-churiwal/second-brain/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	router     *gin.Engine
	config     *config.Config
	logger     *zap.Logger
	metrics    *metrics.Metrics
	policy     *ratelimit.Policy
	httpServer *http.Server

	authService   *service.AuthService
	apiKeyService *service.APIKeyService

	healthHandler    *handler.HealthHandler
	authHandler      *handler.AuthHandler
	apiKeyHandler    *handler.APIKeyHandler
	memoryHandler    *handler.MemoryHandler
	rateLimitHandler *handler.RateLimitHandler
}

// redis may be nil when the in-memory rate limit backend is used.
func New(cfg *config.Config, logger *zap.Logger, redis *storage.RedisClient, postgres *storage.Postgres, policy *ratelimit.Policy, m *metrics.Metrics) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	userRepo := repository.NewUserRepository(postgres)
	apiKeyRepo := repository.NewAPIKeyRepository(postgres)
	memoryRepo := repository.NewMemoryRepository(postgres)

	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.JWTExpiryHours, cfg.Auth.AdminEmails)
	apiKeyService := service.NewAPIKeyService(apiKeyRepo, redis, logger)
	memoryService := service.NewMemoryService(memoryRepo, cfg.Memories.MaxUploadBytes)

	var redisPinger, postgresPinger handler.Pinger
	if redis != nil {
		redisPinger = redis
	}
	if postgres != nil {
		postgresPinger = postgres
	}

	s := &Server{
		router:           router,
		config:           cfg,
		logger:           logger,
		metrics:          m,
		policy:           policy,
		authService:      authService,
		apiKeyService:    apiKeyService,
		healthHandler:    handler.NewHealthHandler(redisPinger, postgresPinger, logger),
		authHandler:      handler.NewAuthHandler(authService),
		apiKeyHandler:    handler.NewAPIKeyHandler(apiKeyService),
		memoryHandler:    handler.NewMemoryHandler(memoryService),
		rateLimitHandler: handler.NewRateLimitHandler(policy, logger),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery(s.logger))
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger(s.logger, s.metrics))
	s.router.Use(middleware.Authenticate(s.authService))
	s.router.Use(middleware.APIKeyValidator(s.apiKeyService))

	// Requests with bad credentials are counted before they are rejected.
	if s.config.RateLimitEnabled() {
		s.router.Use(middleware.RateLimit(s.policy, s.logger))
	} else {
		s.logger.Warn("Rate limiting disabled by configuration")
	}

	s.router.Use(middleware.RejectInvalidCredentials())
}

func (s *Server) setupRoutes() {
	for _, path := range []string{"/health", "/healthz"} {
		s.router.GET(path, s.healthHandler.Health)
	}
	for _, path := range []string{"/ready", "/readiness"} {
		s.router.GET(path, s.healthHandler.Ready)
	}
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := s.router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", s.authHandler.Register)
		auth.POST("/login", s.authHandler.Login)

		v1.GET("/rate-limits/me", s.rateLimitHandler.Me)

		memories := v1.Group("/memories", middleware.RequireAuth())
		memories.POST("", s.memoryHandler.Create)
		memories.GET("", s.memoryHandler.List)
		memories.GET("/search", s.memoryHandler.Search)
		memories.POST("/search", s.memoryHandler.SearchPost)
		memories.POST("/upload", s.memoryHandler.Upload)
		memories.GET("/:id", s.memoryHandler.Get)
		memories.PUT("/:id", s.memoryHandler.Update)
		memories.DELETE("/:id", s.memoryHandler.Delete)
	}

	admin := s.router.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/keys", s.apiKeyHandler.Create)
		admin.GET("/keys", s.apiKeyHandler.List)
		admin.GET("/keys/:id", s.apiKeyHandler.Get)
		admin.DELETE("/keys/:id", s.apiKeyHandler.Delete)

		admin.GET("/rate-limits", s.rateLimitHandler.Status)
		admin.DELETE("/rate-limits", s.rateLimitHandler.Reset)
	}
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting Second Brain API",
		zap.String("addr", addr),
		zap.String("environment", s.config.Server.Environment),
		zap.Bool("rate_limit_enabled", s.config.RateLimitEnabled()),
		zap.String("rate_limit_backend", s.config.RateLimit.Backend),
	)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
