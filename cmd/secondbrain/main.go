package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aman-churiwal/second-brain/internal/config"
	"github.com/aman-churiwal/second-brain/internal/logging"
	"github.com/aman-churiwal/second-brain/internal/metrics"
	"github.com/aman-churiwal/second-brain/internal/ratelimit"
	"github.com/aman-churiwal/second-brain/internal/server"
	"github.com/aman-churiwal/second-brain/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load env if it exists
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	var redis *storage.RedisClient
	if cfg.RateLimit.Backend == config.BackendRedis {
		redis = storage.NewRedis(storage.RedisOptions{
			Addr:         cfg.Redis.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  time.Duration(cfg.Redis.DialTimeout) * time.Millisecond,
			ReadTimeout:  time.Duration(cfg.Redis.ReadTimeout) * time.Millisecond,
			WriteTimeout: time.Duration(cfg.Redis.WriteTimeout) * time.Millisecond,
		})
		defer redis.Close()

		// Startup does not wait for Redis; checks fail open until it is reachable.
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redis.Ping(pingCtx); err != nil {
			logger.Warn("Redis unreachable at startup, rate limits fail open until it recovers",
				zap.String("addr", cfg.Redis.GetRedisAddr()),
				zap.Error(err),
			)
		} else {
			logger.Info("Connected to Redis", zap.String("addr", cfg.Redis.GetRedisAddr()))
		}
		cancel()
	}

	postgres, err := storage.NewPostgres(cfg.Database.URL, !cfg.IsProduction())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer postgres.Close()

	if err := postgres.AutoMigrate(); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := ratelimit.NewStore(cfg.RateLimit.Backend, redis)
	if err != nil {
		logger.Fatal("Failed to create rate limit store", zap.Error(err))
	}
	if memStore, ok := store.(*ratelimit.MemoryStore); ok {
		memStore.StartJanitor(ctx, time.Minute)
		logger.Warn("Using in-memory rate limit store; limits are not shared between instances")
	}

	multipliers := make(map[ratelimit.UserTier]float64, len(cfg.RateLimit.TierMultipliers))
	for tier, multiplier := range cfg.RateLimit.TierMultipliers {
		multipliers[ratelimit.ParseTier(tier)] = multiplier
	}

	limiter := ratelimit.New(store,
		ratelimit.WithLogger(logger),
		ratelimit.WithMetrics(m),
		ratelimit.WithTierMultipliers(multipliers),
	)
	quotas := ratelimit.DefaultQuotas().WithOverrides(cfg.RateLimit.Hourly, cfg.RateLimit.Burst)
	policy := ratelimit.NewPolicy(limiter, quotas, m)

	srv := server.New(cfg, logger, redis, postgres, policy, m)

	go func() {
		addr := ":" + cfg.Server.Port
		if err := srv.Run(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
