package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "second-brain"

// Pinger is satisfied by the Redis and Postgres clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	redis    Pinger
	postgres Pinger
	logger   *zap.Logger
	started  time.Time
}

// Either dependency may be nil when it is not configured.
func NewHealthHandler(redis, postgres Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		redis:    redis,
		postgres: postgres,
		logger:   logger,
		started:  time.Now(),
	}
}

// Handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if h.redis != nil {
		checks["redis"] = h.ping(ctx, "redis", h.redis)
		healthy = healthy && checks["redis"] == true
	}
	if h.postgres != nil {
		checks["database"] = h.ping(ctx, "database", h.postgres)
		healthy = healthy && checks["database"] == true
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !healthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"service":   serviceName,
		"uptime":    time.Since(h.started).Seconds(),
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// Handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *HealthHandler) ping(ctx context.Context, name string, p Pinger) bool {
	if err := p.Ping(ctx); err != nil {
		h.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
		return false
	}
	return true
}
