package handler

import (
	"net/http"

	"github.com/aman-churiwal/second-brain/internal/middleware"
	"github.com/aman-churiwal/second-brain/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RateLimitHandler struct {
	policy *ratelimit.Policy
	logger *zap.Logger
}

func NewRateLimitHandler(policy *ratelimit.Policy, logger *zap.Logger) *RateLimitHandler {
	return &RateLimitHandler{policy: policy, logger: logger}
}

// Handles GET /api/v1/rate-limits/me
func (h *RateLimitHandler) Me(c *gin.Context) {
	identity, clientIP, tier := middleware.RateLimitSubject(c)
	h.status(c, identity, clientIP, tier)
}

// Handles GET /admin/rate-limits?identity=&client_ip=&tier=
func (h *RateLimitHandler) Status(c *gin.Context) {
	identity := c.Query("identity")
	if identity == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identity is required"})
		return
	}

	tier := ratelimit.ParseTier(c.Query("tier"))
	if !ratelimit.IsKnownTier(tier) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown tier: " + c.Query("tier")})
		return
	}

	h.status(c, identity, clientIPParam(c), tier)
}

func (h *RateLimitHandler) status(c *gin.Context, identity, clientIP string, tier ratelimit.UserTier) {
	statuses, err := h.policy.Status(c.Request.Context(), identity, clientIP, tier)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"identity":   identity,
		"client_ip":  clientIP,
		"tier":       tier,
		"categories": statuses,
	})
}

// Handles DELETE /admin/rate-limits?identity=&client_ip=&category=
func (h *RateLimitHandler) Reset(c *gin.Context) {
	identity := c.Query("identity")
	if identity == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identity is required"})
		return
	}

	category, ok := ratelimit.ParseCategory(c.Query("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown or missing category"})
		return
	}

	clientIP := clientIPParam(c)
	if err := h.policy.Reset(c.Request.Context(), identity, clientIP, category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("Rate limits reset",
		zap.String("identity", identity),
		zap.String("client_ip", clientIP),
		zap.String("category", string(category)),
		zap.String("admin", c.GetString(middleware.ContextUserID)),
	)

	c.JSON(http.StatusOK, gin.H{
		"message":  "Rate limits reset successfully",
		"identity": identity,
		"category": category,
	})
}

func clientIPParam(c *gin.Context) string {
	if ip := c.Query("client_ip"); ip != "" {
		return ip
	}
	return "unknown"
}
