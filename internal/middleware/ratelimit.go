package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/aman-churiwal/second-brain/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details *RateLimitDetails `json:"details,omitempty"`
}

type RateLimitDetails struct {
	LimitType  string `json:"limit_type"`
	RetryAfter int    `json:"retry_after"`
	ResetTime  int64  `json:"reset_time"`
}

// RateLimit checks the hourly and burst quotas of the request's category.
func RateLimit(policy *ratelimit.Policy, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		category := ratelimit.ResolveCategory(c.Request.URL.Path, c.Request.Method)
		identity, clientIP, tier := RateLimitSubject(c)

		result, err := policy.Check(c.Request.Context(), ratelimit.Request{
			Identity: identity,
			ClientIP: clientIP,
			Category: category,
			Tier:     tier,
		})
		if err != nil {
			logger.Error("Rate limit check failed",
				zap.String("request_id", c.GetString(ContextRequestID)),
				zap.String("identity", identity),
				zap.String("category", string(category)),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Error: ErrorBody{Code: "RATE_LIMIT_CHECK_FAILED", Message: "Rate limit check failed"},
			})
			return
		}

		c.Header("X-RateLimit-Category", string(category))
		c.Header("X-RateLimit-User-Tier", string(tier))

		if scope, decision, denied := result.Denial(); denied {
			logger.Info("Rate limit exceeded",
				zap.String("identity", identity),
				zap.String("client_ip", clientIP),
				zap.String("category", string(category)),
				zap.String("limit_type", string(scope)),
				zap.Int("retry_after", decision.RetryAfter),
			)

			c.Header("Retry-After", strconv.Itoa(decision.RetryAfter))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetTime, 10))
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: ErrorBody{
					Code:    "RATE_LIMIT_EXCEEDED",
					Message: fmt.Sprintf("%s rate limit of %d requests exceeded for %s requests", scope, decision.Limit, category),
					Details: &RateLimitDetails{
						LimitType:  string(scope),
						RetryAfter: decision.RetryAfter,
						ResetTime:  decision.ResetTime,
					},
				},
			})
			return
		}

		setRateLimitHeaders(c, "Hourly", result.Hourly)
		setRateLimitHeaders(c, "Burst", result.Burst)

		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, suffix string, d ratelimit.Decision) {
	c.Header("X-RateLimit-Limit-"+suffix, strconv.Itoa(d.Limit))
	c.Header("X-RateLimit-Remaining-"+suffix, strconv.Itoa(d.Remaining))
	c.Header("X-RateLimit-Reset-"+suffix, strconv.FormatInt(d.ResetTime, 10))
}
