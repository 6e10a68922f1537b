package middleware

import (
	"github.com/aman-churiwal/second-brain/internal/models"
	"github.com/aman-churiwal/second-brain/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// Keys for request-scoped values set with c.Set.
const (
	ContextRequestID = "request_id"
	ContextUserID    = "user_id"
	ContextEmail     = "email"
	ContextRole      = "role"
	ContextTier      = "tier"
	ContextAPIKey    = "api_key"
	ContextRawAPIKey = "api_key_raw"
	ContextAuthError = "auth_error"
)

// Principal collects the auth state set by Authenticate and APIKeyValidator.
func Principal(c *gin.Context) ratelimit.Principal {
	p := ratelimit.Principal{
		UserID:   c.GetString(ContextUserID),
		UserTier: c.GetString(ContextTier),
		APIKey:   c.GetString(ContextRawAPIKey),
	}
	if apiKey, ok := c.Get(ContextAPIKey); ok {
		if key, ok := apiKey.(*models.APIKey); ok && key != nil {
			p.APIKeyTier = key.Tier
		}
	}
	return p
}

// RateLimitSubject resolves the identity, client IP and tier the limiter uses
// for this request.
func RateLimitSubject(c *gin.Context) (identity, clientIP string, tier ratelimit.UserTier) {
	identity, tier = ratelimit.ResolveIdentity(Principal(c))
	clientIP = ratelimit.ClientIP(c.Request.Header, c.Request.RemoteAddr)
	return identity, clientIP, tier
}

// OwnerID is the user a request acts for: the JWT subject, or the user an API
// key was issued to.
func OwnerID(c *gin.Context) string {
	if userID := c.GetString(ContextUserID); userID != "" {
		return userID
	}
	if apiKey, ok := c.Get(ContextAPIKey); ok {
		if key, ok := apiKey.(*models.APIKey); ok && key != nil {
			if key.CreatedBy != "" {
				return key.CreatedBy
			}
			return "apikey-" + key.ID.String()
		}
	}
	return ""
}
