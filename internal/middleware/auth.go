package middleware

import (
	"net/http"
	"strings"

	"github.com/aman-churiwal/second-brain/internal/service"
	"github.com/gin-gonic/gin"
)

type TokenValidator interface {
	ValidateToken(tokenString string) (*service.Claims, error)
}

// Authenticate stores the JWT claims when an Authorization header is present.
// A malformed or invalid token is recorded instead of rejected, so the request
// is still rate limited as anonymous before RejectInvalidCredentials answers it.
func Authenticate(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// Check Bearer prefix
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Set(ContextAuthError, "Invalid authorization header format. Use: Bearer <token>")
			c.Next()
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			c.Set(ContextAuthError, "Invalid or expired token")
			c.Next()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextTier, claims.Tier)

		c.Next()
	}
}

// RejectInvalidCredentials answers 401 for requests whose token or API key
// failed validation earlier in the chain.
func RejectInvalidCredentials() gin.HandlerFunc {
	return func(c *gin.Context) {
		if msg := c.GetString(ContextAuthError); msg != "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": msg,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAuth needs a user or API key set by an earlier middleware.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if OwnerID(c) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != role {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
