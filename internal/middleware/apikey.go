package middleware

import (
	"context"
	"strings"

	"github.com/aman-churiwal/second-brain/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type APIKeyValidatorService interface {
	Validate(ctx context.Context, key string) (*models.APIKey, error)
	UpdateLastUsed(ctx context.Context, id uuid.UUID)
}

// Resolves X-API-Key into the key record. An unknown key is recorded for
// RejectInvalidCredentials and the request continues as anonymous.
func APIKeyValidator(apiKeyService APIKeyValidatorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKeyHeader := strings.TrimSpace(c.GetHeader("X-API-Key"))

		if apiKeyHeader == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		apiKey, err := apiKeyService.Validate(ctx, apiKeyHeader)

		if err != nil || apiKey == nil {
			if c.GetString(ContextAuthError) == "" {
				c.Set(ContextAuthError, "Invalid API key")
			}
			c.Next()
			return
		}

		c.Set(ContextAPIKey, apiKey)
		c.Set(ContextRawAPIKey, apiKeyHeader)

		go apiKeyService.UpdateLastUsed(context.WithoutCancel(ctx), apiKey.ID)

		c.Next()
	}
}
