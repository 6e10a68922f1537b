package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aman-churiwal/second-brain/internal/models"
	"github.com/aman-churiwal/second-brain/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	apiKeyCacheTTL = 5 * time.Minute
	apiKeyPrefix   = "sb_"
)

// Length of a generated key: prefix plus 32 random bytes, unpadded base64url.
var apiKeyLength = len(apiKeyPrefix) + base64.RawURLEncoding.EncodedLen(32)

type APIKeyRepository interface {
	Create(ctx context.Context, apiKey *models.APIKey) error
	FindByHash(ctx context.Context, hash string) (*models.APIKey, error)
	FindByID(ctx context.Context, id string) (*models.APIKey, error)
	List(ctx context.Context) ([]models.APIKey, error)
	UpdateLastUsed(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id string) error
}

type APIKeyService struct {
	repository APIKeyRepository
	redis      *storage.RedisClient // optional validation cache
	logger     *zap.Logger
}

func NewAPIKeyService(repo APIKeyRepository, redis *storage.RedisClient, logger *zap.Logger) *APIKeyService {
	return &APIKeyService{
		repository: repo,
		redis:      redis,
		logger:     logger,
	}
}

// Creates a key and returns its plain text, which is never stored.
func (s *APIKeyService) Create(ctx context.Context, name, createdBy, tier string) (string, *models.APIKey, error) {
	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", nil, fmt.Errorf("failed to generate random key: %w", err)
	}

	key := apiKeyPrefix + base64.RawURLEncoding.EncodeToString(keyBytes)

	apiKey := models.APIKey{
		KeyHash:   hashKey(key),
		Name:      name,
		CreatedBy: createdBy,
		Tier:      tier,
		IsActive:  true,
	}

	if err := s.repository.Create(ctx, &apiKey); err != nil {
		return "", nil, fmt.Errorf("failed to create API key: %w", err)
	}

	return key, &apiKey, nil
}

// Returns the active key matching the plain text, or nil when there is none.
// Keys that could not have been issued are rejected without a lookup.
func (s *APIKeyService) Validate(ctx context.Context, key string) (*models.APIKey, error) {
	if len(key) != apiKeyLength || !strings.HasPrefix(key, apiKeyPrefix) {
		return nil, nil
	}

	keyHash := hashKey(key)
	cacheKey := cacheKeyFor(keyHash)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey); err == nil && cached != "" {
			var apiKey models.APIKey
			if err := json.Unmarshal([]byte(cached), &apiKey); err == nil {
				apiKey.KeyHash = keyHash
				return &apiKey, nil
			}
		}
	}

	apiKey, err := s.repository.FindByHash(ctx, keyHash)
	if err != nil {
		return nil, err
	}
	if apiKey == nil {
		return nil, nil
	}

	if s.redis != nil {
		apiKeyJSON, _ := json.Marshal(apiKey)
		if err := s.redis.Set(ctx, cacheKey, apiKeyJSON, apiKeyCacheTTL); err != nil {
			s.logger.Warn("Failed to cache API key", zap.Error(err))
		}
	}

	return apiKey, nil
}

func (s *APIKeyService) Get(ctx context.Context, id string) (*models.APIKey, error) {
	return s.repository.FindByID(ctx, id)
}

func (s *APIKeyService) List(ctx context.Context) ([]models.APIKey, error) {
	return s.repository.List(ctx)
}

func (s *APIKeyService) Delete(ctx context.Context, id string) error {
	s.invalidateCache(ctx, id)

	return s.repository.Delete(ctx, id)
}

func (s *APIKeyService) UpdateLastUsed(ctx context.Context, id uuid.UUID) {
	if err := s.repository.UpdateLastUsed(ctx, id); err != nil {
		s.logger.Warn("Failed to update API key last used time",
			zap.String("api_key_id", id.String()),
			zap.Error(err),
		)
	}
}

func (s *APIKeyService) invalidateCache(ctx context.Context, id string) {
	if s.redis == nil {
		return
	}

	apiKey, err := s.repository.FindByID(ctx, id)
	if err != nil || apiKey == nil {
		return
	}

	if _, err := s.redis.Del(ctx, cacheKeyFor(apiKey.KeyHash)); err != nil {
		s.logger.Warn("Failed to invalidate API key cache", zap.String("api_key_id", id), zap.Error(err))
	}
}

func hashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

func cacheKeyFor(keyHash string) string {
	return fmt.Sprintf("apikey:cache:%s", keyHash)
}
