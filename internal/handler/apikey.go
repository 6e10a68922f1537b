package handler

import (
	"net/http"

	"github.com/aman-churiwal/second-brain/internal/middleware"
	"github.com/aman-churiwal/second-brain/internal/ratelimit"
	"github.com/aman-churiwal/second-brain/internal/service"
	"github.com/gin-gonic/gin"
)

type APIKeyHandler struct {
	service *service.APIKeyService
}

func NewAPIKeyHandler(service *service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{service: service}
}

// Handles POST /admin/keys
func (h *APIKeyHandler) Create(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		CreatedBy string `json:"created_by"`
		Tier      string `json:"tier"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tier := ratelimit.ParseTier(req.Tier)
	if !ratelimit.IsKnownTier(tier) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown tier: " + req.Tier})
		return
	}

	// Keys default to the admin who created them.
	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = c.GetString(middleware.ContextUserID)
	}

	key, apiKey, err := h.service.Create(c.Request.Context(), req.Name, createdBy, string(tier))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"key":     key,
		"api_key": apiKey,
		"message": "Save this key - it won't be shown again",
	})
}

// Handles GET /admin/keys
func (h *APIKeyHandler) List(c *gin.Context) {
	keys, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, keys)
}

// Handles GET /admin/keys/:id
func (h *APIKeyHandler) Get(c *gin.Context) {
	apiKey, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if apiKey == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
		return
	}

	c.JSON(http.StatusOK, apiKey)
}

// Handles DELETE /admin/keys/:id
func (h *APIKeyHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "API key deleted successfully"})
}
