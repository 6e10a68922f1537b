package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/aman-churiwal/second-brain/internal/middleware"
	"github.com/aman-churiwal/second-brain/internal/service"
	"github.com/gin-gonic/gin"
)

type MemoryHandler struct {
	service *service.MemoryService
}

func NewMemoryHandler(service *service.MemoryService) *MemoryHandler {
	return &MemoryHandler{service: service}
}

type memoryRequest struct {
	Title   string   `json:"title" binding:"required"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type memoryUpdateRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

type searchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

// Handles POST /api/v1/memories
func (h *MemoryHandler) Create(c *gin.Context) {
	var req memoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	memory, err := h.service.Create(c.Request.Context(), middleware.OwnerID(c), service.MemoryInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		respondMemoryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, memory)
}

// Handles GET /api/v1/memories
func (h *MemoryHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", service.DefaultPageSize)
	offset := queryInt(c, "offset", 0)

	memories, err := h.service.List(c.Request.Context(), middleware.OwnerID(c), limit, offset)
	if err != nil {
		respondMemoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"memories": memories,
		"limit":    limit,
		"offset":   offset,
	})
}

// Handles GET /api/v1/memories/:id
func (h *MemoryHandler) Get(c *gin.Context) {
	memory, err := h.service.Get(c.Request.Context(), middleware.OwnerID(c), c.Param("id"))
	if err != nil {
		respondMemoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, memory)
}

// Handles PUT /api/v1/memories/:id
func (h *MemoryHandler) Update(c *gin.Context) {
	var req memoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Title == nil && req.Content == nil && req.Tags == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	memory, err := h.service.Update(c.Request.Context(), middleware.OwnerID(c), c.Param("id"), service.MemoryUpdate{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		respondMemoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, memory)
}

// Handles DELETE /api/v1/memories/:id
func (h *MemoryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.OwnerID(c), c.Param("id")); err != nil {
		respondMemoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Memory deleted successfully"})
}

// Handles GET /api/v1/memories/search?q=
func (h *MemoryHandler) Search(c *gin.Context) {
	h.search(c, c.Query("q"), queryInt(c, "limit", service.DefaultPageSize))
}

// Handles POST /api/v1/memories/search
func (h *MemoryHandler) SearchPost(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.search(c, req.Query, req.Limit)
}

func (h *MemoryHandler) search(c *gin.Context, query string, limit int) {
	memories, err := h.service.Search(c.Request.Context(), middleware.OwnerID(c), query, limit)
	if err != nil {
		respondMemoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    query,
		"memories": memories,
	})
}

// Handles POST /api/v1/memories/upload (multipart field "file", optional "tags")
func (h *MemoryHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file field"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	var tags []string
	if raw := c.PostForm("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}

	memory, err := h.service.Import(c.Request.Context(), middleware.OwnerID(c), fileHeader.Filename, file, tags)
	if err != nil {
		respondMemoryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, memory)
}

func respondMemoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMemoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Memory not found"})
	case errors.Is(err, service.ErrInvalidMemory):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUploadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnsupportedContent):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			return v
		}
	}
	return fallback
}
