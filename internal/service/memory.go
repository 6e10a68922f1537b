package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/aman-churiwal/second-brain/internal/models"
)

var (
	ErrMemoryNotFound     = errors.New("memory not found")
	ErrInvalidMemory      = errors.New("invalid memory")
	ErrUploadTooLarge     = errors.New("upload too large")
	ErrUnsupportedContent = errors.New("upload must be UTF-8 text")
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
	maxTitleLength  = 200
)

type MemoryRepository interface {
	Create(ctx context.Context, memory *models.Memory) error
	FindByID(ctx context.Context, ownerID, id string) (*models.Memory, error)
	List(ctx context.Context, ownerID string, limit, offset int) ([]models.Memory, error)
	Update(ctx context.Context, memory *models.Memory) error
	Delete(ctx context.Context, ownerID, id string) (int64, error)
	Search(ctx context.Context, ownerID, query string, limit int) ([]models.Memory, error)
}

type MemoryInput struct {
	Title   string
	Content string
	Tags    []string
}

// Nil fields are left unchanged.
type MemoryUpdate struct {
	Title   *string
	Content *string
	Tags    *[]string
}

type MemoryService struct {
	repository     MemoryRepository
	maxUploadBytes int64
}

func NewMemoryService(repo MemoryRepository, maxUploadBytes int64) *MemoryService {
	return &MemoryService{
		repository:     repo,
		maxUploadBytes: maxUploadBytes,
	}
}

func (s *MemoryService) Create(ctx context.Context, ownerID string, in MemoryInput) (*models.Memory, error) {
	return s.create(ctx, ownerID, in, "manual")
}

func (s *MemoryService) create(ctx context.Context, ownerID string, in MemoryInput, source string) (*models.Memory, error) {
	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	memory := &models.Memory{
		OwnerID: ownerID,
		Title:   title,
		Content: in.Content,
		Tags:    normalizeTags(in.Tags),
		Source:  source,
	}

	if err := s.repository.Create(ctx, memory); err != nil {
		return nil, fmt.Errorf("failed to create memory: %w", err)
	}

	return memory, nil
}

func (s *MemoryService) Get(ctx context.Context, ownerID, id string) (*models.Memory, error) {
	memory, err := s.repository.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if memory == nil {
		return nil, ErrMemoryNotFound
	}
	return memory, nil
}

func (s *MemoryService) List(ctx context.Context, ownerID string, limit, offset int) ([]models.Memory, error) {
	return s.repository.List(ctx, ownerID, clampLimit(limit), max(0, offset))
}

func (s *MemoryService) Update(ctx context.Context, ownerID, id string, update MemoryUpdate) (*models.Memory, error) {
	memory, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		memory.Title = title
	}
	if update.Content != nil {
		memory.Content = *update.Content
	}
	if update.Tags != nil {
		memory.Tags = normalizeTags(*update.Tags)
	}

	if err := s.repository.Update(ctx, memory); err != nil {
		return nil, fmt.Errorf("failed to update memory: %w", err)
	}

	return memory, nil
}

func (s *MemoryService) Delete(ctx context.Context, ownerID, id string) error {
	deleted, err := s.repository.Delete(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrMemoryNotFound
	}
	return nil
}

func (s *MemoryService) Search(ctx context.Context, ownerID, query string, limit int) ([]models.Memory, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrInvalidMemory)
	}
	return s.repository.Search(ctx, ownerID, query, clampLimit(limit))
}

// Import creates a memory from an uploaded text file titled after its file name.
func (s *MemoryService) Import(ctx context.Context, ownerID, filename string, r io.Reader, tags []string) (*models.Memory, error) {
	content, err := io.ReadAll(io.LimitReader(r, s.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(content)) > s.maxUploadBytes {
		return nil, ErrUploadTooLarge
	}
	if !utf8.Valid(content) {
		return nil, ErrUnsupportedContent
	}

	title := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if title == "" || title == "." {
		title = "Untitled upload"
	}

	return s.create(ctx, ownerID, MemoryInput{Title: title, Content: string(content), Tags: tags}, "upload")
}

func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidMemory)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return fmt.Errorf("%w: title longer than %d characters", ErrInvalidMemory, maxTitleLength)
	}
	return nil
}

func normalizeTags(tags []string) string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return strings.Join(out, ",")
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	return min(limit, MaxPageSize)
}
