package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/aman-churiwal/second-brain/internal/models"
	"github.com/aman-churiwal/second-brain/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Every query is scoped to the owner; other owners' memories behave as absent.
type MemoryRepository struct {
	db *storage.Postgres
}

func NewMemoryRepository(db *storage.Postgres) *MemoryRepository {
	return &MemoryRepository{db: db}
}

func (r *MemoryRepository) Create(ctx context.Context, memory *models.Memory) error {
	return r.db.DB.WithContext(ctx).Create(memory).Error
}

func (r *MemoryRepository) FindByID(ctx context.Context, ownerID, id string) (*models.Memory, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	var memory models.Memory
	err := r.db.DB.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&memory).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &memory, nil
}

func (r *MemoryRepository) List(ctx context.Context, ownerID string, limit, offset int) ([]models.Memory, error) {
	memories := []models.Memory{}
	err := r.db.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&memories).Error

	return memories, err
}

func (r *MemoryRepository) Update(ctx context.Context, memory *models.Memory) error {
	return r.db.DB.WithContext(ctx).
		Model(memory).
		Where("owner_id = ?", memory.OwnerID).
		Updates(map[string]interface{}{
			"title":   memory.Title,
			"content": memory.Content,
			"tags":    memory.Tags,
		}).Error
}

func (r *MemoryRepository) Delete(ctx context.Context, ownerID, id string) (int64, error) {
	if _, err := uuid.Parse(id); err != nil {
		return 0, nil
	}

	result := r.db.DB.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Memory{})

	return result.RowsAffected, result.Error
}

// Case-insensitive substring match over title, content and tags.
func (r *MemoryRepository) Search(ctx context.Context, ownerID, query string, limit int) ([]models.Memory, error) {
	pattern := "%" + escapeLike(query) + "%"

	memories := []models.Memory{}
	err := r.db.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("title ILIKE ? OR content ILIKE ? OR tags ILIKE ?", pattern, pattern, pattern).
		Order("updated_at DESC").
		Limit(limit).
		Find(&memories).Error

	return memories, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
