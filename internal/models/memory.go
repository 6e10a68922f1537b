package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// A single note in a user's second brain.
type Memory struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID   string    `gorm:"index;not null" json:"owner_id"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	Tags      string    `json:"tags"` // comma separated
	Source    string    `gorm:"default:'manual'" json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Memory) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (Memory) TableName() string {
	return "memories"
}
