package models

import (
	"time"

	"gorm.io/gorm"
)

type Material struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Title      string         `json:"title" gorm:"not null"`
	CategoryID uint           `json:"category_id" gorm:"not null"`
	Content    string         `json:"content" gorm:"type:text"`
	CreatedBy  uint           `json:"created_by"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Category Category `json:"category,omitempty"`
}
