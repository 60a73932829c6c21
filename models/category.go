package models

import (
	"time"

	"gorm.io/gorm"
)

type Category struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"not null"`
	CreatedBy uint           `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Materials    []Material    `json:"materials,omitempty" gorm:"foreignKey:CategoryID"`
	QuestionSets []QuestionSet `json:"question_sets,omitempty" gorm:"foreignKey:CategoryID"`
}
