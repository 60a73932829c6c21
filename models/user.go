package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin   = "admin"
	RoleCreator = "creator"
)

type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"not null"`
	Email     string         `json:"email" gorm:"uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"not null"`
	Role      string         `json:"role" gorm:"not null;default:'creator'"` // admin, creator
	Phone     string         `json:"phone"`
	Photo     string         `json:"photo"`
	Verified  bool           `json:"verified" gorm:"not null;default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	QuestionSets []QuestionSet `json:"question_sets,omitempty" gorm:"foreignKey:CreatedBy"`
}
