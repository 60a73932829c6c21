package models

import (
	"time"

	"gorm.io/gorm"
)

// Timing modes for a question set. per_question multiplies the per-question
// seconds by the question count; whole_set uses one total budget.
const (
	TimingModePerQuestion = "per_question"
	TimingModeWholeSet    = "whole_set"
)

type QuestionSet struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	Title           string         `json:"title"`
	CategoryID      uint           `json:"category_id" gorm:"not null"`
	MaterialID      *uint          `json:"material_id"`
	PinCode         string         `json:"pin_code" gorm:"uniqueIndex;not null"`
	TimingMode      string         `json:"timing_mode" gorm:"not null;default:'per_question'"` // per_question, whole_set
	TimePerQuestion int            `json:"time_per_question" gorm:"not null;default:60"`       // seconds
	TotalTime       int            `json:"total_time"`                                         // seconds, whole_set mode
	QuestionCount   int            `json:"question_count" gorm:"not null;default:0"`
	CreatedBy       uint           `json:"created_by" gorm:"not null"`
	UpdatedBy       uint           `json:"updated_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Category  Category   `json:"category,omitempty"`
	Material  *Material  `json:"material,omitempty"`
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:QuestionSetID;constraint:OnDelete:CASCADE"`
}
