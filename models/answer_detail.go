package models

import "time"

// AnswerDetail is the optional per-question breakdown of a result, written
// once during submission and never updated.
type AnswerDetail struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ResultID   uint      `json:"result_id" gorm:"not null;index"`
	QuestionID uint      `json:"question_id" gorm:"not null"`
	Answer     string    `json:"answer"`
	IsCorrect  bool      `json:"is_correct" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
}
