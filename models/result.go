package models

import "time"

// Result is the immutable outcome of one submitted attempt. SessionID may be
// nil when session bookkeeping was bypassed upstream. Results are never
// deleted; the leaderboard hides them via reset markers instead.
type Result struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	SessionID       *uint      `json:"session_id"`
	ParticipantName string     `json:"participant_name" gorm:"not null"`
	QuestionSetID   uint       `json:"question_set_id" gorm:"not null;index"`
	Score           int        `json:"score" gorm:"not null"`
	CorrectCount    int        `json:"correct_count" gorm:"not null"`
	TotalCount      int        `json:"total_count" gorm:"not null"`
	ElapsedSeconds  int        `json:"elapsed_seconds" gorm:"not null;default:0"`
	PinCode         string     `json:"pin_code"`
	CompletedAt     *time.Time `json:"completed_at" gorm:"index"`
	CreatedAt       time.Time  `json:"created_at"`

	// Relationships
	AnswerDetails []AnswerDetail `json:"answer_details,omitempty" gorm:"foreignKey:ResultID"`
}
