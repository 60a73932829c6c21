package models

import "time"

// Session is one participant's timed attempt at a question set, bound to the
// PIN used to enter. At most one active session exists per
// (participant name, question set, pin) tuple; the partial unique index
// enforces that while leaving inactive history alone. Terminal rows are
// deleted before a replacement is created, never reused. No soft delete: the
// row is either live history or intentionally removed.
type Session struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	ParticipantName string     `json:"participant_name" gorm:"not null;index:idx_session_tuple;uniqueIndex:uniq_active_session_tuple,where:active"`
	QuestionSetID   uint       `json:"question_set_id" gorm:"not null;index:idx_session_tuple;uniqueIndex:uniq_active_session_tuple"`
	PinCode         string     `json:"pin_code" gorm:"index:idx_session_tuple;uniqueIndex:uniq_active_session_tuple"`
	StartedAt       time.Time  `json:"started_at" gorm:"not null"`
	Deadline        time.Time  `json:"deadline" gorm:"not null"`
	FinishedAt      *time.Time `json:"finished_at"`
	CurrentIndex    int        `json:"current_index" gorm:"not null;default:0"`
	Active          bool       `json:"active" gorm:"not null;default:true"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
