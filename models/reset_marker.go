package models

import "time"

// Reset scopes, most specific first. Only one scope label is stored per
// marker even when several filters were passed together.
const (
	ResetScopeQuestionSet = "question_set"
	ResetScopeMaterial    = "material"
	ResetScopeCategory    = "category"
	ResetScopeCreator     = "creator"
	ResetScopeAll         = "all"
)

// ResetMarker records a leaderboard reset without deleting any result. A nil
// scope field acts as a wildcard: a result is hidden when its completion time
// is at or before the latest marker whose every field is nil or matches.
// Markers are append-only.
type ResetMarker struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	CreatedBy     *uint     `json:"created_by" gorm:"index"`
	CategoryID    *uint     `json:"category_id" gorm:"index"`
	MaterialID    *uint     `json:"material_id" gorm:"index"`
	QuestionSetID *uint     `json:"question_set_id" gorm:"index"`
	Scope         string    `json:"scope" gorm:"not null;index"`
	ResetBy       uint      `json:"reset_by" gorm:"not null"`
	ResetRole     string    `json:"reset_role" gorm:"not null"`
	ResetAt       time.Time `json:"reset_at" gorm:"not null;index"`
}
