package models

import (
	"time"

	"gorm.io/gorm"
)

type Question struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	QuestionSetID uint   `json:"question_set_id" gorm:"not null"`
	Prompt        string `json:"prompt" gorm:"type:text;not null"`
	Image         string `json:"image"`
	ChoiceA       string `json:"choice_a"`
	ChoiceB       string `json:"choice_b"`
	ChoiceC       string `json:"choice_c"`
	ChoiceD       string `json:"choice_d"`
	ChoiceE       string `json:"choice_e"`
	// CorrectAnswer holds the canonical answer. For short-answer questions
	// AnswerVariants carries all accepted answers as a JSON array, lowercased
	// at write time for case-insensitive matching.
	CorrectAnswer  string         `json:"correct_answer" gorm:"not null"`
	AnswerVariants string         `json:"answer_variants"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	QuestionSet QuestionSet `json:"question_set,omitempty"`
}

// Choices returns the non-empty choice texts in label order.
func (q *Question) Choices() []string {
	choices := []string{}
	for _, c := range []string{q.ChoiceA, q.ChoiceB, q.ChoiceC, q.ChoiceD, q.ChoiceE} {
		if c != "" {
			choices = append(choices, c)
		}
	}
	return choices
}
