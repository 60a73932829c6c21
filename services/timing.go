package services

import (
	"time"

	"quizhub/models"
)

// TimingPolicy mirrors the timing columns of a question set. The budget is
// the whole-set total when that mode is configured with a positive value,
// otherwise seconds-per-question times the question count.
type TimingPolicy struct {
	Mode            string `json:"mode"`
	TimePerQuestion int    `json:"time_per_question"`
	TotalTime       int    `json:"total_time"`
	QuestionCount   int    `json:"question_count"`
}

func (p TimingPolicy) BudgetSeconds() int {
	if p.Mode == models.TimingModeWholeSet && p.TotalTime > 0 {
		return p.TotalTime
	}
	return p.TimePerQuestion * p.QuestionCount
}

func (p TimingPolicy) DeadlineFrom(start time.Time) time.Time {
	return start.Add(time.Duration(p.BudgetSeconds()) * time.Second)
}

// remainingSeconds reports whole seconds left until the deadline. Zero or
// negative means expired. Callers sample "now" once per logical operation so
// a single request sees one consistent clock reading.
func remainingSeconds(now, deadline time.Time) int {
	return int(deadline.Sub(now) / time.Second)
}
