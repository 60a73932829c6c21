package services

import (
	"errors"
	"math"

	"quizhub/models"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// ResultService records quiz outcomes. Two entry points exist and stay
// separate on purpose: the legacy two-phase path scores submitted answers
// server-side against an existing result row, the direct path persists a
// pre-scored submission in one transaction after validating the session's
// time budget.
type ResultService struct {
	db    *gorm.DB
	clock clockwork.Clock
}

func NewResultService(db *gorm.DB, clock clockwork.Clock) *ResultService {
	return &ResultService{db: db, clock: clock}
}

type AnswerDetailInput struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	Answer     string `json:"answer"`
	IsCorrect  bool   `json:"is_correct"`
}

type SubmitResultRequest struct {
	SessionID       *uint               `json:"session_id"`
	ParticipantName string              `json:"participant_name" binding:"required"`
	QuestionSetID   uint                `json:"question_set_id" binding:"required"`
	Score           int                 `json:"score"`
	CorrectCount    int                 `json:"correct_count"`
	TotalCount      int                 `json:"total_count"`
	ElapsedSeconds  int                 `json:"elapsed_seconds"`
	PinCode         string              `json:"pin_code"`
	AnswerDetails   []AnswerDetailInput `json:"answer_details"`
}

type ScoreSummary struct {
	ResultID     uint `json:"result_id"`
	Score        int  `json:"score"`
	CorrectCount int  `json:"correct_count"`
	TotalCount   int  `json:"total_count"`
}

// SubmitResult persists a completed attempt. When a session id is supplied
// the session's deadline is checked first: a late submission is rejected
// before anything is written. Session flip, result insert and answer details
// land in one transaction or not at all.
func (s *ResultService) SubmitResult(req *SubmitResultRequest) (*models.Result, error) {
	now := s.clock.Now()

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if req.SessionID != nil {
		var session models.Session
		err := tx.First(&session, *req.SessionID).Error
		switch {
		case err == nil:
			if now.After(session.Deadline) {
				tx.Rollback()
				return nil, ErrSessionExpired
			}
			if err := tx.Model(&models.Session{}).
				Where("id = ?", session.ID).
				Updates(map[string]interface{}{"active": false, "finished_at": now}).Error; err != nil {
				tx.Rollback()
				return nil, persistence("close session", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Session bookkeeping was bypassed; the result is still recorded.
		default:
			tx.Rollback()
			return nil, persistence("load session", err)
		}
	}

	result := models.Result{
		SessionID:       req.SessionID,
		ParticipantName: req.ParticipantName,
		QuestionSetID:   req.QuestionSetID,
		Score:           req.Score,
		CorrectCount:    req.CorrectCount,
		TotalCount:      req.TotalCount,
		ElapsedSeconds:  req.ElapsedSeconds,
		PinCode:         req.PinCode,
		CompletedAt:     &now,
	}
	if err := tx.Create(&result).Error; err != nil {
		tx.Rollback()
		return nil, persistence("create result", err)
	}

	for _, detail := range req.AnswerDetails {
		row := models.AnswerDetail{
			ResultID:   result.ID,
			QuestionID: detail.QuestionID,
			Answer:     detail.Answer,
			IsCorrect:  detail.IsCorrect,
		}
		if err := tx.Create(&row).Error; err != nil {
			tx.Rollback()
			return nil, persistence("create answer detail", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, persistence("submit result", err)
	}

	return &result, nil
}

// SubmitAnswers is the legacy two-phase path: the result row already exists
// and the answers arrive keyed by question id. Scoring counts exact matches
// against the canonical answers; the total is the count of answered
// questions that resolved, not the full set size. The score is an integer
// percentage via math.Round (half away from zero): 7/10 scores 70, 1/3
// scores 33.
func (s *ResultService) SubmitAnswers(resultID uint, answers map[uint]string, elapsedSeconds int) (*ScoreSummary, error) {
	now := s.clock.Now()

	if len(answers) == 0 {
		return nil, validationf("no answers supplied")
	}

	ids := make([]uint, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}

	var questions []models.Question
	if err := s.db.Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, persistence("load answered questions", err)
	}
	if len(questions) == 0 {
		return nil, validationf("answered questions not found")
	}

	correct := 0
	for _, q := range questions {
		if answers[q.ID] == q.CorrectAnswer {
			correct++
		}
	}
	total := len(questions)
	score := int(math.Round(float64(correct) / float64(total) * 100))

	res := s.db.Model(&models.Result{}).
		Where("id = ?", resultID).
		Updates(map[string]interface{}{
			"score":           score,
			"correct_count":   correct,
			"elapsed_seconds": elapsedSeconds,
			"completed_at":    now,
		})
	if res.Error != nil {
		return nil, persistence("update result", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return &ScoreSummary{
		ResultID:     resultID,
		Score:        score,
		CorrectCount: correct,
		TotalCount:   total,
	}, nil
}

type ResultDetail struct {
	models.Result
	QuestionSetTitle string `json:"question_set_title"`
	CategoryName     string `json:"category_name"`
	MaterialTitle    string `json:"material_title"`
}

// GetResult returns one result with its set, category and material labels.
func (s *ResultService) GetResult(resultID uint) (*ResultDetail, error) {
	var result models.Result
	if err := s.db.Preload("AnswerDetails").First(&result, resultID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistence("load result", err)
	}

	detail := ResultDetail{Result: result}

	var set models.QuestionSet
	if err := s.db.Preload("Category").Preload("Material").
		First(&set, result.QuestionSetID).Error; err == nil {
		detail.QuestionSetTitle = set.Title
		detail.CategoryName = set.Category.Name
		if set.Material != nil {
			detail.MaterialTitle = set.Material.Title
		}
	}

	return &detail, nil
}
