package services

import (
	"errors"
	"regexp"
	"time"

	"quizhub/models"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionService owns the timed-attempt lifecycle: PIN validation, session
// start/resume, lazy expiry and progress checkpoints. The server clock is the
// only source of truth for remaining time; the injected clock exists so tests
// can move time instead of sleeping.
type SessionService struct {
	db    *gorm.DB
	clock clockwork.Clock
}

func NewSessionService(db *gorm.DB, clock clockwork.Clock) *SessionService {
	return &SessionService{db: db, clock: clock}
}

var pinPattern = regexp.MustCompile(`^[0-9]{6}$`)

type PinInfo struct {
	QuestionSetID uint         `json:"question_set_id"`
	Title         string       `json:"title"`
	CategoryID    uint         `json:"category_id"`
	MaterialID    *uint        `json:"material_id"`
	QuestionCount int          `json:"question_count"`
	Timing        TimingPolicy `json:"timing"`
	CreatedBy     uint         `json:"created_by"`
	PinCode       string       `json:"pin_code"`
}

type StartSessionRequest struct {
	QuestionSetID   uint   `json:"question_set_id" binding:"required"`
	ParticipantName string `json:"participant_name" binding:"required"`
	PinCode         string `json:"pin_code"`
}

type SessionStart struct {
	SessionID        uint              `json:"session_id"`
	Questions        []models.Question `json:"questions"`
	StartedAt        time.Time         `json:"started_at"`
	Deadline         time.Time         `json:"deadline"`
	TotalSeconds     int               `json:"total_seconds"`
	RemainingSeconds int               `json:"remaining_seconds"`
	CurrentIndex     int               `json:"current_index"`
	ServerTime       time.Time         `json:"server_time"`
	Resumed          bool              `json:"resumed"`
}

type RemainingTime struct {
	RemainingSeconds int       `json:"remaining_seconds"`
	Expired          bool      `json:"expired"`
	Deadline         time.Time `json:"deadline"`
	ServerTime       time.Time `json:"server_time"`
}

// ValidatePin resolves a six digit entry PIN to its question set. A set with
// no questions is reported as such rather than letting participants start a
// quiz that can never be scored.
func (s *SessionService) ValidatePin(pin string) (*PinInfo, error) {
	if !pinPattern.MatchString(pin) {
		return nil, validationf("pin must be a 6 digit number")
	}

	var set models.QuestionSet
	if err := s.db.Where("pin_code = ?", pin).First(&set).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistence("validate pin", err)
	}

	var count int64
	if err := s.db.Model(&models.Question{}).
		Where("question_set_id = ?", set.ID).
		Count(&count).Error; err != nil {
		return nil, persistence("count questions", err)
	}
	if count == 0 {
		return nil, ErrEmptyQuestionSet
	}

	return &PinInfo{
		QuestionSetID: set.ID,
		Title:         set.Title,
		CategoryID:    set.CategoryID,
		MaterialID:    set.MaterialID,
		QuestionCount: int(count),
		Timing: TimingPolicy{
			Mode:            set.TimingMode,
			TimePerQuestion: set.TimePerQuestion,
			TotalTime:       set.TotalTime,
			QuestionCount:   int(count),
		},
		CreatedBy: set.CreatedBy,
		PinCode:   set.PinCode,
	}, nil
}

// Start opens or resumes the participant's attempt. The lookup locks the
// tuple's row for the length of the transaction; a racer that slips past the
// lookup anyway hits the partial unique index on active rows, and one retry
// resumes the winner's session.
func (s *SessionService) Start(req *StartSessionRequest) (*SessionStart, error) {
	start, err := s.attemptStart(req)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return s.attemptStart(req)
	}
	return start, err
}

// lockTuple takes a row lock on the lookup where the dialect has one.
// sqlite rejects FOR UPDATE; its single writer serializes the transaction
// anyway.
func lockTuple(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// attemptStart runs one lookup-delete-insert pass in a transaction. A
// still-valid session is resumed as-is: same id, same question order,
// shrinking remaining time. A terminal or timed-out row is deleted first so
// the lookup key stays unambiguous.
func (s *SessionService) attemptStart(req *StartSessionRequest) (*SessionStart, error) {
	now := s.clock.Now()

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var existing models.Session
	err := lockTuple(tx).Where("participant_name = ? AND question_set_id = ? AND pin_code = ?",
		req.ParticipantName, req.QuestionSetID, req.PinCode).
		Order("created_at DESC").
		First(&existing).Error
	switch {
	case err == nil:
		if existing.Active && !now.After(existing.Deadline) {
			// Resume: same session, original question order.
			questions, qerr := loadQuestions(tx, req.QuestionSetID)
			if qerr != nil {
				tx.Rollback()
				return nil, qerr
			}
			if err := tx.Commit().Error; err != nil {
				return nil, persistence("resume session", err)
			}
			return &SessionStart{
				SessionID:        existing.ID,
				Questions:        questions,
				StartedAt:        existing.StartedAt,
				Deadline:         existing.Deadline,
				TotalSeconds:     remainingSeconds(existing.StartedAt, existing.Deadline),
				RemainingSeconds: remainingSeconds(now, existing.Deadline),
				CurrentIndex:     existing.CurrentIndex,
				ServerTime:       now,
				Resumed:          true,
			}, nil
		}
		// Inactive or timed out: remove the stale row and start fresh.
		if err := tx.Delete(&models.Session{}, existing.ID).Error; err != nil {
			tx.Rollback()
			return nil, persistence("delete stale session", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// First attempt for this tuple.
	default:
		tx.Rollback()
		return nil, persistence("lookup session", err)
	}

	var set models.QuestionSet
	if err := tx.First(&set, req.QuestionSetID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistence("load question set", err)
	}

	questions, err := loadQuestions(tx, req.QuestionSetID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(questions) == 0 {
		tx.Rollback()
		return nil, ErrEmptyQuestionSet
	}

	policy := TimingPolicy{
		Mode:            set.TimingMode,
		TimePerQuestion: set.TimePerQuestion,
		TotalTime:       set.TotalTime,
		QuestionCount:   len(questions),
	}
	budget := policy.BudgetSeconds()
	deadline := policy.DeadlineFrom(now)

	session := models.Session{
		ParticipantName: req.ParticipantName,
		QuestionSetID:   req.QuestionSetID,
		PinCode:         req.PinCode,
		StartedAt:       now,
		Deadline:        deadline,
		CurrentIndex:    0,
		Active:          true,
	}
	if err := tx.Create(&session).Error; err != nil {
		tx.Rollback()
		return nil, persistence("create session", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, persistence("start session", err)
	}

	return &SessionStart{
		SessionID:        session.ID,
		Questions:        questions,
		StartedAt:        now,
		Deadline:         deadline,
		TotalSeconds:     budget,
		RemainingSeconds: budget,
		CurrentIndex:     0,
		ServerTime:       now,
		Resumed:          false,
	}, nil
}

// GetRemainingTime reports the seconds left on a session. Expiry is lazy:
// the first read past the deadline flips the row inactive and stamps the
// finish time; later reads keep reporting expired. A session closed by
// submission (inactive before its deadline) is gone from the participant's
// point of view.
func (s *SessionService) GetRemainingTime(sessionID uint) (*RemainingTime, error) {
	now := s.clock.Now()

	var session models.Session
	if err := s.db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistence("load session", err)
	}

	remaining := remainingSeconds(now, session.Deadline)
	if remaining <= 0 {
		if session.Active {
			if err := s.db.Model(&models.Session{}).
				Where("id = ?", session.ID).
				Updates(map[string]interface{}{"active": false, "finished_at": now}).Error; err != nil {
				return nil, persistence("expire session", err)
			}
		}
		return &RemainingTime{
			RemainingSeconds: 0,
			Expired:          true,
			Deadline:         session.Deadline,
			ServerTime:       now,
		}, nil
	}

	if !session.Active {
		return nil, ErrNotFound
	}

	return &RemainingTime{
		RemainingSeconds: remaining,
		Expired:          false,
		Deadline:         session.Deadline,
		ServerTime:       now,
	}, nil
}

// UpdateProgress overwrites the resume checkpoint. It is display state only;
// it never changes the deadline or the score.
func (s *SessionService) UpdateProgress(sessionID uint, index int) error {
	if err := s.db.Model(&models.Session{}).
		Where("id = ?", sessionID).
		Update("current_index", index).Error; err != nil {
		return persistence("update progress", err)
	}
	return nil
}

// loadQuestions returns the set's questions in fixed id order so resumed
// sessions see the identical sequence.
func loadQuestions(tx *gorm.DB, questionSetID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := tx.Where("question_set_id = ?", questionSetID).
		Order("id").
		Find(&questions).Error; err != nil {
		return nil, persistence("load questions", err)
	}
	return questions, nil
}
