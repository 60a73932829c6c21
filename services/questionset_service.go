package services

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"quizhub/models"

	"gorm.io/gorm"
)

type QuestionSetService struct {
	db *gorm.DB
}

func NewQuestionSetService(db *gorm.DB) *QuestionSetService {
	return &QuestionSetService{db: db}
}

type QuestionInput struct {
	Prompt  string `json:"prompt" binding:"required"`
	Image   string `json:"image"`
	ChoiceA string `json:"choice_a"`
	ChoiceB string `json:"choice_b"`
	ChoiceC string `json:"choice_c"`
	ChoiceD string `json:"choice_d"`
	ChoiceE string `json:"choice_e"`
	// CorrectAnswer is used for multiple-choice and essay questions.
	// AnswerVariants is used for short-answer questions instead; the first
	// valid variant becomes the canonical answer.
	CorrectAnswer  string   `json:"correct_answer"`
	AnswerVariants []string `json:"answer_variants"`
}

type CreateQuestionSetRequest struct {
	Title           string          `json:"title"`
	CategoryID      uint            `json:"category_id" binding:"required"`
	MaterialID      *uint           `json:"material_id"`
	TimingMode      string          `json:"timing_mode"`
	TimePerQuestion int             `json:"time_per_question"`
	TotalTime       int             `json:"total_time"`
	Questions       []QuestionInput `json:"questions" binding:"required,min=1"`
}

// Create builds a question set with its questions in one transaction and
// assigns a unique six digit PIN.
func (s *QuestionSetService) Create(createdBy uint, req *CreateQuestionSetRequest) (*models.QuestionSet, error) {
	title, err := s.resolveTitle(req.Title, req.MaterialID)
	if err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	pin, err := generateUniquePin(tx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	set := models.QuestionSet{
		Title:           title,
		CategoryID:      req.CategoryID,
		MaterialID:      req.MaterialID,
		PinCode:         pin,
		TimingMode:      timingModeOrDefault(req.TimingMode),
		TimePerQuestion: timePerQuestionOrDefault(req.TimePerQuestion),
		TotalTime:       req.TotalTime,
		CreatedBy:       createdBy,
		UpdatedBy:       createdBy,
	}
	if err := tx.Create(&set).Error; err != nil {
		tx.Rollback()
		return nil, persistence("create question set", err)
	}

	if err := insertQuestions(tx, set.ID, req.Questions); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Model(&models.QuestionSet{}).
		Where("id = ?", set.ID).
		Update("question_count", len(req.Questions)).Error; err != nil {
		tx.Rollback()
		return nil, persistence("update question count", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, persistence("create question set", err)
	}

	return s.Get(set.ID)
}

// Update replaces the set's questions wholesale; questions are never diffed.
func (s *QuestionSetService) Update(setID, updatedBy uint, req *CreateQuestionSetRequest) (*models.QuestionSet, error) {
	title, err := s.resolveTitle(req.Title, req.MaterialID)
	if err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	res := tx.Model(&models.QuestionSet{}).
		Where("id = ?", setID).
		Updates(map[string]interface{}{
			"title":             title,
			"category_id":       req.CategoryID,
			"material_id":       req.MaterialID,
			"timing_mode":       timingModeOrDefault(req.TimingMode),
			"time_per_question": timePerQuestionOrDefault(req.TimePerQuestion),
			"total_time":        req.TotalTime,
			"updated_by":        updatedBy,
			"question_count":    len(req.Questions),
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, persistence("update question set", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrNotFound
	}

	if err := tx.Where("question_set_id = ?", setID).Delete(&models.Question{}).Error; err != nil {
		tx.Rollback()
		return nil, persistence("delete questions", err)
	}

	if err := insertQuestions(tx, setID, req.Questions); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, persistence("update question set", err)
	}

	return s.Get(setID)
}

// Delete removes the set and cascades its questions.
func (s *QuestionSetService) Delete(setID uint) error {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("question_set_id = ?", setID).Delete(&models.Question{}).Error; err != nil {
		tx.Rollback()
		return persistence("delete questions", err)
	}

	res := tx.Delete(&models.QuestionSet{}, setID)
	if res.Error != nil {
		tx.Rollback()
		return persistence("delete question set", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return ErrNotFound
	}

	if err := tx.Commit().Error; err != nil {
		return persistence("delete question set", err)
	}
	return nil
}

func (s *QuestionSetService) Get(setID uint) (*models.QuestionSet, error) {
	var set models.QuestionSet
	err := s.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.id")
	}).
		Preload("Category").
		Preload("Material").
		First(&set, setID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistence("load question set", err)
	}
	return &set, nil
}

func (s *QuestionSetService) ListByCreator(createdBy uint) ([]models.QuestionSet, error) {
	var sets []models.QuestionSet
	err := s.db.Where("created_by = ?", createdBy).
		Preload("Category").
		Preload("Material").
		Order("created_at DESC").
		Find(&sets).Error
	if err != nil {
		return nil, persistence("list question sets", err)
	}
	return sets, nil
}

// resolveTitle falls back to the material's title when none was given.
func (s *QuestionSetService) resolveTitle(title string, materialID *uint) (string, error) {
	if title != "" || materialID == nil {
		return title, nil
	}
	var material models.Material
	if err := s.db.First(&material, *materialID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", persistence("load material", err)
	}
	return material.Title, nil
}

func timingModeOrDefault(mode string) string {
	if mode == models.TimingModeWholeSet {
		return models.TimingModeWholeSet
	}
	return models.TimingModePerQuestion
}

func timePerQuestionOrDefault(seconds int) int {
	if seconds <= 0 {
		return 60
	}
	return seconds
}

func insertQuestions(tx *gorm.DB, setID uint, inputs []QuestionInput) error {
	for _, input := range inputs {
		answer, variants, err := normalizeAnswer(&input)
		if err != nil {
			return err
		}
		question := models.Question{
			QuestionSetID:  setID,
			Prompt:         input.Prompt,
			Image:          input.Image,
			ChoiceA:        input.ChoiceA,
			ChoiceB:        input.ChoiceB,
			ChoiceC:        input.ChoiceC,
			ChoiceD:        input.ChoiceD,
			ChoiceE:        input.ChoiceE,
			CorrectAnswer:  answer,
			AnswerVariants: variants,
		}
		if err := tx.Create(&question).Error; err != nil {
			return persistence("create question", err)
		}
	}
	return nil
}

// normalizeAnswer validates a question's answer key. Short-answer variant
// lists are trimmed, lowercased and stored as JSON; the first valid variant
// becomes the canonical answer. Multiple-choice answers must equal one of
// the non-empty choices.
func normalizeAnswer(input *QuestionInput) (string, string, error) {
	var answer string
	var variantsJSON string

	if len(input.AnswerVariants) > 0 {
		valid := []string{}
		for _, v := range input.AnswerVariants {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "" {
				valid = append(valid, v)
			}
		}
		if len(valid) == 0 {
			return "", "", validationf("question %q needs at least one accepted answer", input.Prompt)
		}
		answer = valid[0]
		data, err := json.Marshal(valid)
		if err != nil {
			return "", "", validationf("question %q has unencodable answer variants", input.Prompt)
		}
		variantsJSON = string(data)
	} else {
		answer = strings.TrimSpace(input.CorrectAnswer)
		if answer == "" || answer == "-" {
			return "", "", validationf("question %q has an empty answer key", input.Prompt)
		}
	}

	// Multiple choice: the key must be one of the offered choices.
	if input.ChoiceA != "" && input.ChoiceB != "" {
		choices := []string{}
		for _, c := range []string{input.ChoiceA, input.ChoiceB, input.ChoiceC, input.ChoiceD, input.ChoiceE} {
			if c != "" {
				choices = append(choices, c)
			}
		}
		found := false
		for _, c := range choices {
			if c == answer {
				found = true
				break
			}
		}
		if !found {
			return "", "", validationf("question %q answer must be one of: %s", input.Prompt, strings.Join(choices, ", "))
		}
	}

	return answer, variantsJSON, nil
}

// generateUniquePin draws six digit PINs until one is unused, giving up
// after ten attempts.
func generateUniquePin(tx *gorm.DB) (string, error) {
	for attempts := 0; attempts < 10; attempts++ {
		n, err := rand.Int(rand.Reader, big.NewInt(900000))
		if err != nil {
			return "", persistence("generate pin", err)
		}
		pin := fmt.Sprintf("%06d", n.Int64()+100000)

		// Unscoped: the unique index still covers soft-deleted sets.
		var count int64
		if err := tx.Model(&models.QuestionSet{}).Unscoped().
			Where("pin_code = ?", pin).
			Count(&count).Error; err != nil {
			return "", persistence("check pin", err)
		}
		if count == 0 {
			return pin, nil
		}
	}
	return "", validationf("could not allocate a unique pin, try again")
}
