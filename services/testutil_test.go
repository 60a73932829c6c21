package services

import (
	"fmt"
	"testing"
	"time"

	"quizhub/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Material{},
		&models.QuestionSet{},
		&models.Question{},
		&models.Session{},
		&models.Result{},
		&models.AnswerDetail{},
		&models.ResetMarker{},
	))

	return db
}

func seedCreator(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: "irrelevant",
		Role:     models.RoleCreator,
		Verified: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := models.Category{Name: name}
	require.NoError(t, db.Create(&category).Error)
	return &category
}

func seedMaterial(t *testing.T, db *gorm.DB, categoryID uint, title string) *models.Material {
	t.Helper()
	material := models.Material{Title: title, CategoryID: categoryID}
	require.NoError(t, db.Create(&material).Error)
	return &material
}

// seedQuestionSet creates a per-question-timed set with the given number of
// questions, each worth timePerQuestion seconds.
func seedQuestionSet(t *testing.T, db *gorm.DB, createdBy, categoryID uint, pin string, questionCount, timePerQuestion int) *models.QuestionSet {
	t.Helper()
	set := models.QuestionSet{
		Title:           "Set " + pin,
		CategoryID:      categoryID,
		PinCode:         pin,
		TimingMode:      models.TimingModePerQuestion,
		TimePerQuestion: timePerQuestion,
		QuestionCount:   questionCount,
		CreatedBy:       createdBy,
		UpdatedBy:       createdBy,
	}
	require.NoError(t, db.Create(&set).Error)

	for i := 0; i < questionCount; i++ {
		question := models.Question{
			QuestionSetID: set.ID,
			Prompt:        fmt.Sprintf("Question %d", i+1),
			ChoiceA:       "A",
			ChoiceB:       "B",
			ChoiceC:       "C",
			ChoiceD:       "D",
			CorrectAnswer: "A",
		}
		require.NoError(t, db.Create(&question).Error)
	}

	return &set
}

// seedResult inserts a completed result directly, bypassing the submission
// path, for read-side tests.
func seedResult(t *testing.T, db *gorm.DB, setID uint, participant string, score, correct, total, elapsed int, completedAt time.Time) *models.Result {
	t.Helper()
	result := models.Result{
		ParticipantName: participant,
		QuestionSetID:   setID,
		Score:           score,
		CorrectCount:    correct,
		TotalCount:      total,
		ElapsedSeconds:  elapsed,
		CompletedAt:     &completedAt,
	}
	require.NoError(t, db.Create(&result).Error)
	return &result
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Count(&count).Error)
	return count
}
