package services

import (
	"testing"

	"quizhub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newQuestionSetFixture(t *testing.T) (*gorm.DB, *QuestionSetService, *models.User, *models.Category) {
	t.Helper()
	db := setupTestDB(t)
	creator := seedCreator(t, db, "teacher")
	category := seedCategory(t, db, "Math")
	return db, NewQuestionSetService(db), creator, category
}

func mcQuestion(prompt, answer string) QuestionInput {
	return QuestionInput{
		Prompt:        prompt,
		ChoiceA:       "Red",
		ChoiceB:       "Green",
		ChoiceC:       "Blue",
		CorrectAnswer: answer,
	}
}

func TestCreateQuestionSet(t *testing.T) {
	db, service, creator, category := newQuestionSetFixture(t)

	set, err := service.Create(creator.ID, &CreateQuestionSetRequest{
		Title:      "Colors",
		CategoryID: category.ID,
		Questions: []QuestionInput{
			mcQuestion("Q1", "Red"),
			mcQuestion("Q2", "Blue"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Colors", set.Title)
	assert.Regexp(t, `^[0-9]{6}$`, set.PinCode)
	assert.Equal(t, models.TimingModePerQuestion, set.TimingMode)
	assert.Equal(t, 60, set.TimePerQuestion)
	assert.Equal(t, 2, set.QuestionCount)
	require.Len(t, set.Questions, 2)
	assert.Equal(t, "Red", set.Questions[0].CorrectAnswer)

	assert.EqualValues(t, 2, countRows(t, db, &models.Question{}))
}

func TestCreateQuestionSetTitleFallsBackToMaterial(t *testing.T) {
	db, service, creator, category := newQuestionSetFixture(t)
	material := seedMaterial(t, db, category.ID, "Fractions")

	set, err := service.Create(creator.ID, &CreateQuestionSetRequest{
		CategoryID: category.ID,
		MaterialID: &material.ID,
		Questions:  []QuestionInput{mcQuestion("Q1", "Red")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Fractions", set.Title)
}

func TestCreateQuestionSetRejectsAnswerOutsideChoices(t *testing.T) {
	_, service, creator, category := newQuestionSetFixture(t)

	_, err := service.Create(creator.ID, &CreateQuestionSetRequest{
		Title:      "Broken",
		CategoryID: category.ID,
		Questions:  []QuestionInput{mcQuestion("Q1", "Purple")},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateQuestionSetRejectsEmptyAnswerKey(t *testing.T) {
	_, service, creator, category := newQuestionSetFixture(t)

	for _, answer := range []string{"", "   ", "-"} {
		_, err := service.Create(creator.ID, &CreateQuestionSetRequest{
			Title:      "Broken",
			CategoryID: category.ID,
			Questions:  []QuestionInput{{Prompt: "Q1", CorrectAnswer: answer}},
		})
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestCreateQuestionSetNormalizesAnswerVariants(t *testing.T) {
	db, service, creator, category := newQuestionSetFixture(t)

	set, err := service.Create(creator.ID, &CreateQuestionSetRequest{
		Title:      "Capitals",
		CategoryID: category.ID,
		Questions: []QuestionInput{{
			Prompt:         "Capital of France?",
			AnswerVariants: []string{"  Paris ", "PARIS", "", "paris city"},
		}},
	})
	require.NoError(t, err)

	var question models.Question
	require.NoError(t, db.Where("question_set_id = ?", set.ID).First(&question).Error)
	assert.Equal(t, "paris", question.CorrectAnswer)
	assert.JSONEq(t, `["paris","paris","paris city"]`, question.AnswerVariants)
}

func TestCreateQuestionSetRejectsEmptyVariantList(t *testing.T) {
	_, service, creator, category := newQuestionSetFixture(t)

	_, err := service.Create(creator.ID, &CreateQuestionSetRequest{
		Title:      "Broken",
		CategoryID: category.ID,
		Questions: []QuestionInput{{
			Prompt:         "Q1",
			AnswerVariants: []string{"  ", ""},
		}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateQuestionSetAssignsDistinctPins(t *testing.T) {
	_, service, creator, category := newQuestionSetFixture(t)

	pins := map[string]bool{}
	for i := 0; i < 5; i++ {
		set, err := service.Create(creator.ID, &CreateQuestionSetRequest{
			Title:      "Set",
			CategoryID: category.ID,
			Questions:  []QuestionInput{mcQuestion("Q1", "Red")},
		})
		require.NoError(t, err)
		assert.False(t, pins[set.PinCode], "pin %s assigned twice", set.PinCode)
		pins[set.PinCode] = true
	}
}

func TestUpdateQuestionSetReplacesQuestions(t *testing.T) {
	db, service, creator, category := newQuestionSetFixture(t)

	set, err := service.Create(creator.ID, &CreateQuestionSetRequest{
		Title:      "Colors",
		CategoryID: category.ID,
		Questions: []QuestionInput{
			mcQuestion("Q1", "Red"),
			mcQuestion("Q2", "Green"),
			mcQuestion("Q3", "Blue"),
		},
	})
	require.NoError(t, err)
	originalPin := set.PinCode

	updated, err := service.Update(set.ID, creator.ID, &CreateQuestionSetRequest{
		Title:      "Colors v2",
		CategoryID: category.ID,
		TimingMode: models.TimingModeWholeSet,
		TotalTime:  600,
		Questions:  []QuestionInput{mcQuestion("New Q1", "Green")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Colors v2", updated.Title)
	assert.Equal(t, models.TimingModeWholeSet, updated.TimingMode)
	assert.Equal(t, 600, updated.TotalTime)
	assert.Equal(t, 1, updated.QuestionCount)
	require.Len(t, updated.Questions, 1)
	assert.Equal(t, "New Q1", updated.Questions[0].Prompt)
	// The PIN survives edits so shared links keep working.
	assert.Equal(t, originalPin, updated.PinCode)

	var live int64
	require.NoError(t, db.Model(&models.Question{}).
		Where("question_set_id = ?", set.ID).
		Count(&live).Error)
	assert.EqualValues(t, 1, live)
}

func TestUpdateQuestionSetNotFound(t *testing.T) {
	_, service, creator, category := newQuestionSetFixture(t)

	_, err := service.Update(9999, creator.ID, &CreateQuestionSetRequest{
		Title:      "Ghost",
		CategoryID: category.ID,
		Questions:  []QuestionInput{mcQuestion("Q1", "Red")},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteQuestionSet(t *testing.T) {
	db, service, creator, category := newQuestionSetFixture(t)

	set, err := service.Create(creator.ID, &CreateQuestionSetRequest{
		Title:      "Colors",
		CategoryID: category.ID,
		Questions:  []QuestionInput{mcQuestion("Q1", "Red")},
	})
	require.NoError(t, err)

	require.NoError(t, service.Delete(set.ID))

	_, err = service.Get(set.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var live int64
	require.NoError(t, db.Model(&models.Question{}).
		Where("question_set_id = ?", set.ID).
		Count(&live).Error)
	assert.EqualValues(t, 0, live)

	assert.ErrorIs(t, service.Delete(9999), ErrNotFound)
}

func TestListByCreator(t *testing.T) {
	db, service, creator, category := newQuestionSetFixture(t)

	other := seedCreator(t, db, "rival")
	seedQuestionSet(t, db, creator.ID, category.ID, "111111", 1, 60)
	seedQuestionSet(t, db, other.ID, category.ID, "222222", 1, 60)

	sets, err := service.ListByCreator(creator.ID)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, creator.ID, sets[0].CreatedBy)
}
