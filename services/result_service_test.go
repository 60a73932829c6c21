package services

import (
	"testing"
	"time"

	"quizhub/models"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newResultFixture(t *testing.T) (*gorm.DB, *clockwork.FakeClock, *SessionService, *ResultService, *models.QuestionSet) {
	t.Helper()
	db := setupTestDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))

	creator := seedCreator(t, db, "teacher")
	category := seedCategory(t, db, "Math")
	set := seedQuestionSet(t, db, creator.ID, category.ID, "123456", 10, 60)

	return db, clock, NewSessionService(db, clock), NewResultService(db, clock), set
}

func TestSubmitResultClosesSession(t *testing.T) {
	db, clock, sessions, results, set := newResultFixture(t)

	start, err := sessions.Start(&StartSessionRequest{
		QuestionSetID:   set.ID,
		ParticipantName: "alice",
		PinCode:         "123456",
	})
	require.NoError(t, err)

	clock.Advance(120 * time.Second)

	result, err := results.SubmitResult(&SubmitResultRequest{
		SessionID:       &start.SessionID,
		ParticipantName: "alice",
		QuestionSetID:   set.ID,
		Score:           70,
		CorrectCount:    7,
		TotalCount:      10,
		ElapsedSeconds:  120,
		PinCode:         "123456",
		AnswerDetails: []AnswerDetailInput{
			{QuestionID: 1, Answer: "A", IsCorrect: true},
			{QuestionID: 2, Answer: "B", IsCorrect: false},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 70, result.Score)
	require.NotNil(t, result.CompletedAt)
	assert.Equal(t, clock.Now().Unix(), result.CompletedAt.Unix())

	var session models.Session
	require.NoError(t, db.First(&session, start.SessionID).Error)
	assert.False(t, session.Active)
	require.NotNil(t, session.FinishedAt)

	assert.EqualValues(t, 2, countRows(t, db, &models.AnswerDetail{}))
}

func TestSubmitResultRejectsLateSubmission(t *testing.T) {
	db, clock, sessions, results, set := newResultFixture(t)

	start, err := sessions.Start(&StartSessionRequest{
		QuestionSetID:   set.ID,
		ParticipantName: "alice",
		PinCode:         "123456",
	})
	require.NoError(t, err)

	clock.Advance(601 * time.Second)

	_, err = results.SubmitResult(&SubmitResultRequest{
		SessionID:       &start.SessionID,
		ParticipantName: "alice",
		QuestionSetID:   set.ID,
		Score:           100,
		CorrectCount:    10,
		TotalCount:      10,
	})
	assert.ErrorIs(t, err, ErrSessionExpired)

	// Nothing was written.
	assert.EqualValues(t, 0, countRows(t, db, &models.Result{}))
	assert.EqualValues(t, 0, countRows(t, db, &models.AnswerDetail{}))
}

func TestSubmitResultWithoutSession(t *testing.T) {
	db, _, _, results, set := newResultFixture(t)

	result, err := results.SubmitResult(&SubmitResultRequest{
		ParticipantName: "walk-in",
		QuestionSetID:   set.ID,
		Score:           50,
		CorrectCount:    5,
		TotalCount:      10,
	})
	require.NoError(t, err)
	assert.Nil(t, result.SessionID)
	assert.EqualValues(t, 1, countRows(t, db, &models.Result{}))
}

func TestSubmitResultMissingSessionTolerated(t *testing.T) {
	db, _, _, results, set := newResultFixture(t)

	missing := uint(9999)
	result, err := results.SubmitResult(&SubmitResultRequest{
		SessionID:       &missing,
		ParticipantName: "alice",
		QuestionSetID:   set.ID,
		Score:           80,
		CorrectCount:    8,
		TotalCount:      10,
	})
	require.NoError(t, err)
	assert.Equal(t, 80, result.Score)
	assert.EqualValues(t, 1, countRows(t, db, &models.Result{}))
}

func TestSubmitAnswersScoresAndRounds(t *testing.T) {
	db, _, _, results, set := newResultFixture(t)

	var questions []models.Question
	require.NoError(t, db.Where("question_set_id = ?", set.ID).Order("id").Find(&questions).Error)
	require.Len(t, questions, 10)

	res := seedResult(t, db, set.ID, "alice", 0, 0, 10, 0, time.Now())

	// 7 of 10 correct scores 70.
	answers := map[uint]string{}
	for i, q := range questions {
		if i < 7 {
			answers[q.ID] = "A"
		} else {
			answers[q.ID] = "B"
		}
	}
	summary, err := results.SubmitAnswers(res.ID, answers, 95)
	require.NoError(t, err)
	assert.Equal(t, 70, summary.Score)
	assert.Equal(t, 7, summary.CorrectCount)
	assert.Equal(t, 10, summary.TotalCount)

	var stored models.Result
	require.NoError(t, db.First(&stored, res.ID).Error)
	assert.Equal(t, 70, stored.Score)
	assert.Equal(t, 95, stored.ElapsedSeconds)
}

func TestSubmitAnswersRoundsHalfUp(t *testing.T) {
	db, _, _, results, set := newResultFixture(t)

	var questions []models.Question
	require.NoError(t, db.Where("question_set_id = ?", set.ID).Order("id").Limit(3).Find(&questions).Error)
	require.Len(t, questions, 3)

	res := seedResult(t, db, set.ID, "bob", 0, 0, 3, 0, time.Now())

	// 1 of 3 correct scores 33, not 34.
	answers := map[uint]string{
		questions[0].ID: "A",
		questions[1].ID: "C",
		questions[2].ID: "D",
	}
	summary, err := results.SubmitAnswers(res.ID, answers, 30)
	require.NoError(t, err)
	assert.Equal(t, 33, summary.Score)

	// 2 of 3 correct scores 67: .5 and above rounds up.
	answers[questions[1].ID] = "A"
	summary, err = results.SubmitAnswers(res.ID, answers, 40)
	require.NoError(t, err)
	assert.Equal(t, 67, summary.Score)
}

func TestSubmitAnswersTotalCountsOnlyResolvedQuestions(t *testing.T) {
	db, _, _, results, set := newResultFixture(t)

	var questions []models.Question
	require.NoError(t, db.Where("question_set_id = ?", set.ID).Order("id").Limit(2).Find(&questions).Error)

	res := seedResult(t, db, set.ID, "carol", 0, 0, 10, 0, time.Now())

	// One answer targets a question that does not exist; it drops out of the
	// total instead of counting as wrong.
	answers := map[uint]string{
		questions[0].ID: "A",
		questions[1].ID: "A",
		99999:           "A",
	}
	summary, err := results.SubmitAnswers(res.ID, answers, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalCount)
	assert.Equal(t, 2, summary.CorrectCount)
	assert.Equal(t, 100, summary.Score)
}

func TestSubmitAnswersValidation(t *testing.T) {
	db, _, _, results, set := newResultFixture(t)

	res := seedResult(t, db, set.ID, "dave", 0, 0, 10, 0, time.Now())

	_, err := results.SubmitAnswers(res.ID, map[uint]string{}, 10)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = results.SubmitAnswers(res.ID, map[uint]string{99999: "A"}, 10)
	assert.ErrorIs(t, err, ErrValidation)

	var questions []models.Question
	require.NoError(t, db.Where("question_set_id = ?", set.ID).Limit(1).Find(&questions).Error)
	_, err = results.SubmitAnswers(9999, map[uint]string{questions[0].ID: "A"}, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetResult(t *testing.T) {
	db, _, _, results, set := newResultFixture(t)

	res := seedResult(t, db, set.ID, "alice", 70, 7, 10, 95, time.Now())
	require.NoError(t, db.Create(&models.AnswerDetail{ResultID: res.ID, QuestionID: 1, Answer: "A", IsCorrect: true}).Error)

	detail, err := results.GetResult(res.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", detail.ParticipantName)
	assert.Equal(t, set.Title, detail.QuestionSetTitle)
	assert.Equal(t, "Math", detail.CategoryName)
	assert.Len(t, detail.AnswerDetails, 1)

	_, err = results.GetResult(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
