package handlers

import (
	"net/http"
	"strconv"

	"quizhub/services"

	"github.com/gin-gonic/gin"
)

// QuizHandler carries the participant flow: PIN entry, session start/resume,
// time checks, progress checkpoints and submission.
type QuizHandler struct {
	sessionService *services.SessionService
	resultService  *services.ResultService
	hub            *services.Hub
}

func NewQuizHandler(sessionService *services.SessionService, resultService *services.ResultService, hub *services.Hub) *QuizHandler {
	return &QuizHandler{
		sessionService: sessionService,
		resultService:  resultService,
		hub:            hub,
	}
}

type validatePinRequest struct {
	Pin string `json:"pin" binding:"required"`
}

func (h *QuizHandler) ValidatePin(c *gin.Context) {
	var req validatePinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info, err := h.sessionService.ValidatePin(req.Pin)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *QuizHandler) StartSession(c *gin.Context) {
	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := h.sessionService.Start(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, start)
}

func (h *QuizHandler) GetRemainingTime(c *gin.Context) {
	sessionID, ok := parseIDParam(c, "sessionId")
	if !ok {
		return
	}

	remaining, err := h.sessionService.GetRemainingTime(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, remaining)
}

type updateProgressRequest struct {
	CurrentIndex int `json:"current_index"`
}

func (h *QuizHandler) UpdateProgress(c *gin.Context) {
	sessionID, ok := parseIDParam(c, "sessionId")
	if !ok {
		return
	}

	var req updateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessionService.UpdateProgress(sessionID, req.CurrentIndex); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Progress saved"})
}

func (h *QuizHandler) SubmitResult(c *gin.Context) {
	var req services.SubmitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.resultService.SubmitResult(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	// Push the refreshed standings to anyone watching this creator's board.
	if h.hub != nil {
		h.hub.BroadcastForQuestionSet(result.QuestionSetID)
	}

	c.JSON(http.StatusOK, gin.H{
		"result_id":     result.ID,
		"score":         result.Score,
		"correct_count": result.CorrectCount,
		"total_count":   result.TotalCount,
	})
}

type submitAnswersRequest struct {
	Answers        map[string]string `json:"answers" binding:"required"`
	ElapsedSeconds int               `json:"elapsed_seconds"`
}

// SubmitAnswers is the legacy two-phase submission: answers arrive keyed by
// question id as JSON object keys, so they come in as strings.
func (h *QuizHandler) SubmitAnswers(c *gin.Context) {
	resultID, ok := parseIDParam(c, "resultId")
	if !ok {
		return
	}

	var req submitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answers := make(map[uint]string, len(req.Answers))
	for rawID, answer := range req.Answers {
		id, err := strconv.ParseUint(rawID, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question id: " + rawID})
			return
		}
		answers[uint(id)] = answer
	}

	summary, err := h.resultService.SubmitAnswers(resultID, answers, req.ElapsedSeconds)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *QuizHandler) GetResult(c *gin.Context) {
	resultID, ok := parseIDParam(c, "resultId")
	if !ok {
		return
	}

	result, err := h.resultService.GetResult(resultID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
