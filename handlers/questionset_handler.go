package handlers

import (
	"net/http"

	"quizhub/services"

	"github.com/gin-gonic/gin"
)

type QuestionSetHandler struct {
	questionSetService *services.QuestionSetService
}

func NewQuestionSetHandler(questionSetService *services.QuestionSetService) *QuestionSetHandler {
	return &QuestionSetHandler{questionSetService: questionSetService}
}

func (h *QuestionSetHandler) Create(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CreateQuestionSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set, err := h.questionSetService.Create(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, set)
}

func (h *QuestionSetHandler) List(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	sets, err := h.questionSetService.ListByCreator(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sets)
}

func (h *QuestionSetHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	set, err := h.questionSetService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *QuestionSetHandler) Update(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateQuestionSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set, err := h.questionSetService.Update(id, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *QuestionSetHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.questionSetService.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question set deleted successfully"})
}
