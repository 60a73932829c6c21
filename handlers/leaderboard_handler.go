package handlers

import (
	"errors"
	"io"
	"net/http"

	"quizhub/services"

	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

func parseFilters(c *gin.Context) (services.LeaderboardFilters, bool) {
	filters := services.LeaderboardFilters{}
	var ok bool
	if filters.CreatedBy, ok = parseOptionalUintQuery(c, "created_by"); !ok {
		return filters, false
	}
	if filters.CategoryID, ok = parseOptionalUintQuery(c, "category_id"); !ok {
		return filters, false
	}
	if filters.MaterialID, ok = parseOptionalUintQuery(c, "material_id"); !ok {
		return filters, false
	}
	if filters.QuestionSetID, ok = parseOptionalUintQuery(c, "question_set_id"); !ok {
		return filters, false
	}
	return filters, true
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	filters, ok := parseFilters(c)
	if !ok {
		return
	}

	entries, err := h.leaderboardService.GetLeaderboard(filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries, "filters": filters})
}

func (h *LeaderboardHandler) GetCategoryStats(c *gin.Context) {
	createdBy, ok := parseOptionalUintQuery(c, "created_by")
	if !ok {
		return
	}
	if createdBy == nil {
		respondError(c, services.ErrMissingCreatorFilter)
		return
	}

	stats, err := h.leaderboardService.CategoryStats(*createdBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *LeaderboardHandler) GetMaterialStats(c *gin.Context) {
	createdBy, ok := parseOptionalUintQuery(c, "created_by")
	if !ok {
		return
	}
	if createdBy == nil {
		respondError(c, services.ErrMissingCreatorFilter)
		return
	}
	categoryID, ok := parseOptionalUintQuery(c, "category_id")
	if !ok {
		return
	}

	stats, err := h.leaderboardService.MaterialStats(*createdBy, categoryID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type resetRequest struct {
	CreatedBy     *uint `json:"created_by"`
	CategoryID    *uint `json:"category_id"`
	MaterialID    *uint `json:"material_id"`
	QuestionSetID *uint `json:"question_set_id"`
}

// bindResetRequest reads the optional filter body. A missing body means no
// filters, not a bad request.
func bindResetRequest(c *gin.Context, req *resetRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// Reset records an admin-scoped reset marker for arbitrary filters.
func (h *LeaderboardHandler) Reset(c *gin.Context) {
	actorID, actorRole, ok := currentUser(c)
	if !ok {
		return
	}

	var req resetRequest
	if !bindResetRequest(c, &req) {
		return
	}

	filters := services.LeaderboardFilters{
		CreatedBy:     req.CreatedBy,
		CategoryID:    req.CategoryID,
		MaterialID:    req.MaterialID,
		QuestionSetID: req.QuestionSetID,
	}
	outcome, err := h.leaderboardService.ResetLeaderboard(filters, actorID, actorRole)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Leaderboard cleared. Historical data is retained.",
		"data":    outcome,
	})
}

// ResetByCreator records a reset scoped to the acting creator's own boards.
func (h *LeaderboardHandler) ResetByCreator(c *gin.Context) {
	actorID, actorRole, ok := currentUser(c)
	if !ok {
		return
	}

	var req resetRequest
	if !bindResetRequest(c, &req) {
		return
	}

	filters := services.LeaderboardFilters{
		CategoryID:    req.CategoryID,
		MaterialID:    req.MaterialID,
		QuestionSetID: req.QuestionSetID,
	}
	outcome, err := h.leaderboardService.ResetByCreator(filters, actorID, actorRole)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Your leaderboard was cleared. Historical data is retained.",
		"data":    outcome,
	})
}

// ResetByQuestionSet records a reset for one set the acting creator owns.
func (h *LeaderboardHandler) ResetByQuestionSet(c *gin.Context) {
	actorID, actorRole, ok := currentUser(c)
	if !ok {
		return
	}

	setID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	outcome, err := h.leaderboardService.ResetByQuestionSet(setID, actorID, actorRole)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Leaderboard for this question set was cleared. Historical data is retained.",
		"data":    outcome,
	})
}

func (h *LeaderboardHandler) GetSessionAudit(c *gin.Context) {
	actorID, actorRole, ok := currentUser(c)
	if !ok {
		return
	}

	questionSetID, ok := parseOptionalUintQuery(c, "question_set_id")
	if !ok {
		return
	}
	createdBy, ok := parseOptionalUintQuery(c, "created_by")
	if !ok {
		return
	}

	rows, err := h.leaderboardService.SessionAudit(actorID, actorRole, questionSetID, createdBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
