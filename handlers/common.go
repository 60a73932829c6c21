package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"quizhub/services"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to HTTP statuses. Store failures are
// logged with their cause but surface as a generic message.
func respondError(c *gin.Context, err error) {
	var perr *services.PersistenceError
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this resource"})
	case errors.Is(err, services.ErrSessionExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session time is over", "time_expired": true})
	case errors.Is(err, services.ErrMissingCreatorFilter):
		c.JSON(http.StatusBadRequest, gin.H{"error": "created_by parameter is required"})
	case errors.Is(err, services.ErrEmptyQuestionSet):
		c.JSON(http.StatusBadRequest, gin.H{"error": "This question set has no questions yet"})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &perr):
		log.Printf("Persistence error: %v", perr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	default:
		log.Printf("Unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// currentUser pulls the authenticated user id and role set by the auth
// middleware.
func currentUser(c *gin.Context) (uint, string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, "", false
	}
	role, _ := c.Get("role")
	roleStr, _ := role.(string)
	return userID.(uint), roleStr, true
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// parseOptionalUintQuery reads an optional numeric query parameter; nil when
// absent.
func parseOptionalUintQuery(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return nil, false
	}
	v := uint(value)
	return &v, true
}
