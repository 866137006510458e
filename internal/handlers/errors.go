package handlers

import (
	"errors"
	"net/http"

	"task-matrix/internal/models"
	"task-matrix/internal/repositories"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/hay-kot/criterio"
)

// UserIDKey is the gin context key the auth middleware stores the caller under.
const UserIDKey = "user_id"

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, err error) {
	var fieldErrs criterio.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		details := make([]FieldError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, FieldError{Field: fe.Field, Message: fe.Err.Error()})
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"details": details,
		})
	case errors.Is(err, models.ErrInvalidTask):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": err.Error(),
		})
	case errors.Is(err, repositories.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"message": "Invalid request format",
		"details": err.Error(),
	})
}

func userID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return uuid.Nil, false
	}
	return id, true
}

func taskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return uuid.Nil, false
	}
	return id, true
}
