package handlers

import (
	"net/http"

	"task-matrix/internal/services"

	"github.com/gin-gonic/gin"
)

type RefreshHandler struct {
	authService services.AuthService
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func NewRefreshHandler(authService services.AuthService) *RefreshHandler {
	return &RefreshHandler{authService: authService}
}

// Refresh rotates the refresh token; the presented one cannot be reused.
func (h *RefreshHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	c.JSON(http.StatusOK, tokens)
}
