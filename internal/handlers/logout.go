package handlers

import (
	"net/http"

	"task-matrix/internal/services"

	"github.com/gin-gonic/gin"
)

type LogoutHandler struct {
	authService services.AuthService
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func NewLogoutHandler(authService services.AuthService) *LogoutHandler {
	return &LogoutHandler{authService: authService}
}

// Logout answers 200 for any well-formed request, known token or not.
func (h *LogoutHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authService.RevokeToken(c.Request.Context(), req.RefreshToken); err != nil {
		_ = c.Error(err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}
