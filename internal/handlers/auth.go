package handlers

import (
	"errors"
	"net/http"
	"strings"

	"task-matrix/internal/models"
	"task-matrix/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	services.TokenPair
	User *models.User `json:"user"`
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.authService.LoginUser(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	switch {
	case errors.Is(err, services.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "account_disabled",
			"message": "Your account has been disabled",
		})
		return
	case err != nil:
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_credentials",
			"message": "Invalid username or password",
		})
		return
	}

	tokens, err := h.authService.GenerateToken(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "token_generation_failed",
			"message": "Failed to generate authentication tokens",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{TokenPair: tokens, User: user})
}
