package handlers

import (
	"errors"
	"net/http"

	"task-matrix/internal/services"

	"github.com/gin-gonic/gin"
)

type RegisterHandler struct {
	registerService services.RegisterService
}

func NewRegisterHandler(registerService services.RegisterService) *RegisterHandler {
	return &RegisterHandler{registerService: registerService}
}

type RegistrationResponse struct {
	Message string                 `json:"message"`
	User    RegistrationUserDetail `json:"user"`
}

type RegistrationUserDetail struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

func (h *RegisterHandler) Registration(c *gin.Context) {
	var req services.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.registerService.RegisterUser(c.Request.Context(), req)
	switch {
	case errors.Is(err, services.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Registration failed",
			"details": "An account with this email already exists",
		})
		return
	case errors.Is(err, services.ErrDuplicateUsername):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Registration failed",
			"details": "This username is already taken",
		})
		return
	case err != nil:
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, RegistrationResponse{
		Message: "Your account has been created successfully.",
		User: RegistrationUserDetail{
			ID:       user.ID.String(),
			Username: user.Username,
			Email:    user.Email,
			IsActive: user.IsActive,
		},
	})
}
