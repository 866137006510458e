package handlers

import (
	"net/http"

	"task-matrix/internal/services"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the read-only views derived from the owner's tasks.
type DashboardHandler struct {
	taskService  services.TaskService
	statsService services.StatisticsService
}

func NewDashboardHandler(taskService services.TaskService, statsService services.StatisticsService) *DashboardHandler {
	return &DashboardHandler{taskService: taskService, statsService: statsService}
}

func (h *DashboardHandler) Dashboard(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	dashboard, err := h.taskService.Dashboard(c.Request.Context(), owner, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func (h *DashboardHandler) Recommendation(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}

	task, found, err := h.taskService.Recommendation(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *DashboardHandler) Alerts(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}

	alerts, err := h.taskService.Alerts(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (h *DashboardHandler) Attention(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.Attention(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

func (h *DashboardHandler) Statistics(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}

	overview, err := h.statsService.Overview(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
