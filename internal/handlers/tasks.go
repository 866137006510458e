package handlers

import (
	"errors"
	"net/http"

	"task-matrix/internal/matrix"
	"task-matrix/internal/models"
	"task-matrix/internal/repositories"
	"task-matrix/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/hay-kot/criterio"
)

type TaskHandler struct {
	taskService services.TaskService
}

type MoveRequest struct {
	Quadrant models.Quadrant `json:"quadrant" binding:"required"`
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// bindFilter reads the status, quadrant and search query parameters.
func bindFilter(c *gin.Context) (repositories.TaskFilter, bool) {
	var filter repositories.TaskFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return filter, false
	}

	var errs criterio.FieldErrorsBuilder
	if filter.Status != "" && !filter.Status.Valid() {
		errs = errs.Append("status", errors.New("unknown status"))
	}
	if filter.Quadrant != "" && !filter.Quadrant.Valid() {
		errs = errs.Append("quadrant", errors.New("unknown quadrant"))
	}
	if err := errs.ToError(); err != nil {
		respondError(c, err)
		return filter, false
	}
	return filter, true
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.List(c.Request.Context(), owner, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}

	var in services.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), owner, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) QuickCreateTask(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}

	var in services.QuickTaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	task, err := h.taskService.QuickCreate(c.Request.Context(), owner, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// SuggestScores previews the scores a task would receive without saving it.
func (h *TaskHandler) SuggestScores(c *gin.Context) {
	var in services.SuggestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	suggestion, err := h.taskService.Suggest(in)
	if errors.Is(err, matrix.ErrNoDueDate) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "due_date_required",
			"message": "A valid due date is required to suggest scores",
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	q := models.Classify(suggestion.Urgency, suggestion.Importance)
	c.JSON(http.StatusOK, gin.H{
		"urgency_score":    suggestion.Urgency,
		"importance_score": suggestion.Importance,
		"quadrant":         q,
		"quadrant_label":   q.Label(),
		"action":           q.Action(),
	})
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), owner, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	var in services.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), owner, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), owner, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) ToggleStatus(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.ToggleStatus(c.Request.Context(), owner, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) MoveToQuadrant(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	task, err := h.taskService.MoveToQuadrant(c.Request.Context(), owner, id, req.Quadrant)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}
