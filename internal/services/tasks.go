package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"task-matrix/internal/logging"
	"task-matrix/internal/matrix"
	"task-matrix/internal/models"
	"task-matrix/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"
)

type TaskInput struct {
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	DueDate         string        `json:"due_date"`
	UrgencyScore    *int          `json:"urgency_score"`
	ImportanceScore *int          `json:"importance_score"`
	Status          models.Status `json:"status"`
	Order           *int          `json:"order"`
}

type QuickTaskInput struct {
	Title   string `json:"title"`
	DueDate string `json:"due_date"`
}

type SuggestInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
}

type Dashboard struct {
	Board          matrix.Board    `json:"board"`
	Alerts         []matrix.Alert  `json:"alerts"`
	Recommendation *models.Task    `json:"recommendation"`
	Insights       matrix.Insights `json:"insights"`
	TotalActive    int             `json:"total_active"`
	TotalCompleted int             `json:"total_completed"`
}

type TaskService interface {
	Create(ctx context.Context, owner uuid.UUID, in TaskInput) (models.Task, error)
	QuickCreate(ctx context.Context, owner uuid.UUID, in QuickTaskInput) (models.Task, error)
	Update(ctx context.Context, owner, id uuid.UUID, in TaskInput) (models.Task, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
	ToggleStatus(ctx context.Context, owner, id uuid.UUID) (models.Task, error)
	MoveToQuadrant(ctx context.Context, owner, id uuid.UUID, q models.Quadrant) (models.Task, error)
	Get(ctx context.Context, owner, id uuid.UUID) (models.Task, error)
	List(ctx context.Context, owner uuid.UUID, filter repositories.TaskFilter) ([]models.Task, error)
	Dashboard(ctx context.Context, owner uuid.UUID, filter repositories.TaskFilter) (Dashboard, error)
	Recommendation(ctx context.Context, owner uuid.UUID) (models.Task, bool, error)
	Alerts(ctx context.Context, owner uuid.UUID) ([]matrix.Alert, error)
	Attention(ctx context.Context, owner uuid.UUID) ([]models.Task, error)
	Suggest(in SuggestInput) (matrix.Suggestion, error)
}

type TaskServiceImpl struct {
	tasks repositories.TaskRepository
	stats StatisticsService
	clock matrix.Clock
	log   zerolog.Logger
}

func NewTaskService(tasks repositories.TaskRepository, stats StatisticsService, clock matrix.Clock, l zerolog.Logger) *TaskServiceImpl {
	return &TaskServiceImpl{
		tasks: tasks,
		stats: stats,
		clock: clock,
		log:   logging.Component(l, "tasks"),
	}
}

func invalidField(field string, err error) error {
	return fmt.Errorf("%w: %w", models.ErrInvalidTask, criterio.ValidateStruct(criterio.NewFieldErrors(field, err)))
}

func (s *TaskServiceImpl) parseDue(raw string) (time.Time, error) {
	due, err := matrix.ParseDueDate(raw, s.clock.Now().Location())
	if err == nil {
		return due, nil
	}
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, invalidField("due_date", errors.New("is required"))
	}
	return time.Time{}, invalidField("due_date", fmt.Errorf("unrecognised date %q", raw))
}

func (s *TaskServiceImpl) Create(ctx context.Context, owner uuid.UUID, in TaskInput) (models.Task, error) {
	due, err := s.parseDue(in.DueDate)
	if err != nil {
		return models.Task{}, err
	}

	task := models.NewTask(owner, in.Title, due)
	task.Description = strings.TrimSpace(in.Description)

	// omitted scores come from the suggestion heuristic
	suggested := matrix.Suggest(task.Title, task.Description, due, s.clock.Now())
	urgency, importance := suggested.Urgency, suggested.Importance
	if in.UrgencyScore != nil {
		urgency = *in.UrgencyScore
	}
	if in.ImportanceScore != nil {
		importance = *in.ImportanceScore
	}
	task.SetScores(urgency, importance)

	if in.Status != "" {
		task.Status = in.Status
	}
	if in.Order != nil {
		task.Order = *in.Order
	}

	if err := s.persist(ctx, &task); err != nil {
		return models.Task{}, err
	}
	s.log.Info().Str("task_id", task.ID.String()).Str("quadrant", string(task.Quadrant)).Msg("task created")
	return task, nil
}

func (s *TaskServiceImpl) QuickCreate(ctx context.Context, owner uuid.UUID, in QuickTaskInput) (models.Task, error) {
	due, err := s.parseDue(in.DueDate)
	if err != nil {
		return models.Task{}, err
	}

	task := models.NewTask(owner, in.Title, due)
	if task.Title != "" {
		suggested := matrix.Suggest(task.Title, "", due, s.clock.Now())
		task.SetScores(suggested.Urgency, suggested.Importance)
	}

	if err := s.persist(ctx, &task); err != nil {
		return models.Task{}, err
	}
	s.log.Info().Str("task_id", task.ID.String()).Str("quadrant", string(task.Quadrant)).Msg("task quick-created")
	return task, nil
}

func (s *TaskServiceImpl) Update(ctx context.Context, owner, id uuid.UUID, in TaskInput) (models.Task, error) {
	task, err := s.tasks.FindByID(ctx, owner, id)
	if err != nil {
		return models.Task{}, err
	}

	due, err := s.parseDue(in.DueDate)
	if err != nil {
		return models.Task{}, err
	}

	task.Title = strings.TrimSpace(in.Title)
	task.Description = strings.TrimSpace(in.Description)
	task.DueDate = due

	urgency, importance := task.UrgencyScore, task.ImportanceScore
	if in.UrgencyScore != nil {
		urgency = *in.UrgencyScore
	}
	if in.ImportanceScore != nil {
		importance = *in.ImportanceScore
	}
	task.SetScores(urgency, importance)

	if in.Status != "" {
		task.Status = in.Status
	}
	if in.Order != nil {
		task.Order = *in.Order
	}

	if err := s.persist(ctx, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *TaskServiceImpl) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if err := s.tasks.Delete(ctx, owner, id); err != nil {
		return err
	}
	s.refresh(ctx, owner)
	s.log.Info().Str("task_id", id.String()).Msg("task deleted")
	return nil
}

func (s *TaskServiceImpl) ToggleStatus(ctx context.Context, owner, id uuid.UUID) (models.Task, error) {
	task, err := s.tasks.FindByID(ctx, owner, id)
	if err != nil {
		return models.Task{}, err
	}

	task.ToggleStatus()
	if err := s.persist(ctx, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *TaskServiceImpl) MoveToQuadrant(ctx context.Context, owner, id uuid.UUID, q models.Quadrant) (models.Task, error) {
	if !q.Valid() {
		return models.Task{}, invalidField("quadrant", fmt.Errorf("unknown quadrant %q", q))
	}

	task, err := s.tasks.FindByID(ctx, owner, id)
	if err != nil {
		return models.Task{}, err
	}

	if err := task.MoveTo(q); err != nil {
		return models.Task{}, err
	}
	if err := s.persist(ctx, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// persist validates, classifies and saves the task, then rebuilds the
// owner's statistics.
func (s *TaskServiceImpl) persist(ctx context.Context, task *models.Task) error {
	task.Reclassify()
	if err := task.Validate(); err != nil {
		return err
	}
	if err := s.tasks.Save(ctx, task); err != nil {
		return err
	}
	s.refresh(ctx, task.UserID)
	return nil
}

func (s *TaskServiceImpl) refresh(ctx context.Context, owner uuid.UUID) {
	if _, err := s.stats.Refresh(ctx, owner); err != nil {
		s.log.Error().Err(err).Str("user_id", owner.String()).Msg("failed to refresh statistics")
	}
}

func (s *TaskServiceImpl) Get(ctx context.Context, owner, id uuid.UUID) (models.Task, error) {
	return s.tasks.FindByID(ctx, owner, id)
}

func (s *TaskServiceImpl) List(ctx context.Context, owner uuid.UUID, filter repositories.TaskFilter) ([]models.Task, error) {
	return s.tasks.FindByOwner(ctx, owner, filter)
}

func (s *TaskServiceImpl) active(ctx context.Context, owner uuid.UUID) ([]models.Task, error) {
	return s.tasks.FindByOwner(ctx, owner, repositories.TaskFilter{ActiveOnly: true})
}

// Dashboard assembles the board for the filtered tasks. Alerts, the
// recommendation and insights always cover every active task.
func (s *TaskServiceImpl) Dashboard(ctx context.Context, owner uuid.UUID, filter repositories.TaskFilter) (Dashboard, error) {
	now := s.clock.Now()

	all, err := s.tasks.FindByOwner(ctx, owner, repositories.TaskFilter{})
	if err != nil {
		return Dashboard{}, err
	}

	shown := all
	if !filter.IsZero() {
		if shown, err = s.tasks.FindByOwner(ctx, owner, filter); err != nil {
			return Dashboard{}, err
		}
	}

	active := matrix.ActiveOnly(all)
	stats := matrix.Recompute(all)
	stats.UserID = owner

	d := Dashboard{
		Board:          matrix.BuildBoard(shown),
		Alerts:         matrix.Scan(active, now),
		Insights:       matrix.BuildInsights(stats, active),
		TotalActive:    len(active),
		TotalCompleted: stats.TotalCompleted,
	}
	if d.Alerts == nil {
		d.Alerts = []matrix.Alert{}
	}
	if rec, ok := matrix.Recommend(active, now); ok {
		d.Recommendation = &rec
	}
	return d, nil
}

func (s *TaskServiceImpl) Recommendation(ctx context.Context, owner uuid.UUID) (models.Task, bool, error) {
	active, err := s.active(ctx, owner)
	if err != nil {
		return models.Task{}, false, err
	}
	task, ok := matrix.Recommend(active, s.clock.Now())
	return task, ok, nil
}

func (s *TaskServiceImpl) Alerts(ctx context.Context, owner uuid.UUID) ([]matrix.Alert, error) {
	active, err := s.active(ctx, owner)
	if err != nil {
		return nil, err
	}
	alerts := matrix.Scan(active, s.clock.Now())
	if alerts == nil {
		alerts = []matrix.Alert{}
	}
	return alerts, nil
}

func (s *TaskServiceImpl) Attention(ctx context.Context, owner uuid.UUID) ([]models.Task, error) {
	active, err := s.active(ctx, owner)
	if err != nil {
		return nil, err
	}
	return matrix.RequiringAttention(active, s.clock.Now()), nil
}

func (s *TaskServiceImpl) Suggest(in SuggestInput) (matrix.Suggestion, error) {
	return matrix.SuggestFromInput(in.Title, in.Description, in.DueDate, s.clock.Now())
}
