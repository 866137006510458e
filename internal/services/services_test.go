package services_test

import (
	"context"
	"testing"
	"time"

	"task-matrix/internal/config"
	"task-matrix/internal/database"
	"task-matrix/internal/matrix"
	"task-matrix/internal/models"
	"task-matrix/internal/repositories"
	"task-matrix/internal/services"

	"github.com/gofrs/uuid"
	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm/logger"
)

var now = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func newPool(t *testing.T) *database.DatabasePool {
	cfg := database.DefaultPoolConfig()
	cfg.Driver = config.DriverSQLite
	cfg.DSN = ":memory:"
	cfg.LogLevel = logger.Silent

	pool, err := database.NewDatabasePool(cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := pool.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

type TaskServiceSuite struct {
	suite.Suite
	ctx       context.Context
	owner     uuid.UUID
	statsRepo *repositories.GormStatisticsRepository
	stats     *services.StatisticsServiceImpl
	svc       *services.TaskServiceImpl
}

func TestTaskServiceSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceSuite))
}

func (s *TaskServiceSuite) SetupTest() {
	pool := newPool(s.T())
	s.ctx = context.Background()

	users := repositories.NewUserRepository(pool.DB)
	user := models.User{Username: "alice", Email: "alice@example.com", Password: "x", IsActive: true}
	s.Require().NoError(users.Create(s.ctx, &user))
	s.owner = user.ID

	clock := matrix.FixedClock{T: now}
	tasks := repositories.NewTaskRepository(pool.DB)
	s.statsRepo = repositories.NewStatisticsRepository(pool.DB)
	s.stats = services.NewStatisticsService(tasks, s.statsRepo, clock, zerolog.Nop())
	s.svc = services.NewTaskService(tasks, s.stats, clock, zerolog.Nop())
}

func (s *TaskServiceSuite) storedStats() models.TaskStatistics {
	stats, err := s.statsRepo.GetOrCreate(s.ctx, s.owner)
	s.Require().NoError(err)
	return stats
}

func (s *TaskServiceSuite) TestCreateFillsOmittedScoresFromSuggestion() {
	task, err := s.svc.Create(s.ctx, s.owner, services.TaskInput{
		Title:   "URGENT client deadline",
		DueDate: "2025-03-10T20:00",
	})
	s.Require().NoError(err)

	s.Equal(5, task.UrgencyScore)
	s.Equal(5, task.ImportanceScore)
	s.Equal(models.Q1, task.Quadrant)
	s.Equal(models.StatusTodo, task.Status)
}

func (s *TaskServiceSuite) TestCreateKeepsExplicitScores() {
	task, err := s.svc.Create(s.ctx, s.owner, services.TaskInput{
		Title:           "URGENT client deadline",
		DueDate:         "2025-03-10T20:00:00Z",
		UrgencyScore:    intPtr(1),
		ImportanceScore: intPtr(4),
	})
	s.Require().NoError(err)

	s.Equal(1, task.UrgencyScore)
	s.Equal(models.Q2, task.Quadrant)
}

func (s *TaskServiceSuite) TestCreateValidation() {
	_, err := s.svc.Create(s.ctx, s.owner, services.TaskInput{Title: "Report", DueDate: "tomorrow"})
	s.ErrorIs(err, models.ErrInvalidTask)

	var fieldErrs criterio.FieldErrors
	s.Require().ErrorAs(err, &fieldErrs)
	s.Equal("due_date", fieldErrs[0].Field)

	_, err = s.svc.Create(s.ctx, s.owner, services.TaskInput{Title: "ab", DueDate: "2025-03-11T10:00", UrgencyScore: intPtr(9)})
	s.ErrorIs(err, models.ErrInvalidTask)
	s.Require().ErrorAs(err, &fieldErrs)
	s.Len(fieldErrs, 2)

	list, err := s.svc.List(s.ctx, s.owner, repositories.TaskFilter{})
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *TaskServiceSuite) TestMutationsRefreshStatistics() {
	a, err := s.svc.Create(s.ctx, s.owner, services.TaskInput{Title: "Plan quarter", DueDate: "2025-04-01T09:00", UrgencyScore: intPtr(2), ImportanceScore: intPtr(5)})
	s.Require().NoError(err)
	_, err = s.svc.QuickCreate(s.ctx, s.owner, services.QuickTaskInput{Title: "Water plants", DueDate: "2025-03-20T09:00"})
	s.Require().NoError(err)

	stats := s.storedStats()
	s.Equal(2, stats.TotalCreated)
	s.Zero(stats.TotalCompleted)

	_, err = s.svc.ToggleStatus(s.ctx, s.owner, a.ID)
	s.Require().NoError(err)

	stats = s.storedStats()
	s.Equal(1, stats.TotalCompleted)
	s.Equal(1, stats.Q2Completed)
	s.Equal(50.0, stats.CompletionRate())
	s.True(stats.LastUpdated.Equal(now))

	s.Require().NoError(s.svc.Delete(s.ctx, s.owner, a.ID))
	stats = s.storedStats()
	s.Equal(1, stats.TotalCreated)
	s.Zero(stats.TotalCompleted)
}

func (s *TaskServiceSuite) TestUpdateReclassifies() {
	task, err := s.svc.Create(s.ctx, s.owner, services.TaskInput{Title: "Tidy desk", DueDate: "2025-04-01T09:00", UrgencyScore: intPtr(1), ImportanceScore: intPtr(1)})
	s.Require().NoError(err)
	s.Equal(models.Q4, task.Quadrant)

	updated, err := s.svc.Update(s.ctx, s.owner, task.ID, services.TaskInput{
		Title:        "Tidy desk before audit",
		DueDate:      "2025-03-10T12:00",
		UrgencyScore: intPtr(5),
		Status:       models.StatusInProgress,
	})
	s.Require().NoError(err)
	s.Equal(models.Q3, updated.Quadrant)
	s.Equal(1, updated.ImportanceScore)
	s.Equal(models.StatusInProgress, updated.Status)

	got, err := s.svc.Get(s.ctx, s.owner, task.ID)
	s.Require().NoError(err)
	s.Equal(models.Q3, got.Quadrant)
}

func (s *TaskServiceSuite) TestUpdateUnknownTask() {
	_, err := s.svc.Update(s.ctx, s.owner, uuid.Must(uuid.NewV4()), services.TaskInput{Title: "Nope", DueDate: "2025-03-11T09:00"})
	s.ErrorIs(err, repositories.ErrTaskNotFound)
}

func (s *TaskServiceSuite) TestMoveToQuadrant() {
	task, err := s.svc.QuickCreate(s.ctx, s.owner, services.QuickTaskInput{Title: "Call supplier", DueDate: "2025-04-10T09:00"})
	s.Require().NoError(err)

	moved, err := s.svc.MoveToQuadrant(s.ctx, s.owner, task.ID, models.Q2)
	s.Require().NoError(err)
	s.Equal(models.Q2, moved.Quadrant)
	s.Equal(2, moved.UrgencyScore)
	s.Equal(5, moved.ImportanceScore)

	_, err = s.svc.MoveToQuadrant(s.ctx, s.owner, task.ID, "Q5")
	s.ErrorIs(err, models.ErrInvalidTask)
}

func (s *TaskServiceSuite) TestOwnershipIsolation() {
	task, err := s.svc.QuickCreate(s.ctx, s.owner, services.QuickTaskInput{Title: "Secret plan", DueDate: "2025-04-10T09:00"})
	s.Require().NoError(err)

	other := uuid.Must(uuid.NewV4())
	_, err = s.svc.Get(s.ctx, other, task.ID)
	s.ErrorIs(err, repositories.ErrTaskNotFound)
	s.ErrorIs(s.svc.Delete(s.ctx, other, task.ID), repositories.ErrTaskNotFound)
}

func (s *TaskServiceSuite) TestRecommendationAlertsAttention() {
	_, ok, err := s.svc.Recommendation(s.ctx, s.owner)
	s.Require().NoError(err)
	s.False(ok)

	alerts, err := s.svc.Alerts(s.ctx, s.owner)
	s.Require().NoError(err)
	s.NotNil(alerts)
	s.Empty(alerts)

	overdue, err := s.svc.Create(s.ctx, s.owner, services.TaskInput{Title: "Overdue invoice", DueDate: "2025-03-10T07:00", UrgencyScore: intPtr(5), ImportanceScore: intPtr(5)})
	s.Require().NoError(err)
	_, err = s.svc.Create(s.ctx, s.owner, services.TaskInput{Title: "Plan roadmap", DueDate: "2025-03-20T09:00", UrgencyScore: intPtr(2), ImportanceScore: intPtr(5)})
	s.Require().NoError(err)
	soon, err := s.svc.Create(s.ctx, s.owner, services.TaskInput{Title: "Book room", DueDate: "2025-03-10T11:00", UrgencyScore: intPtr(2), ImportanceScore: intPtr(2)})
	s.Require().NoError(err)

	rec, ok, err := s.svc.Recommendation(s.ctx, s.owner)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(overdue.ID, rec.ID)

	alerts, err = s.svc.Alerts(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Require().Len(alerts, 2)
	s.Equal(matrix.AlertDanger, alerts[0].Level)
	s.Equal(matrix.AlertWarning, alerts[1].Level)

	attention, err := s.svc.Attention(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Require().Len(attention, 2)
	s.Equal(overdue.ID, attention[0].ID)
	s.Equal(soon.ID, attention[1].ID)
}

func (s *TaskServiceSuite) TestDashboard() {
	_, err := s.svc.Create(s.ctx, s.owner, services.TaskInput{Title: "Fix outage", DueDate: "2025-03-10T10:00", UrgencyScore: intPtr(5), ImportanceScore: intPtr(5)})
	s.Require().NoError(err)
	done, err := s.svc.Create(s.ctx, s.owner, services.TaskInput{Title: "Send slides", DueDate: "2025-03-09T10:00", UrgencyScore: intPtr(2), ImportanceScore: intPtr(5)})
	s.Require().NoError(err)
	_, err = s.svc.ToggleStatus(s.ctx, s.owner, done.ID)
	s.Require().NoError(err)

	d, err := s.svc.Dashboard(s.ctx, s.owner, repositories.TaskFilter{})
	s.Require().NoError(err)
	s.Len(d.Board.Q1, 1)
	s.Len(d.Board.Completed, 1)
	s.Equal(1, d.TotalActive)
	s.Equal(1, d.TotalCompleted)
	s.Require().NotNil(d.Recommendation)
	s.Equal("Fix outage", d.Recommendation.Title)
	s.Equal(50.0, d.Insights.CompletionRate)

	filtered, err := s.svc.Dashboard(s.ctx, s.owner, repositories.TaskFilter{Search: "slides"})
	s.Require().NoError(err)
	s.Empty(filtered.Board.Q1)
	s.Len(filtered.Board.Completed, 1)
	s.Equal(1, filtered.TotalActive, "totals ignore the filter")
}

func (s *TaskServiceSuite) TestSuggest() {
	got, err := s.svc.Suggest(services.SuggestInput{Title: "maybe optional task", DueDate: "2025-03-30T09:00"})
	s.Require().NoError(err)
	s.Equal(matrix.Suggestion{Urgency: 2, Importance: 2}, got)

	_, err = s.svc.Suggest(services.SuggestInput{Title: "anything"})
	s.ErrorIs(err, matrix.ErrNoDueDate)
}

func (s *TaskServiceSuite) TestStatisticsOverview() {
	_, err := s.svc.Create(s.ctx, s.owner, services.TaskInput{Title: "Plan quarter", DueDate: "2025-04-01T09:00", UrgencyScore: intPtr(2), ImportanceScore: intPtr(5)})
	s.Require().NoError(err)

	overview, err := s.stats.Overview(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal(1, overview.Statistics.TotalCreated)
	s.Equal(1, overview.Breakdown[models.Q2].Active)
	s.Equal(1, overview.Insights.QuadrantDistribution[models.Q2])
	s.Require().NotEmpty(overview.Insights.Recommendations)
	s.Equal(matrix.AdviceSuccess, overview.Insights.Recommendations[0].Kind)
}
