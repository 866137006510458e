package services

import (
	"context"
	"fmt"

	"task-matrix/internal/logging"
	"task-matrix/internal/matrix"
	"task-matrix/internal/models"
	"task-matrix/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

type StatisticsOverview struct {
	Statistics models.TaskStatistics                     `json:"statistics"`
	Breakdown  map[models.Quadrant]matrix.QuadrantCounts `json:"breakdown"`
	Insights   matrix.Insights                           `json:"insights"`
}

type StatisticsService interface {
	Refresh(ctx context.Context, owner uuid.UUID) (models.TaskStatistics, error)
	Overview(ctx context.Context, owner uuid.UUID) (StatisticsOverview, error)
}

type StatisticsServiceImpl struct {
	tasks repositories.TaskRepository
	stats repositories.StatisticsRepository
	clock matrix.Clock
	log   zerolog.Logger
}

func NewStatisticsService(tasks repositories.TaskRepository, stats repositories.StatisticsRepository, clock matrix.Clock, l zerolog.Logger) *StatisticsServiceImpl {
	return &StatisticsServiceImpl{
		tasks: tasks,
		stats: stats,
		clock: clock,
		log:   logging.Component(l, "statistics"),
	}
}

// Refresh rebuilds the owner's statistics row from the full task set.
func (s *StatisticsServiceImpl) Refresh(ctx context.Context, owner uuid.UUID) (models.TaskStatistics, error) {
	tasks, err := s.tasks.FindByOwner(ctx, owner, repositories.TaskFilter{})
	if err != nil {
		return models.TaskStatistics{}, err
	}
	return s.store(ctx, owner, tasks)
}

func (s *StatisticsServiceImpl) store(ctx context.Context, owner uuid.UUID, tasks []models.Task) (models.TaskStatistics, error) {
	stats := matrix.Recompute(tasks)
	stats.UserID = owner
	stats.LastUpdated = s.clock.Now()

	if err := s.stats.Save(ctx, &stats); err != nil {
		return models.TaskStatistics{}, fmt.Errorf("refresh statistics: %w", err)
	}

	s.log.Debug().
		Str("user_id", owner.String()).
		Int("total", stats.TotalCreated).
		Int("completed", stats.TotalCompleted).
		Msg("statistics refreshed")
	return stats, nil
}

func (s *StatisticsServiceImpl) Overview(ctx context.Context, owner uuid.UUID) (StatisticsOverview, error) {
	tasks, err := s.tasks.FindByOwner(ctx, owner, repositories.TaskFilter{})
	if err != nil {
		return StatisticsOverview{}, err
	}

	stats, err := s.store(ctx, owner, tasks)
	if err != nil {
		return StatisticsOverview{}, err
	}

	return StatisticsOverview{
		Statistics: stats,
		Breakdown:  matrix.Breakdown(tasks),
		Insights:   matrix.BuildInsights(stats, matrix.ActiveOnly(tasks)),
	}, nil
}
