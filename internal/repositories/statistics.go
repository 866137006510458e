package repositories

import (
	"context"
	"fmt"

	"task-matrix/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type StatisticsRepository interface {
	GetOrCreate(ctx context.Context, owner uuid.UUID) (models.TaskStatistics, error)
	Save(ctx context.Context, stats *models.TaskStatistics) error
}

type GormStatisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) *GormStatisticsRepository {
	return &GormStatisticsRepository{db: db}
}

func (r *GormStatisticsRepository) GetOrCreate(ctx context.Context, owner uuid.UUID) (models.TaskStatistics, error) {
	stats := models.TaskStatistics{UserID: owner}
	if err := r.db.WithContext(ctx).Where(models.TaskStatistics{UserID: owner}).FirstOrCreate(&stats).Error; err != nil {
		return models.TaskStatistics{}, fmt.Errorf("load statistics for %s: %w", owner, err)
	}
	return stats, nil
}

func (r *GormStatisticsRepository) Save(ctx context.Context, stats *models.TaskStatistics) error {
	if err := r.db.WithContext(ctx).Save(stats).Error; err != nil {
		return fmt.Errorf("save statistics for %s: %w", stats.UserID, err)
	}
	return nil
}
