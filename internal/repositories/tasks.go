// Package repositories persists tasks, statistics, users and refresh
// tokens through gorm.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"task-matrix/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

var ErrTaskNotFound = errors.New("task not found")

type TaskFilter struct {
	Status     models.Status   `form:"status"`
	Quadrant   models.Quadrant `form:"quadrant"`
	Search     string          `form:"search"`
	DueBefore  *time.Time      `form:"-"`
	ActiveOnly bool            `form:"-"`
}

// IsZero reports whether the filter selects every task of the owner.
func (f TaskFilter) IsZero() bool {
	return f.Status == "" && f.Quadrant == "" && strings.TrimSpace(f.Search) == "" && f.DueBefore == nil && !f.ActiveOnly
}

type TaskRepository interface {
	FindByOwner(ctx context.Context, owner uuid.UUID, filter TaskFilter) ([]models.Task, error)
	FindByID(ctx context.Context, owner, id uuid.UUID) (models.Task, error)
	Save(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

type GormTaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

func (r *GormTaskRepository) FindByOwner(ctx context.Context, owner uuid.UUID, filter TaskFilter) ([]models.Task, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", owner)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ActiveOnly {
		query = query.Where("status <> ?", models.StatusDone)
	}
	if filter.Quadrant != "" {
		query = query.Where("quadrant = ?", filter.Quadrant)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date <= ?", *filter.DueBefore)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var tasks []models.Task
	if err := query.Order("due_date ASC").Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	return tasks, nil
}

func (r *GormTaskRepository) FindByID(ctx context.Context, owner, id uuid.UUID) (models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, owner).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Task{}, ErrTaskNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("find task %s: %w", id, err)
	}
	return task, nil
}

// Save inserts or updates the task as given. The quadrant is stored as is;
// callers reclassify before saving.
func (r *GormTaskRepository) Save(ctx context.Context, task *models.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.Must(uuid.NewV4())
	}
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task %s: %w", task.ID, err)
	}
	return nil
}

func (r *GormTaskRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, owner).Delete(&models.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
