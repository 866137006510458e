package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"task-matrix/internal/cache"
	"task-matrix/internal/logging"
	"task-matrix/internal/models"
	"task-matrix/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

// CachedTaskRepository caches per-owner task queries in front of another
// TaskRepository. Every write drops all cached entries of the owner.
type CachedTaskRepository struct {
	next  repositories.TaskRepository
	cache cache.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

func NewCachedTaskRepository(next repositories.TaskRepository, c cache.Cache, ttl time.Duration, l zerolog.Logger) *CachedTaskRepository {
	return &CachedTaskRepository{
		next:  next,
		cache: c,
		ttl:   ttl,
		log:   logging.Component(l, "task_cache"),
	}
}

func ownerPattern(owner uuid.UUID) string {
	return fmt.Sprintf("tasks:%s:*", owner)
}

// listKey escapes the search text so the owner glob always matches it.
func listKey(owner uuid.UUID, f repositories.TaskFilter) string {
	due := ""
	if f.DueBefore != nil {
		due = f.DueBefore.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("tasks:%s:list:%s|%s|%t|%s|%s", owner, f.Status, f.Quadrant, f.ActiveOnly, due, url.QueryEscape(f.Search))
}

func taskKey(owner, id uuid.UUID) string {
	return fmt.Sprintf("tasks:%s:task:%s", owner, id)
}

func (r *CachedTaskRepository) FindByOwner(ctx context.Context, owner uuid.UUID, filter repositories.TaskFilter) ([]models.Task, error) {
	key := listKey(owner, filter)

	var cached []models.Task
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	tasks, err := r.next.FindByOwner(ctx, owner, filter)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, tasks, r.ttl); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("failed to cache task list")
	}
	return tasks, nil
}

func (r *CachedTaskRepository) FindByID(ctx context.Context, owner, id uuid.UUID) (models.Task, error) {
	key := taskKey(owner, id)

	var cached models.Task
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	task, err := r.next.FindByID(ctx, owner, id)
	if err != nil {
		return task, err
	}

	if err := r.cache.Set(ctx, key, task, r.ttl); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("failed to cache task")
	}
	return task, nil
}

func (r *CachedTaskRepository) Save(ctx context.Context, task *models.Task) error {
	if err := r.next.Save(ctx, task); err != nil {
		return err
	}
	r.invalidate(ctx, task.UserID)
	return nil
}

func (r *CachedTaskRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if err := r.next.Delete(ctx, owner, id); err != nil {
		return err
	}
	r.invalidate(ctx, owner)
	return nil
}

func (r *CachedTaskRepository) invalidate(ctx context.Context, owner uuid.UUID) {
	if err := r.cache.DeletePattern(ctx, ownerPattern(owner)); err != nil {
		r.log.Warn().Err(err).Str("user_id", owner.String()).Msg("failed to invalidate task cache")
	}
}
