package services_test

import (
	"context"
	"testing"
	"time"

	"task-matrix/internal/cache"
	"task-matrix/internal/models"
	"task-matrix/internal/repositories"
	"task-matrix/internal/services"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) FindByOwner(ctx context.Context, owner uuid.UUID, filter repositories.TaskFilter) ([]models.Task, error) {
	args := m.Called(ctx, owner, filter)
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockTaskRepository) FindByID(ctx context.Context, owner, id uuid.UUID) (models.Task, error) {
	args := m.Called(ctx, owner, id)
	return args.Get(0).(models.Task), args.Error(1)
}

func (m *MockTaskRepository) Save(ctx context.Context, task *models.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	return m.Called(ctx, owner, id).Error(0)
}

func TestCachedTaskRepository_ListIsCachedUntilWrite(t *testing.T) {
	ctx := context.Background()
	owner := uuid.Must(uuid.NewV4())
	task := models.NewTask(owner, "Cached task", now)

	next := new(MockTaskRepository)
	next.On("FindByOwner", ctx, owner, repositories.TaskFilter{}).Return([]models.Task{task}, nil).Twice()
	next.On("Save", ctx, mock.AnythingOfType("*models.Task")).Return(nil).Once()

	repo := services.NewCachedTaskRepository(next, cache.NewMemoryCache(0), time.Minute, zerolog.Nop())

	for i := 0; i < 3; i++ {
		got, err := repo.FindByOwner(ctx, owner, repositories.TaskFilter{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, task.ID, got[0].ID)
	}

	require.NoError(t, repo.Save(ctx, &task))

	_, err := repo.FindByOwner(ctx, owner, repositories.TaskFilter{})
	require.NoError(t, err)

	next.AssertExpectations(t)
}

func TestCachedTaskRepository_FiltersHaveSeparateEntries(t *testing.T) {
	ctx := context.Background()
	owner := uuid.Must(uuid.NewV4())
	q1 := repositories.TaskFilter{Quadrant: models.Q1}

	next := new(MockTaskRepository)
	next.On("FindByOwner", ctx, owner, repositories.TaskFilter{}).Return([]models.Task{}, nil).Once()
	next.On("FindByOwner", ctx, owner, q1).Return([]models.Task{}, nil).Once()

	repo := services.NewCachedTaskRepository(next, cache.NewMemoryCache(0), time.Minute, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := repo.FindByOwner(ctx, owner, repositories.TaskFilter{})
		require.NoError(t, err)
		_, err = repo.FindByOwner(ctx, owner, q1)
		require.NoError(t, err)
	}
	next.AssertExpectations(t)
}

func TestCachedTaskRepository_DeleteInvalidatesOnlyOwner(t *testing.T) {
	ctx := context.Background()
	alice, bob := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	task := models.NewTask(alice, "Alice task", now)
	c := cache.NewMemoryCache(0)

	next := new(MockTaskRepository)
	next.On("FindByID", ctx, alice, task.ID).Return(task, nil).Twice()
	next.On("FindByOwner", ctx, bob, repositories.TaskFilter{}).Return([]models.Task{}, nil).Once()
	next.On("Delete", ctx, alice, task.ID).Return(nil).Once()

	repo := services.NewCachedTaskRepository(next, c, time.Minute, zerolog.Nop())

	_, err := repo.FindByID(ctx, alice, task.ID)
	require.NoError(t, err)
	_, err = repo.FindByOwner(ctx, bob, repositories.TaskFilter{})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, alice, task.ID))

	_, err = repo.FindByID(ctx, alice, task.ID)
	require.NoError(t, err)
	_, err = repo.FindByOwner(ctx, bob, repositories.TaskFilter{})
	require.NoError(t, err)

	next.AssertExpectations(t)
}

func TestCachedTaskRepository_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	owner, id := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	next := new(MockTaskRepository)
	next.On("FindByID", ctx, owner, id).Return(models.Task{}, repositories.ErrTaskNotFound).Twice()

	repo := services.NewCachedTaskRepository(next, cache.NewMemoryCache(0), time.Minute, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := repo.FindByID(ctx, owner, id)
		assert.ErrorIs(t, err, repositories.ErrTaskNotFound)
	}
	next.AssertExpectations(t)
}

func TestCachedTaskRepository_DeleteInvalidatesSearchWithSlash(t *testing.T) {
	ctx := context.Background()
	owner := uuid.Must(uuid.NewV4())
	task := models.NewTask(owner, "Review a/b test", now)
	filter := repositories.TaskFilter{Search: "a/b"}

	next := new(MockTaskRepository)
	next.On("FindByOwner", ctx, owner, filter).Return([]models.Task{task}, nil).Once()
	next.On("Delete", ctx, owner, task.ID).Return(nil).Once()
	next.On("FindByOwner", ctx, owner, filter).Return([]models.Task{}, nil).Once()

	repo := services.NewCachedTaskRepository(next, cache.NewMemoryCache(0), time.Minute, zerolog.Nop())

	tasks, err := repo.FindByOwner(ctx, owner, filter)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	require.NoError(t, repo.Delete(ctx, owner, task.ID))

	tasks, err = repo.FindByOwner(ctx, owner, filter)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	next.AssertExpectations(t)
}
