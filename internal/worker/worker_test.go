package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"task-matrix/internal/matrix"
	"task-matrix/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newTestWorker(client *redis.Client, logs *bytes.Buffer) *Worker {
	return NewWorker(WorkerConfig{
		RedisClient:  client,
		PollInterval: 50 * time.Millisecond,
		RetryBase:    time.Minute,
		Logger:       zerolog.New(logs),
	})
}

type refresherFunc func(ctx context.Context, owner uuid.UUID) (models.TaskStatistics, error)

func (f refresherFunc) Refresh(ctx context.Context, owner uuid.UUID) (models.TaskStatistics, error) {
	return f(ctx, owner)
}

type alertsFunc func(ctx context.Context, owner uuid.UUID) ([]matrix.Alert, error)

func (f alertsFunc) Alerts(ctx context.Context, owner uuid.UUID) ([]matrix.Alert, error) {
	return f(ctx, owner)
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, time.Minute, RetryDelay(time.Minute, 1))
	assert.Equal(t, 2*time.Minute, RetryDelay(time.Minute, 2))
	assert.Equal(t, 4*time.Minute, RetryDelay(time.Minute, 3))
	assert.Equal(t, time.Minute, RetryDelay(time.Minute, 0))
}

func TestStatisticsRefreshJob(t *testing.T) {
	ctx := context.Background()
	client := setupTestRedis(t)
	var logs bytes.Buffer
	w := newTestWorker(client, &logs)
	q := NewJobQueue(client, 3)

	owner := uuid.Must(uuid.NewV4())
	var refreshed uuid.UUID
	w.RegisterHandler(JobTypeStatisticsRefresh, StatisticsRefreshHandler(refresherFunc(func(ctx context.Context, id uuid.UUID) (models.TaskStatistics, error) {
		refreshed = id
		return models.TaskStatistics{UserID: id, TotalCreated: 4, TotalCompleted: 1}, nil
	}), w.log))

	_, err := q.EnqueueStatisticsRefresh(ctx, owner)
	require.NoError(t, err)

	processed, err := w.ProcessNext(ctx)
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, owner, refreshed)
	assert.Contains(t, logs.String(), "statistics refreshed")

	n, err := q.QueueSize(ctx, QueueDefault)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAlertDigestJob(t *testing.T) {
	ctx := context.Background()
	client := setupTestRedis(t)
	var logs bytes.Buffer
	w := newTestWorker(client, &logs)
	q := NewJobQueue(client, 3)

	w.RegisterHandler(JobTypeAlertDigest, AlertDigestHandler(alertsFunc(func(ctx context.Context, id uuid.UUID) ([]matrix.Alert, error) {
		return []matrix.Alert{{Level: matrix.AlertDanger, Message: "You have 2 overdue tasks", Count: 2}}, nil
	}), w.log))

	_, err := q.EnqueueAlertDigest(ctx, uuid.Must(uuid.NewV4()))
	require.NoError(t, err)

	processed, err := w.ProcessNext(ctx)
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Contains(t, logs.String(), "You have 2 overdue tasks")
	assert.Contains(t, logs.String(), `"alert_level":"danger"`)
}

func TestQueuePriorityOrder(t *testing.T) {
	ctx := context.Background()
	client := setupTestRedis(t)
	w := newTestWorker(client, &bytes.Buffer{})
	q := NewJobQueue(client, 1)

	var order []string
	w.RegisterHandler("probe", func(ctx context.Context, job *Job) error {
		var name string
		require.NoError(t, job.Decode(&name))
		order = append(order, name)
		return nil
	})

	_, err := q.Enqueue(ctx, QueueLowPriority, "probe", "low")
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, QueueDefault, "probe", "default")
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, QueueHighPriority, "probe", "high")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := w.ProcessNext(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"high", "default", "low"}, order)
}

func TestFailedJobRetriesThenDies(t *testing.T) {
	ctx := context.Background()
	client := setupTestRedis(t)
	w := newTestWorker(client, &bytes.Buffer{})
	q := NewJobQueue(client, 2)

	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	calls := 0
	w.RegisterHandler(JobTypeStatisticsRefresh, func(ctx context.Context, job *Job) error {
		calls++
		return errors.New("database is locked")
	})

	_, err := q.EnqueueAt(ctx, QueueDefault, JobTypeStatisticsRefresh, UserPayload{UserID: uuid.Must(uuid.NewV4())}, now)
	require.NoError(t, err)

	_, err = w.ProcessNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	raw, err := client.LIndex(ctx, QueueRetry, 0).Result()
	require.NoError(t, err)
	var retried Job
	require.NoError(t, json.Unmarshal([]byte(raw), &retried))
	assert.Equal(t, 1, retried.Attempts)
	assert.Equal(t, now.Add(time.Minute), retried.ProcessAt.UTC())
	assert.Equal(t, "database is locked", retried.LastError)

	// not due yet: pushed back without running
	processed, err := w.ProcessNext(ctx)
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Equal(t, 1, calls)

	now = now.Add(time.Minute)
	processed, err = w.ProcessNext(ctx)
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, 2, calls)

	n, err := client.LLen(ctx, QueueRetry).Result()
	require.NoError(t, err)
	assert.Zero(t, n)

	raw, err = client.LIndex(ctx, QueueDead, 0).Result()
	require.NoError(t, err)
	var dead DeadJob
	require.NoError(t, json.Unmarshal([]byte(raw), &dead))
	assert.Equal(t, "database is locked", dead.Error)
	assert.Equal(t, 2, dead.Job.Attempts)
}

func TestUnknownJobTypeGoesToDeadQueue(t *testing.T) {
	ctx := context.Background()
	client := setupTestRedis(t)
	w := newTestWorker(client, &bytes.Buffer{})
	q := NewJobQueue(client, 3)

	_, err := q.Enqueue(ctx, QueueDefault, "mystery", map[string]string{})
	require.NoError(t, err)

	_, err = w.ProcessNext(ctx)
	require.NoError(t, err)

	sizes, err := q.Sizes(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, sizes[QueueDead])
	assert.EqualValues(t, 0, sizes[QueueDefault])
}

func TestMissingUserIDFails(t *testing.T) {
	handler := StatisticsRefreshHandler(refresherFunc(func(ctx context.Context, id uuid.UUID) (models.TaskStatistics, error) {
		t.Fatal("refresh must not run without a user")
		return models.TaskStatistics{}, nil
	}), zerolog.Nop())

	err := handler(context.Background(), &Job{Type: JobTypeStatisticsRefresh, Payload: json.RawMessage(`{}`)})
	assert.Error(t, err)
}

func TestProcessNext_EmptyQueues(t *testing.T) {
	client := setupTestRedis(t)
	w := newTestWorker(client, &bytes.Buffer{})

	processed, err := w.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestStartStop(t *testing.T) {
	ctx := context.Background()
	client := setupTestRedis(t)
	w := newTestWorker(client, &bytes.Buffer{})
	q := NewJobQueue(client, 1)

	done := make(chan struct{})
	w.RegisterHandler(JobTypeAlertDigest, func(ctx context.Context, job *Job) error {
		close(done)
		return nil
	})

	w.Start(ctx, 2)
	_, err := q.EnqueueAlertDigest(ctx, uuid.Must(uuid.NewV4()))
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("job was not processed")
	}
	w.Stop()
}
