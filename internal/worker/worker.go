// Package worker runs background jobs pulled from Redis lists.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"task-matrix/internal/logging"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type JobType string

const (
	JobTypeStatisticsRefresh JobType = "statistics_refresh"
	JobTypeAlertDigest       JobType = "alert_digest"
)

const (
	QueueHighPriority = "high_priority"
	QueueDefault      = "default"
	QueueLowPriority  = "low_priority"
	QueueRetry        = "retry_queue"
	QueueDead         = "dead_queue"
)

var ErrNoHandler = errors.New("no handler registered for job type")

type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	MaxTries  int             `json:"max_tries"`
	LastError string          `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	ProcessAt time.Time       `json:"process_at"`
}

func (j *Job) Decode(v interface{}) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", j.Type, err)
	}
	return nil
}

type DeadJob struct {
	Job      Job       `json:"original_job"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

type JobHandler func(ctx context.Context, job *Job) error

type WorkerConfig struct {
	RedisClient  *redis.Client
	PollInterval time.Duration
	Queues       []string
	RetryBase    time.Duration
	JobTimeout   time.Duration
	Logger       zerolog.Logger
}

type Worker struct {
	client   *redis.Client
	handlers map[JobType]JobHandler
	queues   []string
	poll     time.Duration
	base     time.Duration
	timeout  time.Duration
	log      zerolog.Logger
	now      func() time.Time
	mu       sync.RWMutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewWorker(config WorkerConfig) *Worker {
	queues := config.Queues
	if len(queues) == 0 {
		queues = []string{QueueHighPriority, QueueDefault, QueueLowPriority}
	}
	queues = append(append([]string(nil), queues...), QueueRetry)

	w := &Worker{
		client:   config.RedisClient,
		handlers: make(map[JobType]JobHandler),
		queues:   queues,
		poll:     config.PollInterval,
		base:     config.RetryBase,
		timeout:  config.JobTimeout,
		log:      logging.Component(config.Logger, "worker"),
		now:      time.Now,
	}
	if w.poll <= 0 {
		w.poll = 5 * time.Second
	}
	if w.base <= 0 {
		w.base = time.Minute
	}
	if w.timeout <= 0 {
		w.timeout = 30 * time.Second
	}
	return w
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

// Start launches concurrency consumer goroutines that run until Stop is
// called or ctx is cancelled.
func (w *Worker) Start(ctx context.Context, concurrency int) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.log.Info().Int("concurrency", concurrency).Strs("queues", w.queues).Msg("starting worker")

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx)
	}
}

func (w *Worker) Stop() {
	w.log.Info().Msg("stopping worker")
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.log.Info().Msg("worker stopped")
}

func (w *Worker) workerLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		processed, err := w.ProcessNext(ctx)
		if err != nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("error processing job")
		}
		if err != nil || !processed {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// ProcessNext pops one job, honouring queue order, and runs it. It reports
// false when no job was ready within the poll interval.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	result, err := w.client.BLPop(ctx, w.poll, w.queues...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to pop job: %w", err)
	}

	if len(result) < 2 {
		return false, errors.New("invalid job result")
	}

	queue, jobData := result[0], result[1]

	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return false, fmt.Errorf("failed to unmarshal job from %s: %w", queue, err)
	}

	if w.now().Before(job.ProcessAt) {
		return false, w.push(ctx, queue, &job)
	}

	return true, w.execute(ctx, &job)
}

func (w *Worker) execute(ctx context.Context, job *Job) error {
	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	logger := w.log.With().Str("job_id", job.ID).Str("job_type", string(job.Type)).Logger()

	if !exists {
		logger.Error().Msg("no handler registered, moving to dead queue")
		return w.moveToDeadQueue(ctx, job, fmt.Errorf("%w: %s", ErrNoHandler, job.Type))
	}

	logger.Debug().Int("attempt", job.Attempts+1).Msg("processing job")

	jobCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := handler(jobCtx, job); err != nil {
		job.Attempts++
		job.LastError = err.Error()
		if job.Attempts < job.MaxTries {
			logger.Warn().Err(err).Int("attempt", job.Attempts).Int("max_tries", job.MaxTries).Msg("job failed, retrying")
			return w.retry(ctx, job)
		}

		logger.Error().Err(err).Int("attempts", job.Attempts).Msg("job failed permanently")
		return w.moveToDeadQueue(ctx, job, err)
	}

	logger.Info().Msg("job completed")
	return nil
}

// RetryDelay doubles with each failed attempt starting from base.
func RetryDelay(base time.Duration, attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return base * time.Duration(1<<(attempts-1))
}

func (w *Worker) retry(ctx context.Context, job *Job) error {
	job.ProcessAt = w.now().Add(RetryDelay(w.base, job.Attempts))
	return w.push(ctx, QueueRetry, job)
}

func (w *Worker) push(ctx context.Context, queue string, job *Job) error {
	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return w.client.RPush(ctx, queue, jobData).Err()
}

func (w *Worker) moveToDeadQueue(ctx context.Context, job *Job, jobErr error) error {
	deadJobData, err := json.Marshal(DeadJob{
		Job:      *job,
		Error:    jobErr.Error(),
		FailedAt: w.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}

	return w.client.RPush(ctx, QueueDead, deadJobData).Err()
}

type JobQueue struct {
	client   *redis.Client
	maxTries int
}

func NewJobQueue(client *redis.Client, maxTries int) *JobQueue {
	if maxTries < 1 {
		maxTries = 1
	}
	return &JobQueue{client: client, maxTries: maxTries}
}

func (q *JobQueue) Enqueue(ctx context.Context, queue string, jobType JobType, payload interface{}) (Job, error) {
	return q.EnqueueAt(ctx, queue, jobType, payload, time.Now())
}

func (q *JobQueue) EnqueueAt(ctx context.Context, queue string, jobType JobType, payload interface{}, processAt time.Time) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	job := Job{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Type:      jobType,
		Payload:   raw,
		MaxTries:  q.maxTries,
		CreatedAt: time.Now(),
		ProcessAt: processAt,
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return Job{}, fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.RPush(ctx, queue, jobData).Err(); err != nil {
		return Job{}, fmt.Errorf("failed to enqueue %s: %w", jobType, err)
	}
	return job, nil
}

func (q *JobQueue) QueueSize(ctx context.Context, queue string) (int64, error) {
	return q.client.LLen(ctx, queue).Result()
}

// Sizes reports the length of every queue the worker knows about.
func (q *JobQueue) Sizes(ctx context.Context) (map[string]int64, error) {
	sizes := make(map[string]int64)
	for _, queue := range []string{QueueHighPriority, QueueDefault, QueueLowPriority, QueueRetry, QueueDead} {
		n, err := q.QueueSize(ctx, queue)
		if err != nil {
			return nil, err
		}
		sizes[queue] = n
	}
	return sizes, nil
}
