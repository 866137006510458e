package worker

import (
	"context"
	"errors"

	"task-matrix/internal/matrix"
	"task-matrix/internal/models"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

type UserPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

type StatisticsRefresher interface {
	Refresh(ctx context.Context, owner uuid.UUID) (models.TaskStatistics, error)
}

type AlertSource interface {
	Alerts(ctx context.Context, owner uuid.UUID) ([]matrix.Alert, error)
}

func userFrom(job *Job) (uuid.UUID, error) {
	var p UserPayload
	if err := job.Decode(&p); err != nil {
		return uuid.Nil, err
	}
	if p.UserID == uuid.Nil {
		return uuid.Nil, errors.New("payload is missing user_id")
	}
	return p.UserID, nil
}

func StatisticsRefreshHandler(stats StatisticsRefresher, l zerolog.Logger) JobHandler {
	return func(ctx context.Context, job *Job) error {
		owner, err := userFrom(job)
		if err != nil {
			return err
		}

		s, err := stats.Refresh(ctx, owner)
		if err != nil {
			return err
		}
		l.Info().
			Str("user_id", owner.String()).
			Int("total", s.TotalCreated).
			Float64("completion_rate", s.CompletionRate()).
			Msg("statistics refreshed")
		return nil
	}
}

// AlertDigestHandler scans the user's active tasks and logs one line per
// alert, or a single quiet line when nothing needs attention.
func AlertDigestHandler(alerts AlertSource, l zerolog.Logger) JobHandler {
	return func(ctx context.Context, job *Job) error {
		owner, err := userFrom(job)
		if err != nil {
			return err
		}

		found, err := alerts.Alerts(ctx, owner)
		if err != nil {
			return err
		}

		logger := l.With().Str("user_id", owner.String()).Logger()
		if len(found) == 0 {
			logger.Info().Msg("alert digest: nothing to report")
			return nil
		}
		for _, a := range found {
			logger.Info().
				Str("alert_level", string(a.Level)).
				Int("count", a.Count).
				Msg(a.Message)
		}
		return nil
	}
}

func (q *JobQueue) EnqueueStatisticsRefresh(ctx context.Context, owner uuid.UUID) (Job, error) {
	return q.Enqueue(ctx, QueueDefault, JobTypeStatisticsRefresh, UserPayload{UserID: owner})
}

func (q *JobQueue) EnqueueAlertDigest(ctx context.Context, owner uuid.UUID) (Job, error) {
	return q.Enqueue(ctx, QueueLowPriority, JobTypeAlertDigest, UserPayload{UserID: owner})
}
