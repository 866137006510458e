package models

import (
	"math"
	"time"

	"github.com/gofrs/uuid"
)

// TaskStatistics is a per-user cache of counters derived from the user's
// tasks. It is always rebuilt from scratch, never incremented.
type TaskStatistics struct {
	UserID         uuid.UUID `json:"user_id" gorm:"primaryKey;type:uuid"`
	Q1Completed    int       `json:"q1_completed" gorm:"not null;default:0"`
	Q2Completed    int       `json:"q2_completed" gorm:"not null;default:0"`
	Q3Completed    int       `json:"q3_completed" gorm:"not null;default:0"`
	Q4Completed    int       `json:"q4_completed" gorm:"not null;default:0"`
	TotalCreated   int       `json:"total_tasks_created" gorm:"not null;default:0"`
	TotalCompleted int       `json:"total_tasks_completed" gorm:"not null;default:0"`
	LastUpdated    time.Time `json:"last_updated"`
}

func (TaskStatistics) TableName() string {
	return "task_statistics"
}

// CompletionRate returns the completed percentage rounded to one decimal,
// or 0 when no task was ever created.
func (s TaskStatistics) CompletionRate() float64 {
	if s.TotalCreated == 0 {
		return 0
	}
	rate := float64(s.TotalCompleted) / float64(s.TotalCreated) * 100
	return math.Round(rate*10) / 10
}

func (s TaskStatistics) CompletedIn(q Quadrant) int {
	switch q {
	case Q1:
		return s.Q1Completed
	case Q2:
		return s.Q2Completed
	case Q3:
		return s.Q3Completed
	case Q4:
		return s.Q4Completed
	}
	return 0
}
