package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/hay-kot/criterio"
)

var ErrInvalidTask = errors.New("invalid task")

type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

const (
	MinScore     = 1
	MaxScore     = 5
	DefaultScore = 3

	MinTitleLength = 3
)

type Task struct {
	ID              uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserID          uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index:idx_tasks_owner_quadrant_status,priority:1"`
	Title           string    `json:"title" gorm:"size:200;not null"`
	Description     string    `json:"description"`
	DueDate         time.Time `json:"due_date" gorm:"not null;index"`
	UrgencyScore    int       `json:"urgency_score" gorm:"not null;default:3"`
	ImportanceScore int       `json:"importance_score" gorm:"not null;default:3"`
	Status          Status    `json:"status" gorm:"size:20;not null;default:'TODO';index:idx_tasks_owner_quadrant_status,priority:3"`
	Quadrant        Quadrant  `json:"quadrant" gorm:"size:2;not null;index:idx_tasks_owner_quadrant_status,priority:2"`
	Order           int       `json:"order" gorm:"column:display_order;not null;default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewTask returns a TODO task with neutral scores, already classified.
func NewTask(owner uuid.UUID, title string, due time.Time) Task {
	t := Task{
		ID:              uuid.Must(uuid.NewV4()),
		UserID:          owner,
		Title:           strings.TrimSpace(title),
		DueDate:         due,
		UrgencyScore:    DefaultScore,
		ImportanceScore: DefaultScore,
		Status:          StatusTodo,
	}
	t.Reclassify()
	return t
}

// Reclassify recomputes the quadrant from the current scores. Callers must
// invoke it after changing either score and before persisting.
func (t *Task) Reclassify() {
	t.Quadrant = Classify(t.UrgencyScore, t.ImportanceScore)
}

func (t *Task) SetScores(urgency, importance int) {
	t.UrgencyScore = urgency
	t.ImportanceScore = importance
	t.Reclassify()
}

func (t Task) Validate() error {
	err := criterio.ValidateStruct(
		criterio.Run("title", t.Title, validateTitle),
		criterio.Run("urgency_score", t.UrgencyScore, validateScore),
		criterio.Run("importance_score", t.ImportanceScore, validateScore),
		criterio.Run("status", t.Status, validateStatus),
		criterio.Run("due_date", t.DueDate, validateDueDate),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTask, err)
	}
	return nil
}

func validateTitle(title string) error {
	if len([]rune(strings.TrimSpace(title))) < MinTitleLength {
		return fmt.Errorf("must contain at least %d characters", MinTitleLength)
	}
	if len(title) > 200 {
		return errors.New("must not exceed 200 characters")
	}
	return nil
}

func validateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return fmt.Errorf("must be between %d and %d", MinScore, MaxScore)
	}
	return nil
}

func validateStatus(s Status) error {
	if !s.Valid() {
		return fmt.Errorf("unknown status %q", s)
	}
	return nil
}

func validateDueDate(due time.Time) error {
	if due.IsZero() {
		return errors.New("is required")
	}
	return nil
}

func (t Task) IsActive() bool {
	return t.Status != StatusDone
}

func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate.Before(now) && t.IsActive()
}

// IsDueSoon reports whether the deadline falls strictly within the next 24 hours.
func (t Task) IsDueSoon(now time.Time) bool {
	until := t.DueDate.Sub(now)
	return until > 0 && until < 24*time.Hour
}

func (t Task) PriorityScore(now time.Time) int {
	return PriorityScore(t.UrgencyScore, t.ImportanceScore, t.DueDate, now)
}

// ToggleStatus flips DONE back to TODO; every other status becomes DONE.
func (t *Task) ToggleStatus() {
	if t.Status == StatusDone {
		t.Status = StatusTodo
		return
	}
	t.Status = StatusDone
}

// MoveTo overwrites both scores with the canonical pair of the target quadrant.
func (t *Task) MoveTo(q Quadrant) error {
	scores, ok := CanonicalScores(q)
	if !ok {
		return fmt.Errorf("%w: unknown quadrant %q", ErrInvalidTask, q)
	}
	t.SetScores(scores.Urgency, scores.Importance)
	return nil
}

func (t Task) String() string {
	return fmt.Sprintf("%s (%s)", t.Title, t.Quadrant.Label())
}

func ScoreLabel(score int) string {
	switch score {
	case 1:
		return "Very low"
	case 2:
		return "Low"
	case 3:
		return "Medium"
	case 4:
		return "High"
	case 5:
		return "Critical"
	default:
		return "Undefined"
	}
}
