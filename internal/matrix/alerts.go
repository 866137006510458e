package matrix

import (
	"fmt"
	"sort"
	"time"

	"task-matrix/internal/models"
)

type AlertLevel string

const (
	AlertDanger  AlertLevel = "danger"
	AlertWarning AlertLevel = "warning"
	AlertInfo    AlertLevel = "info"
)

// MaxAlertSamples bounds the number of tasks attached to an alert.
const MaxAlertSamples = 3

type Alert struct {
	Level   AlertLevel    `json:"level"`
	Message string        `json:"message"`
	Count   int           `json:"count"`
	Tasks   []models.Task `json:"tasks"`
}

// Scan reports overdue tasks (danger), tasks due within 24 hours (warning)
// and Q2 tasks due within 48 hours (info), in that order. Empty categories
// are omitted and a task may appear in several alerts.
func Scan(active []models.Task, now time.Time) []Alert {
	var (
		dayAhead    = now.Add(24 * time.Hour)
		twoDays     = now.Add(48 * time.Hour)
		alerts      []Alert
		overdue     = filter(active, func(t models.Task) bool { return t.DueDate.Before(now) })
		dueSoon     = filter(active, func(t models.Task) bool { return !t.DueDate.Before(now) && !t.DueDate.After(dayAhead) })
		q2Escalates = filter(active, func(t models.Task) bool { return t.Quadrant == models.Q2 && !t.DueDate.After(twoDays) })
	)

	if len(overdue) > 0 {
		alerts = append(alerts, newAlert(AlertDanger, overdue, "You have %d overdue task(s)!"))
	}
	if len(dueSoon) > 0 {
		alerts = append(alerts, newAlert(AlertWarning, dueSoon, "%d task(s) due within 24 hours"))
	}
	if len(q2Escalates) > 0 {
		alerts = append(alerts, newAlert(AlertInfo, q2Escalates, "%d important task(s) becoming urgent"))
	}
	return alerts
}

func newAlert(level AlertLevel, tasks []models.Task, format string) Alert {
	return Alert{
		Level:   level,
		Message: fmt.Sprintf(format, len(tasks)),
		Count:   len(tasks),
		Tasks:   samples(tasks),
	}
}

func samples(tasks []models.Task) []models.Task {
	sorted := SortByDueDate(tasks)
	if len(sorted) > MaxAlertSamples {
		sorted = sorted[:MaxAlertSamples]
	}
	return sorted
}

// SortByDueDate returns a copy ordered by ascending due date, keeping input
// order between equal deadlines.
func SortByDueDate(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}

// RequiringAttention lists active tasks that are in Q1 or due within the
// next 24 hours (overdue included), earliest deadline first.
func RequiringAttention(active []models.Task, now time.Time) []models.Task {
	dayAhead := now.Add(24 * time.Hour)
	return SortByDueDate(filter(active, func(t models.Task) bool {
		return t.Quadrant == models.Q1 || !t.DueDate.After(dayAhead)
	}))
}
