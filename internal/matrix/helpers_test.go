package matrix_test

import (
	"time"

	"task-matrix/internal/models"

	"github.com/gofrs/uuid"
)

var (
	owner = uuid.Must(uuid.NewV4())
	now   = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)
)

func newTask(title string, urgency, importance int, due time.Time) models.Task {
	t := models.NewTask(owner, title, due)
	t.SetScores(urgency, importance)
	return t
}

func titles(tasks []models.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}
