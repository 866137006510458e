package matrix

import (
	"sort"

	"task-matrix/internal/models"
)

const recentCompletedLimit = 10

type Board struct {
	Q1        []models.Task `json:"q1"`
	Q2        []models.Task `json:"q2"`
	Q3        []models.Task `json:"q3"`
	Q4        []models.Task `json:"q4"`
	Completed []models.Task `json:"completed"`
}

// BuildBoard splits tasks into the four active quadrants plus the ten most
// recently completed tasks.
func BuildBoard(tasks []models.Task) Board {
	b := Board{
		Q1:        []models.Task{},
		Q2:        []models.Task{},
		Q3:        []models.Task{},
		Q4:        []models.Task{},
		Completed: []models.Task{},
	}

	for _, t := range tasks {
		if !t.IsActive() {
			b.Completed = append(b.Completed, t)
			continue
		}
		switch t.Quadrant {
		case models.Q1:
			b.Q1 = append(b.Q1, t)
		case models.Q2:
			b.Q2 = append(b.Q2, t)
		case models.Q3:
			b.Q3 = append(b.Q3, t)
		case models.Q4:
			b.Q4 = append(b.Q4, t)
		}
	}

	sort.SliceStable(b.Q1, func(i, j int) bool {
		if b.Q1[i].UrgencyScore != b.Q1[j].UrgencyScore {
			return b.Q1[i].UrgencyScore > b.Q1[j].UrgencyScore
		}
		return b.Q1[i].DueDate.Before(b.Q1[j].DueDate)
	})
	sort.SliceStable(b.Q2, func(i, j int) bool {
		if b.Q2[i].ImportanceScore != b.Q2[j].ImportanceScore {
			return b.Q2[i].ImportanceScore > b.Q2[j].ImportanceScore
		}
		return b.Q2[i].DueDate.Before(b.Q2[j].DueDate)
	})
	b.Q3 = SortByDueDate(b.Q3)
	b.Q4 = SortByDueDate(b.Q4)

	sort.SliceStable(b.Completed, func(i, j int) bool {
		return b.Completed[i].UpdatedAt.After(b.Completed[j].UpdatedAt)
	})
	if len(b.Completed) > recentCompletedLimit {
		b.Completed = b.Completed[:recentCompletedLimit]
	}
	return b
}
