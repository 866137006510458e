package matrix

import "task-matrix/internal/models"

// Recompute rebuilds every counter from the full task collection of a
// user. Owner and LastUpdated are left for the caller to stamp.
func Recompute(tasks []models.Task) models.TaskStatistics {
	var s models.TaskStatistics
	s.TotalCreated = len(tasks)

	for _, t := range tasks {
		if t.Status != models.StatusDone {
			continue
		}
		s.TotalCompleted++
		switch t.Quadrant {
		case models.Q1:
			s.Q1Completed++
		case models.Q2:
			s.Q2Completed++
		case models.Q3:
			s.Q3Completed++
		case models.Q4:
			s.Q4Completed++
		}
	}
	return s
}

type QuadrantCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Active    int `json:"active"`
}

func Breakdown(tasks []models.Task) map[models.Quadrant]QuadrantCounts {
	out := make(map[models.Quadrant]QuadrantCounts, len(models.Quadrants))
	for _, q := range models.Quadrants {
		out[q] = QuadrantCounts{}
	}

	for _, t := range tasks {
		c := out[t.Quadrant]
		c.Total++
		if t.IsActive() {
			c.Active++
		} else {
			c.Completed++
		}
		out[t.Quadrant] = c
	}
	return out
}

func ActiveOnly(tasks []models.Task) []models.Task {
	return filter(tasks, models.Task.IsActive)
}
