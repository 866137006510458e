package matrix

import (
	"time"

	"task-matrix/internal/models"
)

// Recommend picks the single task to work on next from a set of active
// tasks. The rules are tried in order and the first that matches wins:
//
//  1. overdue Q1 task with the earliest due date
//  2. Q1 task due by the end of today, earliest first
//  3. Q1 task with the highest priority score
//  4. Q2 task with the highest priority score
//  5. any task, highest importance then highest urgency
//
// Ties keep the first task in input order. It returns false only for an
// empty input.
func Recommend(active []models.Task, now time.Time) (models.Task, bool) {
	if len(active) == 0 {
		return models.Task{}, false
	}

	q1 := filter(active, inQuadrant(models.Q1))

	if t, ok := earliestDue(filter(q1, func(t models.Task) bool { return t.DueDate.Before(now) })); ok {
		return t, true
	}

	endOfDay := EndOfDay(now)
	if t, ok := earliestDue(filter(q1, func(t models.Task) bool { return !t.DueDate.After(endOfDay) })); ok {
		return t, true
	}

	if t, ok := highestPriority(q1, now); ok {
		return t, true
	}

	if t, ok := highestPriority(filter(active, inQuadrant(models.Q2)), now); ok {
		return t, true
	}

	best := active[0]
	for _, t := range active[1:] {
		if t.ImportanceScore > best.ImportanceScore ||
			(t.ImportanceScore == best.ImportanceScore && t.UrgencyScore > best.UrgencyScore) {
			best = t
		}
	}
	return best, true
}

func inQuadrant(q models.Quadrant) func(models.Task) bool {
	return func(t models.Task) bool { return t.Quadrant == q }
}

func filter(tasks []models.Task, keep func(models.Task) bool) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func earliestDue(tasks []models.Task) (models.Task, bool) {
	if len(tasks) == 0 {
		return models.Task{}, false
	}
	best := tasks[0]
	for _, t := range tasks[1:] {
		if t.DueDate.Before(best.DueDate) {
			best = t
		}
	}
	return best, true
}

func highestPriority(tasks []models.Task, now time.Time) (models.Task, bool) {
	if len(tasks) == 0 {
		return models.Task{}, false
	}
	best, bestScore := tasks[0], tasks[0].PriorityScore(now)
	for _, t := range tasks[1:] {
		if s := t.PriorityScore(now); s > bestScore {
			best, bestScore = t, s
		}
	}
	return best, true
}
