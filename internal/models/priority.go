package models

import "time"

const (
	MaxPriorityScore = 100

	dueWithinDayBonus   = 20
	dueWithinThreeBonus = 10
)

// PriorityScore combines both scores with deadline proximity into a 0..100
// ranking. Overdue tasks count as due within the day.
func PriorityScore(urgency, importance int, due, now time.Time) int {
	score := urgency*10 + importance*10

	until := due.Sub(now)
	switch {
	case until < 24*time.Hour:
		score += dueWithinDayBonus
	case until < 72*time.Hour:
		score += dueWithinThreeBonus
	}

	if score > MaxPriorityScore {
		return MaxPriorityScore
	}
	if score < 0 {
		return 0
	}
	return score
}
