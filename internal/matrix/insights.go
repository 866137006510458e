package matrix

import (
	"fmt"

	"task-matrix/internal/models"
)

type AdviceKind string

const (
	AdviceWarning AdviceKind = "warning"
	AdviceInfo    AdviceKind = "info"
	AdviceSuccess AdviceKind = "success"
)

type Advice struct {
	Kind    AdviceKind `json:"type"`
	Message string     `json:"message"`
}

type Insights struct {
	CompletionRate       float64                 `json:"completion_rate"`
	TotalActive          int                     `json:"total_active"`
	QuadrantDistribution map[models.Quadrant]int `json:"quadrant_distribution"`
	Recommendations      []Advice                `json:"recommendations"`
}

const (
	crowdedQ1      = 5
	crowdedQ4      = 10
	highCompletion = 80.0
	lowCompletion  = 30.0
)

// BuildInsights summarises the active workload and derives advice from it.
// Completion-rate advice is only given once at least one task exists, so a
// user with no tasks gets no low-completion warning.
func BuildInsights(stats models.TaskStatistics, active []models.Task) Insights {
	dist := make(map[models.Quadrant]int, len(models.Quadrants))
	for _, q := range models.Quadrants {
		dist[q] = 0
	}
	for _, t := range active {
		dist[t.Quadrant]++
	}

	in := Insights{
		CompletionRate:       stats.CompletionRate(),
		TotalActive:          len(active),
		QuadrantDistribution: dist,
		Recommendations:      []Advice{},
	}

	if dist[models.Q1] > crowdedQ1 {
		in.add(AdviceWarning, fmt.Sprintf("You have %d urgent and important tasks. Focus on Q1!", dist[models.Q1]))
	}
	if dist[models.Q4] > crowdedQ4 {
		in.add(AdviceInfo, fmt.Sprintf("You have %d tasks in Q4. Consider dropping them to focus on what matters.", dist[models.Q4]))
	}
	if dist[models.Q2] > 0 && dist[models.Q1] == 0 {
		in.add(AdviceSuccess, "Excellent! You are being proactive. Keep planning your important tasks.")
	}

	if stats.TotalCreated > 0 {
		switch rate := in.CompletionRate; {
		case rate > highCompletion:
			in.add(AdviceSuccess, fmt.Sprintf("Well done! Your completion rate is %.1f%%!", rate))
		case rate < lowCompletion:
			in.add(AdviceWarning, "Your completion rate is low. Try focusing on fewer tasks at a time.")
		}
	}
	return in
}

func (in *Insights) add(kind AdviceKind, msg string) {
	in.Recommendations = append(in.Recommendations, Advice{Kind: kind, Message: msg})
}
