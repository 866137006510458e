package models

type Quadrant string

const (
	Q1 Quadrant = "Q1"
	Q2 Quadrant = "Q2"
	Q3 Quadrant = "Q3"
	Q4 Quadrant = "Q4"
)

// Quadrants lists every quadrant in display order.
var Quadrants = []Quadrant{Q1, Q2, Q3, Q4}

const (
	UrgencyThreshold    = 4
	ImportanceThreshold = 4
)

// Classify maps a pair of 1..5 scores to its Eisenhower quadrant. Both
// thresholds are inclusive.
func Classify(urgency, importance int) Quadrant {
	urgent := urgency >= UrgencyThreshold
	important := importance >= ImportanceThreshold

	switch {
	case urgent && important:
		return Q1
	case important:
		return Q2
	case urgent:
		return Q3
	default:
		return Q4
	}
}

func (q Quadrant) Valid() bool {
	switch q {
	case Q1, Q2, Q3, Q4:
		return true
	}
	return false
}

func (q Quadrant) Label() string {
	switch q {
	case Q1:
		return "Urgent & Important"
	case Q2:
		return "Important, not urgent"
	case Q3:
		return "Urgent, not important"
	case Q4:
		return "Neither urgent nor important"
	default:
		return "Unclassified"
	}
}

func (q Quadrant) Action() string {
	switch q {
	case Q1:
		return "Do it now - top priority!"
	case Q2:
		return "Schedule it - block time in your calendar"
	case Q3:
		return "Delegate it - could someone else handle this?"
	case Q4:
		return "Eliminate it - is this really necessary?"
	default:
		return "No recommendation"
	}
}

type Scores struct {
	Urgency    int `json:"urgency"`
	Importance int `json:"importance"`
}

// canonicalScores is the score pair assigned when a task is dropped onto a
// quadrant. The user's original scores are discarded.
var canonicalScores = map[Quadrant]Scores{
	Q1: {Urgency: 5, Importance: 5},
	Q2: {Urgency: 2, Importance: 5},
	Q3: {Urgency: 5, Importance: 2},
	Q4: {Urgency: 2, Importance: 2},
}

func CanonicalScores(q Quadrant) (Scores, bool) {
	s, ok := canonicalScores[q]
	return s, ok
}
