package matrix

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNoDueDate = errors.New("due date missing or unparseable")

type Suggestion struct {
	Urgency    int `json:"urgency"`
	Importance int `json:"importance"`
}

var highImportanceKeywords = []string{
	"urgent", "important", "critical", "priority", "essential",
	"client", "project", "deadline", "delivery", "presentation",
	"meeting", "boss", "management", "strategic",
}

var lowImportanceKeywords = []string{
	"maybe", "eventually", "if possible", "optional",
	"bonus", "nice to have", "nice-to-have", "minor improvement",
}

// Suggest infers scores for a new task. Urgency depends only on the time
// left before the deadline; importance only on keywords found in the text.
func Suggest(title, description string, due, now time.Time) Suggestion {
	return Suggestion{
		Urgency:    UrgencyFromDeadline(due, now),
		Importance: ImportanceFromText(title + " " + description),
	}
}

func UrgencyFromDeadline(due, now time.Time) int {
	hours := due.Sub(now).Hours()
	switch {
	case hours < 24:
		return 5
	case hours < 72:
		return 4
	case hours < 168:
		return 3
	case hours < 720:
		return 2
	default:
		return 1
	}
}

// ImportanceFromText counts how many keywords of each list appear in text.
// Matching is plain substring containment, so "clientele" counts as "client".
func ImportanceFromText(text string) int {
	text = strings.ToLower(text)
	high := countKeywords(text, highImportanceKeywords)
	low := countKeywords(text, lowImportanceKeywords)

	switch {
	case high >= 2:
		return 5
	case high == 1:
		return 4
	case low >= 1:
		return 2
	default:
		return 3
	}
}

func countKeywords(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDueDate accepts RFC 3339 and the common datetime-local form layouts.
// Values without an offset are read in loc. A bare date means the end of
// that day.
func ParseDueDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrNoDueDate
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return EndOfDay(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrNoDueDate, raw)
}

// SuggestFromInput parses the raw due date first and skips the whole
// suggestion when it cannot.
func SuggestFromInput(title, description, rawDue string, now time.Time) (Suggestion, error) {
	due, err := ParseDueDate(rawDue, now.Location())
	if err != nil {
		return Suggestion{}, err
	}
	return Suggest(title, description, due, now), nil
}
