// Package matrix holds the decision rules applied over a user's tasks:
// priority suggestion, next-task recommendation, alerting, statistics and
// productivity insights. Every rule takes the reference time explicitly.
package matrix

import "time"

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// EndOfDay returns 23:59:59 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
