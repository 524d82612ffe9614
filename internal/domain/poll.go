package domain

import "time"

// Poll is the single authoritative record of the in-flight or most recently
// closed poll. Answers map participant id to the chosen option label. A label
// outside Options can end up in Answers (stale client); tallying excludes it.
type Poll struct {
	Sequence   int
	Question   string
	Options    []string
	Answers    map[string]string
	AnsweredBy []string
	TimeLimit  time.Duration
	StartTime  time.Time
	Active     bool
}

// Results maps each declared option label to its vote count.
type Results map[string]int

// Remaining reports how much of the time limit is left at now,
// clamped to [0, TimeLimit].
func (p *Poll) Remaining(now time.Time) time.Duration {
	if p == nil {
		return 0
	}
	left := p.TimeLimit - now.Sub(p.StartTime)
	if left < 0 {
		return 0
	}
	if left > p.TimeLimit {
		return p.TimeLimit
	}
	return left
}
