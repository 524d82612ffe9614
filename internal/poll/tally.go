package poll

import (
	"classpoll/internal/domain"
)

// Tally derives vote counts from a poll's recorded answers. Every declared
// option is present in the result, zero-valued when unvoted. An answer whose
// label is not a declared option is excluded, never an error: a stale client
// may reference options from a superseded poll.
func Tally(p *domain.Poll) domain.Results {
	results := make(domain.Results, len(p.Options))
	for _, option := range p.Options {
		results[option] = 0
	}
	for _, answer := range p.Answers {
		if _, ok := results[answer]; ok {
			results[answer]++
		}
	}
	return results
}

// AllAnswered reports whether every given student has a recorded answer.
// An empty student set never satisfies completion: a poll with no students
// relies on its timer or a manual end, it does not close vacuously.
func AllAnswered(p *domain.Poll, studentIDs []string) bool {
	if len(studentIDs) == 0 {
		return false
	}
	for _, id := range studentIDs {
		if _, ok := p.Answers[id]; !ok {
			return false
		}
	}
	return true
}
