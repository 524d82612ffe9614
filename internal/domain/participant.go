package domain

import "time"

// Participant is one live, identified connection. Its lifetime is tied 1:1
// to the underlying socket: created on registration, gone on disconnect or kick.
type Participant struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}
