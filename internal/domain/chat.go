package domain

import "time"

// ChatMessage is one entry in the append-only chat log.
type ChatMessage struct {
	Sender    string    `json:"sender"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
