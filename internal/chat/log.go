package chat

import (
	"time"

	"classpoll/internal/domain"
)

// Log is the append-only chat history. Like the registry it is only ever
// touched from the hub's run loop, so it carries no lock.
type Log struct {
	messages []domain.ChatMessage
	max      int
	clock    func() time.Time
}

// NewLog creates a chat log. max caps retained history; 0 means unbounded.
func NewLog(max int) *Log {
	return &Log{max: max, clock: time.Now}
}

// Append stamps the message with the server clock and stores it.
func (l *Log) Append(sender string, role domain.Role, text string) domain.ChatMessage {
	msg := domain.ChatMessage{
		Sender:    sender,
		Role:      role,
		Text:      text,
		Timestamp: l.clock(),
	}
	l.messages = append(l.messages, msg)
	if l.max > 0 && len(l.messages) > l.max {
		l.messages = l.messages[len(l.messages)-l.max:]
	}
	return msg
}

// All returns a snapshot of the history in append order.
func (l *Log) All() []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *Log) Len() int {
	return len(l.messages)
}
