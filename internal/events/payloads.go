package events

import (
	"classpoll/internal/domain"
)

// Inbound payloads

type RegisterPayload struct {
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
}

type CreatePollPayload struct {
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	TimeLimit int      `json:"timeLimit,omitempty"`
}

type SubmitAnswerPayload struct {
	Answer string `json:"answer"`
}

type RemoveParticipantPayload struct {
	ParticipantID string `json:"participantId"`
}

type SendMessagePayload struct {
	Sender string      `json:"sender"`
	Role   domain.Role `json:"role"`
	Text   string      `json:"text"`
}

// Outbound payloads

type RegistrationSuccessPayload struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
}

type NewQuestionPayload struct {
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	TimeLimit int      `json:"timeLimit"`
	StartTime int64    `json:"startTime"`
	Remaining int      `json:"remaining"`
	Sequence  int      `json:"sequence"`
}

type AnswerSubmittedPayload struct {
	Status string `json:"status"`
}

type LiveResultsPayload struct {
	Results    domain.Results `json:"results"`
	AnsweredBy []string       `json:"answeredBy"`
	Sequence   int            `json:"sequence"`
	Question   string         `json:"question"`
	Options    []string       `json:"options"`
	Active     bool           `json:"active"`
}

type PollEndedPayload struct {
	Question   string         `json:"question"`
	Results    domain.Results `json:"results"`
	Sequence   int            `json:"sequence"`
	Options    []string       `json:"options"`
	AnsweredBy []string       `json:"answeredBy"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
