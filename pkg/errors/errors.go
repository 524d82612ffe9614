package classpoll_errors

import (
	"errors"
)

// Common errors
var (
	ErrInvalidPollSpec = errors.New("invalid poll spec")
	ErrNoActivePoll    = errors.New("no active poll")
	ErrPollClosed      = errors.New("poll already closed")
	ErrNotRegistered   = errors.New("participant not registered")
	ErrDuplicateAnswer = errors.New("answer already recorded")
	ErrForbidden       = errors.New("forbidden")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrInvalidPayload  = errors.New("invalid payload")
)
