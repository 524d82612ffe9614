package poll

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"classpoll/internal/domain"
	"classpoll/internal/events"
	classpoll_errors "classpoll/pkg/errors"
)

// Gateway fans lifecycle events and tally snapshots out to connected
// participants. The websocket hub implements it; tests substitute a recorder.
type Gateway interface {
	Broadcast(eventType string, payload any)
	Unicast(participantID, eventType string, payload any)
}

// Scheduler defers a closure check without blocking. The hub's implementation
// re-enters the deferred func into its serialized run loop, so the callback
// runs with the same single-owner guarantees as every other event.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// Config tunes a Controller. Zero values fall back to sane defaults.
type Config struct {
	DefaultTimeLimit time.Duration
	Clock            func() time.Time
}

// Controller is the authoritative poll state machine: create, collect,
// close. All methods must be invoked from a single goroutine (the hub's run
// loop); the controller holds no locks of its own.
type Controller struct {
	registry         *Registry
	gateway          Gateway
	sched            Scheduler
	clock            func() time.Time
	defaultTimeLimit time.Duration

	current  *domain.Poll
	sequence int

	log *zap.Logger
}

func NewController(registry *Registry, gateway Gateway, sched Scheduler, cfg Config) *Controller {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	limit := cfg.DefaultTimeLimit
	if limit <= 0 {
		limit = 60 * time.Second
	}
	return &Controller{
		registry:         registry,
		gateway:          gateway,
		sched:            sched,
		clock:            clock,
		defaultTimeLimit: limit,
		log:              zap.L().With(zap.String("component", "poll_controller")),
	}
}

// Current returns the in-flight or most recently closed poll, nil if none
// was ever created.
func (c *Controller) Current() *domain.Poll {
	return c.current
}

// Register adds a participant, confirms its identity, refreshes the roster
// for everyone, and catches a late joiner up on the in-flight poll.
func (c *Controller) Register(id, name string, role domain.Role) *domain.Participant {
	p := c.registry.Register(id, name, role)

	c.gateway.Unicast(id, events.EventRegistrationSuccess, events.RegistrationSuccessPayload{
		ID:   p.ID,
		Name: p.Name,
		Role: p.Role,
	})
	c.broadcastRoster()

	if c.current != nil && c.current.Active {
		c.gateway.Unicast(id, events.EventNewQuestion, c.questionPayload())
	}

	c.log.Info("participant registered",
		zap.String("participant_id", id),
		zap.String("name", name),
		zap.String("role", string(role)))
	return p
}

// CreatePoll validates the poll spec and opens a new poll. A still-active
// previous poll is closed first so at most one poll accepts answers at a
// time. Validation failures are returned to the caller for unicast to the
// requesting teacher; nothing is mutated on failure.
func (c *Controller) CreatePoll(requesterID, question string, options []string, timeLimitSec int) error {
	requester, ok := c.registry.Get(requesterID)
	if !ok || requester.Role != domain.RoleTeacher {
		return classpoll_errors.ErrForbidden
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return classpoll_errors.ErrInvalidPollSpec
	}
	distinct := make([]string, 0, len(options))
	seen := make(map[string]bool, len(options))
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" || seen[opt] {
			continue
		}
		seen[opt] = true
		distinct = append(distinct, opt)
	}
	if len(distinct) < 2 {
		return classpoll_errors.ErrInvalidPollSpec
	}

	limit := c.defaultTimeLimit
	if timeLimitSec > 0 {
		limit = time.Duration(timeLimitSec) * time.Second
	}

	// A new poll supersedes the old one outright; close it so its final
	// snapshot goes out before the next question does.
	if c.current != nil && c.current.Active {
		c.close("superseded")
	}

	c.sequence++
	c.current = &domain.Poll{
		Sequence:  c.sequence,
		Question:  question,
		Options:   distinct,
		Answers:   make(map[string]string),
		TimeLimit: limit,
		StartTime: c.clock(),
		Active:    true,
	}

	c.gateway.Broadcast(events.EventNewQuestion, c.questionPayload())

	// The deferred check is keyed by sequence number: if a later poll has
	// taken over by fire time, the stale timer must be a no-op.
	seq := c.current.Sequence
	c.sched.AfterFunc(limit, func() {
		c.handleExpiry(seq)
	})

	c.log.Info("poll created",
		zap.Int("sequence", seq),
		zap.String("question", question),
		zap.Duration("time_limit", limit))
	return nil
}

// SubmitAnswer records a student's answer. Submissions with no active poll,
// from unregistered connections, from teachers, or repeated within the same
// poll are expected races, not faults: they are dropped without acknowledgment.
func (c *Controller) SubmitAnswer(participantID, answer string) error {
	if c.current == nil || !c.current.Active {
		return classpoll_errors.ErrNoActivePoll
	}
	p, ok := c.registry.Get(participantID)
	if !ok {
		return classpoll_errors.ErrNotRegistered
	}
	if p.Role != domain.RoleStudent {
		return classpoll_errors.ErrForbidden
	}
	if _, answered := c.current.Answers[participantID]; answered {
		return classpoll_errors.ErrDuplicateAnswer
	}

	// The label is recorded even if it names no declared option; tallying
	// filters it out so a stale client cannot skew counts.
	c.current.Answers[participantID] = answer
	c.current.AnsweredBy = append(c.current.AnsweredBy, p.Name)

	c.gateway.Unicast(participantID, events.EventAnswerSubmitted, events.AnswerSubmittedPayload{
		Status: "success",
	})
	c.gateway.Broadcast(events.EventLiveResults, events.LiveResultsPayload{
		Results:    Tally(c.current),
		AnsweredBy: append([]string(nil), c.current.AnsweredBy...),
		Sequence:   c.current.Sequence,
		Question:   c.current.Question,
		Options:    c.current.Options,
		Active:     c.current.Active,
	})

	c.checkCompletion()
	return nil
}

// EndPoll closes the active poll on teacher request. Already-closed is a no-op.
func (c *Controller) EndPoll(requesterID string) error {
	requester, ok := c.registry.Get(requesterID)
	if !ok || requester.Role != domain.RoleTeacher {
		return classpoll_errors.ErrForbidden
	}
	if c.current == nil || !c.current.Active {
		return nil
	}
	c.close("manual")
	return nil
}

// RemoveParticipant kicks a participant out of the registry and rechecks
// completion: dropping the only unanswered student can close the poll.
// Reports whether the target existed so the caller can tear the
// connection down after the terminal notification.
func (c *Controller) RemoveParticipant(requesterID, targetID string) (bool, error) {
	requester, ok := c.registry.Get(requesterID)
	if !ok || requester.Role != domain.RoleTeacher {
		return false, classpoll_errors.ErrForbidden
	}
	if !c.registry.Remove(targetID) {
		return false, nil
	}
	c.gateway.Unicast(targetID, events.EventKickedOut, nil)
	c.broadcastRoster()
	c.checkCompletion()

	c.log.Info("participant removed", zap.String("participant_id", targetID))
	return true, nil
}

// HandleDisconnect drops a departed connection from the registry and
// rechecks completion against the shrunken roster.
func (c *Controller) HandleDisconnect(participantID string) {
	if !c.registry.Remove(participantID) {
		return
	}
	c.broadcastRoster()
	c.checkCompletion()
}

// Roster returns the current participant snapshot in insertion order.
func (c *Controller) Roster() []domain.Participant {
	return c.registry.All()
}

// handleExpiry is the deferred closure check. It verifies the poll it was
// scheduled for is still the active one before closing.
func (c *Controller) handleExpiry(sequence int) {
	if c.current == nil || c.current.Sequence != sequence || !c.current.Active {
		c.log.Debug("stale timer ignored", zap.Int("sequence", sequence))
		return
	}
	c.close("timeout")
}

func (c *Controller) checkCompletion() {
	if c.current == nil || !c.current.Active {
		return
	}
	if AllAnswered(c.current, c.registry.StudentIDs()) {
		c.close("all answered")
	}
}

// close performs the one-time transition from accepting to terminal and
// broadcasts the final snapshot. Idempotence is the close-once rule: every
// closure path (timeout, completion, manual end, supersede) funnels here and
// the active flag guards the broadcast.
func (c *Controller) close(reason string) {
	if c.current == nil || !c.current.Active {
		return
	}
	c.current.Active = false

	c.gateway.Broadcast(events.EventPollEnded, events.PollEndedPayload{
		Question:   c.current.Question,
		Results:    Tally(c.current),
		Sequence:   c.current.Sequence,
		Options:    c.current.Options,
		AnsweredBy: append([]string(nil), c.current.AnsweredBy...),
	})

	c.log.Info("poll closed",
		zap.Int("sequence", c.current.Sequence),
		zap.String("reason", reason),
		zap.Int("answers", len(c.current.Answers)))
}

func (c *Controller) questionPayload() events.NewQuestionPayload {
	return events.NewQuestionPayload{
		Question:  c.current.Question,
		Options:   c.current.Options,
		TimeLimit: int(c.current.TimeLimit / time.Second),
		StartTime: c.current.StartTime.UnixMilli(),
		Remaining: int(c.current.Remaining(c.clock()) / time.Second),
		Sequence:  c.current.Sequence,
	}
}

func (c *Controller) broadcastRoster() {
	roster := c.registry.All()
	c.gateway.Broadcast(events.EventUpdateStudents, roster)
	c.gateway.Broadcast(events.EventParticipantsUpdated, roster)
}
