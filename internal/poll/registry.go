package poll

import (
	"time"

	"go.uber.org/zap"

	"classpoll/internal/domain"
)

// Registry is the live set of connected, identified participants.
//
// It is not safe for concurrent use: every mutation goes through the hub's
// run loop, which serializes all events (see internal/server.Hub).
type Registry struct {
	participants map[string]*domain.Participant
	order        []string
	clock        func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		participants: make(map[string]*domain.Participant),
		clock:        time.Now,
	}
}

// Register inserts a participant keyed by its connection id. A duplicate id
// should not occur under correct transport semantics; it is treated as an
// overwrite with a warning, keeping the original insertion position.
func (r *Registry) Register(id, name string, role domain.Role) *domain.Participant {
	if existing, ok := r.participants[id]; ok {
		zap.L().Warn("duplicate registration, overwriting",
			zap.String("participant_id", id),
			zap.String("previous_name", existing.Name))
		existing.Name = name
		existing.Role = role
		return existing
	}
	p := &domain.Participant{
		ID:       id,
		Name:     name,
		Role:     role,
		JoinedAt: r.clock(),
	}
	r.participants[id] = p
	r.order = append(r.order, id)
	return p
}

// Remove deletes a participant. Idempotent; reports whether anything was removed.
func (r *Registry) Remove(id string) bool {
	if _, ok := r.participants[id]; !ok {
		return false
	}
	delete(r.participants, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) Get(id string) (*domain.Participant, bool) {
	p, ok := r.participants[id]
	return p, ok
}

// All returns a snapshot of participants in insertion order.
func (r *Registry) All() []domain.Participant {
	out := make([]domain.Participant, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.participants[id]; ok {
			out = append(out, *p)
		}
	}
	return out
}

// StudentIDs returns the connection ids of every registered student.
func (r *Registry) StudentIDs() []string {
	ids := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.participants[id]; ok && p.Role == domain.RoleStudent {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *Registry) Len() int {
	return len(r.participants)
}
