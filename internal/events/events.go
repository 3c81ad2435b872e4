// Package events publishes ledger change notifications for downstream
// consumers. Publication happens after the database transaction that made
// the change has committed and never affects the outcome of the request.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"financehub/internal/logger"
)

// Type is the routing key of an event.
type Type string

const (
	TransactionCreated Type = "transaction.created"
	TransactionUpdated Type = "transaction.updated"
	TransactionDeleted Type = "transaction.deleted"
	InvestmentCreated  Type = "investment.created"
	ProjectFunded      Type = "project.funded"
	BudgetAlert        Type = "budget.alert"
)

// Event is the envelope published for every ledger change.
type Event struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	OwnerID    string          `json:"owner_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// New builds an event with a fresh id. Payload must be JSON-encodable.
func New(t Type, ownerID string, payload interface{}) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OwnerID:    ownerID,
		OccurredAt: time.Now().UTC(),
		Payload:    body,
	}, nil
}

// ToJSON encodes the event envelope.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Emit builds and publishes an event, logging instead of returning failures.
func Emit(ctx context.Context, p Publisher, t Type, ownerID string, payload interface{}) {
	if p == nil {
		return
	}
	e, err := New(t, ownerID, payload)
	if err != nil {
		logger.Named("events").Errorw("failed to encode event", "type", t, "error", err)
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		logger.Named("events").Warnw("failed to publish event",
			"type", t,
			"event_id", e.ID,
			"owner_id", ownerID,
			"error", err,
		)
	}
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events with the given type.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
