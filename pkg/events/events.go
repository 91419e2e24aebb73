package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope published after a state transition commits. Publishing
// is best-effort: a failed publish is logged and dropped, never rolled into
// the transaction outcome.
type Event struct {
	ID            string          `json:"event_id"`
	Type          string          `json:"type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uint            `json:"aggregate_id"`
	Data          json.RawMessage `json:"data"`
}

func New(eventType, aggregateType string, aggregateID uint, data interface{}) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		OccurredAt:    time.Now().UTC(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Data:          raw,
	}, nil
}

// Lead lifecycle event types.
const (
	EventLeadCreated      = "lead.created"
	EventLeadVerified     = "lead.verified"
	EventLeadUnlocked     = "lead.unlocked"
	EventLeadOnTheWay     = "lead.on_the_way"
	EventLeadConfirmed    = "lead.confirmed"
	EventLeadDisputed     = "lead.disputed"
	EventDisputeResolved  = "lead.dispute_resolved"
	EventEarningReleased  = "earning.released"
	EventEarningCancelled = "earning.cancelled"
	EventPayoutProcessed  = "payout.processed"
)

// Publisher pushes events to a broker.
type Publisher interface {
	Publish(event *Event) error
}

// Noop discards events; used when no broker is configured.
type Noop struct{}

func (Noop) Publish(*Event) error { return nil }
