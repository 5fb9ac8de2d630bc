package events

import (
	"context"
	"time"
)

const (
	TransactionPosted = "transaction.posted"
	TransactionVoided = "transaction.voided"
	InvoiceSent       = "invoice.sent"
	InvoicePaid       = "invoice.paid"
	PaymentRecorded   = "payment.recorded"
	RecurringRun      = "recurring.generated"
	AssetDisposed     = "asset.disposed"
)

// Event is a committed domain change. Publishers run after the database
// transaction commits.
type Event struct {
	Type           string            `json:"type"`
	OrganizationID string            `json:"organization_id"`
	EntityID       string            `json:"entity_id"`
	ActorID        string            `json:"actor_id,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
	Data           map[string]string `json:"data,omitempty"`
}

func New(eventType, orgID, entityID, actorID string, data map[string]string) Event {
	return Event{
		Type:           eventType,
		OrganizationID: orgID,
		EntityID:       entityID,
		ActorID:        actorID,
		OccurredAt:     time.Now().UTC(),
		Data:           data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Noop drops every event. It is used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
