package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventTicketAdmitted     EventType = "sales.ticket.admitted"
	EventTicketRejected     EventType = "sales.ticket.rejected"
	EventPaymentRegistered  EventType = "payout.payment.registered"
	EventPaymentReversed    EventType = "payout.payment.reversed"
	EventRuleSnapshotChange EventType = "rules.snapshot.changed"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateTicket AggregateType = "ticket"
	AggregateSeller AggregateType = "seller"
	AggregateRule   AggregateType = "rule"
)

// OutboxDraft is the payload written to the event_outbox table.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"eventId"`
	AggregateType AggregateType   `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     EventType       `json:"eventType"`
	PartitionKey  string          `json:"partitionKey"`
	Headers       json.RawMessage `json:"headers"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}
