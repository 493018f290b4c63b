package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NewTicketAdmittedEvent creates the sales event for a persisted ticket.
func NewTicketAdmittedEvent(t *Ticket) OutboxDraft {
	payload, _ := json.Marshal(t)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateTicket,
		AggregateID:   t.ID.String(),
		EventType:     EventTicketAdmitted,
		PartitionKey:  t.Actor.SellerID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    t.CreatedAt,
	}
}

// NewTicketRejectedEvent records a refused sale for the seller's audit trail.
func NewTicketRejectedEvent(actor Actor, drawID uuid.UUID, code, reason string, amount int64, at time.Time) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"bank_id":        actor.BankID.String(),
		"sales_point_id": actor.SalesPointID.String(),
		"seller_id":      actor.SellerID.String(),
		"draw_id":        drawID.String(),
		"code":           code,
		"reason":         reason,
		"amount":         amount,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateSeller,
		AggregateID:   actor.SellerID.String(),
		EventType:     EventTicketRejected,
		PartitionKey:  actor.SellerID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    at,
	}
}

// NewPaymentRegisteredEvent creates the payout event for a new payment.
func NewPaymentRegisteredEvent(p *Payment) OutboxDraft {
	return newPaymentEvent(p, EventPaymentRegistered, p.CreatedAt)
}

// NewPaymentReversedEvent creates the payout event for a reversal.
func NewPaymentReversedEvent(p *Payment) OutboxDraft {
	at := time.Now()
	if p.ReversedAt != nil {
		at = *p.ReversedAt
	}
	return newPaymentEvent(p, EventPaymentReversed, at)
}

func newPaymentEvent(p *Payment, evt EventType, at time.Time) OutboxDraft {
	payload, _ := json.Marshal(p)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateTicket,
		AggregateID:   p.TicketID.String(),
		EventType:     evt,
		PartitionKey:  p.TicketID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    at,
	}
}

// NewRuleChangedEvent announces a rule write so API instances can evict cached
// snapshots. The payload carries only the rule's scope ids.
func NewRuleChangedEvent(r *RestrictionRule) OutboxDraft {
	payload, _ := json.Marshal(r.Scope)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateRule,
		AggregateID:   r.ID.String(),
		EventType:     EventRuleSnapshotChange,
		PartitionKey:  r.ID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    r.CreatedAt,
	}
}
