package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ExecuteRegisterPayment records a prize payment against a ticket.
// Pattern: Lock → Idempotency → RegisterPayment → PostPayment
func (e *Engine) ExecuteRegisterPayment(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID, req domain.PaymentRequest, now time.Time) (*CommandResult, error) {
	if req.IdempotencyKey == "" {
		return nil, domain.ErrValidation("idempotency_key is required")
	}

	// Lock
	ticket, err := e.LockTicketForUpdate(ctx, tx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("register payment: %w", err)
	}

	// Idempotency keys are unique across all tickets.
	existing, err := e.FindExistingPayment(ctx, tx, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.TicketID != ticketID {
		return nil, domain.ErrConflict(fmt.Sprintf("idempotency_key %q already used for another ticket", req.IdempotencyKey))
	}

	history, err := e.History(ctx, tx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("register payment: %w", err)
	}

	reg := RegisterPayment(ticket, history, req, now)
	if err := reg.Err(); err != nil {
		return nil, err
	}
	if reg.Idempotent {
		return &CommandResult{Payment: reg.Payment, Totals: reg.Totals, Idempotent: true}, nil
	}

	event, err := e.PostPayment(ctx, tx, reg.Payment)
	if err != nil {
		return nil, fmt.Errorf("register payment post: %w", err)
	}

	return &CommandResult{
		Payment: reg.Payment,
		Totals:  reg.Totals,
		Events:  []domain.OutboxDraft{event},
	}, nil
}
