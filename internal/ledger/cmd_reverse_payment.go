package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ExecuteReversePayment marks a payment reversed. The ticket stays closed if a
// final payment was registered.
// Pattern: Find → Lock → ReversePayment → PostReversal
func (e *Engine) ExecuteReversePayment(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID, by *uuid.UUID, now time.Time) (*CommandResult, error) {
	target, err := e.payments.FindByID(ctx, tx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("reverse find target: %w", err)
	}
	if target == nil {
		return nil, domain.ErrNotFound("payment", paymentID.String())
	}

	// Lock
	ticket, err := e.LockTicketForUpdate(ctx, tx, target.TicketID)
	if err != nil {
		return nil, fmt.Errorf("reverse payment: %w", err)
	}

	history, err := e.History(ctx, tx, ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("reverse payment: %w", err)
	}

	rev := ReversePayment(ticket.Bets, history, paymentID, by, now)
	if err := rev.Err(); err != nil {
		return nil, err
	}
	if rev.Idempotent {
		return &CommandResult{Payment: rev.Payment, Totals: rev.Totals, Idempotent: true}, nil
	}

	event, err := e.PostReversal(ctx, tx, rev.Payment)
	if err != nil {
		return nil, fmt.Errorf("reverse payment post: %w", err)
	}

	return &CommandResult{
		Payment: rev.Payment,
		Totals:  rev.Totals,
		Events:  []domain.OutboxDraft{event},
	}, nil
}
