package ledger

import (
	"context"
	"fmt"

	"github.com/bancalot/platform/internal/domain"
	"github.com/bancalot/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Engine persists payout ledger mutations. Every command follows the same
// pattern inside the caller's transaction:
//  1. LockTicketForUpdate: row-level pessimistic lock on the ticket
//  2. FindExistingPayment: idempotency check
//  3. PostPayment / PostReversal: write the row and its outbox event
//
// The ledger arithmetic itself is done by the pure functions in payout.go.
type Engine struct {
	tickets  repository.TicketRepository
	payments repository.PaymentRepository
	outbox   repository.OutboxRepository
}

// NewEngine creates a ledger engine with the given repositories.
func NewEngine(
	tickets repository.TicketRepository,
	payments repository.PaymentRepository,
	outbox repository.OutboxRepository,
) *Engine {
	return &Engine{
		tickets:  tickets,
		payments: payments,
		outbox:   outbox,
	}
}

// CommandResult is returned by every ledger command.
type CommandResult struct {
	Payment    *domain.Payment      `json:"payment"`
	Totals     Totals               `json:"totals"`
	Idempotent bool                 `json:"idempotent"`
	Events     []domain.OutboxDraft `json:"-"`
}

// LockTicketForUpdate acquires a row-level lock and returns the ticket with its bets.
// Must be called within a transaction.
func (e *Engine) LockTicketForUpdate(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID) (*domain.Ticket, error) {
	ticket, err := e.tickets.LockForUpdate(ctx, tx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("lock ticket: %w", err)
	}
	if ticket == nil {
		return nil, domain.ErrNotFound("ticket", ticketID.String())
	}
	return ticket, nil
}

// FindExistingPayment looks up a payment by its idempotency key.
// Returns nil if no payment uses the key.
func (e *Engine) FindExistingPayment(ctx context.Context, tx pgx.Tx, key string) (*domain.Payment, error) {
	existing, err := e.payments.FindByIdempotencyKey(ctx, tx, key)
	if err != nil {
		return nil, fmt.Errorf("find existing payment: %w", err)
	}
	return existing, nil
}

// History returns the ticket's payment history.
func (e *Engine) History(ctx context.Context, db repository.DBTX, ticketID uuid.UUID) ([]domain.Payment, error) {
	payments, err := e.payments.ListByTicket(ctx, db, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// PostPayment inserts a payment and its outbox event within the caller's transaction.
func (e *Engine) PostPayment(ctx context.Context, tx pgx.Tx, p *domain.Payment) (domain.OutboxDraft, error) {
	if err := e.payments.Insert(ctx, tx, p); err != nil {
		return domain.OutboxDraft{}, fmt.Errorf("insert payment: %w", err)
	}
	event := domain.NewPaymentRegisteredEvent(p)
	if err := e.outbox.Insert(ctx, tx, event); err != nil {
		return domain.OutboxDraft{}, fmt.Errorf("insert outbox event: %w", err)
	}
	return event, nil
}

// PostReversal flips is_reversed and writes the outbox event within the caller's transaction.
func (e *Engine) PostReversal(ctx context.Context, tx pgx.Tx, p *domain.Payment) (domain.OutboxDraft, error) {
	if err := e.payments.MarkReversed(ctx, tx, p.ID, *p.ReversedAt, p.ReversedBy); err != nil {
		return domain.OutboxDraft{}, err
	}
	event := domain.NewPaymentReversedEvent(p)
	if err := e.outbox.Insert(ctx, tx, event); err != nil {
		return domain.OutboxDraft{}, fmt.Errorf("insert outbox event: %w", err)
	}
	return event, nil
}
