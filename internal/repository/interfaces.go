package repository

import (
	"context"
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// RuleRepository provides access to restriction_rules.
type RuleRepository interface {
	// ListForActor returns every rule whose scope could match the actor,
	// ordered by created_at, id. Scope matching itself is left to the policy layer.
	ListForActor(ctx context.Context, db DBTX, actor domain.Actor) ([]domain.RestrictionRule, error)

	// Create inserts a validated rule.
	Create(ctx context.Context, db DBTX, rule *domain.RestrictionRule) error
}

// DrawRepository provides access to draws.
type DrawRepository interface {
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Draw, error)
}

// TicketRepository provides access to tickets and ticket_bets.
type TicketRepository interface {
	// Insert writes the ticket and all of its bets.
	Insert(ctx context.Context, db DBTX, ticket *domain.Ticket) error

	// FindByID returns a ticket with its bets.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Ticket, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns the ticket with its bets.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Ticket, error)

	// DailySumBySeller returns the seller's committed sales in [from, to).
	// Cancelled tickets are excluded.
	DailySumBySeller(ctx context.Context, db DBTX, sellerID uuid.UUID, from, to time.Time) (int64, error)
}

// PaymentRepository provides access to ticket_payments.
type PaymentRepository interface {
	// FindByIdempotencyKey returns the payment registered under key, or nil.
	FindByIdempotencyKey(ctx context.Context, db DBTX, key string) (*domain.Payment, error)

	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Payment, error)

	// ListByTicket returns the full payment history, oldest first, reversed rows included.
	ListByTicket(ctx context.Context, db DBTX, ticketID uuid.UUID) ([]domain.Payment, error)

	Insert(ctx context.Context, db DBTX, payment *domain.Payment) error

	// MarkReversed flips is_reversed; rows are never deleted.
	MarkReversed(ctx context.Context, db DBTX, id uuid.UUID, at time.Time, by *uuid.UUID) error
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the business write).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events, oldest first.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxDraft, error)

	// MarkPublished stamps publishedAt on the given events.
	MarkPublished(ctx context.Context, db DBTX, eventIDs []uuid.UUID) error
}
