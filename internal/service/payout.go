package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/bancalot/platform/internal/ledger"
	"github.com/bancalot/platform/internal/repository"
	"github.com/google/uuid"
)

// PayoutService orchestrates prize payments for winning tickets.
type PayoutService struct {
	db      Database
	tickets repository.TicketRepository
	engine  *ledger.Engine
	clock   Clock
	logger  *slog.Logger
}

// NewPayoutService creates a PayoutService. A nil clock uses time.Now.
func NewPayoutService(db Database, tickets repository.TicketRepository, engine *ledger.Engine, clock Clock, logger *slog.Logger) *PayoutService {
	if clock == nil {
		clock = time.Now
	}
	return &PayoutService{db: db, tickets: tickets, engine: engine, clock: clock, logger: logger}
}

// PayoutSummary is the ledger view of one ticket.
type PayoutSummary struct {
	TicketID uuid.UUID        `json:"ticket_id"`
	IsWinner bool             `json:"is_winner"`
	Totals   ledger.Totals    `json:"totals"`
	Payments []domain.Payment `json:"payments"`
}

// Summary returns the ticket's totals and full payment history.
func (s *PayoutService) Summary(ctx context.Context, ticketID uuid.UUID) (*PayoutSummary, error) {
	ticket, err := s.tickets.FindByID(ctx, s.db, ticketID)
	if err != nil {
		return nil, domain.ErrInternal("find ticket", err)
	}
	if ticket == nil {
		return nil, domain.ErrNotFound("ticket", ticketID.String())
	}
	history, err := s.engine.History(ctx, s.db, ticketID)
	if err != nil {
		return nil, domain.ErrInternal("payment history", err)
	}
	if history == nil {
		history = []domain.Payment{}
	}
	return &PayoutSummary{
		TicketID: ticket.ID,
		IsWinner: ticket.IsWinner,
		Totals:   ledger.ComputeTotals(ticket.Bets, history),
		Payments: history,
	}, nil
}

// Register records a payment. Replays of an idempotency key return the
// original payment with Idempotent set.
func (s *PayoutService) Register(ctx context.Context, ticketID uuid.UUID, req domain.PaymentRequest) (*ledger.CommandResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.engine.ExecuteRegisterPayment(ctx, tx, ticketID, req, s.clock())
	if err != nil {
		return nil, err // Propagate domain errors (overpayment, closed ledger, etc.)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	if result.Idempotent {
		s.logger.Info("payment replayed", "payment_id", result.Payment.ID, "ticket_id", ticketID)
	} else {
		s.logger.Info("payment registered",
			"payment_id", result.Payment.ID,
			"ticket_id", ticketID,
			"amount", result.Payment.AmountPaid,
			"is_final", result.Payment.IsFinal,
			"remaining", result.Totals.Remaining,
		)
	}
	return result, nil
}

// Reverse marks a payment reversed.
func (s *PayoutService) Reverse(ctx context.Context, paymentID uuid.UUID, by *uuid.UUID) (*ledger.CommandResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.engine.ExecuteReversePayment(ctx, tx, paymentID, by, s.clock())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("payment reversed",
		"payment_id", paymentID,
		"ticket_id", result.Payment.TicketID,
		"idempotent", result.Idempotent,
	)
	return result, nil
}
