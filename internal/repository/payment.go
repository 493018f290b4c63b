package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/bancalot/platform/internal/infra"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

type paymentRepo struct{}

// NewPaymentRepository returns a pgx-backed PaymentRepository.
func NewPaymentRepository() PaymentRepository {
	return &paymentRepo{}
}

const paymentColumns = `id, ticket_id, amount_paid, method, idempotency_key, is_final,
       is_reversed, notes, paid_by, created_at, reversed_at, reversed_by`

func (r *paymentRepo) FindByIdempotencyKey(ctx context.Context, db DBTX, key string) (*domain.Payment, error) {
	row := db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM ticket_payments WHERE idempotency_key = $1`, key)
	return scanPayment(row)
}

func (r *paymentRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Payment, error) {
	row := db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM ticket_payments WHERE id = $1`, id)
	return scanPayment(row)
}

func (r *paymentRepo) ListByTicket(ctx context.Context, db DBTX, ticketID uuid.UUID) ([]domain.Payment, error) {
	rows, err := db.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM ticket_payments WHERE ticket_id = $1
		ORDER BY created_at ASC, id ASC`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPaymentRow(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (r *paymentRepo) Insert(ctx context.Context, db DBTX, p *domain.Payment) error {
	_, err := db.Exec(ctx, `
		INSERT INTO ticket_payments (id, ticket_id, amount_paid, method, idempotency_key,
			is_final, is_reversed, notes, paid_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.TicketID, infra.Int64ToNumeric(p.AmountPaid), string(p.Method), p.IdempotencyKey,
		p.IsFinal, p.IsReversed, p.Notes, p.PaidBy, p.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrConflict(fmt.Sprintf("idempotency_key %q already used", p.IdempotencyKey))
	}
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *paymentRepo) MarkReversed(ctx context.Context, db DBTX, id uuid.UUID, at time.Time, by *uuid.UUID) error {
	tag, err := db.Exec(ctx, `
		UPDATE ticket_payments SET is_reversed = TRUE, reversed_at = $2, reversed_by = $3
		WHERE id = $1 AND NOT is_reversed`,
		id, at, by)
	if err != nil {
		return fmt.Errorf("mark reversed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark reversed: payment %s not found or already reversed", id)
	}
	return nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	p, err := scanPaymentRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// scanPaymentRow scans one payment from either pgx.Row or pgx.Rows.
func scanPaymentRow(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var amountNum pgtype.Numeric
	err := row.Scan(
		&p.ID, &p.TicketID, &amountNum, &p.Method, &p.IdempotencyKey, &p.IsFinal,
		&p.IsReversed, &p.Notes, &p.PaidBy, &p.CreatedAt, &p.ReversedAt, &p.ReversedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	if p.AmountPaid, err = infra.NumericToInt64(amountNum); err != nil {
		return nil, fmt.Errorf("convert payment amount: %w", err)
	}
	return &p, nil
}
