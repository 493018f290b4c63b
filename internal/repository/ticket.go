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
	"github.com/jackc/pgx/v5/pgtype"
)

type ticketRepo struct{}

// NewTicketRepository returns a pgx-backed TicketRepository.
func NewTicketRepository() TicketRepository {
	return &ticketRepo{}
}

const ticketColumns = `id, draw_id, bank_id, sales_point_id, seller_id, status,
       total_amount, is_winner, created_at`

func (r *ticketRepo) Insert(ctx context.Context, db DBTX, t *domain.Ticket) error {
	_, err := db.Exec(ctx, `
		INSERT INTO tickets (id, draw_id, bank_id, sales_point_id, seller_id, status,
			total_amount, is_winner, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.DrawID, t.Actor.BankID, t.Actor.SalesPointID, t.Actor.SellerID, string(t.Status),
		infra.Int64ToNumeric(t.TotalAmount), t.IsWinner, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}

	for i, b := range t.Bets {
		_, err := db.Exec(ctx, `
			INSERT INTO ticket_bets (id, ticket_id, position, kind, number, reference_number,
				amount, is_winner, win_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			b.ID, t.ID, i, string(b.Kind), nullStr(b.Number), nullStr(b.ReferenceNumber),
			infra.Int64ToNumeric(b.Amount), b.IsWinner, infra.Int64ToNumeric(b.WinAmount),
		)
		if err != nil {
			return fmt.Errorf("insert bet %d: %w", i, err)
		}
	}
	return nil
}

func (r *ticketRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Ticket, error) {
	row := db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	return r.loadTicket(ctx, db, row)
}

func (r *ticketRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Ticket, error) {
	row := tx.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1 FOR UPDATE`, id)
	return r.loadTicket(ctx, tx, row)
}

func (r *ticketRepo) DailySumBySeller(ctx context.Context, db DBTX, sellerID uuid.UUID, from, to time.Time) (int64, error) {
	var sum pgtype.Numeric
	err := db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM tickets
		WHERE seller_id = $1
		  AND status <> 'cancelled'
		  AND created_at >= $2 AND created_at < $3`,
		sellerID, from, to).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("daily sum by seller: %w", err)
	}
	return infra.NumericToInt64(sum)
}

func (r *ticketRepo) loadTicket(ctx context.Context, db DBTX, row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	var total pgtype.Numeric
	err := row.Scan(&t.ID, &t.DrawID, &t.Actor.BankID, &t.Actor.SalesPointID, &t.Actor.SellerID,
		&t.Status, &total, &t.IsWinner, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan ticket: %w", err)
	}
	if t.TotalAmount, err = infra.NumericToInt64(total); err != nil {
		return nil, fmt.Errorf("convert ticket total: %w", err)
	}

	bets, err := r.listBets(ctx, db, t.ID)
	if err != nil {
		return nil, err
	}
	t.Bets = bets
	return &t, nil
}

func (r *ticketRepo) listBets(ctx context.Context, db DBTX, ticketID uuid.UUID) ([]domain.Bet, error) {
	rows, err := db.Query(ctx, `
		SELECT id, ticket_id, kind, number, reference_number, amount, is_winner, win_amount
		FROM ticket_bets WHERE ticket_id = $1
		ORDER BY position ASC`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("query bets: %w", err)
	}
	defer rows.Close()

	var bets []domain.Bet
	for rows.Next() {
		var b domain.Bet
		var number, ref *string
		var amount, win pgtype.Numeric
		if err := rows.Scan(&b.ID, &b.TicketID, &b.Kind, &number, &ref, &amount, &b.IsWinner, &win); err != nil {
			return nil, fmt.Errorf("scan bet row: %w", err)
		}
		if number != nil {
			b.Number = *number
		}
		if ref != nil {
			b.ReferenceNumber = *ref
		}
		if b.Amount, err = infra.NumericToInt64(amount); err != nil {
			return nil, fmt.Errorf("convert bet amount: %w", err)
		}
		if b.WinAmount, err = infra.NumericToInt64(win); err != nil {
			return nil, fmt.Errorf("convert win amount: %w", err)
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
