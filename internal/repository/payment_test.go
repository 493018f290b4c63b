package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execDB fails every Exec with err.
type execDB struct {
	err error
}

func (d *execDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("INSERT 0 1"), d.err
}

func (d *execDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (d *execDB) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

func newPayment() *domain.Payment {
	return &domain.Payment{
		ID:             uuid.New(),
		TicketID:       uuid.New(),
		AmountPaid:     1000,
		Method:         domain.PaymentCash,
		IdempotencyKey: "pay-1",
		CreatedAt:      time.Now(),
	}
}

// --- PaymentRepository.Insert Tests ---

func TestPaymentInsert(t *testing.T) {
	repo := NewPaymentRepository()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		require.NoError(t, repo.Insert(ctx, &execDB{}, newPayment()))
	})

	t.Run("duplicate idempotency key is a conflict", func(t *testing.T) {
		dup := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: "ticket_payments_idempotency_key_key"})
		err := repo.Insert(ctx, &execDB{err: dup}, newPayment())

		var appErr *domain.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, domain.CodeConflict, appErr.Code)
		assert.Contains(t, appErr.Message, "pay-1")
	})

	t.Run("other database errors are wrapped", func(t *testing.T) {
		err := repo.Insert(ctx, &execDB{err: &pgconn.PgError{Code: "23503"}}, newPayment())
		require.Error(t, err)

		var appErr *domain.AppError
		assert.False(t, errors.As(err, &appErr))
		assert.Contains(t, err.Error(), "insert payment")
	})
}
