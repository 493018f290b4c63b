package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is how a prize was handed over.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCheck    PaymentMethod = "check"
	PaymentOther    PaymentMethod = "other"
)

// ValidatePaymentMethod checks the method against the known set.
func ValidatePaymentMethod(m PaymentMethod) error {
	switch m {
	case PaymentCash, PaymentTransfer, PaymentCheck, PaymentOther:
		return nil
	}
	return fmt.Errorf("invalid payment method: %q", m)
}

// Payment is one settlement record against a winning ticket. Payments are
// never deleted; a reversal flips IsReversed and keeps the row for audit.
type Payment struct {
	ID             uuid.UUID     `json:"id"`
	TicketID       uuid.UUID     `json:"ticket_id"`
	AmountPaid     int64         `json:"amount_paid"` // cents
	Method         PaymentMethod `json:"method"`
	IdempotencyKey string        `json:"idempotency_key"`
	IsFinal        bool          `json:"is_final"`
	IsReversed     bool          `json:"is_reversed"`
	Notes          string        `json:"notes,omitempty"`
	PaidBy         *uuid.UUID    `json:"paid_by,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	ReversedAt     *time.Time    `json:"reversed_at,omitempty"`
	ReversedBy     *uuid.UUID    `json:"reversed_by,omitempty"`
}

// PaymentRequest carries an operator's payout registration.
type PaymentRequest struct {
	Amount         int64         `json:"amount"`
	Method         PaymentMethod `json:"method"`
	IdempotencyKey string        `json:"idempotency_key"`
	IsFinal        bool          `json:"is_final"`
	Notes          string        `json:"notes,omitempty"`
	PaidBy         *uuid.UUID    `json:"paid_by,omitempty"`
}
