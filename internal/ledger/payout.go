package ledger

import (
	"fmt"
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/google/uuid"
)

// Totals is the reconciliation of a ticket's prize against its payments.
type Totals struct {
	TotalPayout       int64 `json:"total_payout"`
	TotalPaid         int64 `json:"total_paid"`
	Remaining         int64 `json:"remaining_amount"`
	IsFullyPaid       bool  `json:"is_fully_paid"`
	HasPartialPayment bool  `json:"has_partial_payment"`
	IsClosed          bool  `json:"is_closed"`
	PaymentCount      int   `json:"payment_count"`
	ReversedCount     int   `json:"reversed_count"`
}

// TotalPayout sums the prize of every winning bet.
func TotalPayout(bets []domain.Bet) int64 {
	var total int64
	for _, b := range bets {
		if b.IsWinner {
			total += b.WinAmount
		}
	}
	return total
}

// TotalPaid sums the payments that have not been reversed.
func TotalPaid(payments []domain.Payment) int64 {
	var total int64
	for _, p := range payments {
		if !p.IsReversed {
			total += p.AmountPaid
		}
	}
	return total
}

// IsClosed reports whether a final payment was ever registered. Reversing
// that payment does not reopen the ledger.
func IsClosed(payments []domain.Payment) bool {
	for _, p := range payments {
		if p.IsFinal {
			return true
		}
	}
	return false
}

// ComputeTotals derives the ledger state from the ticket's bets and payment history.
func ComputeTotals(bets []domain.Bet, payments []domain.Payment) Totals {
	t := Totals{
		TotalPayout:  TotalPayout(bets),
		TotalPaid:    TotalPaid(payments),
		IsClosed:     IsClosed(payments),
		PaymentCount: len(payments),
	}
	for _, p := range payments {
		if p.IsReversed {
			t.ReversedCount++
		}
	}
	t.Remaining = t.TotalPayout - t.TotalPaid
	if t.Remaining < 0 {
		t.Remaining = 0
	}
	t.IsFullyPaid = t.TotalPayout > 0 && t.TotalPaid >= t.TotalPayout
	t.HasPartialPayment = t.TotalPaid > 0 && t.TotalPaid < t.TotalPayout
	return t
}

// PaymentCheck is the outcome of ValidatePayment.
type PaymentCheck struct {
	Allowed bool   `json:"allowed"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// ValidatePayment checks a proposed amount against the ledger state. A closed
// ledger rejects every further payment regardless of the remaining amount.
func ValidatePayment(t Totals, amount int64) PaymentCheck {
	if amount <= 0 {
		return PaymentCheck{Code: domain.CodeValidation, Reason: fmt.Sprintf("amount must be positive, got %s", domain.FormatAmount(amount))}
	}
	if t.IsClosed {
		return PaymentCheck{Code: domain.CodeLedgerClosed, Reason: "ticket payout is closed by a final payment"}
	}
	if t.TotalPayout == 0 {
		return PaymentCheck{Code: domain.CodeValidation, Reason: "ticket has no prize to pay"}
	}
	if amount > t.Remaining {
		return PaymentCheck{Code: domain.CodeOverpayment, Reason: fmt.Sprintf("amount %s exceeds remaining %s",
			domain.FormatAmount(amount), domain.FormatAmount(t.Remaining))}
	}
	return PaymentCheck{Allowed: true}
}

// Registration is the outcome of RegisterPayment. On acceptance Payment is the
// record to persist; on an idempotent replay it is the original record.
type Registration struct {
	Accepted   bool            `json:"accepted"`
	Idempotent bool            `json:"idempotent"`
	Code       string          `json:"code,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Payment    *domain.Payment `json:"payment,omitempty"`
	Totals     Totals          `json:"totals"`
}

// Err returns the rejection as an AppError, or nil when accepted.
func (r Registration) Err() error {
	if r.Accepted {
		return nil
	}
	return domain.RejectionError(r.Code, r.Reason)
}

// RegisterPayment computes the payment record for req against the ticket's
// payment history. It has no side effects; the caller persists the result.
func RegisterPayment(ticket *domain.Ticket, history []domain.Payment, req domain.PaymentRequest, now time.Time) Registration {
	totals := ComputeTotals(ticket.Bets, history)

	if req.IdempotencyKey == "" {
		return Registration{Code: domain.CodeValidation, Reason: "idempotency_key is required", Totals: totals}
	}
	for i := range history {
		if history[i].IdempotencyKey == req.IdempotencyKey {
			original := history[i]
			return Registration{Accepted: true, Idempotent: true, Payment: &original, Totals: totals}
		}
	}

	if err := domain.ValidatePaymentMethod(req.Method); err != nil {
		return Registration{Code: domain.CodeValidation, Reason: err.Error(), Totals: totals}
	}
	if check := ValidatePayment(totals, req.Amount); !check.Allowed {
		return Registration{Code: check.Code, Reason: check.Reason, Totals: totals}
	}

	p := &domain.Payment{
		ID:             uuid.New(),
		TicketID:       ticket.ID,
		AmountPaid:     req.Amount,
		Method:         req.Method,
		IdempotencyKey: req.IdempotencyKey,
		IsFinal:        req.IsFinal,
		Notes:          req.Notes,
		PaidBy:         req.PaidBy,
		CreatedAt:      now,
	}
	return Registration{
		Accepted: true,
		Payment:  p,
		Totals:   ComputeTotals(ticket.Bets, append(clonePayments(history), *p)),
	}
}

// Reversal is the outcome of ReversePayment.
type Reversal struct {
	Accepted   bool            `json:"accepted"`
	Idempotent bool            `json:"idempotent"`
	Code       string          `json:"code,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Payment    *domain.Payment `json:"payment,omitempty"`
	Totals     Totals          `json:"totals"`
}

// Err returns the rejection as an AppError, or nil when accepted.
func (r Reversal) Err() error {
	if r.Accepted {
		return nil
	}
	return domain.RejectionError(r.Code, r.Reason)
}

// ReversePayment flips IsReversed on the payment with the given ID. Reversing
// an already reversed payment is a no-op that returns the stored record.
func ReversePayment(bets []domain.Bet, history []domain.Payment, paymentID uuid.UUID, by *uuid.UUID, now time.Time) Reversal {
	payments := clonePayments(history)
	for i := range payments {
		if payments[i].ID != paymentID {
			continue
		}
		if payments[i].IsReversed {
			p := payments[i]
			return Reversal{Accepted: true, Idempotent: true, Payment: &p, Totals: ComputeTotals(bets, payments)}
		}
		payments[i].IsReversed = true
		payments[i].ReversedAt = &now
		payments[i].ReversedBy = by
		p := payments[i]
		return Reversal{Accepted: true, Payment: &p, Totals: ComputeTotals(bets, payments)}
	}
	return Reversal{
		Code:   domain.CodeNotFound,
		Reason: fmt.Sprintf("payment not found: %s", paymentID),
		Totals: ComputeTotals(bets, history),
	}
}

func clonePayments(in []domain.Payment) []domain.Payment {
	out := make([]domain.Payment, len(in))
	copy(out, in)
	return out
}
