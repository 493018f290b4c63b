package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/bancalot/platform/internal/domain"
	"github.com/bancalot/platform/internal/ledger"
	"github.com/bancalot/platform/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutLedger is the payout side used by PayoutHandler.
type PayoutLedger interface {
	Summary(ctx context.Context, ticketID uuid.UUID) (*service.PayoutSummary, error)
	Register(ctx context.Context, ticketID uuid.UUID, req domain.PaymentRequest) (*ledger.CommandResult, error)
	Reverse(ctx context.Context, paymentID uuid.UUID, by *uuid.UUID) (*ledger.CommandResult, error)
}

// PayoutHandler handles prize payment endpoints.
type PayoutHandler struct {
	svc PayoutLedger
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(svc PayoutLedger) *PayoutHandler {
	return &PayoutHandler{svc: svc}
}

// GetPayout handles GET /tickets/{ticketID}/payout.
func (h *PayoutHandler) GetPayout(w http.ResponseWriter, r *http.Request) {
	ticketID, err := uuidParam(r, "ticketID")
	if err != nil {
		RespondError(w, err)
		return
	}
	summary, err := h.svc.Summary(r.Context(), ticketID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, summary)
}

type paymentInput struct {
	Amount         decimal.Decimal      `json:"amount"`
	Method         domain.PaymentMethod `json:"method"`
	IdempotencyKey string               `json:"idempotency_key"`
	IsFinal        bool                 `json:"is_final"`
	Notes          string               `json:"notes,omitempty"`
	PaidBy         *uuid.UUID           `json:"paid_by,omitempty"`
}

// RegisterPayment handles POST /tickets/{ticketID}/payments. The idempotency
// key may come from the body or the Idempotency-Key header. A replay answers
// 200 with the original payment; a new payment answers 201.
func (h *PayoutHandler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	ticketID, err := uuidParam(r, "ticketID")
	if err != nil {
		RespondError(w, err)
		return
	}

	var in paymentInput
	if err := DecodeJSON(r, &in); err != nil {
		badBody(w)
		return
	}
	if in.IdempotencyKey == "" {
		in.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}
	amount, err := parseAmount("amount", in.Amount)
	if err != nil {
		RespondError(w, err)
		return
	}

	result, err := h.svc.Register(r.Context(), ticketID, domain.PaymentRequest{
		Amount:         amount,
		Method:         in.Method,
		IdempotencyKey: in.IdempotencyKey,
		IsFinal:        in.IsFinal,
		Notes:          in.Notes,
		PaidBy:         in.PaidBy,
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	if result.Idempotent {
		RespondJSON(w, http.StatusOK, result)
		return
	}
	RespondJSON(w, http.StatusCreated, result)
}

type reverseInput struct {
	ReversedBy *uuid.UUID `json:"reversed_by,omitempty"`
}

// ReversePayment handles POST /payments/{paymentID}/reverse. The body is optional.
func (h *PayoutHandler) ReversePayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuidParam(r, "paymentID")
	if err != nil {
		RespondError(w, err)
		return
	}

	var in reverseInput
	if err := DecodeJSON(r, &in); err != nil && !errors.Is(err, io.EOF) {
		badBody(w)
		return
	}

	result, err := h.svc.Reverse(r.Context(), paymentID, in.ReversedBy)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}
