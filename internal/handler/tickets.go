package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bancalot/platform/internal/domain"
	"github.com/bancalot/platform/internal/guard"
	"github.com/bancalot/platform/internal/policy"
	"github.com/bancalot/platform/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketService is the sale side used by TicketHandler.
type TicketService interface {
	Preview(ctx context.Context, req service.TicketRequest) (*policy.AdmissionDecision, error)
	Submit(ctx context.Context, req service.TicketRequest) (*service.SubmitResult, error)
}

// Limiter throttles calls per key.
type Limiter interface {
	Check(key string) guard.Result
}

// TicketHandler handles ticket admission and submission.
type TicketHandler struct {
	svc     TicketService
	limiter Limiter
}

// NewTicketHandler creates a new TicketHandler. limiter may be nil.
func NewTicketHandler(svc TicketService, limiter Limiter) *TicketHandler {
	return &TicketHandler{svc: svc, limiter: limiter}
}

type betInput struct {
	Kind            domain.BetKind  `json:"kind"`
	Number          string          `json:"number,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
}

type ticketInput struct {
	Actor  domain.Actor `json:"actor"`
	DrawID uuid.UUID    `json:"draw_id"`
	Bets   []betInput   `json:"bets"`
}

func (in ticketInput) toRequest() (service.TicketRequest, error) {
	req := service.TicketRequest{Actor: in.Actor, DrawID: in.DrawID, Bets: make([]domain.Bet, len(in.Bets))}
	if in.DrawID == uuid.Nil {
		return req, domain.ErrValidation("draw_id is required")
	}
	for i, b := range in.Bets {
		cents, err := parseAmount(fmt.Sprintf("bets[%d].amount", i), b.Amount)
		if err != nil {
			return req, err
		}
		req.Bets[i] = domain.Bet{Kind: b.Kind, Number: b.Number, ReferenceNumber: b.ReferenceNumber, Amount: cents}
	}
	return req, nil
}

func (h *TicketHandler) decodeTicket(w http.ResponseWriter, r *http.Request) (service.TicketRequest, bool) {
	var in ticketInput
	if err := DecodeJSON(r, &in); err != nil {
		badBody(w)
		return service.TicketRequest{}, false
	}
	req, err := in.toRequest()
	if err != nil {
		RespondError(w, err)
		return req, false
	}
	if h.limiter != nil {
		if res := h.limiter.Check(req.Actor.SellerID.String()); !res.Allowed {
			RespondError(w, domain.ErrRateLimited(res.Reason))
			return req, false
		}
	}
	return req, true
}

// Preview handles POST /tickets/admission. Nothing is stored.
func (h *TicketHandler) Preview(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTicket(w, r)
	if !ok {
		return
	}

	decision, err := h.svc.Preview(r.Context(), req)
	if err != nil {
		RespondError(w, err)
		return
	}
	if !decision.Admitted {
		RespondRejection(w, decision.Code, decision.Reason, decision)
		return
	}
	RespondJSON(w, http.StatusOK, decision)
}

// Submit handles POST /tickets.
func (h *TicketHandler) Submit(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTicket(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		RespondError(w, err)
		return
	}
	if !result.Decision.Admitted {
		RespondRejection(w, result.Decision.Code, result.Decision.Reason, result.Decision)
		return
	}
	RespondJSON(w, http.StatusCreated, result)
}
