package handler

import (
	"context"
	"net/http"

	"github.com/bancalot/platform/internal/domain"
	"github.com/bancalot/platform/internal/service"
)

// DailySales reports a seller's position against the daily cap.
type DailySales interface {
	DailyStatus(ctx context.Context, actor domain.Actor) (*service.DailyStatus, error)
}

// SellerHandler handles seller status endpoints.
type SellerHandler struct {
	svc DailySales
}

// NewSellerHandler creates a new SellerHandler.
func NewSellerHandler(svc DailySales) *SellerHandler {
	return &SellerHandler{svc: svc}
}

// DailySales handles GET /sellers/{sellerID}/daily-sales?bank_id=&sales_point_id=.
func (h *SellerHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	sellerID, err := uuidParam(r, "sellerID")
	if err != nil {
		RespondError(w, err)
		return
	}
	bankID, err := uuidQuery(r, "bank_id")
	if err != nil {
		RespondError(w, err)
		return
	}
	salesPointID, err := uuidQuery(r, "sales_point_id")
	if err != nil {
		RespondError(w, err)
		return
	}

	status, err := h.svc.DailyStatus(r.Context(), domain.Actor{BankID: bankID, SalesPointID: salesPointID, SellerID: sellerID})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, status)
}
