package handler

import (
	"fmt"
	"net/http"

	"github.com/bancalot/platform/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.ErrValidation(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

func uuidQuery(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return uuid.Nil, domain.ErrValidation(fmt.Sprintf("%s is required", name))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrValidation(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// actorFromQuery reads the bank_id, sales_point_id and seller_id query parameters.
func actorFromQuery(r *http.Request) (domain.Actor, error) {
	var a domain.Actor
	var err error
	if a.BankID, err = uuidQuery(r, "bank_id"); err != nil {
		return a, err
	}
	if a.SalesPointID, err = uuidQuery(r, "sales_point_id"); err != nil {
		return a, err
	}
	if a.SellerID, err = uuidQuery(r, "seller_id"); err != nil {
		return a, err
	}
	return a, nil
}

func parseAmount(field string, d decimal.Decimal) (int64, error) {
	cents, err := domain.ParseAmount(d)
	if err != nil {
		return 0, domain.ErrValidation(fmt.Sprintf("%s: %v", field, err))
	}
	return cents, nil
}

func parseOptionalAmount(field string, d *decimal.Decimal) (*int64, error) {
	if d == nil {
		return nil, nil
	}
	cents, err := parseAmount(field, *d)
	if err != nil {
		return nil, err
	}
	return &cents, nil
}
