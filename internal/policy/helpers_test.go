package policy

import (
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/google/uuid"
)

func intPtr(v int) *int { return &v }
func i64Ptr(v int64) *int64 { return &v }
func idPtr(v uuid.UUID) *uuid.UUID { return &v }

func newActor() domain.Actor {
	return domain.Actor{BankID: uuid.New(), SalesPointID: uuid.New(), SellerID: uuid.New()}
}

func bankScope(a domain.Actor) domain.RuleScope {
	return domain.RuleScope{BankID: idPtr(a.BankID)}
}

func salesPointScope(a domain.Actor) domain.RuleScope {
	return domain.RuleScope{BankID: idPtr(a.BankID), SalesPointID: idPtr(a.SalesPointID)}
}

func sellerScope(a domain.Actor) domain.RuleScope {
	return domain.RuleScope{BankID: idPtr(a.BankID), SalesPointID: idPtr(a.SalesPointID), SellerID: idPtr(a.SellerID)}
}

func cutoffRule(scope domain.RuleScope, minutes int) domain.RestrictionRule {
	return domain.RestrictionRule{
		ID:            uuid.New(),
		Kind:          domain.RuleKindCutoff,
		Scope:         scope,
		CutoffMinutes: intPtr(minutes),
		IsActive:      true,
	}
}

func capRule(scope domain.RuleScope, number *int, perBet, perDay *int64) domain.RestrictionRule {
	return domain.RestrictionRule{
		ID:              uuid.New(),
		Kind:            domain.RuleKindAmountCap,
		Scope:           scope,
		Number:          number,
		MaxAmountPerBet: perBet,
		MaxAmountPerDay: perDay,
		IsActive:        true,
	}
}

// at returns 2026-03-01 hh:mm in UTC.
func at(hh, mm int) time.Time {
	return time.Date(2026, 3, 1, hh, mm, 0, 0, time.UTC)
}
