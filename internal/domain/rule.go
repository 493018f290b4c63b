package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Cutoff and bet-number bounds.
const (
	MinCutoffMinutes = 0
	MaxCutoffMinutes = 30
	MinBetNumber     = 0
	MaxBetNumber     = 99
)

// Actor identifies who is selling: a seller (vendedor) working at a sales
// point (ventana) owned by a bank (banca).
type Actor struct {
	BankID       uuid.UUID `json:"bank_id"`
	SalesPointID uuid.UUID `json:"sales_point_id"`
	SellerID     uuid.UUID `json:"seller_id"`
}

// Validate checks that the full hierarchy is present.
func (a Actor) Validate() error {
	if a.BankID == uuid.Nil {
		return fmt.Errorf("bank_id is required")
	}
	if a.SalesPointID == uuid.Nil {
		return fmt.Errorf("sales_point_id is required")
	}
	if a.SellerID == uuid.Nil {
		return fmt.Errorf("seller_id is required")
	}
	return nil
}

// ScopeLevel orders rule scopes from broadest to narrowest.
type ScopeLevel int

const (
	ScopeNone ScopeLevel = iota
	ScopeBank
	ScopeSalesPoint
	ScopeSeller
)

func (l ScopeLevel) String() string {
	switch l {
	case ScopeBank:
		return "bank"
	case ScopeSalesPoint:
		return "sales_point"
	case ScopeSeller:
		return "seller"
	default:
		return "none"
	}
}

// RuleScope attaches a rule to one point of the bank → sales point → seller
// hierarchy. Any subset of identifiers may be set; the narrowest one owns the rule.
type RuleScope struct {
	BankID       *uuid.UUID `json:"bank_id,omitempty"`
	SalesPointID *uuid.UUID `json:"sales_point_id,omitempty"`
	SellerID     *uuid.UUID `json:"seller_id,omitempty"`
}

// Level returns the owning (narrowest non-empty) scope level.
func (s RuleScope) Level() ScopeLevel {
	switch {
	case s.SellerID != nil:
		return ScopeSeller
	case s.SalesPointID != nil:
		return ScopeSalesPoint
	case s.BankID != nil:
		return ScopeBank
	default:
		return ScopeNone
	}
}

// Matches reports whether every identifier carried by the scope equals the actor's.
func (s RuleScope) Matches(a Actor) bool {
	if s.Level() == ScopeNone {
		return false
	}
	if s.SellerID != nil && *s.SellerID != a.SellerID {
		return false
	}
	if s.SalesPointID != nil && *s.SalesPointID != a.SalesPointID {
		return false
	}
	if s.BankID != nil && *s.BankID != a.BankID {
		return false
	}
	return true
}

// RuleKind discriminates restriction rules. A rule is either a cutoff rule or
// an amount-cap rule, never both.
type RuleKind string

const (
	RuleKindCutoff    RuleKind = "cutoff"
	RuleKindAmountCap RuleKind = "amount_cap"
)

// RestrictionRule is a constraint attached to one scope combination.
type RestrictionRule struct {
	ID    uuid.UUID `json:"id"`
	Kind  RuleKind  `json:"kind"`
	Scope RuleScope `json:"scope"`

	// Amount-cap fields.
	Number          *int   `json:"number,omitempty"`
	MaxAmountPerBet *int64 `json:"max_amount_per_bet,omitempty"`
	MaxAmountPerDay *int64 `json:"max_amount_per_day,omitempty"`

	// Cutoff field.
	CutoffMinutes *int `json:"cutoff_minutes,omitempty"`

	// Optional temporal window.
	AppliesToDate *time.Time `json:"applies_to_date,omitempty"`
	AppliesToHour *int       `json:"applies_to_hour,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCutoffRule builds an active cutoff rule for the given scope.
func NewCutoffRule(scope RuleScope, minutes int) (RestrictionRule, error) {
	r := RestrictionRule{
		ID:            uuid.New(),
		Kind:          RuleKindCutoff,
		Scope:         scope,
		CutoffMinutes: &minutes,
		IsActive:      true,
	}
	return r, r.Validate()
}

// NewAmountCapRule builds an active amount-cap rule. number, perBet and perDay
// are optional; at least one cap must be given.
func NewAmountCapRule(scope RuleScope, number *int, perBet, perDay *int64) (RestrictionRule, error) {
	r := RestrictionRule{
		ID:              uuid.New(),
		Kind:            RuleKindAmountCap,
		Scope:           scope,
		Number:          number,
		MaxAmountPerBet: perBet,
		MaxAmountPerDay: perDay,
		IsActive:        true,
	}
	return r, r.Validate()
}

// Validate enforces the rule shape for its kind.
func (r RestrictionRule) Validate() error {
	if r.Scope.Level() == ScopeNone {
		return fmt.Errorf("rule %s has no scope", r.ID)
	}
	if r.AppliesToHour != nil && (*r.AppliesToHour < 0 || *r.AppliesToHour > 23) {
		return fmt.Errorf("rule %s: applies_to_hour must be 0-23, got %d", r.ID, *r.AppliesToHour)
	}

	switch r.Kind {
	case RuleKindCutoff:
		if r.CutoffMinutes == nil {
			return fmt.Errorf("rule %s: cutoff rule requires cutoff_minutes", r.ID)
		}
		if *r.CutoffMinutes < MinCutoffMinutes || *r.CutoffMinutes > MaxCutoffMinutes {
			return fmt.Errorf("rule %s: cutoff_minutes must be %d-%d, got %d", r.ID, MinCutoffMinutes, MaxCutoffMinutes, *r.CutoffMinutes)
		}
		if r.MaxAmountPerBet != nil || r.MaxAmountPerDay != nil {
			return fmt.Errorf("rule %s: cutoff rule cannot carry amount caps", r.ID)
		}
		if r.Number != nil {
			return fmt.Errorf("rule %s: cutoff rule cannot be number-specific", r.ID)
		}
	case RuleKindAmountCap:
		if r.CutoffMinutes != nil {
			return fmt.Errorf("rule %s: amount-cap rule cannot carry cutoff_minutes", r.ID)
		}
		if r.MaxAmountPerBet == nil && r.MaxAmountPerDay == nil {
			return fmt.Errorf("rule %s: amount-cap rule requires max_amount_per_bet or max_amount_per_day", r.ID)
		}
		if r.MaxAmountPerBet != nil && *r.MaxAmountPerBet <= 0 {
			return fmt.Errorf("rule %s: max_amount_per_bet must be positive, got %d", r.ID, *r.MaxAmountPerBet)
		}
		if r.MaxAmountPerDay != nil && *r.MaxAmountPerDay <= 0 {
			return fmt.Errorf("rule %s: max_amount_per_day must be positive, got %d", r.ID, *r.MaxAmountPerDay)
		}
		if r.Number != nil && (*r.Number < MinBetNumber || *r.Number > MaxBetNumber) {
			return fmt.Errorf("rule %s: number must be %02d-%02d, got %d", r.ID, MinBetNumber, MaxBetNumber, *r.Number)
		}
		if r.Number != nil && r.MaxAmountPerDay != nil {
			return fmt.Errorf("rule %s: daily caps are per seller, not per number", r.ID)
		}
	default:
		return fmt.Errorf("rule %s: unknown kind %q", r.ID, r.Kind)
	}
	return nil
}

// ActiveAt reports whether the rule's temporal window covers t. AppliesToDate
// is a calendar date; it is compared against t's date in t's own location.
func (r RestrictionRule) ActiveAt(t time.Time) bool {
	if !r.IsActive {
		return false
	}
	if r.AppliesToDate != nil {
		y, m, d := t.Date()
		ry, rm, rd := r.AppliesToDate.Date()
		if y != ry || m != rm || d != rd {
			return false
		}
	}
	if r.AppliesToHour != nil && t.Hour() != *r.AppliesToHour {
		return false
	}
	return true
}
