package policy

import (
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/google/uuid"
)

// DefaultCutoffMinutes applies when no cutoff rule matches at any level.
const DefaultCutoffMinutes = 5

// Defaults are the limits used when no rule matches. Nil caps are unbounded.
type Defaults struct {
	CutoffMinutes   int    `json:"cutoff_minutes"`
	MaxAmountPerBet *int64 `json:"max_amount_per_bet,omitempty"`
	MaxAmountPerDay *int64 `json:"max_amount_per_day,omitempty"`
}

// DefaultLimits returns the domain defaults: 5 minute cutoff, unbounded caps.
func DefaultLimits() Defaults {
	return Defaults{CutoffMinutes: DefaultCutoffMinutes}
}

// priority lists scope levels from the most to the least specific.
var priority = []domain.ScopeLevel{domain.ScopeSeller, domain.ScopeSalesPoint, domain.ScopeBank}

// ResolvedCutoff is the effective cutoff for an actor.
type ResolvedCutoff struct {
	Minutes int               `json:"minutes"`
	Source  domain.ScopeLevel `json:"-"`
	RuleID  *uuid.UUID        `json:"rule_id,omitempty"`
}

// AmountCaps are the effective amount limits for an actor and optional number.
// MaxPerBet and MaxPerDay are resolved independently of each other.
type AmountCaps struct {
	MaxPerBet    *int64            `json:"max_per_bet,omitempty"`
	MaxPerDay    *int64            `json:"max_per_day,omitempty"`
	PerBetSource domain.ScopeLevel `json:"-"`
	PerDaySource domain.ScopeLevel `json:"-"`
	PerBetRuleID *uuid.UUID        `json:"per_bet_rule_id,omitempty"`
	PerDayRuleID *uuid.UUID        `json:"per_day_rule_id,omitempty"`
}

// Resolver picks the single effective rule per constraint using strict scope
// priority: seller, then sales point, then bank. The most specific override
// wins; matching rules are never combined.
type Resolver struct {
	store    *RuleStore
	defaults Defaults
}

// NewResolver creates a resolver over a rule snapshot.
func NewResolver(store *RuleStore, defaults Defaults) *Resolver {
	if store == nil {
		store = NewRuleStore(nil)
	}
	return &Resolver{store: store, defaults: defaults}
}

// Defaults returns the fallback limits.
func (r *Resolver) Defaults() Defaults { return r.defaults }

// ResolveCutoffMinutes returns the effective cutoff in minutes for the actor at t.
func (r *Resolver) ResolveCutoffMinutes(actor domain.Actor, at time.Time) int {
	return r.ResolveCutoff(actor, at).Minutes
}

// ResolveCutoff returns the effective cutoff along with the rule that supplied it.
// Cutoff rules are never number-specific.
func (r *Resolver) ResolveCutoff(actor domain.Actor, at time.Time) ResolvedCutoff {
	rule, level := r.pick(actor, domain.RuleKindCutoff, nil, at, func(rr domain.RestrictionRule) bool {
		return rr.CutoffMinutes != nil
	})
	if rule == nil {
		return ResolvedCutoff{Minutes: r.defaults.CutoffMinutes}
	}
	id := rule.ID
	return ResolvedCutoff{Minutes: *rule.CutoffMinutes, Source: level, RuleID: &id}
}

// ResolveAmountCaps returns the effective per-bet and per-day caps. When number
// is given, a number-specific rule beats a number-agnostic rule of the same
// scope level; scope level always dominates.
func (r *Resolver) ResolveAmountCaps(actor domain.Actor, number *int, at time.Time) AmountCaps {
	caps := AmountCaps{
		MaxPerBet: r.defaults.MaxAmountPerBet,
		MaxPerDay: r.defaults.MaxAmountPerDay,
	}

	if rule, level := r.pick(actor, domain.RuleKindAmountCap, number, at, func(rr domain.RestrictionRule) bool {
		return rr.MaxAmountPerBet != nil
	}); rule != nil {
		id := rule.ID
		caps.MaxPerBet, caps.PerBetSource, caps.PerBetRuleID = rule.MaxAmountPerBet, level, &id
	}

	if rule, level := r.pick(actor, domain.RuleKindAmountCap, number, at, func(rr domain.RestrictionRule) bool {
		return rr.MaxAmountPerDay != nil
	}); rule != nil {
		id := rule.ID
		caps.MaxPerDay, caps.PerDaySource, caps.PerDayRuleID = rule.MaxAmountPerDay, level, &id
	}

	return caps
}

// pick walks the scope levels in priority order and returns the first rule
// that provides the constraint. Within a level the number-specific rule is
// tried before the number-agnostic one; within the same bucket the first rule
// in snapshot order wins.
func (r *Resolver) pick(actor domain.Actor, kind domain.RuleKind, number *int, at time.Time, has func(domain.RestrictionRule) bool) (*domain.RestrictionRule, domain.ScopeLevel) {
	for _, level := range priority {
		f := RuleFilter{Actor: &actor, Kind: kind, Level: level, At: at}
		if number != nil {
			f.Number = number
			if rule := r.store.first(f, has); rule != nil {
				return rule, level
			}
			f.Number = nil
		}
		if rule := r.store.first(f, has); rule != nil {
			return rule, level
		}
	}
	return nil, domain.ScopeNone
}
