package policy

import (
	"time"

	"github.com/bancalot/platform/internal/domain"
)

// RuleFilter narrows a RuleStore query. Zero-valued fields match everything.
type RuleFilter struct {
	Actor  *domain.Actor
	Kind   domain.RuleKind
	Level  domain.ScopeLevel
	Number *int
	// AnyNumber disables number filtering; otherwise a nil Number selects
	// number-agnostic rules only.
	AnyNumber bool
	At        time.Time
}

// RuleStore is an immutable in-memory snapshot of the restriction rules in
// force. Refresh and retry are the caller's concern; the store only answers
// point queries over the list it was handed.
type RuleStore struct {
	rules   []domain.RestrictionRule
	invalid []error
}

// NewRuleStore copies rules into a snapshot, preserving order. Rules that fail
// validation are dropped and reported through Invalid.
func NewRuleStore(rules []domain.RestrictionRule) *RuleStore {
	s := &RuleStore{rules: make([]domain.RestrictionRule, 0, len(rules))}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			s.invalid = append(s.invalid, err)
			continue
		}
		s.rules = append(s.rules, r)
	}
	return s
}

// Len returns the number of valid rules in the snapshot.
func (s *RuleStore) Len() int { return len(s.rules) }

// Invalid returns the validation errors of dropped rules.
func (s *RuleStore) Invalid() []error { return s.invalid }

// Rules returns the rules matching f, in snapshot order.
func (s *RuleStore) Rules(f RuleFilter) []domain.RestrictionRule {
	var out []domain.RestrictionRule
	for _, r := range s.rules {
		if f.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// first returns the first rule matching f and has, in snapshot order.
func (s *RuleStore) first(f RuleFilter, has func(domain.RestrictionRule) bool) *domain.RestrictionRule {
	for i := range s.rules {
		r := &s.rules[i]
		if f.matches(*r) && has(*r) {
			return r
		}
	}
	return nil
}

func (f RuleFilter) matches(r domain.RestrictionRule) bool {
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.Level != domain.ScopeNone && r.Scope.Level() != f.Level {
		return false
	}
	if f.Actor != nil && !r.Scope.Matches(*f.Actor) {
		return false
	}
	if !f.AnyNumber {
		switch {
		case f.Number == nil && r.Number != nil:
			return false
		case f.Number != nil && (r.Number == nil || *r.Number != *f.Number):
			return false
		}
	}
	if !f.At.IsZero() && !r.ActiveAt(f.At) {
		return false
	}
	if f.At.IsZero() && !r.IsActive {
		return false
	}
	return true
}
