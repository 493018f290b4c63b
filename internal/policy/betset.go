package policy

import (
	"fmt"

	"github.com/bancalot/platform/internal/domain"
)

// Bet error codes.
const (
	BetErrEmpty       = "empty_ticket"
	BetErrUnknownKind = "unknown_kind"
	BetErrMalformed   = "malformed_number"
	BetErrAmount      = "non_positive_amount"
	BetErrAmountRange = "amount_out_of_range"
	BetErrDuplicate   = "duplicate_number"
	BetErrOrphanExtra = "orphan_extra"
	BetErrTooManyBets = "too_many_bets"
	BetErrPerBetCap   = "per_bet_cap_exceeded"
)

// AggregateErrorIndex marks a BetError that concerns the whole set.
const AggregateErrorIndex = -1

// BetError is one problem found in a bet set. Index is the zero-based bet
// position, or AggregateErrorIndex for errors about the whole set.
type BetError struct {
	Index   int    `json:"index"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BetSetValidation is the outcome of ValidateBetSet. It is never partially
// valid: any error rejects the whole submission.
type BetSetValidation struct {
	Valid  bool       `json:"valid"`
	Errors []BetError `json:"errors,omitempty"`
}

// Messages returns the error messages in order.
func (v BetSetValidation) Messages() []string {
	out := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		out[i] = e.Message
	}
	return out
}

// BetSetOptions carries lottery-level configuration. MaxBets of 0 means unlimited.
type BetSetOptions struct {
	MaxBets int `json:"max_bets"`
}

// ValidateBetSet checks a proposed set of bets. All errors are collected, in
// check order: structure, amounts, duplicate DIRECT numbers, orphan EXTRA
// references, then the per-ticket bet count.
func ValidateBetSet(bets []domain.Bet, opts BetSetOptions) BetSetValidation {
	if len(bets) == 0 {
		return BetSetValidation{Errors: []BetError{{
			Index:   AggregateErrorIndex,
			Code:    BetErrEmpty,
			Message: "ticket must contain at least one bet",
		}}}
	}

	var errs []BetError

	// Structural.
	for i, b := range bets {
		switch b.Kind {
		case domain.BetDirect:
			if !domain.IsWellFormedNumber(b.Number) {
				errs = append(errs, BetError{Index: i, Field: "number", Code: BetErrMalformed,
					Message: fmt.Sprintf("bet %d: DIRECT number %q must be two digits 00-99", i+1, b.Number)})
			}
		case domain.BetExtra:
			if !domain.IsWellFormedNumber(b.ReferenceNumber) {
				errs = append(errs, BetError{Index: i, Field: "reference_number", Code: BetErrMalformed,
					Message: fmt.Sprintf("bet %d: EXTRA reference number %q must be two digits 00-99", i+1, b.ReferenceNumber)})
			}
		default:
			errs = append(errs, BetError{Index: i, Field: "kind", Code: BetErrUnknownKind,
				Message: fmt.Sprintf("bet %d: unknown kind %q", i+1, b.Kind)})
		}
	}

	// Amounts.
	for i, b := range bets {
		switch {
		case b.Amount <= 0:
			errs = append(errs, BetError{Index: i, Field: "amount", Code: BetErrAmount,
				Message: fmt.Sprintf("bet %d: amount must be positive, got %s", i+1, domain.FormatAmount(b.Amount))})
		case b.Amount > domain.MaxAmount:
			errs = append(errs, BetError{Index: i, Field: "amount", Code: BetErrAmountRange,
				Message: fmt.Sprintf("bet %d: amount %s exceeds maximum %s", i+1, domain.FormatAmount(b.Amount), domain.FormatAmount(domain.MaxAmount))})
		}
	}

	directs := make(map[string]int)
	for _, b := range bets {
		if b.Kind == domain.BetDirect && domain.IsWellFormedNumber(b.Number) {
			directs[b.Number]++
		}
	}

	// Duplicate DIRECT numbers: every occurrence is flagged.
	for i, b := range bets {
		if b.Kind == domain.BetDirect && directs[b.Number] > 1 {
			errs = append(errs, BetError{Index: i, Field: "number", Code: BetErrDuplicate,
				Message: fmt.Sprintf("bet %d: duplicate DIRECT number %q", i+1, b.Number)})
		}
	}

	// Orphan EXTRA references. Malformed references were already reported.
	for i, b := range bets {
		if b.Kind != domain.BetExtra || !domain.IsWellFormedNumber(b.ReferenceNumber) {
			continue
		}
		if directs[b.ReferenceNumber] == 0 {
			errs = append(errs, BetError{Index: i, Field: "reference_number", Code: BetErrOrphanExtra,
				Message: fmt.Sprintf("bet %d: EXTRA references number %q with no DIRECT bet in this ticket", i+1, b.ReferenceNumber)})
		}
	}

	if opts.MaxBets > 0 && len(bets) > opts.MaxBets {
		errs = append(errs, BetError{Index: AggregateErrorIndex, Code: BetErrTooManyBets,
			Message: fmt.Sprintf("ticket has %d bets, maximum is %d", len(bets), opts.MaxBets)})
	}

	return BetSetValidation{Valid: len(errs) == 0, Errors: errs}
}
