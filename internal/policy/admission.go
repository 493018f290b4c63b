package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/bancalot/platform/internal/domain"
)

// AdmissionOptions configures the sale admission guard.
type AdmissionOptions struct {
	MaxBetsPerTicket int `json:"max_bets_per_ticket"`
}

// AdmissionDecision is the single verdict for a ticket submission. Rejections
// carry a domain code and a reason; bet-level problems are listed in BetErrors.
type AdmissionDecision struct {
	Admitted      bool       `json:"admitted"`
	Code          string     `json:"code,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	BetErrors     []BetError `json:"bet_errors,omitempty"`
	CutoffMinutes int        `json:"cutoff_minutes"`
	Deadline      time.Time  `json:"deadline"`
	PendingTotal  int64      `json:"pending_total"`
	DailyTotal    int64      `json:"daily_total"`
	MaxPerDay     *int64     `json:"max_per_day,omitempty"`
}

// Guard combines bet-set validation, the cutoff window and amount caps into
// one admission decision. It is a pure function over the snapshots it is given.
type Guard struct {
	resolver *Resolver
	opts     AdmissionOptions
}

// NewGuard creates an admission guard over a resolver.
func NewGuard(resolver *Resolver, opts AdmissionOptions) *Guard {
	return &Guard{resolver: resolver, opts: opts}
}

// Admit evaluates a ticket draft. dailyTotal is the seller's already-committed
// sales for the current business day; now is read once by the caller.
func (g *Guard) Admit(draft domain.TicketDraft, dailyTotal int64, now time.Time) AdmissionDecision {
	pending := draft.TotalAmount()
	d := AdmissionDecision{PendingTotal: pending, DailyTotal: dailyTotal}

	if err := draft.Actor.Validate(); err != nil {
		return reject(d, domain.CodeValidation, err.Error())
	}

	// 1. Bet set structure.
	v := ValidateBetSet(draft.Bets, BetSetOptions{MaxBets: g.opts.MaxBetsPerTicket})
	if !v.Valid {
		d.BetErrors = v.Errors
		return reject(d, domain.CodeValidation, strings.Join(v.Messages(), "; "))
	}
	if pending > domain.MaxAmount {
		return reject(d, domain.CodeValidation, fmt.Sprintf("ticket total %s exceeds maximum %s",
			domain.FormatAmount(pending), domain.FormatAmount(domain.MaxAmount)))
	}

	// 2. Cutoff window.
	if !draft.Draw.Status.AcceptsSales() {
		return reject(d, domain.CodeCutoffRejected, fmt.Sprintf("draw is %s", draft.Draw.Status))
	}
	d.CutoffMinutes = g.resolver.ResolveCutoffMinutes(draft.Actor, now)
	cutoff := CanAdmitSale(draft.Draw.ScheduledAt, now, d.CutoffMinutes)
	d.Deadline = cutoff.Deadline
	if !cutoff.Admitted {
		return reject(d, domain.CodeCutoffRejected, cutoff.Reason)
	}

	// 3. Per-bet caps, resolved per played number.
	var capErrs []BetError
	for i, b := range draft.Bets {
		number, _ := domain.ParseBetNumber(b.TargetNumber())
		caps := g.resolver.ResolveAmountCaps(draft.Actor, &number, now)
		if caps.MaxPerBet != nil && b.Amount > *caps.MaxPerBet {
			capErrs = append(capErrs, BetError{
				Index: i, Field: "amount", Code: BetErrPerBetCap,
				Message: fmt.Sprintf("bet %d (%s): amount %s exceeds per-bet cap %s",
					i+1, b.TargetNumber(), domain.FormatAmount(b.Amount), domain.FormatAmount(*caps.MaxPerBet)),
			})
		}
	}
	if len(capErrs) > 0 {
		d.BetErrors = capErrs
		msgs := make([]string, len(capErrs))
		for i, e := range capErrs {
			msgs[i] = e.Message
		}
		return reject(d, domain.CodeCapExceeded, strings.Join(msgs, "; "))
	}

	// 4. Daily volume cap.
	daily := g.resolver.ResolveAmountCaps(draft.Actor, nil, now)
	d.MaxPerDay = daily.MaxPerDay
	if daily.MaxPerDay != nil && pending > *daily.MaxPerDay-dailyTotal {
		return reject(d, domain.CodeCapExceeded, fmt.Sprintf("daily cap exceeded: %s sold + %s pending > %s limit",
			domain.FormatAmount(dailyTotal), domain.FormatAmount(pending), domain.FormatAmount(*daily.MaxPerDay)))
	}

	d.Admitted = true
	return d
}

// DailyHeadroom is the remaining daily volume for a seller. Remaining is nil
// when no daily cap applies.
type DailyHeadroom struct {
	DailyTotal int64  `json:"daily_total"`
	MaxPerDay  *int64 `json:"max_per_day,omitempty"`
	Remaining  *int64 `json:"remaining,omitempty"`
}

// Headroom reports how much more the actor may sell today.
func (g *Guard) Headroom(actor domain.Actor, dailyTotal int64, now time.Time) DailyHeadroom {
	caps := g.resolver.ResolveAmountCaps(actor, nil, now)
	h := DailyHeadroom{DailyTotal: dailyTotal, MaxPerDay: caps.MaxPerDay}
	if caps.MaxPerDay != nil {
		rem := *caps.MaxPerDay - dailyTotal
		if rem < 0 {
			rem = 0
		}
		h.Remaining = &rem
	}
	return h
}

func reject(d AdmissionDecision, code, reason string) AdmissionDecision {
	d.Admitted = false
	d.Code = code
	d.Reason = reason
	return d
}
