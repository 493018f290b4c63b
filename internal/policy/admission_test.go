package policy

import (
	"math"
	"testing"
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDraw(hh, mm int) domain.Draw {
	return domain.Draw{ID: uuid.New(), Name: "Tarde", ScheduledAt: at(hh, mm), Status: domain.DrawOpen}
}

func draft(a domain.Actor, draw domain.Draw, bets ...domain.Bet) domain.TicketDraft {
	return domain.TicketDraft{Actor: a, Draw: draw, Bets: bets}
}

// --- Guard.Admit Tests ---

func TestAdmit_CutoffWindow(t *testing.T) {
	a := newActor()
	g := NewGuard(NewResolver(nil, DefaultLimits()), AdmissionOptions{})
	d := draft(a, openDraw(19, 0), direct("34", 200000), extra("34", 600))

	t.Run("inside window rejected", func(t *testing.T) {
		got := g.Admit(d, 0, at(18, 56))
		assert.False(t, got.Admitted)
		assert.Equal(t, domain.CodeCutoffRejected, got.Code)
		assert.Contains(t, got.Reason, "4 minutes remaining")
		assert.Equal(t, 5, got.CutoffMinutes)
	})

	t.Run("before window admitted", func(t *testing.T) {
		got := g.Admit(d, 0, at(18, 54))
		assert.True(t, got.Admitted)
		assert.Empty(t, got.Code)
		assert.Equal(t, int64(200600), got.PendingTotal)
		assert.True(t, got.Deadline.Equal(at(18, 55)))
	})

	t.Run("draw passed", func(t *testing.T) {
		got := g.Admit(d, 0, at(19, 1))
		assert.False(t, got.Admitted)
		assert.Equal(t, "draw already occurred", got.Reason)
	})
}

func TestAdmit_SellerCutoffOverride(t *testing.T) {
	a := newActor()
	store := NewRuleStore([]domain.RestrictionRule{
		cutoffRule(bankScope(a), 10),
		cutoffRule(sellerScope(a), 1),
	})
	g := NewGuard(NewResolver(store, DefaultLimits()), AdmissionOptions{})

	got := g.Admit(draft(a, openDraw(19, 0), direct("10", 100)), 0, at(18, 57))
	assert.True(t, got.Admitted)
	assert.Equal(t, 1, got.CutoffMinutes)
}

func TestAdmit_DrawStatus(t *testing.T) {
	a := newActor()
	g := NewGuard(NewResolver(nil, DefaultLimits()), AdmissionOptions{})
	draw := openDraw(19, 0)
	draw.Status = domain.DrawClosed

	got := g.Admit(draft(a, draw, direct("10", 100)), 0, at(10, 0))
	assert.False(t, got.Admitted)
	assert.Equal(t, domain.CodeCutoffRejected, got.Code)
	assert.Equal(t, "draw is closed", got.Reason)
}

func TestAdmit_InvalidActor(t *testing.T) {
	g := NewGuard(NewResolver(nil, DefaultLimits()), AdmissionOptions{})
	got := g.Admit(draft(domain.Actor{}, openDraw(19, 0), direct("10", 100)), 0, at(10, 0))
	assert.False(t, got.Admitted)
	assert.Equal(t, domain.CodeValidation, got.Code)
}

func TestAdmit_BetSetErrors(t *testing.T) {
	a := newActor()
	g := NewGuard(NewResolver(nil, DefaultLimits()), AdmissionOptions{MaxBetsPerTicket: 10})

	got := g.Admit(draft(a, openDraw(19, 0), extra("34", 600)), 0, at(10, 0))
	assert.False(t, got.Admitted)
	assert.Equal(t, domain.CodeValidation, got.Code)
	require.Len(t, got.BetErrors, 1)
	assert.Equal(t, BetErrOrphanExtra, got.BetErrors[0].Code)

	// Bet-set errors are reported even inside the cutoff window.
	got = g.Admit(draft(a, openDraw(19, 0)), 0, at(18, 58))
	assert.Equal(t, domain.CodeValidation, got.Code)
	assert.Equal(t, "ticket must contain at least one bet", got.Reason)
}

func TestAdmit_PerBetCap(t *testing.T) {
	a := newActor()
	n := 34
	store := NewRuleStore([]domain.RestrictionRule{
		capRule(bankScope(a), nil, i64Ptr(100000), nil),
		capRule(salesPointScope(a), &n, i64Ptr(500), nil),
	})
	g := NewGuard(NewResolver(store, DefaultLimits()), AdmissionOptions{})
	draw := openDraw(19, 0)

	t.Run("extra bet checked against its reference number", func(t *testing.T) {
		got := g.Admit(draft(a, draw, direct("34", 400), extra("34", 600)), 0, at(10, 0))
		assert.False(t, got.Admitted)
		assert.Equal(t, domain.CodeCapExceeded, got.Code)
		require.Len(t, got.BetErrors, 1)
		assert.Equal(t, 1, got.BetErrors[0].Index)
		assert.Equal(t, BetErrPerBetCap, got.BetErrors[0].Code)
		assert.Equal(t, "bet 2 (34): amount 6 exceeds per-bet cap 5", got.BetErrors[0].Message)
	})

	t.Run("other numbers use the agnostic cap", func(t *testing.T) {
		got := g.Admit(draft(a, draw, direct("35", 90000)), 0, at(10, 0))
		assert.True(t, got.Admitted)
	})

	t.Run("at the cap is allowed", func(t *testing.T) {
		got := g.Admit(draft(a, draw, direct("34", 500)), 0, at(10, 0))
		assert.True(t, got.Admitted)
	})
}

func TestAdmit_DailyCap(t *testing.T) {
	a := newActor()
	store := NewRuleStore([]domain.RestrictionRule{
		capRule(sellerScope(a), nil, nil, i64Ptr(50000)),
	})
	g := NewGuard(NewResolver(store, DefaultLimits()), AdmissionOptions{})
	draw := openDraw(19, 0)

	got := g.Admit(draft(a, draw, direct("10", 6000), direct("11", 4000)), 42000, at(10, 0))
	assert.False(t, got.Admitted)
	assert.Equal(t, domain.CodeCapExceeded, got.Code)
	assert.Equal(t, "daily cap exceeded: 420 sold + 100 pending > 500 limit", got.Reason)
	require.NotNil(t, got.MaxPerDay)
	assert.Equal(t, int64(50000), *got.MaxPerDay)

	got = g.Admit(draft(a, draw, direct("10", 8000)), 42000, at(10, 0))
	assert.True(t, got.Admitted)
	assert.Equal(t, int64(42000), got.DailyTotal)
}

func TestAdmit_OversizedAmountsCannotWrapDailyCap(t *testing.T) {
	a := newActor()
	store := NewRuleStore([]domain.RestrictionRule{
		capRule(sellerScope(a), nil, nil, i64Ptr(50000)),
	})
	g := NewGuard(NewResolver(store, DefaultLimits()), AdmissionOptions{})
	draw := openDraw(19, 0)

	t.Run("bets beyond the maximum amount", func(t *testing.T) {
		half := int64(math.MaxInt64/2 + 1)
		got := g.Admit(draft(a, draw, direct("10", half), direct("11", half)), 0, at(10, 0))
		assert.False(t, got.Admitted)
		assert.Equal(t, domain.CodeValidation, got.Code)
		assert.Equal(t, int64(math.MaxInt64), got.PendingTotal)
		require.Len(t, got.BetErrors, 2)
		assert.Equal(t, BetErrAmountRange, got.BetErrors[0].Code)
	})

	t.Run("ticket total beyond the maximum amount", func(t *testing.T) {
		got := g.Admit(draft(a, draw, direct("10", domain.MaxAmount), direct("11", domain.MaxAmount)), 0, at(10, 0))
		assert.False(t, got.Admitted)
		assert.Equal(t, domain.CodeValidation, got.Code)
		assert.Contains(t, got.Reason, "exceeds maximum")
	})

	t.Run("large bet against the daily cap", func(t *testing.T) {
		got := g.Admit(draft(a, draw, direct("10", domain.MaxAmount)), 42000, at(10, 0))
		assert.False(t, got.Admitted)
		assert.Equal(t, domain.CodeCapExceeded, got.Code)
	})
}

func TestAdmit_ChecksAreDeterministic(t *testing.T) {
	a := newActor()
	g := NewGuard(NewResolver(nil, DefaultLimits()), AdmissionOptions{})
	d := draft(a, openDraw(19, 0), direct("10", 100))
	now := at(18, 0)

	first := g.Admit(d, 0, now)
	second := g.Admit(d, 0, now)
	assert.Equal(t, first, second)
}

// --- Guard.Headroom Tests ---

func TestHeadroom(t *testing.T) {
	a := newActor()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("no cap", func(t *testing.T) {
		h := NewGuard(NewResolver(nil, DefaultLimits()), AdmissionOptions{}).Headroom(a, 1000, now)
		assert.Nil(t, h.MaxPerDay)
		assert.Nil(t, h.Remaining)
	})

	t.Run("with cap", func(t *testing.T) {
		store := NewRuleStore([]domain.RestrictionRule{capRule(bankScope(a), nil, nil, i64Ptr(50000))})
		h := NewGuard(NewResolver(store, DefaultLimits()), AdmissionOptions{}).Headroom(a, 42000, now)
		require.NotNil(t, h.Remaining)
		assert.Equal(t, int64(8000), *h.Remaining)
	})

	t.Run("oversold clamps to zero", func(t *testing.T) {
		store := NewRuleStore([]domain.RestrictionRule{capRule(bankScope(a), nil, nil, i64Ptr(50000))})
		h := NewGuard(NewResolver(store, DefaultLimits()), AdmissionOptions{}).Headroom(a, 60000, now)
		assert.Equal(t, int64(0), *h.Remaining)
	})
}
