package policy

import (
	"fmt"
	"time"
)

// CutoffDecision holds the result of a sales-window check.
type CutoffDecision struct {
	Admitted         bool      `json:"admitted"`
	Reason           string    `json:"reason,omitempty"`
	Deadline         time.Time `json:"deadline"`
	MinutesRemaining int       `json:"minutes_remaining"` // until the draw, rounded up
	DrawPassed       bool      `json:"draw_passed,omitempty"`
}

// CanAdmitSale decides whether a sale for a draw scheduled at drawAt is still
// allowed at now. Sales close at drawAt - cutoffMinutes; the boundary instant
// itself is rejected. The caller reads the clock once and passes it in.
func CanAdmitSale(drawAt, now time.Time, cutoffMinutes int) CutoffDecision {
	if cutoffMinutes < 0 {
		cutoffMinutes = 0
	}
	deadline := drawAt.Add(-time.Duration(cutoffMinutes) * time.Minute)
	remaining := minutesUntil(now, drawAt)

	d := CutoffDecision{
		Deadline:         deadline,
		MinutesRemaining: remaining,
	}

	if !now.Before(drawAt) {
		d.DrawPassed = true
		d.Reason = "draw already occurred"
		return d
	}
	if !now.Before(deadline) {
		d.Reason = fmt.Sprintf("within cutoff window: sales close %d minutes before the draw, %d minutes remaining", cutoffMinutes, remaining)
		return d
	}

	d.Admitted = true
	return d
}

// minutesUntil returns whole minutes from now to t, rounded up. Negative when
// t is in the past.
func minutesUntil(now, t time.Time) int {
	diff := t.Sub(now)
	mins := int(diff / time.Minute)
	if diff%time.Minute > 0 {
		mins++
	}
	return mins
}
