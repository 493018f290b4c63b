package domain

import (
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var betNumberRegex = regexp.MustCompile(`^[0-9]{2}$`)

// BetKind tags a bet line (jugada).
type BetKind string

const (
	// BetDirect is a plain two-digit number bet.
	BetDirect BetKind = "DIRECT"
	// BetExtra is a booster tied to a DIRECT bet of the same ticket.
	BetExtra BetKind = "EXTRA"
)

// Bet is one line of a ticket. DIRECT bets use Number; EXTRA bets use
// ReferenceNumber, which must equal the Number of a DIRECT bet in the same ticket.
type Bet struct {
	ID              uuid.UUID `json:"id,omitempty"`
	TicketID        uuid.UUID `json:"ticket_id,omitempty"`
	Kind            BetKind   `json:"kind"`
	Number          string    `json:"number,omitempty"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	Amount          int64     `json:"amount"` // cents

	// Assigned by the external draw evaluation.
	IsWinner  bool  `json:"is_winner"`
	WinAmount int64 `json:"win_amount"`
}

// TargetNumber returns the number the bet plays: its own for DIRECT bets, the
// referenced one for EXTRA bets.
func (b Bet) TargetNumber() string {
	if b.Kind == BetExtra {
		return b.ReferenceNumber
	}
	return b.Number
}

// IsWellFormedNumber reports whether s is a two-digit bet number (00-99).
func IsWellFormedNumber(s string) bool {
	return betNumberRegex.MatchString(s)
}

// ParseBetNumber converts a well-formed two-digit number to its integer value.
func ParseBetNumber(s string) (int, bool) {
	if !IsWellFormedNumber(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// DrawStatus tracks the lifecycle of a draw (sorteo).
type DrawStatus string

const (
	DrawScheduled DrawStatus = "scheduled"
	DrawOpen      DrawStatus = "open"
	DrawClosed    DrawStatus = "closed"
	DrawEvaluated DrawStatus = "evaluated"
)

// AcceptsSales reports whether the draw's status still allows new tickets.
func (s DrawStatus) AcceptsSales() bool {
	return s == DrawScheduled || s == DrawOpen
}

// Draw is the metadata the admission engine needs about a sorteo.
type Draw struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Status      DrawStatus `json:"status"`
}

// TicketDraft is a proposed ticket awaiting admission.
type TicketDraft struct {
	Actor Actor `json:"actor"`
	Draw  Draw  `json:"draw"`
	Bets  []Bet `json:"bets"`
}

// TotalAmount sums the bet amounts.
func (d TicketDraft) TotalAmount() int64 {
	return SumBets(d.Bets)
}

// TicketStatus tracks an admitted ticket.
type TicketStatus string

const (
	TicketActive    TicketStatus = "active"
	TicketEvaluated TicketStatus = "evaluated"
	TicketCancelled TicketStatus = "cancelled"
)

// Ticket is an admitted, persisted set of bets for one draw.
type Ticket struct {
	ID          uuid.UUID    `json:"id"`
	DrawID      uuid.UUID    `json:"draw_id"`
	Actor       Actor        `json:"actor"`
	Status      TicketStatus `json:"status"`
	TotalAmount int64        `json:"total_amount"`
	IsWinner    bool         `json:"is_winner"`
	Bets        []Bet        `json:"bets"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewTicket builds the record for an admitted draft.
func NewTicket(draft TicketDraft, now time.Time) *Ticket {
	t := &Ticket{
		ID:          uuid.New(),
		DrawID:      draft.Draw.ID,
		Actor:       draft.Actor,
		Status:      TicketActive,
		TotalAmount: draft.TotalAmount(),
		CreatedAt:   now,
		Bets:        make([]Bet, len(draft.Bets)),
	}
	for i, b := range draft.Bets {
		b.ID = uuid.New()
		b.TicketID = t.ID
		b.IsWinner = false
		b.WinAmount = 0
		t.Bets[i] = b
	}
	return t
}

// SumBets totals bet amounts. The sum saturates instead of wrapping.
func SumBets(bets []Bet) int64 {
	var total int64
	for _, b := range bets {
		total = AddAmounts(total, b.Amount)
	}
	return total
}
