package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/bancalot/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errUnused = errors.New("not used by this test")

// fakeTx records the statements and outcome of one transaction. Methods not
// overridden panic through the nil embedded interface.
type fakeTx struct {
	pgx.Tx
	execs      []string
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...interface{}) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	txs []*fakeTx
}

func (d *fakeDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errUnused
}

func (d *fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errUnused
}

func (d *fakeDB) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	tx := &fakeTx{}
	d.txs = append(d.txs, tx)
	return tx, nil
}

func (d *fakeDB) lastTx() *fakeTx {
	return d.txs[len(d.txs)-1]
}

type fakeRules struct {
	rules []domain.RestrictionRule
	calls int
}

func (f *fakeRules) ListForActor(_ context.Context, _ repository.DBTX, actor domain.Actor) ([]domain.RestrictionRule, error) {
	f.calls++
	var out []domain.RestrictionRule
	for _, r := range f.rules {
		if r.Scope.Matches(actor) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRules) Create(_ context.Context, _ repository.DBTX, r *domain.RestrictionRule) error {
	f.rules = append(f.rules, *r)
	return nil
}

type fakeDraws struct {
	draws map[uuid.UUID]domain.Draw
}

func (f *fakeDraws) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Draw, error) {
	d, ok := f.draws[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

type fakeTickets struct {
	tickets  map[uuid.UUID]*domain.Ticket
	sold     map[uuid.UUID]int64
	lastFrom time.Time
	lastTo   time.Time
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{tickets: map[uuid.UUID]*domain.Ticket{}, sold: map[uuid.UUID]int64{}}
}

func (f *fakeTickets) Insert(_ context.Context, _ repository.DBTX, t *domain.Ticket) error {
	f.tickets[t.ID] = t
	f.sold[t.Actor.SellerID] += t.TotalAmount
	return nil
}

func (f *fakeTickets) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Ticket, error) {
	return f.tickets[id], nil
}

func (f *fakeTickets) LockForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Ticket, error) {
	return f.tickets[id], nil
}

func (f *fakeTickets) DailySumBySeller(_ context.Context, _ repository.DBTX, sellerID uuid.UUID, from, to time.Time) (int64, error) {
	f.lastFrom, f.lastTo = from, to
	return f.sold[sellerID], nil
}

type fakePayments struct {
	rows []domain.Payment
}

func (f *fakePayments) FindByIdempotencyKey(_ context.Context, _ repository.DBTX, key string) (*domain.Payment, error) {
	for i := range f.rows {
		if f.rows[i].IdempotencyKey == key {
			p := f.rows[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakePayments) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Payment, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			p := f.rows[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakePayments) ListByTicket(_ context.Context, _ repository.DBTX, ticketID uuid.UUID) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, p := range f.rows {
		if p.TicketID == ticketID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePayments) Insert(_ context.Context, _ repository.DBTX, p *domain.Payment) error {
	f.rows = append(f.rows, *p)
	return nil
}

func (f *fakePayments) MarkReversed(_ context.Context, _ repository.DBTX, id uuid.UUID, at time.Time, by *uuid.UUID) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].IsReversed = true
			f.rows[i].ReversedAt = &at
			f.rows[i].ReversedBy = by
		}
	}
	return nil
}

type fakeOutbox struct {
	events []domain.OutboxDraft
}

func (f *fakeOutbox) Insert(_ context.Context, _ repository.DBTX, d domain.OutboxDraft) error {
	f.events = append(f.events, d)
	return nil
}

func (f *fakeOutbox) FetchUnpublished(context.Context, repository.DBTX, int) ([]domain.OutboxDraft, error) {
	return f.events, nil
}

func (f *fakeOutbox) MarkPublished(context.Context, repository.DBTX, []uuid.UUID) error {
	return nil
}

type fakeCache struct {
	entries map[uuid.UUID][]domain.RestrictionRule
	getErr  error
}

func (f *fakeCache) Get(_ context.Context, a domain.Actor) ([]domain.RestrictionRule, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	rules, ok := f.entries[a.SellerID]
	return rules, ok, nil
}

func (f *fakeCache) Set(_ context.Context, a domain.Actor, rules []domain.RestrictionRule) error {
	f.entries[a.SellerID] = rules
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func idPtr(v uuid.UUID) *uuid.UUID { return &v }
func i64Ptr(v int64) *int64 { return &v }
