package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/bancalot/platform/internal/policy"
	"github.com/bancalot/platform/internal/repository"
	"github.com/google/uuid"
)

// SaleConfig carries the sales policy settings.
type SaleConfig struct {
	Defaults  policy.Defaults
	Admission policy.AdmissionOptions
	Location  *time.Location
	Clock     Clock
}

// SaleService runs ticket admission against the rule snapshot and the
// seller's daily total, and persists admitted tickets.
type SaleService struct {
	db      Database
	rules   repository.RuleRepository
	draws   repository.DrawRepository
	tickets repository.TicketRepository
	outbox  repository.OutboxRepository
	cache   RuleSnapshotCache
	cfg     SaleConfig
	logger  *slog.Logger
}

// NewSaleService creates a SaleService. cache may be nil.
func NewSaleService(
	db Database,
	rules repository.RuleRepository,
	draws repository.DrawRepository,
	tickets repository.TicketRepository,
	outbox repository.OutboxRepository,
	cache RuleSnapshotCache,
	cfg SaleConfig,
	logger *slog.Logger,
) *SaleService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &SaleService{
		db:      db,
		rules:   rules,
		draws:   draws,
		tickets: tickets,
		outbox:  outbox,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
	}
}

// TicketRequest is a seller's ticket submission.
type TicketRequest struct {
	Actor  domain.Actor `json:"actor"`
	DrawID uuid.UUID    `json:"draw_id"`
	Bets   []domain.Bet `json:"bets"`
}

// SubmitResult holds the admission decision and, when admitted, the stored ticket.
type SubmitResult struct {
	Decision policy.AdmissionDecision `json:"decision"`
	Ticket   *domain.Ticket           `json:"ticket,omitempty"`
}

// Preview evaluates a submission without persisting anything.
func (s *SaleService) Preview(ctx context.Context, req TicketRequest) (*policy.AdmissionDecision, error) {
	now := s.now()
	draft, err := s.draft(ctx, s.db, req)
	if err != nil {
		return nil, err
	}
	guard, err := s.guard(ctx, s.db, req.Actor)
	if err != nil {
		return nil, err
	}
	daily, err := s.dailyTotal(ctx, s.db, req.Actor.SellerID, now)
	if err != nil {
		return nil, err
	}
	d := guard.Admit(draft, daily, now)
	return &d, nil
}

// Submit evaluates and, when admitted, stores the ticket with its bets and an
// outbox event. Submissions of one seller are serialized by a transaction-scoped
// advisory lock so concurrent tickets cannot both pass the daily cap.
// Rejections are committed as sales.ticket.rejected events.
func (s *SaleService) Submit(ctx context.Context, req TicketRequest) (*SubmitResult, error) {
	if err := req.Actor.Validate(); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, req.Actor.SellerID.String()); err != nil {
		return nil, domain.ErrInternal("lock seller", err)
	}

	now := s.now()
	draft, err := s.draft(ctx, tx, req)
	if err != nil {
		return nil, err
	}
	guard, err := s.guard(ctx, tx, req.Actor)
	if err != nil {
		return nil, err
	}
	daily, err := s.dailyTotal(ctx, tx, req.Actor.SellerID, now)
	if err != nil {
		return nil, err
	}

	decision := guard.Admit(draft, daily, now)
	result := &SubmitResult{Decision: decision}

	if !decision.Admitted {
		event := domain.NewTicketRejectedEvent(req.Actor, req.DrawID, decision.Code, decision.Reason, decision.PendingTotal, now)
		if err := s.outbox.Insert(ctx, tx, event); err != nil {
			return nil, domain.ErrInternal("record rejection", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, domain.ErrInternal("commit tx", err)
		}
		s.logger.Info("ticket rejected",
			"seller_id", req.Actor.SellerID,
			"draw_id", req.DrawID,
			"code", decision.Code,
			"reason", decision.Reason,
		)
		return result, nil
	}

	ticket := domain.NewTicket(draft, now)
	if err := s.tickets.Insert(ctx, tx, ticket); err != nil {
		return nil, domain.ErrInternal("insert ticket", err)
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewTicketAdmittedEvent(ticket)); err != nil {
		return nil, domain.ErrInternal("insert outbox event", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("ticket admitted",
		"ticket_id", ticket.ID,
		"seller_id", req.Actor.SellerID,
		"draw_id", req.DrawID,
		"total_amount", ticket.TotalAmount,
	)
	result.Ticket = ticket
	return result, nil
}

// EffectiveRules is what a sale form shows before submission.
type EffectiveRules struct {
	Actor  domain.Actor          `json:"actor"`
	Number *int                  `json:"number,omitempty"`
	At     time.Time             `json:"at"`
	Cutoff policy.ResolvedCutoff `json:"cutoff"`
	Caps   policy.AmountCaps     `json:"caps"`
}

// EffectiveRules resolves the cutoff and caps in force for the actor.
func (s *SaleService) EffectiveRules(ctx context.Context, actor domain.Actor, number *int) (*EffectiveRules, error) {
	if err := actor.Validate(); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if number != nil && (*number < domain.MinBetNumber || *number > domain.MaxBetNumber) {
		return nil, domain.ErrValidation(fmt.Sprintf("number must be 00-99, got %d", *number))
	}
	resolver, err := s.resolver(ctx, s.db, actor)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &EffectiveRules{
		Actor:  actor,
		Number: number,
		At:     now,
		Cutoff: resolver.ResolveCutoff(actor, now),
		Caps:   resolver.ResolveAmountCaps(actor, number, now),
	}, nil
}

// DailyStatus is a seller's position against the daily cap.
type DailyStatus struct {
	SellerID uuid.UUID `json:"seller_id"`
	DayStart time.Time `json:"day_start"`
	DayEnd   time.Time `json:"day_end"`
	policy.DailyHeadroom
}

// DailyStatus reports today's committed sales and remaining headroom.
func (s *SaleService) DailyStatus(ctx context.Context, actor domain.Actor) (*DailyStatus, error) {
	if err := actor.Validate(); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	now := s.now()
	guard, err := s.guard(ctx, s.db, actor)
	if err != nil {
		return nil, err
	}
	daily, err := s.dailyTotal(ctx, s.db, actor.SellerID, now)
	if err != nil {
		return nil, err
	}
	start, end := BusinessDay(now, s.cfg.Location)
	return &DailyStatus{
		SellerID:      actor.SellerID,
		DayStart:      start,
		DayEnd:        end,
		DailyHeadroom: guard.Headroom(actor, daily, now),
	}, nil
}

func (s *SaleService) draft(ctx context.Context, db repository.DBTX, req TicketRequest) (domain.TicketDraft, error) {
	draw, err := s.draws.FindByID(ctx, db, req.DrawID)
	if err != nil {
		return domain.TicketDraft{}, domain.ErrInternal("find draw", err)
	}
	if draw == nil {
		return domain.TicketDraft{}, domain.ErrNotFound("draw", req.DrawID.String())
	}
	return domain.TicketDraft{Actor: req.Actor, Draw: *draw, Bets: req.Bets}, nil
}

// now reads the clock in the business timezone, so rule date and hour
// windows match the business day used for daily totals.
func (s *SaleService) now() time.Time {
	return s.cfg.Clock().In(s.cfg.Location)
}

func (s *SaleService) guard(ctx context.Context, db repository.DBTX, actor domain.Actor) (*policy.Guard, error) {
	resolver, err := s.resolver(ctx, db, actor)
	if err != nil {
		return nil, err
	}
	return policy.NewGuard(resolver, s.cfg.Admission), nil
}

func (s *SaleService) resolver(ctx context.Context, db repository.DBTX, actor domain.Actor) (*policy.Resolver, error) {
	rules, err := s.snapshot(ctx, db, actor)
	if err != nil {
		return nil, err
	}
	store := policy.NewRuleStore(rules)
	for _, invalid := range store.Invalid() {
		s.logger.Warn("ignoring invalid restriction rule", "seller_id", actor.SellerID, "error", invalid)
	}
	return policy.NewResolver(store, s.cfg.Defaults), nil
}

// snapshot loads the actor's rules from the cache, falling back to the database.
// Cache failures are logged and never fail the request.
func (s *SaleService) snapshot(ctx context.Context, db repository.DBTX, actor domain.Actor) ([]domain.RestrictionRule, error) {
	if s.cache != nil {
		rules, hit, err := s.cache.Get(ctx, actor)
		if err != nil {
			s.logger.Warn("rule cache read failed", "seller_id", actor.SellerID, "error", err)
		} else if hit {
			return rules, nil
		}
	}

	rules, err := s.rules.ListForActor(ctx, db, actor)
	if err != nil {
		return nil, domain.ErrInternal("load rules", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, actor, rules); err != nil {
			s.logger.Warn("rule cache write failed", "seller_id", actor.SellerID, "error", err)
		}
	}
	return rules, nil
}

func (s *SaleService) dailyTotal(ctx context.Context, db repository.DBTX, sellerID uuid.UUID, now time.Time) (int64, error) {
	start, end := BusinessDay(now, s.cfg.Location)
	total, err := s.tickets.DailySumBySeller(ctx, db, sellerID, start, end)
	if err != nil {
		return 0, domain.ErrInternal("daily sales total", err)
	}
	return total, nil
}
