package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/bancalot/platform/internal/repository"
	"github.com/google/uuid"
)

// RuleEvictor drops cached rule snapshots covered by a scope.
type RuleEvictor interface {
	InvalidateMatching(ctx context.Context, scope domain.RuleScope) (int, error)
}

// RuleService manages restriction rules for administrators.
type RuleService struct {
	db      Database
	rules   repository.RuleRepository
	outbox  repository.OutboxRepository
	evictor RuleEvictor
	clock   Clock
	logger  *slog.Logger
}

// NewRuleService creates a RuleService. evictor may be nil when no cache is configured.
func NewRuleService(db Database, rules repository.RuleRepository, outbox repository.OutboxRepository, evictor RuleEvictor, clock Clock, logger *slog.Logger) *RuleService {
	if clock == nil {
		clock = time.Now
	}
	return &RuleService{db: db, rules: rules, outbox: outbox, evictor: evictor, clock: clock, logger: logger}
}

// Create stores a new active rule and records a rules.snapshot.changed event.
// The local cache is evicted right away; other instances evict when the relay
// delivers the event.
func (s *RuleService) Create(ctx context.Context, rule domain.RestrictionRule) (*domain.RestrictionRule, error) {
	rule.ID = uuid.New()
	rule.IsActive = true
	rule.CreatedAt = s.clock()
	if err := rule.Validate(); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := s.rules.Create(ctx, tx, &rule); err != nil {
		return nil, domain.ErrInternal("create rule", err)
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewRuleChangedEvent(&rule)); err != nil {
		return nil, domain.ErrInternal("insert outbox event", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("restriction rule created",
		"rule_id", rule.ID,
		"kind", rule.Kind,
		"scope", rule.Scope.Level().String(),
	)

	if s.evictor != nil {
		if _, err := s.evictor.InvalidateMatching(ctx, rule.Scope); err != nil {
			s.logger.Warn("rule cache eviction failed", "rule_id", rule.ID, "error", err)
		}
	}
	return &rule, nil
}
