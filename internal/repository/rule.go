package repository

import (
	"context"
	"fmt"

	"github.com/bancalot/platform/internal/domain"
	"github.com/bancalot/platform/internal/infra"
	"github.com/jackc/pgx/v5/pgtype"
)

type ruleRepo struct{}

// NewRuleRepository returns a pgx-backed RuleRepository.
func NewRuleRepository() RuleRepository {
	return &ruleRepo{}
}

const ruleColumns = `id, kind, bank_id, sales_point_id, seller_id, number,
       max_amount_per_bet, max_amount_per_day, cutoff_minutes,
       applies_to_date, applies_to_hour, is_active, created_at`

func (r *ruleRepo) ListForActor(ctx context.Context, db DBTX, actor domain.Actor) ([]domain.RestrictionRule, error) {
	rows, err := db.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM restriction_rules
		WHERE is_active
		  AND (bank_id IS NULL OR bank_id = $1)
		  AND (sales_point_id IS NULL OR sales_point_id = $2)
		  AND (seller_id IS NULL OR seller_id = $3)
		ORDER BY created_at ASC, id ASC`,
		actor.BankID, actor.SalesPointID, actor.SellerID)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.RestrictionRule
	for rows.Next() {
		var rule domain.RestrictionRule
		var perBet, perDay pgtype.Numeric
		err := rows.Scan(
			&rule.ID, &rule.Kind, &rule.Scope.BankID, &rule.Scope.SalesPointID, &rule.Scope.SellerID,
			&rule.Number, &perBet, &perDay, &rule.CutoffMinutes,
			&rule.AppliesToDate, &rule.AppliesToHour, &rule.IsActive, &rule.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan rule row: %w", err)
		}
		if rule.MaxAmountPerBet, err = infra.NullableNumericToInt64(perBet); err != nil {
			return nil, fmt.Errorf("convert max_amount_per_bet: %w", err)
		}
		if rule.MaxAmountPerDay, err = infra.NullableNumericToInt64(perDay); err != nil {
			return nil, fmt.Errorf("convert max_amount_per_day: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *ruleRepo) Create(ctx context.Context, db DBTX, rule *domain.RestrictionRule) error {
	_, err := db.Exec(ctx, `
		INSERT INTO restriction_rules (id, kind, bank_id, sales_point_id, seller_id, number,
			max_amount_per_bet, max_amount_per_day, cutoff_minutes,
			applies_to_date, applies_to_hour, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rule.ID, string(rule.Kind), rule.Scope.BankID, rule.Scope.SalesPointID, rule.Scope.SellerID,
		rule.Number, infra.Int64PtrToNumeric(rule.MaxAmountPerBet), infra.Int64PtrToNumeric(rule.MaxAmountPerDay),
		rule.CutoffMinutes, rule.AppliesToDate, rule.AppliesToHour, rule.IsActive, rule.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}
