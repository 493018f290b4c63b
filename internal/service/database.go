package service

import (
	"context"
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/bancalot/platform/internal/repository"
	"github.com/jackc/pgx/v5"
)

// Database is satisfied by *pgxpool.Pool.
type Database interface {
	repository.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RuleSnapshotCache is satisfied by *cache.RuleCache.
type RuleSnapshotCache interface {
	Get(ctx context.Context, actor domain.Actor) ([]domain.RestrictionRule, bool, error)
	Set(ctx context.Context, actor domain.Actor, rules []domain.RestrictionRule) error
}

// Clock returns the current instant. Services read it once per operation.
type Clock func() time.Time

// BusinessDay returns the [start, end) bounds of the business day containing
// now, in loc.
func BusinessDay(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
