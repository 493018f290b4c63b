package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/bancalot/platform/internal/guard"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "rules:v1"
	scanBatch  = 200
	breakerKey = "redis"
)

// ErrCircuitOpen is returned while the breaker keeps Redis calls suspended.
var ErrCircuitOpen = errors.New("rule cache circuit open")

// Client is the subset of go-redis the rule cache needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// RuleCache stores the rule snapshot fetched for an actor triple. Entries
// expire after the configured TTL and are evicted early on rule-change events.
type RuleCache struct {
	client  Client
	ttl     time.Duration
	breaker *guard.CircuitBreaker
	logger  *slog.Logger
}

// NewRuleCache creates a Redis-backed rule cache.
func NewRuleCache(client Client, ttl time.Duration, logger *slog.Logger) *RuleCache {
	return &RuleCache{client: client, ttl: ttl, logger: logger}
}

// WithBreaker makes reads and writes fail fast with ErrCircuitOpen after
// repeated Redis failures. Evictions always reach Redis.
func (c *RuleCache) WithBreaker(b *guard.CircuitBreaker) *RuleCache {
	c.breaker = b
	return c
}

func (c *RuleCache) allow() error {
	if c.breaker == nil {
		return nil
	}
	if res := c.breaker.Check(breakerKey); !res.Allowed {
		return fmt.Errorf("%w: %s", ErrCircuitOpen, res.Reason)
	}
	return nil
}

func (c *RuleCache) record(err error) {
	if c.breaker == nil {
		return
	}
	if err != nil {
		c.breaker.RecordFailure(breakerKey)
		return
	}
	c.breaker.RecordSuccess(breakerKey)
}

// Key returns the cache key for an actor: rules:v1:{bank}:{salesPoint}:{seller}.
func Key(actor domain.Actor) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, actor.BankID, actor.SalesPointID, actor.SellerID)
}

// Pattern returns the SCAN pattern covering every actor a rule scope can
// match. Unset scope ids become wildcards.
func Pattern(scope domain.RuleScope) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, part(scope.BankID), part(scope.SalesPointID), part(scope.SellerID))
}

func part(id *uuid.UUID) string {
	if id == nil {
		return "*"
	}
	return id.String()
}

// Get returns the cached snapshot. The boolean is false on a miss.
func (c *RuleCache) Get(ctx context.Context, actor domain.Actor) ([]domain.RestrictionRule, bool, error) {
	if err := c.allow(); err != nil {
		return nil, false, err
	}
	data, err := c.client.Get(ctx, Key(actor)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.record(nil)
		return nil, false, nil
	}
	c.record(err)
	if err != nil {
		return nil, false, fmt.Errorf("get rule snapshot: %w", err)
	}

	var rules []domain.RestrictionRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, false, fmt.Errorf("unmarshal rule snapshot: %w", err)
	}
	return rules, true, nil
}

// Set stores the snapshot for the actor.
func (c *RuleCache) Set(ctx context.Context, actor domain.Actor, rules []domain.RestrictionRule) error {
	if rules == nil {
		rules = []domain.RestrictionRule{}
	}
	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("marshal rule snapshot: %w", err)
	}
	if err := c.allow(); err != nil {
		return err
	}
	err = c.client.Set(ctx, Key(actor), data, c.ttl).Err()
	c.record(err)
	if err != nil {
		return fmt.Errorf("set rule snapshot: %w", err)
	}
	return nil
}

// InvalidateMatching evicts every cached snapshot a rule with the given scope
// could affect. Returns the number of keys removed.
func (c *RuleCache) InvalidateMatching(ctx context.Context, scope domain.RuleScope) (int, error) {
	pattern := Pattern(scope)
	var cursor uint64
	removed := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("delete rule snapshots: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	c.logger.Info("rule cache invalidated", "pattern", pattern, "removed", removed)
	return removed, nil
}
