package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/bancalot/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// MessageReader is satisfied by infra.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// RuleChange is the message published when a restriction rule is created,
// edited or deactivated. Omitted ids widen the eviction.
type RuleChange struct {
	BankID       *uuid.UUID `json:"bank_id,omitempty"`
	SalesPointID *uuid.UUID `json:"sales_point_id,omitempty"`
	SellerID     *uuid.UUID `json:"seller_id,omitempty"`
}

// Scope converts the change to the rule scope whose snapshots must be evicted.
func (c RuleChange) Scope() domain.RuleScope {
	return domain.RuleScope{BankID: c.BankID, SalesPointID: c.SalesPointID, SellerID: c.SellerID}
}

// RuleChangeListener evicts cached snapshots when rule changes arrive.
type RuleChangeListener struct {
	reader MessageReader
	cache  *RuleCache
	logger *slog.Logger
}

// NewRuleChangeListener creates a listener.
func NewRuleChangeListener(reader MessageReader, cache *RuleCache, logger *slog.Logger) *RuleChangeListener {
	return &RuleChangeListener{reader: reader, cache: cache, logger: logger}
}

// Run consumes messages until ctx is cancelled.
func (l *RuleChangeListener) Run(ctx context.Context) {
	l.logger.Info("rule change listener started")
	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				l.logger.Info("rule change listener stopped")
				return
			}
			l.logger.Error("read rule change", "error", err)
			continue
		}
		if err := l.Handle(ctx, msg); err != nil {
			l.logger.Error("handle rule change", "offset", msg.Offset, "error", err)
		}
	}
}

// relayEnvelope is the shape the outbox relay publishes; the rule scope sits
// under payload.
type relayEnvelope struct {
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// Handle applies one rule-change message, either a bare RuleChange or an
// outbox relay envelope. A message with no ids evicts every cached snapshot.
func (l *RuleChangeListener) Handle(ctx context.Context, msg kafka.Message) error {
	body := msg.Value
	var env relayEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return err
	}
	if len(env.Payload) > 0 {
		body = env.Payload
	}

	var change RuleChange
	if err := json.Unmarshal(body, &change); err != nil {
		return err
	}
	_, err := l.cache.InvalidateMatching(ctx, change.Scope())
	return err
}
