package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/bancalot/platform/internal/domain"
	"github.com/google/uuid"
)

// OutboxSource reads and acknowledges outbox rows.
type OutboxSource interface {
	FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxDraft, error)
	MarkPublished(ctx context.Context, eventIDs []uuid.UUID) error
}

// Publisher sends one message to a topic. KafkaProducer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// OutboxPoller polls the event_outbox table and publishes events to Kafka.
type OutboxPoller struct {
	source      OutboxSource
	publisher   Publisher
	logger      *slog.Logger
	topicPrefix string
	interval    time.Duration
	batchSize   int
}

// NewOutboxPoller creates a new outbox poller.
func NewOutboxPoller(source OutboxSource, publisher Publisher, cfg *Config, logger *slog.Logger) *OutboxPoller {
	return &OutboxPoller{
		source:      source,
		publisher:   publisher,
		logger:      logger,
		topicPrefix: cfg.KafkaTopicPrefix,
		interval:    cfg.OutboxPollInterval,
		batchSize:   cfg.OutboxBatchSize,
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox poller stopped")
			return
		case <-ticker.C:
			if _, err := p.Poll(ctx); err != nil {
				p.logger.Error("outbox poll error", "error", err)
			}
		}
	}
}

// Topic returns the Kafka topic for an event type, e.g. bancalot.sales.ticket.admitted.
func (p *OutboxPoller) Topic(t domain.EventType) string {
	if p.topicPrefix == "" {
		return string(t)
	}
	return p.topicPrefix + "." + string(t)
}

// Poll publishes one batch and returns how many events were published. Events
// that fail to publish stay in the outbox for the next poll.
func (p *OutboxPoller) Poll(ctx context.Context) (int, error) {
	events, err := p.source.FetchUnpublished(ctx, p.batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	published := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		msg, err := json.Marshal(map[string]interface{}{
			"event_id":       e.EventID,
			"aggregate_type": e.AggregateType,
			"aggregate_id":   e.AggregateID,
			"event_type":     e.EventType,
			"payload":        e.Payload,
			"occurred_at":    e.OccurredAt,
		})
		if err != nil {
			p.logger.Error("encode outbox event", "event_id", e.EventID, "error", err)
			continue
		}

		if err := p.publisher.Publish(ctx, p.Topic(e.EventType), []byte(e.PartitionKey), msg); err != nil {
			p.logger.Error("kafka publish failed", "event_id", e.EventID, "error", err)
			continue
		}
		published = append(published, e.EventID)
	}

	if err := p.source.MarkPublished(ctx, published); err != nil {
		return 0, err
	}

	p.logger.Debug("outbox poll complete", "published", len(published), "fetched", len(events))
	return len(published), nil
}
