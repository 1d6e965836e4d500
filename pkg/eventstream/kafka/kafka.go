// Package kafka implements the eventstream publisher on top of a Kafka topic.
// Events are JSON-encoded and keyed by owner id so one owner's events stay
// ordered within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	segmentio "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/recallhq/recall/pkg/eventstream"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "recall.events"

// Publisher writes events to a Kafka topic.
type Publisher struct {
	writer *segmentio.Writer
	logger *zap.Logger
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of bootstrap broker addresses. Required.
	Brokers []string

	// Topic is the destination topic. Defaults to DefaultTopic.
	Topic string
}

// NewPublisher creates a Kafka-backed eventstream publisher.
func NewPublisher(c Config, logger *zap.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &segmentio.Writer{
		Addr:     segmentio.TCP(c.Brokers...),
		Topic:    topic,
		Balancer: &segmentio.LeastBytes{},
	}

	logger.Info("kafka eventstream publisher initialized",
		zap.Strings("brokers", c.Brokers),
		zap.String("topic", topic),
	)

	return &Publisher{
		writer: writer,
		logger: logger,
	}, nil
}

// PublishItem writes an item-persisted event.
func (p *Publisher) PublishItem(ctx context.Context, event *eventstream.ItemPersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return p.publish(ctx, event.OwnerID, event)
}

// PublishReminder writes a reminder-fired event.
func (p *Publisher) PublishReminder(ctx context.Context, event *eventstream.ReminderFiredEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return p.publish(ctx, event.OwnerID, event)
}

func (p *Publisher) publish(ctx context.Context, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, segmentio.Message{
		Key:   []byte(key),
		Value: value,
	}); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}

	p.logger.Debug("event published",
		zap.String("key", key),
		zap.Int("bytes", len(value)),
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
