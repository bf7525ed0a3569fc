// Package events publishes domain events to Kafka for the worker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/illegalcall/esgtracker/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, e models.Event) error
}

// KafkaPublisher sends each event as a JSON message keyed by user id (or
// customer id when the user is unknown).
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e models.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := e.UserID
	if key == "" {
		key = e.CustomerID
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(e.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", e.Type, err)
	}
	slog.Debug("Event published", "type", e.Type, "partition", partition, "offset", offset)
	return nil
}

// NopPublisher drops events. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.Event) error { return nil }

// PublishBestEffort logs publish failures instead of returning them.
func PublishBestEffort(ctx context.Context, p Publisher, logger *slog.Logger, e models.Event) {
	if err := p.Publish(ctx, e); err != nil {
		logger.Warn("Failed to publish event", "type", e.Type, "error", err)
	}
}
