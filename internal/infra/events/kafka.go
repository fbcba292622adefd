package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"mentorbook/internal/pkg/config"
	"mentorbook/internal/usecase/shared"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher emits domain events onto a single topic, keyed by aggregate
// id so per-aggregate ordering survives partitioning. Publishing is
// fire-and-forget: the domain transaction has already committed, so failures
// are logged and dropped.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.EventsTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			slog.Error("kafka writer error", "detail", msg)
		}),
	}
	return &KafkaPublisher{writer: writer}
}

type envelope struct {
	Topic      string    `json:"topic"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func (p *KafkaPublisher) Publish(ctx context.Context, event shared.Event) {
	body, err := json.Marshal(envelope{
		Topic:      event.Topic,
		OccurredAt: time.Now().UTC(),
		Payload:    event.Payload,
	})
	if err != nil {
		slog.Error("event marshal failed", "topic", event.Topic, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Topic)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("event publish failed", "topic", event.Topic, "key", event.Key, "error", err)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events. Used in tests and when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, shared.Event) {}
