package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/circuitbreaker"
	"github.com/fjod/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
)

const TopicOrderEvents = "order-events"

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// KafkaPublisher announces placed orders on the order events topic. Writes go
// through a circuit breaker.
type KafkaPublisher struct {
	writer  MessageWriter
	breaker *circuitbreaker.Breaker
	logger  *slog.Logger
}

func NewKafkaPublisher(writer MessageWriter, breaker *circuitbreaker.Breaker, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, breaker: breaker, logger: logger}
}

func (p *KafkaPublisher) OrderPlaced(ctx context.Context, order *domain.Order) error {
	payload, err := json.Marshal(domain.NewOrderPlacedEvent(order))
	if err != nil {
		return fmt.Errorf("marshal order placed event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.UserID), // per-user ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(domain.EventTypeOrderPlaced)},
		},
	}

	err = p.breaker.Execute(func() error {
		return p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("publish order %s: %w", order.ID, err)
	}

	p.logger.DebugContext(ctx, "order placed event published", "order_id", order.ID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
