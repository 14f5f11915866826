package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
)

const ConsumerGroup = "storefront-cart-cleaner"

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// CartCleaner takes an order's lines out of the owner's cart.
type CartCleaner interface {
	RemoveOrderedItems(ctx context.Context, userID, orderID string, lines []domain.OrderedLine) error
}

func NewKafkaReader(brokers []string, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  ConsumerGroup,
		MaxBytes: 10e6, // 10MB
	})
}

// Poller consumes order placed events and takes the ordered lines out of the owner's cart.
type Poller struct {
	reader     MessageReader
	carts      CartCleaner
	logger     *slog.Logger
	retryDelay time.Duration
}

func NewPoller(reader MessageReader, carts CartCleaner, logger *slog.Logger) *Poller {
	return &Poller{
		reader:     reader,
		carts:      carts,
		logger:     logger,
		retryDelay: time.Second,
	}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := p.pollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("order events poll failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.retryDelay):
			}
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.logger.Error("error closing reader", "error", err)
	}
}

// pollOnce handles one message. Malformed or foreign messages are skipped; a failed
// clear is logged. Either way the offset is committed.
func (p *Poller) pollOnce(ctx context.Context) error {
	m, err := p.reader.FetchMessage(ctx)
	if err != nil {
		return fmt.Errorf("fetch message: %w", err)
	}

	if errHandle := p.handle(ctx, m); errHandle != nil {
		p.logger.ErrorContext(ctx, "order event not applied",
			"partition", m.Partition,
			"offset", m.Offset,
			"error", errHandle)
	}

	if err := p.reader.CommitMessages(ctx, m); err != nil {
		return fmt.Errorf("commit offset %d: %w", m.Offset, err)
	}
	return nil
}

var errSkipped = errors.New("message skipped")

func (p *Poller) handle(ctx context.Context, m kafka.Message) error {
	if eventType := header(m, "event_type"); eventType != domain.EventTypeOrderPlaced {
		return fmt.Errorf("%w: event_type %q", errSkipped, eventType)
	}

	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("%w: parse payload: %v", errSkipped, err)
	}
	if event.UserID == "" || event.OrderID == "" {
		return fmt.Errorf("%w: missing user_id or order_id", errSkipped)
	}

	if err := p.carts.RemoveOrderedItems(ctx, event.UserID, event.OrderID, event.Lines); err != nil {
		return fmt.Errorf("remove ordered items for order %s: %w", event.OrderID, err)
	}
	p.logger.InfoContext(ctx, "ordered items removed from cart",
		"order_id", event.OrderID,
		"user_id", event.UserID,
		"lines", len(event.Lines))
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
