package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventOrderCreated              = "order.created"
	EventPaymentVerified           = "payment.verified"
	EventPaymentVerificationFailed = "payment.verification_failed"
)

type OrderEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	PaymentID  string    `json:"payment_id,omitempty"`
}

func NewOrderEvent(eventType, orderID, userID string, amount int64, currency string) OrderEvent {
	return OrderEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		OrderID:    orderID,
		UserID:     userID,
		Amount:     amount,
		Currency:   currency,
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaEventPublisher struct {
	writer messageWriter
}

const eventBatchTimeout = 50 * time.Millisecond

// NewKafkaEventPublisher writes asynchronously: Publish returns once the
// message is queued and delivery failures are logged by the completion hook.
func NewKafkaEventPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaEventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaEventPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			Async:                  true,
			BatchTimeout:           eventBatchTimeout,
			Completion:             deliveryLogger(logger),
		},
	}
}

func deliveryLogger(logger *zap.Logger) func(messages []kafka.Message, err error) {
	return func(messages []kafka.Message, err error) {
		if err == nil {
			return
		}
		for _, msg := range messages {
			logger.Warn("deliver order event",
				zap.String("order_id", string(msg.Key)),
				zap.String("topic", msg.Topic),
				zap.Error(err),
			)
		}
	}
}

// Publish keys messages by order id so one order's events stay ordered.
func (p *KafkaEventPublisher) Publish(ctx context.Context, event OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(event.EventType)},
		},
	})
}

func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}

type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(context.Context, OrderEvent) error {
	return nil
}
