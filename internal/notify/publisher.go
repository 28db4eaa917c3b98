package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ordersystem/internal/domain"
	"ordersystem/internal/outbox"
)

type Publisher interface {
	Publish(ctx context.Context, msg domain.OutboxMessage) error
}

// LogPublisher writes a line per event for operators: confirmations and
// payments at Info, failed payments at Warn.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, msg domain.OutboxMessage) error {
	var env outbox.Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return fmt.Errorf("failed to decode event %s: %w", msg.ID, err)
	}

	fields := []zap.Field{
		zap.String("event_id", env.EventID),
		zap.String("event_type", env.EventType),
		zap.String("aggregate_id", env.AggregateID),
		zap.Time("occurred_at", env.OccurredAt),
		zap.ByteString("data", env.Data),
	}

	switch domain.EventType(env.EventType) {
	case domain.EventPaymentFailed, domain.EventPaymentRejected:
		p.logger.Warn("Payment did not go through", fields...)
	case domain.EventOrderPaid:
		p.logger.Info("Order fully paid", fields...)
	default:
		p.logger.Info("Domain event", fields...)
	}
	return nil
}

// FanOut hands every message to all publishers and joins their errors.
type FanOut []Publisher

func (f FanOut) Publish(ctx context.Context, msg domain.OutboxMessage) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
