package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"ordersystem/internal/app/payments"
	"ordersystem/internal/domain"
)

type PaymentResultConsumer struct {
	paymentService payments.PaymentService
	logger         *zap.Logger
}

func NewPaymentResultConsumer(s payments.PaymentService, l *zap.Logger) *PaymentResultConsumer {
	return &PaymentResultConsumer{paymentService: s, logger: l}
}

// HandleMessage acknowledges malformed and rejected results. Only
// infrastructure failures are returned so the message is redelivered.
func (c *PaymentResultConsumer) HandleMessage(ctx context.Context, message kafka.Message) error {
	var result payments.GatewayResult
	if err := json.Unmarshal(message.Value, &result); err != nil {
		c.logger.Error("Error unmarshalling Kafka message",
			zap.Error(err),
			zap.String("raw_message", string(message.Value)))
		return nil
	}
	if result.EventID == "" {
		result.EventID = string(message.Key)
	}

	c.logger.Info("Received payment gateway result",
		zap.String("event_id", result.EventID),
		zap.String("payment_id", result.PaymentID),
		zap.String("outcome", result.Outcome))

	err := c.paymentService.ProcessGatewayResult(ctx, &result, message.Value)
	if err != nil {
		if domain.IsDomainError(err) {
			c.logger.Warn("Payment gateway result rejected",
				zap.String("event_id", result.EventID),
				zap.String("payment_id", result.PaymentID),
				zap.Error(err))
			return nil
		}
		c.logger.Error("Error processing payment gateway result",
			zap.String("event_id", result.EventID),
			zap.String("payment_id", result.PaymentID),
			zap.Error(err))
		return err
	}
	return nil
}
