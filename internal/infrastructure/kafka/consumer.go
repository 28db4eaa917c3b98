package kafka_infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	handlerTimeout  = 25 * time.Second
	commitTimeout   = 5 * time.Second
	fetchRetryDelay = time.Second
	minRetryBackoff = 100 * time.Millisecond
	maxRetryBackoff = 30 * time.Second
)

// MessageHandler processes one message. Returning an error makes the consumer
// retry the same message; the offset is committed only after it succeeds.
type MessageHandler func(ctx context.Context, message kafka.Message) error

// messageReader is the part of *kafka.Reader the consumer drives.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader  messageReader
	topic   string
	groupID string
	logger  *zap.Logger
	handler MessageHandler

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, handler MessageHandler, l *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    10e3,
		MaxBytes:    10e6,
		Logger:      kafka.LoggerFunc(l.Sugar().Debugf),
		ErrorLogger: kafka.LoggerFunc(l.Sugar().Errorf),
	})
	return newConsumer(reader, topic, groupID, handler, l)
}

func newConsumer(reader messageReader, topic, groupID string, handler MessageHandler, l *zap.Logger) *Consumer {
	return &Consumer{
		reader:     reader,
		topic:      topic,
		groupID:    groupID,
		logger:     l,
		handler:    handler,
		minBackoff: minRetryBackoff,
		maxBackoff: maxRetryBackoff,
	}
}

func (c *Consumer) Consume(ctx context.Context) error {
	c.logger.Info("Kafka consumer starting message consumption",
		zap.String("topic", c.topic),
		zap.String("group_id", c.groupID),
	)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, kafka.ErrGroupClosed) || errors.Is(err, context.Canceled) {
				c.logger.Info("Consumer stopping", zap.String("topic", c.topic))
				return nil
			}
			c.logger.Error("Error fetching message from Kafka", zap.Error(err), zap.String("topic", c.topic))
			if !sleep(ctx, fetchRetryDelay) {
				return nil
			}
			continue
		}

		// The reader has already moved past m, so a failed message is retried
		// here rather than fetched again.
		if !c.handleUntilDone(ctx, m) {
			c.logger.Info("Consumer stopping before message was handled",
				zap.String("topic", m.Topic),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset))
			return nil
		}

		commitCtx, cancelCommit := context.WithTimeout(context.Background(), commitTimeout)
		if err := c.reader.CommitMessages(commitCtx, m); err != nil {
			c.logger.Error("Failed to commit offset for message",
				zap.String("topic", m.Topic),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
		}
		cancelCommit()
	}
}

// handleUntilDone reports false when ctx ended before the handler succeeded.
func (c *Consumer) handleUntilDone(ctx context.Context, m kafka.Message) bool {
	backoff := c.minBackoff
	for attempt := 1; ; attempt++ {
		handleCtx, cancelHandler := context.WithTimeout(ctx, handlerTimeout)
		err := c.handler(handleCtx, m)
		cancelHandler()
		if err == nil {
			return true
		}

		c.logger.Error("Error handling Kafka message, retrying",
			zap.String("topic", m.Topic),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		if !sleep(ctx, backoff) {
			return false
		}
		backoff = min(backoff*2, c.maxBackoff)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close Kafka consumer reader", zap.Error(err))
		return fmt.Errorf("failed to close Kafka consumer reader: %w", err)
	}
	c.logger.Info("Kafka consumer reader closed", zap.String("topic", c.topic))
	return nil
}
