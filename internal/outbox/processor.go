package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ordersystem/internal/domain"
	"ordersystem/internal/repository"
)

type OutboxRepository interface {
	GetPendingMessages(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	MarkMessagesAsSent(ctx context.Context, ids []string) error
	RecordFailure(ctx context.Context, id string, reason string, maxAttempts int) error
}

// Publisher delivers one outbox message. Implementations must be safe to call
// again for a message that was already delivered.
type Publisher interface {
	Publish(ctx context.Context, msg domain.OutboxMessage) error
}

type ProcessorConfig struct {
	PollInterval time.Duration
	PollTimeout  time.Duration
	BatchSize    int
	MaxAttempts  int

	// PublishOutsideTx publishes between two short units of work instead of
	// inside one. Use it when a unit of work locks the whole store, as the
	// memory driver does; it must not be used with more than one processor.
	PublishOutsideTx bool
}

// Processor dispatches committed outbox messages. Delivery problems are logged
// and retried later; they never reach the code that produced the events.
type Processor struct {
	uow        repository.UnitOfWork
	outboxRepo OutboxRepository
	publisher  Publisher
	cfg        ProcessorConfig
	logger     *zap.Logger
}

func NewProcessor(
	uow repository.UnitOfWork,
	outboxRepo OutboxRepository,
	publisher Publisher,
	cfg ProcessorConfig,
	logger *zap.Logger,
) *Processor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Second
	}
	return &Processor{
		uow:        uow,
		outboxRepo: outboxRepo,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
	}
}

// Start polls until ctx is cancelled.
func (p *Processor) Start(ctx context.Context) error {
	p.logger.Info("Starting outbox processor", zap.Duration("poll_interval", p.cfg.PollInterval))
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox processor stopped")
			return nil
		case <-ticker.C:
			if _, err := p.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("Failed to process outbox messages", zap.Error(err))
			}
		}
	}
}

// ProcessOnce dispatches one batch and returns how many messages were sent.
func (p *Processor) ProcessOnce(ctx context.Context) (int, error) {
	batchCtx, cancel := context.WithTimeout(ctx, p.cfg.PollTimeout)
	defer cancel()

	var (
		sent int
		err  error
	)
	if p.cfg.PublishOutsideTx {
		sent, err = p.processDetached(batchCtx)
	} else {
		err = p.uow.RunInTx(batchCtx, func(ctx context.Context) error {
			messages, err := p.outboxRepo.GetPendingMessages(ctx, p.cfg.BatchSize)
			if err != nil {
				return err
			}
			sent, err = p.dispatch(ctx, messages)
			return err
		})
	}
	if err != nil {
		return 0, err
	}
	if sent > 0 {
		p.logger.Info("Outbox messages dispatched", zap.Int("count", sent))
	}
	return sent, nil
}

// processDetached holds no unit of work while talking to the publisher.
func (p *Processor) processDetached(ctx context.Context) (int, error) {
	var messages []domain.OutboxMessage
	err := p.uow.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		messages, err = p.outboxRepo.GetPendingMessages(ctx, p.cfg.BatchSize)
		return err
	})
	if err != nil {
		return 0, err
	}
	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found")
		return 0, nil
	}

	var (
		sentIDs  []string
		failures = make(map[string]string)
	)
	for _, msg := range messages {
		if err := p.publish(ctx, msg); err != nil {
			failures[msg.ID] = err.Error()
			continue
		}
		sentIDs = append(sentIDs, msg.ID)
	}

	err = p.uow.RunInTx(ctx, func(ctx context.Context) error {
		for id, reason := range failures {
			if err := p.outboxRepo.RecordFailure(ctx, id, reason, p.cfg.MaxAttempts); err != nil {
				return err
			}
		}
		return p.outboxRepo.MarkMessagesAsSent(ctx, sentIDs)
	})
	if err != nil {
		return 0, err
	}
	return len(sentIDs), nil
}

func (p *Processor) dispatch(ctx context.Context, messages []domain.OutboxMessage) (int, error) {
	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found")
		return 0, nil
	}

	sentIDs := make([]string, 0, len(messages))
	for _, msg := range messages {
		if err := p.publish(ctx, msg); err != nil {
			if recErr := p.outboxRepo.RecordFailure(ctx, msg.ID, err.Error(), p.cfg.MaxAttempts); recErr != nil {
				return 0, recErr
			}
			continue
		}
		sentIDs = append(sentIDs, msg.ID)
	}

	if err := p.outboxRepo.MarkMessagesAsSent(ctx, sentIDs); err != nil {
		return 0, err
	}
	return len(sentIDs), nil
}

func (p *Processor) publish(ctx context.Context, msg domain.OutboxMessage) error {
	err := p.publisher.Publish(ctx, msg)
	if err != nil {
		p.logger.Warn("Failed to publish outbox message",
			zap.String("message_id", msg.ID),
			zap.String("message_type", msg.MessageType),
			zap.Int("attempt", msg.Attempts+1),
			zap.Error(err))
	}
	return err
}
