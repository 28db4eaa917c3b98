package outbox_repo

import (
	"context"

	"ordersystem/internal/domain"
)

type OutboxRepository interface {
	CreateMessage(ctx context.Context, msg *domain.OutboxMessage) error
	// GetPendingMessages returns up to limit PENDING messages, oldest first,
	// skipping rows locked by another processor.
	GetPendingMessages(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	MarkMessagesAsSent(ctx context.Context, ids []string) error
	// RecordFailure bumps the attempt counter and marks the message FAILED
	// once maxAttempts is reached.
	RecordFailure(ctx context.Context, id string, reason string, maxAttempts int) error
}
