package inbox_repo

import (
	"context"
	"errors"

	"ordersystem/internal/domain"
)

var ErrMessageAlreadyProcessed = errors.New("inbox message already processed")

type InboxRepository interface {
	// CreateMessage returns ErrMessageAlreadyProcessed when the id was seen before.
	CreateMessage(ctx context.Context, msg *domain.InboxMessage) error
	UpdateStatus(ctx context.Context, id string, status domain.InboxMessageStatus, reason string) error
}
