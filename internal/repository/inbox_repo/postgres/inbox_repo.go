package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ordersystem/internal/domain"
	"ordersystem/internal/infrastructure/database"
	"ordersystem/internal/repository/inbox_repo"
)

type InboxRepository struct {
	db *sql.DB
}

func NewInboxRepository(db *sql.DB) *InboxRepository {
	return &InboxRepository{db: db}
}

func (r *InboxRepository) CreateMessage(ctx context.Context, msg *domain.InboxMessage) error {
	q := database.QuerierFromContext(ctx, r.db)

	query := `
		INSERT INTO inbox_messages (id, source, payload, status, error, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
		RETURNING id
	`
	var insertedID string
	err := q.QueryRowContext(ctx, query,
		msg.ID,
		msg.Source,
		msg.Payload,
		msg.Status,
		msg.Error,
		msg.ReceivedAt,
	).Scan(&insertedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return inbox_repo.ErrMessageAlreadyProcessed
		}
		return fmt.Errorf("failed to insert inbox message: %w", err)
	}
	return nil
}

func (r *InboxRepository) UpdateStatus(ctx context.Context, id string, status domain.InboxMessageStatus, reason string) error {
	q := database.QuerierFromContext(ctx, r.db)

	query := `
		UPDATE inbox_messages
		SET status = $1, error = $2, processed_at = $3
		WHERE id = $4
	`
	res, err := q.ExecContext(ctx, query, status, reason, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update inbox message status %s: %w", id, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for inbox message update: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("inbox message with id %s not found for status update", id)
	}
	return nil
}
