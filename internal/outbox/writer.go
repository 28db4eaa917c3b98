package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ordersystem/internal/domain"
	"ordersystem/internal/util"
)

// Topics maps aggregate types to the topic their events are published on.
type Topics struct {
	Orders   string
	Payments string
}

func (t Topics) For(aggregateType string) string {
	if aggregateType == domain.AggregatePayment {
		return t.Payments
	}
	return t.Orders
}

type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *domain.OutboxMessage) error
}

// Envelope is the wire format of every published event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Data          json.RawMessage `json:"data"`
}

// Writer stores domain events as outbox rows. Call Enqueue with the context of
// the unit of work that produced the events so both commit together.
type Writer struct {
	repo   MessageRepository
	topics Topics
}

func NewWriter(repo MessageRepository, topics Topics) *Writer {
	return &Writer{repo: repo, topics: topics}
}

func (w *Writer) Enqueue(ctx context.Context, events ...domain.Event) error {
	for _, event := range events {
		msg, err := NewMessage(event, w.topics)
		if err != nil {
			return err
		}
		if err := w.repo.CreateMessage(ctx, msg); err != nil {
			return fmt.Errorf("failed to enqueue %s event for %s: %w", event.Type(), event.AggregateID(), err)
		}
	}
	return nil
}

func NewMessage(event domain.Event, topics Topics) (*domain.OutboxMessage, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", event.Type(), err)
	}

	id := util.GenerateUUID()
	payload, err := json.Marshal(Envelope{
		EventID:       id,
		EventType:     string(event.Type()),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		OccurredAt:    event.OccurredAt(),
		Data:          data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s envelope: %w", event.Type(), err)
	}

	return &domain.OutboxMessage{
		ID:            id,
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		MessageType:   string(event.Type()),
		Topic:         topics.For(event.AggregateType()),
		Key:           event.AggregateID(),
		Payload:       payload,
		Status:        domain.OutboxStatusPending,
		CreatedAt:     util.Now(),
	}, nil
}
