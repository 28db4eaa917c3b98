package domain

import "time"

type InboxMessageStatus string

const (
	InboxStatusProcessing InboxMessageStatus = "PROCESSING"
	InboxStatusProcessed  InboxMessageStatus = "PROCESSED"
	InboxStatusRejected   InboxMessageStatus = "REJECTED"
)

// InboxMessage records an external message so that redeliveries are applied
// at most once.
type InboxMessage struct {
	ID          string
	Source      string
	Payload     []byte
	Status      InboxMessageStatus
	Error       string
	ReceivedAt  time.Time
	ProcessedAt *time.Time
}
