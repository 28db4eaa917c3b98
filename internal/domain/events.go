package domain

import "time"

type EventType string

const (
	EventOrderConfirmed  EventType = "order.confirmed"
	EventOrderPaid       EventType = "order.paid"
	EventOrderCancelled  EventType = "order.cancelled"
	EventOrderShipped    EventType = "order.shipped"
	EventPaymentApproved EventType = "payment.approved"
	EventPaymentRejected EventType = "payment.rejected"
	EventPaymentFailed   EventType = "payment.failed"
)

// Aggregate types an event can belong to.
const (
	AggregateOrder   = "order"
	AggregatePayment = "payment"
)

// Event is a notification about an effective state change. Transitions that
// turn out to be no-ops never produce one.
type Event interface {
	Type() EventType
	AggregateType() string
	AggregateID() string
	OccurredAt() time.Time
}

type OrderConfirmed struct {
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	Timestamp  time.Time `json:"occurred_at"`
}

func (e OrderConfirmed) Type() EventType       { return EventOrderConfirmed }
func (e OrderConfirmed) AggregateType() string { return AggregateOrder }
func (e OrderConfirmed) AggregateID() string   { return e.OrderID }
func (e OrderConfirmed) OccurredAt() time.Time { return e.Timestamp }

type OrderPaid struct {
	OrderID     string    `json:"order_id"`
	CustomerID  string    `json:"customer_id"`
	TotalAmount Money     `json:"total_amount"`
	Timestamp   time.Time `json:"occurred_at"`
}

func (e OrderPaid) Type() EventType       { return EventOrderPaid }
func (e OrderPaid) AggregateType() string { return AggregateOrder }
func (e OrderPaid) AggregateID() string   { return e.OrderID }
func (e OrderPaid) OccurredAt() time.Time { return e.Timestamp }

type OrderCancelled struct {
	OrderID        string      `json:"order_id"`
	CustomerID     string      `json:"customer_id"`
	PreviousStatus OrderStatus `json:"previous_status"`
	Timestamp      time.Time   `json:"occurred_at"`
}

func (e OrderCancelled) Type() EventType       { return EventOrderCancelled }
func (e OrderCancelled) AggregateType() string { return AggregateOrder }
func (e OrderCancelled) AggregateID() string   { return e.OrderID }
func (e OrderCancelled) OccurredAt() time.Time { return e.Timestamp }

type OrderShipped struct {
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	Timestamp  time.Time `json:"occurred_at"`
}

func (e OrderShipped) Type() EventType       { return EventOrderShipped }
func (e OrderShipped) AggregateType() string { return AggregateOrder }
func (e OrderShipped) AggregateID() string   { return e.OrderID }
func (e OrderShipped) OccurredAt() time.Time { return e.Timestamp }

type PaymentApproved struct {
	PaymentID string    `json:"payment_id"`
	OrderID   string    `json:"order_id"`
	Amount    Money     `json:"amount"`
	Timestamp time.Time `json:"occurred_at"`
}

func (e PaymentApproved) Type() EventType       { return EventPaymentApproved }
func (e PaymentApproved) AggregateType() string { return AggregatePayment }
func (e PaymentApproved) AggregateID() string   { return e.PaymentID }
func (e PaymentApproved) OccurredAt() time.Time { return e.Timestamp }

type PaymentRejected struct {
	PaymentID string    `json:"payment_id"`
	OrderID   string    `json:"order_id"`
	Amount    Money     `json:"amount"`
	Timestamp time.Time `json:"occurred_at"`
}

func (e PaymentRejected) Type() EventType       { return EventPaymentRejected }
func (e PaymentRejected) AggregateType() string { return AggregatePayment }
func (e PaymentRejected) AggregateID() string   { return e.PaymentID }
func (e PaymentRejected) OccurredAt() time.Time { return e.Timestamp }

type PaymentFailed struct {
	PaymentID string    `json:"payment_id"`
	OrderID   string    `json:"order_id"`
	Amount    Money     `json:"amount"`
	Timestamp time.Time `json:"occurred_at"`
}

func (e PaymentFailed) Type() EventType       { return EventPaymentFailed }
func (e PaymentFailed) AggregateType() string { return AggregatePayment }
func (e PaymentFailed) AggregateID() string   { return e.PaymentID }
func (e PaymentFailed) OccurredAt() time.Time { return e.Timestamp }
