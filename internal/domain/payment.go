package domain

import (
	"errors"
	"strings"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusApproved PaymentStatus = "APPROVED"
	PaymentStatusRejected PaymentStatus = "REJECTED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)

func (s PaymentStatus) IsTerminal() bool {
	return s != PaymentStatusPending
}

type PaymentAction string

const (
	PaymentActionApprove PaymentAction = "approve"
	PaymentActionReject  PaymentAction = "reject"
	PaymentActionFail    PaymentAction = "fail"
)

const (
	NotePaymentCreated  = "payment created"
	NotePaymentApproved = "payment approved"
	NotePaymentRejected = "payment rejected"
	NotePaymentFailed   = "payment failed"
)

var ErrInitialStateRecorded = errors.New("payment initial state already recorded")

// NextPaymentStatus is the payment state machine: a single move out of
// PENDING, after which the payment is frozen.
func NextPaymentStatus(current PaymentStatus, action PaymentAction) (PaymentStatus, string, error) {
	switch action {
	case PaymentActionApprove:
		return step(EntityPayment, current, PaymentStatusApproved, NotePaymentApproved,
			"only PENDING payments can be approved", PaymentStatusPending)
	case PaymentActionReject:
		return step(EntityPayment, current, PaymentStatusRejected, NotePaymentRejected,
			"only PENDING payments can be rejected", PaymentStatusPending)
	case PaymentActionFail:
		return step(EntityPayment, current, PaymentStatusFailed, NotePaymentFailed,
			"only PENDING payments can be marked as failed", PaymentStatusPending)
	default:
		return current, "", unknownAction(EntityPayment, current, string(action))
	}
}

// ParsePaymentAction maps an external outcome (APPROVED, REJECTED, FAILED) to
// the action producing it.
func ParsePaymentAction(outcome string) (PaymentAction, error) {
	switch PaymentStatus(strings.ToUpper(strings.TrimSpace(outcome))) {
	case PaymentStatusApproved:
		return PaymentActionApprove, nil
	case PaymentStatusRejected:
		return PaymentActionReject, nil
	case PaymentStatusFailed:
		return PaymentActionFail, nil
	default:
		return "", NewValidationError("outcome", "outcome must be one of APPROVED, REJECTED, FAILED")
	}
}

type Payment struct {
	ID        string
	OrderID   string
	Amount    Money
	CreatedAt time.Time
	UpdatedAt time.Time

	status       PaymentStatus
	transactions []PaymentTransaction
}

// NewPayment creates a PENDING payment with its creation marker already
// recorded. Order-level checks are the caller's job (see Reconciler).
func NewPayment(id, orderID string, amount Money, at time.Time) (*Payment, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, NewValidationError("order_id", "order id is required")
	}
	if !amount.IsChargeable() {
		return nil, NewValidationError("amount", "amount must be at least 0.01 with at most 2 decimal places")
	}
	p := &Payment{
		ID:        id,
		OrderID:   orderID,
		Amount:    amount,
		CreatedAt: at,
		UpdatedAt: at,
		status:    PaymentStatusPending,
	}
	if err := p.RecordInitialState(at); err != nil {
		return nil, err
	}
	return p, nil
}

func RestorePayment(id, orderID string, amount Money, status PaymentStatus, createdAt, updatedAt time.Time, transactions []PaymentTransaction) *Payment {
	return &Payment{
		ID:           id,
		OrderID:      orderID,
		Amount:       amount,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		status:       status,
		transactions: cloneHistory(transactions),
	}
}

func (p *Payment) Status() PaymentStatus { return p.status }

func (p *Payment) Transactions() []PaymentTransaction { return cloneHistory(p.transactions) }

// RecordInitialState anchors the audit trail with a PENDING -> PENDING entry.
// It may run only once, before any other transition.
func (p *Payment) RecordInitialState(at time.Time) error {
	if len(p.transactions) > 0 {
		return ErrInitialStateRecorded
	}
	p.transactions = appendRecord(p.transactions, PaymentStatusPending, PaymentStatusPending, at, NotePaymentCreated)
	return nil
}

func (p *Payment) Approve(at time.Time) ([]Event, error) {
	changed, err := p.apply(PaymentActionApprove, at)
	if err != nil || !changed {
		return nil, err
	}
	return []Event{PaymentApproved{PaymentID: p.ID, OrderID: p.OrderID, Amount: p.Amount, Timestamp: at}}, nil
}

func (p *Payment) Reject(at time.Time) ([]Event, error) {
	changed, err := p.apply(PaymentActionReject, at)
	if err != nil || !changed {
		return nil, err
	}
	return []Event{PaymentRejected{PaymentID: p.ID, OrderID: p.OrderID, Amount: p.Amount, Timestamp: at}}, nil
}

func (p *Payment) MarkAsFailed(at time.Time) ([]Event, error) {
	changed, err := p.apply(PaymentActionFail, at)
	if err != nil || !changed {
		return nil, err
	}
	return []Event{PaymentFailed{PaymentID: p.ID, OrderID: p.OrderID, Amount: p.Amount, Timestamp: at}}, nil
}

// Apply dispatches action to the matching transition method.
func (p *Payment) Apply(action PaymentAction, at time.Time) ([]Event, error) {
	switch action {
	case PaymentActionApprove:
		return p.Approve(at)
	case PaymentActionReject:
		return p.Reject(at)
	case PaymentActionFail:
		return p.MarkAsFailed(at)
	default:
		return nil, unknownAction(EntityPayment, p.status, string(action))
	}
}

func (p *Payment) apply(action PaymentAction, at time.Time) (bool, error) {
	next, note, err := NextPaymentStatus(p.status, action)
	if err != nil {
		return false, err
	}
	if next == p.status {
		return false, nil
	}
	p.transactions = appendRecord(p.transactions, p.status, next, at, note)
	p.status = next
	p.UpdatedAt = at
	return true, nil
}
