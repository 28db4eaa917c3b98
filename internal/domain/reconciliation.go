package domain

import (
	"fmt"
	"time"
)

// ReservationPolicy decides which payments count against an order's pending
// balance when a new payment is requested.
type ReservationPolicy int

const (
	// ReserveApproved subtracts only APPROVED payments.
	ReserveApproved ReservationPolicy = iota
	// ReserveApprovedAndPending also subtracts payments still PENDING, so
	// concurrently pending payments cannot jointly exceed the order total.
	ReserveApprovedAndPending
)

func (p ReservationPolicy) String() string {
	switch p {
	case ReserveApprovedAndPending:
		return "approved_and_pending"
	default:
		return "approved"
	}
}

// Reconciler holds the rules linking an order to its payments.
type Reconciler struct {
	Policy ReservationPolicy
}

func NewReconciler(policy ReservationPolicy) Reconciler {
	return Reconciler{Policy: policy}
}

func TotalApproved(payments []*Payment) Money {
	return totalWithStatus(payments, PaymentStatusApproved)
}

func TotalPending(payments []*Payment) Money {
	return totalWithStatus(payments, PaymentStatusPending)
}

func totalWithStatus(payments []*Payment, status PaymentStatus) Money {
	total := ZeroMoney
	for _, p := range payments {
		if p.Status() == status {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// PendingBalance is the order total minus the approved payments.
func PendingBalance(order *Order, payments []*Payment) Money {
	return order.TotalAmount().Sub(TotalApproved(payments))
}

// Available is the amount a new payment may still claim under the policy.
func (r Reconciler) Available(order *Order, payments []*Payment) Money {
	committed := TotalApproved(payments)
	if r.Policy == ReserveApprovedAndPending {
		committed = committed.Add(TotalPending(payments))
	}
	return order.TotalAmount().Sub(committed)
}

// CheckNewPayment guards payment creation: the order must be CONFIRMED and the
// amount may not exceed what is still available.
func (r Reconciler) CheckNewPayment(order *Order, payments []*Payment, amount Money) error {
	if order.Status() != OrderStatusConfirmed {
		return NewBusinessRuleError(RulePaymentOnlyOnConfirmedOrder,
			fmt.Sprintf("payments can only be created for CONFIRMED orders, order %s is %s", order.ID, order.Status()))
	}
	if err := checkOwnership(order, payments); err != nil {
		return err
	}
	available := r.Available(order, payments)
	if amount.GreaterThan(available) {
		return NewBusinessRuleError(RulePaymentAmountExceedsPending,
			fmt.Sprintf("payment amount %s exceeds pending balance %s", amount, available))
	}
	return nil
}

// Reconcile re-sums every approved payment and marks the order paid once the
// total is covered. Orders already PAID or SHIPPED are left untouched.
func (r Reconciler) Reconcile(order *Order, payments []*Payment, at time.Time) ([]Event, error) {
	if err := checkOwnership(order, payments); err != nil {
		return nil, err
	}
	if order.Status() == OrderStatusPaid || order.Status() == OrderStatusShipped {
		return nil, nil
	}
	if TotalApproved(payments).LessThan(order.TotalAmount()) {
		return nil, nil
	}
	return order.MarkAsPaid(at)
}

func checkOwnership(order *Order, payments []*Payment) error {
	for _, p := range payments {
		if p.OrderID != order.ID {
			return fmt.Errorf("payment %s belongs to order %s, not %s", p.ID, p.OrderID, order.ID)
		}
	}
	return nil
}
