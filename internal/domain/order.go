package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var orderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusConfirmed,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusCancelled,
}

func OrderStatuses() []OrderStatus {
	return slices.Clone(orderStatuses)
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !slices.Contains(orderStatuses, status) {
		return "", NewValidationError("status", fmt.Sprintf("unknown order status %q", s))
	}
	return status, nil
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusShipped || s == OrderStatusCancelled
}

type OrderAction string

const (
	OrderActionConfirm  OrderAction = "confirm"
	OrderActionMarkPaid OrderAction = "mark_paid"
	OrderActionCancel   OrderAction = "cancel"
	OrderActionShip     OrderAction = "ship"
)

// Canonical history notes.
const (
	NoteOrderConfirmed = "order confirmed"
	NoteOrderPaid      = "order marked as paid"
	NoteOrderCancelled = "order cancelled"
	NoteOrderShipped   = "order shipped"
)

// NextOrderStatus is the order state machine. It returns the status the order
// ends up in and the history note for the change. When the order is already at
// the action's target the current status is returned with an empty note.
func NextOrderStatus(current OrderStatus, action OrderAction) (OrderStatus, string, error) {
	switch action {
	case OrderActionConfirm:
		return step(EntityOrder, current, OrderStatusConfirmed, NoteOrderConfirmed,
			"only CREATED orders can be confirmed", OrderStatusCreated)
	case OrderActionMarkPaid:
		return step(EntityOrder, current, OrderStatusPaid, NoteOrderPaid,
			"only CONFIRMED orders can be marked as paid", OrderStatusConfirmed)
	case OrderActionCancel:
		if current == OrderStatusPaid || current == OrderStatusShipped {
			return current, "", NewInvalidStateTransitionError(EntityOrder, string(current), string(OrderStatusCancelled),
				"order is already paid or shipped and cannot be cancelled")
		}
		return step(EntityOrder, current, OrderStatusCancelled, NoteOrderCancelled,
			"only CREATED or CONFIRMED orders can be cancelled", OrderStatusCreated, OrderStatusConfirmed)
	case OrderActionShip:
		return step(EntityOrder, current, OrderStatusShipped, NoteOrderShipped,
			"only PAID orders can be shipped", OrderStatusPaid)
	default:
		return current, "", unknownAction(EntityOrder, current, string(action))
	}
}

type OrderItem struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   Money  `json:"unit_price"`
}

func NewOrderItem(productName string, quantity int, unitPrice Money) (OrderItem, error) {
	item := OrderItem{
		ProductName: strings.TrimSpace(productName),
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	}
	if err := item.Validate(); err != nil {
		return OrderItem{}, err
	}
	return item, nil
}

func (i OrderItem) Validate() error {
	if strings.TrimSpace(i.ProductName) == "" {
		return NewValidationError("product_name", "product name is required")
	}
	if i.Quantity < 1 {
		return NewValidationError("quantity", "quantity must be at least 1")
	}
	if !i.UnitPrice.IsChargeable() {
		return NewValidationError("unit_price", "unit price must be at least 0.01 with at most 2 decimal places")
	}
	return nil
}

func (i OrderItem) Subtotal() Money {
	return i.UnitPrice.Mul(i.Quantity)
}

// Order is the order aggregate. Status, items and history only change through
// its methods; the total is always derived from the items.
type Order struct {
	ID         string
	CustomerID string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	status  OrderStatus
	items   []OrderItem
	history []OrderStateTransition
}

func NewOrder(id, customerID string, items []OrderItem, at time.Time) (*Order, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, NewValidationError("customer_id", "customer id is required")
	}
	if len(items) == 0 {
		return nil, NewValidationError("items", "order must contain at least one item")
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return &Order{
		ID:         id,
		CustomerID: customerID,
		CreatedAt:  at,
		UpdatedAt:  at,
		status:     OrderStatusCreated,
		items:      slices.Clone(items),
	}, nil
}

// RestoreOrder rebuilds an order from storage.
func RestoreOrder(id, customerID string, status OrderStatus, createdAt, updatedAt time.Time, items []OrderItem, history []OrderStateTransition) *Order {
	return &Order{
		ID:         id,
		CustomerID: customerID,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
		status:     status,
		items:      slices.Clone(items),
		history:    cloneHistory(history),
	}
}

func (o *Order) Status() OrderStatus { return o.status }

func (o *Order) Items() []OrderItem { return slices.Clone(o.items) }

func (o *Order) History() []OrderStateTransition { return cloneHistory(o.history) }

func (o *Order) TotalAmount() Money {
	total := ZeroMoney
	for _, item := range o.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// AddItem appends a line item. Items are frozen once the order leaves CREATED.
func (o *Order) AddItem(item OrderItem, at time.Time) error {
	if o.status != OrderStatusCreated {
		return NewInvalidStateTransitionError(EntityOrder, string(o.status), string(o.status),
			"items can only be added while the order is CREATED")
	}
	if err := item.Validate(); err != nil {
		return err
	}
	o.items = append(o.items, item)
	o.UpdatedAt = at
	return nil
}

func (o *Order) Confirm(at time.Time) ([]Event, error) {
	changed, err := o.apply(OrderActionConfirm, at)
	if err != nil || !changed {
		return nil, err
	}
	return []Event{OrderConfirmed{OrderID: o.ID, CustomerID: o.CustomerID, Timestamp: at}}, nil
}

// MarkAsPaid is driven by payment reconciliation only.
func (o *Order) MarkAsPaid(at time.Time) ([]Event, error) {
	changed, err := o.apply(OrderActionMarkPaid, at)
	if err != nil || !changed {
		return nil, err
	}
	return []Event{OrderPaid{OrderID: o.ID, CustomerID: o.CustomerID, TotalAmount: o.TotalAmount(), Timestamp: at}}, nil
}

func (o *Order) Cancel(at time.Time) ([]Event, error) {
	previous := o.status
	changed, err := o.apply(OrderActionCancel, at)
	if err != nil || !changed {
		return nil, err
	}
	return []Event{OrderCancelled{OrderID: o.ID, CustomerID: o.CustomerID, PreviousStatus: previous, Timestamp: at}}, nil
}

func (o *Order) MarkAsShipped(at time.Time) ([]Event, error) {
	changed, err := o.apply(OrderActionShip, at)
	if err != nil || !changed {
		return nil, err
	}
	return []Event{OrderShipped{OrderID: o.ID, CustomerID: o.CustomerID, Timestamp: at}}, nil
}

func (o *Order) apply(action OrderAction, at time.Time) (bool, error) {
	next, note, err := NextOrderStatus(o.status, action)
	if err != nil {
		return false, err
	}
	if next == o.status {
		return false, nil
	}
	o.history = appendRecord(o.history, o.status, next, at, note)
	o.status = next
	o.UpdatedAt = at
	return true, nil
}
