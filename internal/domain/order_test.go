package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestOrder(t *testing.T, items ...OrderItem) *Order {
	t.Helper()
	if len(items) == 0 {
		items = []OrderItem{{ProductName: "Widget", Quantity: 2, UnitPrice: MustParseMoney("10.00")}}
	}
	order, err := NewOrder("order-1", "customer-1", items, testTime)
	require.NoError(t, err)
	return order
}

func orderAt(t *testing.T, status OrderStatus) *Order {
	t.Helper()
	order := newTestOrder(t)
	path := map[OrderStatus][]func(time.Time) ([]Event, error){
		OrderStatusCreated:   nil,
		OrderStatusConfirmed: {order.Confirm},
		OrderStatusPaid:      {order.Confirm, order.MarkAsPaid},
		OrderStatusShipped:   {order.Confirm, order.MarkAsPaid, order.MarkAsShipped},
		OrderStatusCancelled: {order.Cancel},
	}
	for _, fn := range path[status] {
		_, err := fn(testTime)
		require.NoError(t, err)
	}
	require.Equal(t, status, order.Status())
	return order
}

func TestNewOrder_TotalIsSumOfSubtotals(t *testing.T) {
	order := newTestOrder(t,
		OrderItem{ProductName: "Widget", Quantity: 2, UnitPrice: MustParseMoney("10.00")},
		OrderItem{ProductName: "Gadget", Quantity: 3, UnitPrice: MustParseMoney("0.10")},
	)

	assert.Equal(t, "20.30", order.TotalAmount().String())
	assert.Equal(t, OrderStatusCreated, order.Status())
	assert.Empty(t, order.History())

	require.NoError(t, order.AddItem(OrderItem{ProductName: "Bolt", Quantity: 1, UnitPrice: MustParseMoney("0.01")}, testTime))
	assert.Equal(t, "20.31", order.TotalAmount().String())
	assert.Len(t, order.Items(), 3)
}

func TestNewOrder_Validation(t *testing.T) {
	validItem := OrderItem{ProductName: "Widget", Quantity: 1, UnitPrice: MustParseMoney("1.00")}

	tests := []struct {
		name       string
		customerID string
		items      []OrderItem
	}{
		{name: "missing customer", customerID: "", items: []OrderItem{validItem}},
		{name: "no items", customerID: "c", items: nil},
		{name: "blank product", customerID: "c", items: []OrderItem{{ProductName: " ", Quantity: 1, UnitPrice: MustParseMoney("1")}}},
		{name: "zero quantity", customerID: "c", items: []OrderItem{{ProductName: "x", Quantity: 0, UnitPrice: MustParseMoney("1")}}},
		{name: "zero price", customerID: "c", items: []OrderItem{{ProductName: "x", Quantity: 1, UnitPrice: MustParseMoney("0")}}},
		{name: "sub-cent price", customerID: "c", items: []OrderItem{{ProductName: "x", Quantity: 1, UnitPrice: MustParseMoney("1.001")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrder("id", tt.customerID, tt.items, testTime)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestOrder_AddItemRejectedAfterCreated(t *testing.T) {
	order := orderAt(t, OrderStatusConfirmed)
	before := order.TotalAmount()

	err := order.AddItem(OrderItem{ProductName: "Late", Quantity: 1, UnitPrice: MustParseMoney("5.00")}, testTime)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.True(t, before.Equal(order.TotalAmount()))
}

func TestOrder_AddItemValidatesItem(t *testing.T) {
	order := newTestOrder(t)
	before := order.TotalAmount()

	err := order.AddItem(OrderItem{ProductName: "   ", Quantity: 1, UnitPrice: MustParseMoney("5.00")}, testTime)
	assert.ErrorIs(t, err, ErrValidation)
	assert.True(t, before.Equal(order.TotalAmount()))
	assert.Len(t, order.Items(), len(newTestOrder(t).Items()))
}

func TestOrder_TransitionsAppendHistory(t *testing.T) {
	order := newTestOrder(t)

	events, err := order.Confirm(testTime)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, OrderConfirmed{OrderID: "order-1", CustomerID: "customer-1", Timestamp: testTime}, events[0])

	events, err = order.MarkAsPaid(testTime.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 1)
	paid, ok := events[0].(OrderPaid)
	require.True(t, ok)
	assert.Equal(t, "20.00", paid.TotalAmount.String())

	_, err = order.MarkAsShipped(testTime.Add(2 * time.Minute))
	require.NoError(t, err)

	history := order.History()
	require.Len(t, history, 3)
	assert.Equal(t, OrderStateTransition{Seq: 1, PreviousStatus: OrderStatusCreated, NewStatus: OrderStatusConfirmed, OccurredAt: testTime, Note: NoteOrderConfirmed}, history[0])
	assert.Equal(t, NoteOrderPaid, history[1].Note)
	assert.Equal(t, OrderStatusShipped, history[2].NewStatus)
	assert.Equal(t, 3, history[2].Seq)
}

func TestOrder_TransitionsAreIdempotent(t *testing.T) {
	tests := []struct {
		name   string
		status OrderStatus
		action func(o *Order) ([]Event, error)
	}{
		{name: "confirm", status: OrderStatusConfirmed, action: func(o *Order) ([]Event, error) { return o.Confirm(testTime) }},
		{name: "mark paid", status: OrderStatusPaid, action: func(o *Order) ([]Event, error) { return o.MarkAsPaid(testTime) }},
		{name: "cancel", status: OrderStatusCancelled, action: func(o *Order) ([]Event, error) { return o.Cancel(testTime) }},
		{name: "ship", status: OrderStatusShipped, action: func(o *Order) ([]Event, error) { return o.MarkAsShipped(testTime) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := orderAt(t, tt.status)
			before := order.History()

			events, err := tt.action(order)
			require.NoError(t, err)
			assert.Empty(t, events)
			assert.Equal(t, tt.status, order.Status())
			assert.Equal(t, before, order.History())
		})
	}
}

func TestNextOrderStatus_Matrix(t *testing.T) {
	allowed := map[OrderAction]map[OrderStatus]OrderStatus{
		OrderActionConfirm:  {OrderStatusCreated: OrderStatusConfirmed, OrderStatusConfirmed: OrderStatusConfirmed},
		OrderActionMarkPaid: {OrderStatusConfirmed: OrderStatusPaid, OrderStatusPaid: OrderStatusPaid},
		OrderActionCancel: {
			OrderStatusCreated:   OrderStatusCancelled,
			OrderStatusConfirmed: OrderStatusCancelled,
			OrderStatusCancelled: OrderStatusCancelled,
		},
		OrderActionShip: {OrderStatusPaid: OrderStatusShipped, OrderStatusShipped: OrderStatusShipped},
	}

	for action, ok := range allowed {
		for _, current := range OrderStatuses() {
			next, _, err := NextOrderStatus(current, action)
			if want, valid := ok[current]; valid {
				require.NoError(t, err, "%s from %s", action, current)
				assert.Equal(t, want, next, "%s from %s", action, current)
				continue
			}
			var transitionErr *InvalidStateTransitionError
			require.True(t, errors.As(err, &transitionErr), "%s from %s should fail", action, current)
			assert.Equal(t, EntityOrder, transitionErr.Entity)
			assert.Equal(t, string(current), transitionErr.Current)
			assert.Equal(t, current, next)
		}
	}
}

func TestNextOrderStatus_UnknownAction(t *testing.T) {
	_, _, err := NextOrderStatus(OrderStatusCreated, OrderAction("refund"))
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestOrder_IllegalTransitionLeavesStateUntouched(t *testing.T) {
	order := orderAt(t, OrderStatusCancelled)
	before := order.History()

	_, err := order.Confirm(testTime)

	var transitionErr *InvalidStateTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "CANCELLED", transitionErr.Current)
	assert.Equal(t, "CONFIRMED", transitionErr.Target)
	assert.Equal(t, OrderStatusCancelled, order.Status())
	assert.Equal(t, before, order.History())
}

func TestOrder_CancelGuards(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusPaid, OrderStatusShipped} {
		t.Run(string(status), func(t *testing.T) {
			order := orderAt(t, status)

			_, err := order.Cancel(testTime)

			var transitionErr *InvalidStateTransitionError
			require.ErrorAs(t, err, &transitionErr)
			assert.Contains(t, transitionErr.Reason, "already paid or shipped")
			assert.Equal(t, status, order.Status())
		})
	}
}

func TestOrder_HistoryIsAppendOnly(t *testing.T) {
	order := newTestOrder(t)
	_, err := order.Confirm(testTime)
	require.NoError(t, err)

	snapshot := order.History()
	snapshot[0].Note = "tampered"

	assert.Equal(t, NoteOrderConfirmed, order.History()[0].Note)

	_, _ = order.MarkAsShipped(testTime)
	_, err = order.Cancel(testTime.Add(time.Second))
	require.NoError(t, err)

	history := order.History()
	require.Len(t, history, 2)
	assert.Equal(t, NoteOrderConfirmed, history[0].Note)
	assert.Equal(t, NoteOrderCancelled, history[1].Note)
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("paid")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPaid, status)

	_, err = ParseOrderStatus("LOST")
	assert.ErrorIs(t, err, ErrValidation)

	assert.True(t, OrderStatusShipped.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusPaid.IsTerminal())
}
