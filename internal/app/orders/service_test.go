package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ordersystem/internal/domain"
	"ordersystem/internal/outbox"
	"ordersystem/internal/repository/memory"
	"ordersystem/internal/util"
)

type fixture struct {
	store      *memory.Store
	svc        OrderService
	customerID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	customer, err := domain.NewCustomer("c-1", "Ada", "ada@example.com", util.Now())
	require.NoError(t, err)
	require.NoError(t, store.Customers().Create(context.Background(), customer))

	events := outbox.NewWriter(store.Outbox(), outbox.Topics{Orders: "orders", Payments: "payments"})
	return &fixture{
		store:      store,
		svc:        NewOrderService(store, store.Orders(), store.Customers(), events, zap.NewNop()),
		customerID: customer.ID,
	}
}

func (f *fixture) createOrder(t *testing.T) *OrderResponse {
	t.Helper()
	res, err := f.svc.CreateOrder(context.Background(), &CreateOrderRequest{
		CustomerID: f.customerID,
		Items: []OrderItemRequest{
			{ProductName: "Widget", Quantity: 2, UnitPrice: domain.MustParseMoney("25.00")},
			{ProductName: "Gadget", Quantity: 1, UnitPrice: domain.MustParseMoney("50.00")},
		},
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) eventTypes() []string {
	var types []string
	for _, msg := range f.store.Outbox().Messages(context.Background()) {
		types = append(types, msg.MessageType)
	}
	return types
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)

	res := f.createOrder(t)
	assert.Equal(t, string(domain.OrderStatusCreated), res.Status)
	assert.Equal(t, "100.00", res.TotalAmount.String())
	require.Len(t, res.Items, 2)
	assert.Equal(t, "50.00", res.Items[0].Subtotal.String())
	assert.Empty(t, res.History)
	assert.Empty(t, f.eventTypes())
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	price := domain.MustParseMoney("1.00")

	tests := []struct {
		name    string
		req     CreateOrderRequest
		wantErr error
	}{
		{"no items", CreateOrderRequest{CustomerID: f.customerID}, domain.ErrValidation},
		{"zero quantity", CreateOrderRequest{CustomerID: f.customerID, Items: []OrderItemRequest{{ProductName: "x", Quantity: 0, UnitPrice: price}}}, domain.ErrValidation},
		{"zero price", CreateOrderRequest{CustomerID: f.customerID, Items: []OrderItemRequest{{ProductName: "x", Quantity: 1}}}, domain.ErrValidation},
		{"missing customer id", CreateOrderRequest{Items: []OrderItemRequest{{ProductName: "x", Quantity: 1, UnitPrice: price}}}, domain.ErrValidation},
		{"unknown customer", CreateOrderRequest{CustomerID: "nobody", Items: []OrderItemRequest{{ProductName: "x", Quantity: 1, UnitPrice: price}}}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(context.Background(), &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOrderLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)

	confirmed, err := f.svc.ConfirmOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusConfirmed), confirmed.Status)
	require.Len(t, confirmed.History, 1)
	assert.Equal(t, domain.NoteOrderConfirmed, confirmed.History[0].Note)

	t.Run("confirm is idempotent", func(t *testing.T) {
		again, err := f.svc.ConfirmOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Len(t, again.History, 1)
		assert.Equal(t, []string{string(domain.EventOrderConfirmed)}, f.eventTypes())
	})

	t.Run("ship requires payment", func(t *testing.T) {
		_, err := f.svc.ShipOrder(ctx, order.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	})

	t.Run("cancel confirmed order", func(t *testing.T) {
		cancelled, err := f.svc.CancelOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, string(domain.OrderStatusCancelled), cancelled.Status)
		assert.Len(t, cancelled.History, 2)
		assert.Equal(t, []string{string(domain.EventOrderConfirmed), string(domain.EventOrderCancelled)}, f.eventTypes())
	})

	t.Run("cancelled order cannot be confirmed", func(t *testing.T) {
		_, err := f.svc.ConfirmOrder(ctx, order.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

		stored, err := f.svc.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Len(t, stored.History, 2)
	})
}

func TestCancelPaidOrderFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)

	err := f.store.RunInTx(ctx, func(ctx context.Context) error {
		o, err := f.store.Orders().GetByIDForUpdate(ctx, order.ID)
		if err != nil {
			return err
		}
		if _, err := o.Confirm(util.Now()); err != nil {
			return err
		}
		if _, err := o.MarkAsPaid(util.Now()); err != nil {
			return err
		}
		return f.store.Orders().Update(ctx, o)
	})
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, order.ID)
	var transitionErr *domain.InvalidStateTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Contains(t, transitionErr.Reason, "already paid or shipped")

	shipped, err := f.svc.ShipOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusShipped), shipped.Status)
	assert.Equal(t, []string{string(domain.EventOrderShipped)}, f.eventTypes())
}

func TestOrderQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createOrder(t)
	second := f.createOrder(t)
	_, err := f.svc.ConfirmOrder(ctx, second.ID)
	require.NoError(t, err)

	byCustomer, err := f.svc.GetOrdersByCustomerID(ctx, f.customerID)
	require.NoError(t, err)
	require.Len(t, byCustomer, 2)
	assert.Equal(t, first.ID, byCustomer[0].ID)

	created, err := f.svc.GetOrdersByStatus(ctx, "created")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, first.ID, created[0].ID)

	_, err = f.svc.GetOrdersByStatus(ctx, "LOST")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.GetOrdersByCustomerID(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.GetOrder(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
