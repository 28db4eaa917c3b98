package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ordersystem/internal/app/customers"
	"ordersystem/internal/app/orders"
	"ordersystem/internal/app/payments"
	"ordersystem/internal/domain"
	"ordersystem/internal/handler/http/respond"
	"ordersystem/internal/outbox"
	"ordersystem/internal/repository/memory"
)

func newTestRouter() http.Handler {
	store := memory.NewStore()
	events := outbox.NewWriter(store.Outbox(), outbox.Topics{Orders: "orders", Payments: "payments"})
	logger := zap.NewNop()

	return NewRouter(Services{
		Customers: customers.NewCustomerService(store, store.Customers(), logger),
		Orders:    orders.NewOrderService(store, store.Orders(), store.Customers(), events, logger),
		Payments: payments.NewPaymentService(store, store.Orders(), store.Payments(), store.Inbox(), events,
			domain.NewReconciler(domain.ReserveApproved), logger),
	}, Options{AllowedOrigins: []string{"http://localhost:5173"}}, logger)
}

func do(t *testing.T, h http.Handler, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequestWithContext(context.Background(), method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestHealth(t *testing.T) {
	var body map[string]string
	assert.Equal(t, http.StatusOK, do(t, newTestRouter(), http.MethodGet, "/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestOrderPaymentFlow(t *testing.T) {
	h := newTestRouter()

	var customer customers.CustomerResponse
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/customers",
		map[string]string{"name": "Ada", "email": "ada@example.com"}, &customer))

	var errBody respond.ErrorResponse
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, http.MethodPost, "/api/customers",
		map[string]string{"name": "Ada", "email": "ada@example.com"}, &errBody))
	assert.Equal(t, domain.KindBusinessRule, errBody.Error)

	var order orders.OrderResponse
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/orders", map[string]any{
		"customer_id": customer.ID,
		"items":       []map[string]any{{"product_name": "Widget", "quantity": 2, "unit_price": 12.50}},
	}, &order))
	assert.Equal(t, "25.00", order.TotalAmount.String())

	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, http.MethodPost, "/api/payments",
		map[string]any{"order_id": order.ID, "amount": 25}, &errBody))
	assert.Equal(t, "PAYMENT_ONLY_ON_CONFIRMED_ORDER", errBody.Details.(map[string]any)["rule"])

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/orders/"+order.ID+"/confirm", nil, &order))
	assert.Equal(t, "CONFIRMED", order.Status)

	var payment payments.PaymentResponse
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/payments",
		map[string]any{"order_id": order.ID, "amount": 25}, &payment))
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/payments/"+payment.ID+"/approve", nil, &payment))
	assert.Equal(t, "APPROVED", payment.Status)

	var summary payments.OrderPaymentSummaryResponse
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/payments/order/"+order.ID+"/summary", nil, &summary))
	assert.Equal(t, "PAID", summary.Order.Status)
	assert.Equal(t, "25.00", summary.TotalApproved.String())

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/orders/"+order.ID+"/cancel", nil, &errBody))
	assert.Equal(t, domain.KindInvalidStateTransition, errBody.Error)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/orders/"+order.ID+"/ship", nil, &order))
	assert.Equal(t, "SHIPPED", order.Status)

	var shipped []orders.OrderResponse
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/orders/status/shipped", nil, &shipped))
	assert.Len(t, shipped, 1)
}

func TestErrorStatuses(t *testing.T) {
	h := newTestRouter()
	var errBody respond.ErrorResponse

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/orders/missing", nil, &errBody))
	assert.Equal(t, domain.KindNotFound, errBody.Error)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/orders/status/LOST", nil, &errBody))
	assert.Equal(t, domain.KindValidation, errBody.Error)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, respond.StatusFor(domain.NewNotFoundError(domain.EntityOrder, "o-1")))
	assert.Equal(t, http.StatusConflict, respond.StatusFor(domain.NewInvalidStateTransitionError(domain.EntityOrder, "PAID", "CANCELLED", "no")))
	assert.Equal(t, http.StatusUnprocessableEntity, respond.StatusFor(domain.NewBusinessRuleError(domain.RuleDuplicateEmail, "taken")))
	assert.Equal(t, http.StatusBadRequest, respond.StatusFor(domain.NewValidationError("amount", "bad")))
	assert.Equal(t, http.StatusInternalServerError, respond.StatusFor(assert.AnError))
}
