package payments

import (
	"time"

	"ordersystem/internal/app/orders"
	"ordersystem/internal/domain"
)

type CreatePaymentRequest struct {
	OrderID string       `json:"order_id"`
	Amount  domain.Money `json:"amount"`
}

type PaymentResponse struct {
	ID           string                      `json:"id"`
	OrderID      string                      `json:"order_id"`
	Amount       domain.Money                `json:"amount"`
	Status       string                      `json:"status"`
	Transactions []domain.PaymentTransaction `json:"transactions"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

type OrderPaymentSummaryResponse struct {
	Order          *orders.OrderResponse `json:"order"`
	Payments       []*PaymentResponse    `json:"payments"`
	TotalApproved  domain.Money          `json:"total_approved"`
	PendingBalance domain.Money          `json:"pending_balance"`
}

// GatewayResult is the outcome of a payment reported by the payment provider.
type GatewayResult struct {
	EventID   string `json:"event_id"`
	PaymentID string `json:"payment_id"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
}
