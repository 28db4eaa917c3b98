package orders

import (
	"time"

	"ordersystem/internal/domain"
)

type OrderItemRequest struct {
	ProductName string       `json:"product_name"`
	Quantity    int          `json:"quantity"`
	UnitPrice   domain.Money `json:"unit_price"`
}

type CreateOrderRequest struct {
	CustomerID string             `json:"customer_id"`
	Items      []OrderItemRequest `json:"items"`
}

type OrderItemResponse struct {
	ProductName string       `json:"product_name"`
	Quantity    int          `json:"quantity"`
	UnitPrice   domain.Money `json:"unit_price"`
	Subtotal    domain.Money `json:"subtotal"`
}

type OrderResponse struct {
	ID          string                        `json:"id"`
	CustomerID  string                        `json:"customer_id"`
	Status      string                        `json:"status"`
	TotalAmount domain.Money                  `json:"total_amount"`
	Items       []OrderItemResponse           `json:"items"`
	History     []domain.OrderStateTransition `json:"history"`
	CreatedAt   time.Time                     `json:"created_at"`
	UpdatedAt   time.Time                     `json:"updated_at"`
}
