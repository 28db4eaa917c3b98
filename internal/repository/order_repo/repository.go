package order_repo

import (
	"context"

	"ordersystem/internal/domain"
)

// OrderRepository always returns fully populated orders (items and history).
// Missing orders are reported as *domain.NotFoundError.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetByIDForUpdate locks the order until the surrounding unit of work ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomerID(ctx context.Context, customerID string) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error)
	// Update stores the status and appends history records not stored yet.
	Update(ctx context.Context, order *domain.Order) error
}
