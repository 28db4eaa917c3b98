package payments_repo

import (
	"context"

	"ordersystem/internal/domain"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Payment, error)
	ListByOrderID(ctx context.Context, orderID string) ([]*domain.Payment, error)
	Update(ctx context.Context, payment *domain.Payment) error
}
