package customers_repo

import (
	"context"

	"ordersystem/internal/domain"
)

type CustomerRepository interface {
	// Create reports a taken email as a DUPLICATE_EMAIL business rule error.
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
}
