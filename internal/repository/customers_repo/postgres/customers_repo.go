package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"ordersystem/internal/domain"
	"ordersystem/internal/infrastructure/database"
)

const uniqueViolation = "23505"

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	q := database.QuerierFromContext(ctx, r.db)

	query := `INSERT INTO customers (id, name, email, created_at) VALUES ($1, $2, $3, $4)`
	_, err := q.ExecContext(ctx, query, customer.ID, customer.Name, customer.Email, customer.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.NewBusinessRuleError(domain.RuleDuplicateEmail,
				fmt.Sprintf("email %s is already registered", customer.Email))
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT id, name, email, created_at FROM customers WHERE id = $1`, id)
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT id, name, email, created_at FROM customers WHERE email = $1`, email)
}

func (r *CustomerRepository) getOne(ctx context.Context, query, key string) (*domain.Customer, error) {
	q := database.QuerierFromContext(ctx, r.db)

	customer := &domain.Customer{}
	err := q.QueryRowContext(ctx, query, key).Scan(&customer.ID, &customer.Name, &customer.Email, &customer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError(domain.EntityCustomer, key)
		}
		return nil, fmt.Errorf("failed to get customer %s: %w", key, err)
	}
	return customer, nil
}
