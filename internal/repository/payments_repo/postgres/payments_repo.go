package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"ordersystem/internal/domain"
	"ordersystem/internal/infrastructure/database"
)

const selectPayments = `SELECT id, order_id, amount, status, created_at, updated_at FROM payments`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

type paymentRow struct {
	id        string
	orderID   string
	amount    domain.Money
	status    domain.PaymentStatus
	createdAt time.Time
	updatedAt time.Time
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	q := database.QuerierFromContext(ctx, r.db)

	query := `
		INSERT INTO payments (id, order_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.ExecContext(ctx, query,
		payment.ID,
		payment.OrderID,
		payment.Amount,
		payment.Status(),
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment %s: %w", payment.ID, err)
	}
	return insertTransactions(ctx, q, payment)
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.getOne(ctx, selectPayments+` WHERE id = $1`, id)
}

func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Payment, error) {
	return r.getOne(ctx, selectPayments+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *PaymentRepository) ListByOrderID(ctx context.Context, orderID string) ([]*domain.Payment, error) {
	q := database.QuerierFromContext(ctx, r.db)

	rows, err := q.QueryContext(ctx, selectPayments+` WHERE order_id = $1 ORDER BY created_at ASC, id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments for order %s: %w", orderID, err)
	}
	defer rows.Close()

	var headers []paymentRow
	for rows.Next() {
		var row paymentRow
		if err := rows.Scan(&row.id, &row.orderID, &row.amount, &row.status, &row.createdAt, &row.updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		headers = append(headers, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	if len(headers) == 0 {
		return []*domain.Payment{}, nil
	}
	return hydrate(ctx, q, headers)
}

func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	q := database.QuerierFromContext(ctx, r.db)

	query := `UPDATE payments SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := q.ExecContext(ctx, query, payment.ID, payment.Status(), payment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update payment %s: %w", payment.ID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result for payment %s: %w", payment.ID, err)
	}
	if rowsAffected == 0 {
		return domain.NewNotFoundError(domain.EntityPayment, payment.ID)
	}
	return insertTransactions(ctx, q, payment)
}

func (r *PaymentRepository) getOne(ctx context.Context, query string, id string) (*domain.Payment, error) {
	q := database.QuerierFromContext(ctx, r.db)

	var row paymentRow
	err := q.QueryRowContext(ctx, query, id).Scan(&row.id, &row.orderID, &row.amount, &row.status, &row.createdAt, &row.updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError(domain.EntityPayment, id)
		}
		return nil, fmt.Errorf("failed to get payment %s: %w", id, err)
	}
	payments, err := hydrate(ctx, q, []paymentRow{row})
	if err != nil {
		return nil, err
	}
	return payments[0], nil
}

func hydrate(ctx context.Context, q database.Querier, headers []paymentRow) ([]*domain.Payment, error) {
	ids := make([]string, len(headers))
	for i, h := range headers {
		ids[i] = h.id
	}

	query := `
		SELECT payment_id, seq, previous_status, new_status, occurred_at, note
		FROM payment_transactions
		WHERE payment_id = ANY($1)
		ORDER BY payment_id, seq
	`
	rows, err := q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load payment transactions: %w", err)
	}
	defer rows.Close()

	transactions := make(map[string][]domain.PaymentTransaction, len(ids))
	for rows.Next() {
		var paymentID string
		var rec domain.PaymentTransaction
		if err := rows.Scan(&paymentID, &rec.Seq, &rec.PreviousStatus, &rec.NewStatus, &rec.OccurredAt, &rec.Note); err != nil {
			return nil, fmt.Errorf("failed to scan payment transaction: %w", err)
		}
		transactions[paymentID] = append(transactions[paymentID], rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment transactions: %w", err)
	}

	payments := make([]*domain.Payment, len(headers))
	for i, h := range headers {
		payments[i] = domain.RestorePayment(h.id, h.orderID, h.amount, h.status, h.createdAt, h.updatedAt, transactions[h.id])
	}
	return payments, nil
}

func insertTransactions(ctx context.Context, q database.Querier, payment *domain.Payment) error {
	query := `
		INSERT INTO payment_transactions (payment_id, seq, previous_status, new_status, occurred_at, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (payment_id, seq) DO NOTHING
	`
	for _, rec := range payment.Transactions() {
		if _, err := q.ExecContext(ctx, query, payment.ID, rec.Seq, rec.PreviousStatus, rec.NewStatus, rec.OccurredAt, rec.Note); err != nil {
			return fmt.Errorf("failed to append transaction %d of payment %s: %w", rec.Seq, payment.ID, err)
		}
	}
	return nil
}
