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

const selectOrders = `SELECT id, customer_id, status, created_at, updated_at FROM orders`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type orderRow struct {
	id         string
	customerID string
	status     domain.OrderStatus
	createdAt  time.Time
	updatedAt  time.Time
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	q := database.QuerierFromContext(ctx, r.db)

	query := `
		INSERT INTO orders (id, customer_id, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.ExecContext(ctx, query,
		order.ID,
		order.CustomerID,
		order.TotalAmount(),
		order.Status(),
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order %s: %w", order.ID, err)
	}
	if err := insertItems(ctx, q, order); err != nil {
		return err
	}
	return insertHistory(ctx, q, order)
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOne(ctx, selectOrders+` WHERE id = $1`, id)
}

func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOne(ctx, selectOrders+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepository) ListByCustomerID(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return r.list(ctx, selectOrders+` WHERE customer_id = $1 ORDER BY created_at ASC, id ASC`, customerID)
}

func (r *OrderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	return r.list(ctx, selectOrders+` WHERE status = $1 ORDER BY created_at ASC, id ASC`, status)
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	q := database.QuerierFromContext(ctx, r.db)

	query := `UPDATE orders SET status = $2, total_amount = $3, updated_at = $4 WHERE id = $1`
	res, err := q.ExecContext(ctx, query, order.ID, order.Status(), order.TotalAmount(), order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", order.ID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result for order %s: %w", order.ID, err)
	}
	if rowsAffected == 0 {
		return domain.NewNotFoundError(domain.EntityOrder, order.ID)
	}
	if err := insertItems(ctx, q, order); err != nil {
		return err
	}
	return insertHistory(ctx, q, order)
}

func (r *OrderRepository) getOne(ctx context.Context, query string, id string) (*domain.Order, error) {
	q := database.QuerierFromContext(ctx, r.db)

	var row orderRow
	err := q.QueryRowContext(ctx, query, id).Scan(&row.id, &row.customerID, &row.status, &row.createdAt, &row.updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError(domain.EntityOrder, id)
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}

	orders, err := hydrate(ctx, q, []orderRow{row})
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

func (r *OrderRepository) list(ctx context.Context, query string, arg any) ([]*domain.Order, error) {
	q := database.QuerierFromContext(ctx, r.db)

	rows, err := q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var headers []orderRow
	for rows.Next() {
		var row orderRow
		if err := rows.Scan(&row.id, &row.customerID, &row.status, &row.createdAt, &row.updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		headers = append(headers, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	if len(headers) == 0 {
		return []*domain.Order{}, nil
	}
	return hydrate(ctx, q, headers)
}

// hydrate loads items and history for all headers in two queries.
func hydrate(ctx context.Context, q database.Querier, headers []orderRow) ([]*domain.Order, error) {
	ids := make([]string, len(headers))
	for i, h := range headers {
		ids[i] = h.id
	}

	items, err := loadItems(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	history, err := loadHistory(ctx, q, ids)
	if err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, len(headers))
	for i, h := range headers {
		orders[i] = domain.RestoreOrder(h.id, h.customerID, h.status, h.createdAt, h.updatedAt, items[h.id], history[h.id])
	}
	return orders, nil
}

func loadItems(ctx context.Context, q database.Querier, orderIDs []string) (map[string][]domain.OrderItem, error) {
	query := `
		SELECT order_id, product_name, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`
	rows, err := q.QueryContext(ctx, query, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items[orderID] = append(items[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}
	return items, nil
}

func loadHistory(ctx context.Context, q database.Querier, orderIDs []string) (map[string][]domain.OrderStateTransition, error) {
	query := `
		SELECT order_id, seq, previous_status, new_status, occurred_at, note
		FROM order_state_history
		WHERE order_id = ANY($1)
		ORDER BY order_id, seq
	`
	rows, err := q.QueryContext(ctx, query, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	defer rows.Close()

	history := make(map[string][]domain.OrderStateTransition, len(orderIDs))
	for rows.Next() {
		var orderID string
		var rec domain.OrderStateTransition
		if err := rows.Scan(&orderID, &rec.Seq, &rec.PreviousStatus, &rec.NewStatus, &rec.OccurredAt, &rec.Note); err != nil {
			return nil, fmt.Errorf("failed to scan order history: %w", err)
		}
		history[orderID] = append(history[orderID], rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order history: %w", err)
	}
	return history, nil
}

func insertItems(ctx context.Context, q database.Querier, order *domain.Order) error {
	query := `
		INSERT INTO order_items (order_id, position, product_name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id, position) DO NOTHING
	`
	for i, item := range order.Items() {
		if _, err := q.ExecContext(ctx, query, order.ID, i+1, item.ProductName, item.Quantity, item.UnitPrice); err != nil {
			return fmt.Errorf("failed to insert item %d of order %s: %w", i+1, order.ID, err)
		}
	}
	return nil
}

// insertHistory never rewrites stored records: existing seq numbers are skipped.
func insertHistory(ctx context.Context, q database.Querier, order *domain.Order) error {
	query := `
		INSERT INTO order_state_history (order_id, seq, previous_status, new_status, occurred_at, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id, seq) DO NOTHING
	`
	for _, rec := range order.History() {
		if _, err := q.ExecContext(ctx, query, order.ID, rec.Seq, rec.PreviousStatus, rec.NewStatus, rec.OccurredAt, rec.Note); err != nil {
			return fmt.Errorf("failed to append history %d of order %s: %w", rec.Seq, order.ID, err)
		}
	}
	return nil
}
