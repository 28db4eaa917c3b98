package memory

import (
	"context"
	"fmt"
	"time"

	"ordersystem/internal/domain"
	"ordersystem/internal/repository/inbox_repo"
)

type CustomerRepository struct{ s *Store }

func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	defer r.s.lock(ctx)()

	if _, taken := r.s.customerEmails[customer.Email]; taken {
		return domain.NewBusinessRuleError(domain.RuleDuplicateEmail,
			fmt.Sprintf("email %s is already registered", customer.Email))
	}
	if _, exists := r.s.customers[customer.ID]; exists {
		return fmt.Errorf("customer %s already exists", customer.ID)
	}
	r.s.customers[customer.ID] = cloneCustomer(customer)
	r.s.customerEmails[customer.Email] = customer.ID
	return nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	defer r.s.lock(ctx)()

	c, ok := r.s.customers[id]
	if !ok {
		return nil, domain.NewNotFoundError(domain.EntityCustomer, id)
	}
	return cloneCustomer(c), nil
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	defer r.s.lock(ctx)()

	id, ok := r.s.customerEmails[email]
	if !ok {
		return nil, domain.NewNotFoundError(domain.EntityCustomer, email)
	}
	return cloneCustomer(r.s.customers[id]), nil
}

type OrderRepository struct{ s *Store }

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	defer r.s.lock(ctx)()

	if _, exists := r.s.orders[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	r.s.orders[order.ID] = cloneOrder(order)
	r.s.orderSeq = append(r.s.orderSeq, order.ID)
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	defer r.s.lock(ctx)()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.NewNotFoundError(domain.EntityOrder, id)
	}
	return cloneOrder(o), nil
}

// GetByIDForUpdate needs no row lock: units of work are already serialized.
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *OrderRepository) ListByCustomerID(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return r.filter(ctx, func(o *domain.Order) bool { return o.CustomerID == customerID }), nil
}

func (r *OrderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	return r.filter(ctx, func(o *domain.Order) bool { return o.Status() == status }), nil
}

func (r *OrderRepository) filter(ctx context.Context, keep func(*domain.Order) bool) []*domain.Order {
	defer r.s.lock(ctx)()

	orders := []*domain.Order{}
	for _, id := range r.s.orderSeq {
		if o := r.s.orders[id]; keep(o) {
			orders = append(orders, cloneOrder(o))
		}
	}
	return orders
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	defer r.s.lock(ctx)()

	stored, ok := r.s.orders[order.ID]
	if !ok {
		return domain.NewNotFoundError(domain.EntityOrder, order.ID)
	}
	if len(order.History()) < len(stored.History()) {
		return fmt.Errorf("order %s history would shrink from %d to %d records", order.ID, len(stored.History()), len(order.History()))
	}
	r.s.orders[order.ID] = cloneOrder(order)
	return nil
}

type PaymentRepository struct{ s *Store }

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	defer r.s.lock(ctx)()

	if _, exists := r.s.payments[payment.ID]; exists {
		return fmt.Errorf("payment %s already exists", payment.ID)
	}
	if _, ok := r.s.orders[payment.OrderID]; !ok {
		return domain.NewNotFoundError(domain.EntityOrder, payment.OrderID)
	}
	r.s.payments[payment.ID] = clonePayment(payment)
	r.s.paymentSeq = append(r.s.paymentSeq, payment.ID)
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.payments[id]
	if !ok {
		return nil, domain.NewNotFoundError(domain.EntityPayment, id)
	}
	return clonePayment(p), nil
}

func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r *PaymentRepository) ListByOrderID(ctx context.Context, orderID string) ([]*domain.Payment, error) {
	defer r.s.lock(ctx)()

	payments := []*domain.Payment{}
	for _, id := range r.s.paymentSeq {
		if p := r.s.payments[id]; p.OrderID == orderID {
			payments = append(payments, clonePayment(p))
		}
	}
	return payments, nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	defer r.s.lock(ctx)()

	stored, ok := r.s.payments[payment.ID]
	if !ok {
		return domain.NewNotFoundError(domain.EntityPayment, payment.ID)
	}
	if len(payment.Transactions()) < len(stored.Transactions()) {
		return fmt.Errorf("payment %s transactions would shrink from %d to %d records", payment.ID, len(stored.Transactions()), len(payment.Transactions()))
	}
	r.s.payments[payment.ID] = clonePayment(payment)
	return nil
}

type OutboxRepository struct{ s *Store }

func (r *OutboxRepository) CreateMessage(ctx context.Context, msg *domain.OutboxMessage) error {
	defer r.s.lock(ctx)()

	r.s.outbox = append(r.s.outbox, *msg)
	return nil
}

func (r *OutboxRepository) GetPendingMessages(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	defer r.s.lock(ctx)()

	var messages []domain.OutboxMessage
	for _, msg := range r.s.outbox {
		if len(messages) >= limit {
			break
		}
		if msg.Status == domain.OutboxStatusPending {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

func (r *OutboxRepository) MarkMessagesAsSent(ctx context.Context, ids []string) error {
	defer r.s.lock(ctx)()

	now := time.Now().UTC()
	pending := make(map[string]bool, len(ids))
	for _, id := range ids {
		pending[id] = true
	}
	marked := 0
	for i := range r.s.outbox {
		if pending[r.s.outbox[i].ID] {
			r.s.outbox[i].Status = domain.OutboxStatusSent
			r.s.outbox[i].SentAt = &now
			marked++
		}
	}
	if marked != len(ids) {
		return fmt.Errorf("not all outbox messages were marked as sent; expected %d, got %d", len(ids), marked)
	}
	return nil
}

func (r *OutboxRepository) RecordFailure(ctx context.Context, id string, reason string, maxAttempts int) error {
	defer r.s.lock(ctx)()

	for i := range r.s.outbox {
		msg := &r.s.outbox[i]
		if msg.ID != id {
			continue
		}
		msg.Attempts++
		msg.LastError = reason
		if msg.Attempts >= maxAttempts {
			msg.Status = domain.OutboxStatusFailed
		}
		return nil
	}
	return fmt.Errorf("outbox message %s not found", id)
}

// Messages returns every outbox message regardless of status.
func (r *OutboxRepository) Messages(ctx context.Context) []domain.OutboxMessage {
	defer r.s.lock(ctx)()

	out := make([]domain.OutboxMessage, len(r.s.outbox))
	copy(out, r.s.outbox)
	return out
}

type InboxRepository struct{ s *Store }

func (r *InboxRepository) CreateMessage(ctx context.Context, msg *domain.InboxMessage) error {
	defer r.s.lock(ctx)()

	if _, seen := r.s.inbox[msg.ID]; seen {
		return inbox_repo.ErrMessageAlreadyProcessed
	}
	r.s.inbox[msg.ID] = *msg
	return nil
}

func (r *InboxRepository) UpdateStatus(ctx context.Context, id string, status domain.InboxMessageStatus, reason string) error {
	defer r.s.lock(ctx)()

	msg, ok := r.s.inbox[id]
	if !ok {
		return fmt.Errorf("inbox message with id %s not found for status update", id)
	}
	now := time.Now().UTC()
	msg.Status = status
	msg.Error = reason
	msg.ProcessedAt = &now
	r.s.inbox[id] = msg
	return nil
}

func (r *InboxRepository) Get(ctx context.Context, id string) (domain.InboxMessage, bool) {
	defer r.s.lock(ctx)()

	msg, ok := r.s.inbox[id]
	return msg, ok
}
