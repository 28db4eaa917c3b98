// Package memory keeps every aggregate in process memory. It implements all
// repositories and the unit of work; units of work are fully serialized and
// rolled back from a snapshot on error.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"ordersystem/internal/domain"
)

type txKey struct{}

type Store struct {
	mu sync.Mutex

	customers      map[string]*domain.Customer
	customerEmails map[string]string
	orders         map[string]*domain.Order
	orderSeq       []string
	payments       map[string]*domain.Payment
	paymentSeq     []string
	outbox         []domain.OutboxMessage
	inbox          map[string]domain.InboxMessage
}

func NewStore() *Store {
	return &Store{
		customers:      make(map[string]*domain.Customer),
		customerEmails: make(map[string]string),
		orders:         make(map[string]*domain.Order),
		payments:       make(map[string]*domain.Payment),
		inbox:          make(map[string]domain.InboxMessage),
	}
}

type snapshot struct {
	customers      map[string]*domain.Customer
	customerEmails map[string]string
	orders         map[string]*domain.Order
	orderSeq       []string
	payments       map[string]*domain.Payment
	paymentSeq     []string
	outbox         []domain.OutboxMessage
	inbox          map[string]domain.InboxMessage
}

// Stored values are never mutated in place, so shallow copies are enough.
func (s *Store) snapshot() snapshot {
	return snapshot{
		customers:      maps.Clone(s.customers),
		customerEmails: maps.Clone(s.customerEmails),
		orders:         maps.Clone(s.orders),
		orderSeq:       slices.Clone(s.orderSeq),
		payments:       maps.Clone(s.payments),
		paymentSeq:     slices.Clone(s.paymentSeq),
		outbox:         slices.Clone(s.outbox),
		inbox:          maps.Clone(s.inbox),
	}
}

func (s *Store) restore(snap snapshot) {
	s.customers = snap.customers
	s.customerEmails = snap.customerEmails
	s.orders = snap.orders
	s.orderSeq = snap.orderSeq
	s.payments = snap.payments
	s.paymentSeq = snap.paymentSeq
	s.outbox = snap.outbox
	s.inbox = snap.inbox
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	committed := false
	defer func() {
		if !committed {
			s.restore(snap)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// lock serializes access made outside a unit of work.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Customers() *CustomerRepository { return &CustomerRepository{s: s} }
func (s *Store) Orders() *OrderRepository       { return &OrderRepository{s: s} }
func (s *Store) Payments() *PaymentRepository   { return &PaymentRepository{s: s} }
func (s *Store) Outbox() *OutboxRepository      { return &OutboxRepository{s: s} }
func (s *Store) Inbox() *InboxRepository        { return &InboxRepository{s: s} }

func cloneOrder(o *domain.Order) *domain.Order {
	return domain.RestoreOrder(o.ID, o.CustomerID, o.Status(), o.CreatedAt, o.UpdatedAt, o.Items(), o.History())
}

func clonePayment(p *domain.Payment) *domain.Payment {
	return domain.RestorePayment(p.ID, p.OrderID, p.Amount, p.Status(), p.CreatedAt, p.UpdatedAt, p.Transactions())
}

func cloneCustomer(c *domain.Customer) *domain.Customer {
	cp := *c
	return &cp
}
