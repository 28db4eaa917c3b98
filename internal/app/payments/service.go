package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ordersystem/internal/app/orders"
	"ordersystem/internal/domain"
	"ordersystem/internal/repository"
	"ordersystem/internal/repository/inbox_repo"
	"ordersystem/internal/repository/order_repo"
	"ordersystem/internal/repository/payments_repo"
	"ordersystem/internal/util"
)

const gatewaySource = "payment_gateway"

type PaymentService interface {
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*PaymentResponse, error)
	GetPayment(ctx context.Context, paymentID string) (*PaymentResponse, error)
	GetPaymentsByOrderID(ctx context.Context, orderID string) ([]*PaymentResponse, error)
	ApprovePayment(ctx context.Context, paymentID string) (*PaymentResponse, error)
	RejectPayment(ctx context.Context, paymentID string) (*PaymentResponse, error)
	FailPayment(ctx context.Context, paymentID string) (*PaymentResponse, error)
	GetOrderPaymentSummary(ctx context.Context, orderID string) (*OrderPaymentSummaryResponse, error)
	ProcessGatewayResult(ctx context.Context, result *GatewayResult, rawPayload []byte) error
}

type EventWriter interface {
	Enqueue(ctx context.Context, events ...domain.Event) error
}

type paymentService struct {
	uow         repository.UnitOfWork
	orderRepo   order_repo.OrderRepository
	paymentRepo payments_repo.PaymentRepository
	inboxRepo   inbox_repo.InboxRepository
	events      EventWriter
	reconciler  domain.Reconciler
	logger      *zap.Logger
}

func NewPaymentService(
	uow repository.UnitOfWork,
	orderRepo order_repo.OrderRepository,
	paymentRepo payments_repo.PaymentRepository,
	inboxRepo inbox_repo.InboxRepository,
	events EventWriter,
	reconciler domain.Reconciler,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		uow:         uow,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		inboxRepo:   inboxRepo,
		events:      events,
		reconciler:  reconciler,
		logger:      logger,
	}
}

func (s *paymentService) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*PaymentResponse, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return nil, domain.NewValidationError("order_id", "order id is required")
	}
	if !req.Amount.IsChargeable() {
		return nil, domain.NewValidationError("amount", "amount must be at least 0.01 with at most 2 decimal places")
	}

	var payment *domain.Payment
	err := s.uow.RunInTx(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.GetByIDForUpdate(ctx, req.OrderID)
		if err != nil {
			return err
		}
		existing, err := s.paymentRepo.ListByOrderID(ctx, order.ID)
		if err != nil {
			return err
		}
		if err := s.reconciler.CheckNewPayment(order, existing, req.Amount); err != nil {
			return err
		}
		p, err := domain.NewPayment(util.GenerateUUID(), order.ID, req.Amount, util.Now())
		if err != nil {
			return err
		}
		if err := s.paymentRepo.Create(ctx, p); err != nil {
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, s.writeError("create", zap.String("order_id", req.OrderID), err)
	}

	s.logger.Info("Payment created",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", payment.OrderID),
		zap.Stringer("amount", payment.Amount))
	return mapPaymentToResponse(payment), nil
}

func (s *paymentService) GetPayment(ctx context.Context, paymentID string) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, s.readError(err, zap.String("payment_id", paymentID))
	}
	return mapPaymentToResponse(payment), nil
}

func (s *paymentService) GetPaymentsByOrderID(ctx context.Context, orderID string) ([]*PaymentResponse, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return nil, s.readError(err, zap.String("order_id", orderID))
	}
	payments, err := s.paymentRepo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, s.readError(err, zap.String("order_id", orderID))
	}
	return mapPaymentsToResponse(payments), nil
}

func (s *paymentService) GetOrderPaymentSummary(ctx context.Context, orderID string) (*OrderPaymentSummaryResponse, error) {
	var (
		order    *domain.Order
		payments []*domain.Payment
	)
	err := s.uow.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if order, err = s.orderRepo.GetByID(ctx, orderID); err != nil {
			return err
		}
		payments, err = s.paymentRepo.ListByOrderID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, s.readError(err, zap.String("order_id", orderID))
	}

	return &OrderPaymentSummaryResponse{
		Order:          orders.MapOrderToResponse(order),
		Payments:       mapPaymentsToResponse(payments),
		TotalApproved:  domain.TotalApproved(payments),
		PendingBalance: domain.PendingBalance(order, payments),
	}, nil
}

func (s *paymentService) ApprovePayment(ctx context.Context, paymentID string) (*PaymentResponse, error) {
	return s.changeStatusInTx(ctx, paymentID, domain.PaymentActionApprove)
}

func (s *paymentService) RejectPayment(ctx context.Context, paymentID string) (*PaymentResponse, error) {
	return s.changeStatusInTx(ctx, paymentID, domain.PaymentActionReject)
}

func (s *paymentService) FailPayment(ctx context.Context, paymentID string) (*PaymentResponse, error) {
	return s.changeStatusInTx(ctx, paymentID, domain.PaymentActionFail)
}

// ProcessGatewayResult applies a provider outcome at most once per event id.
// Domain errors are returned after the rejection has been recorded.
func (s *paymentService) ProcessGatewayResult(ctx context.Context, result *GatewayResult, rawPayload []byte) error {
	if strings.TrimSpace(result.EventID) == "" {
		return domain.NewValidationError("event_id", "event id is required")
	}
	action, err := domain.ParsePaymentAction(result.Outcome)
	if err != nil {
		return err
	}

	inboxMsg := &domain.InboxMessage{
		ID:         result.EventID,
		Source:     gatewaySource,
		Payload:    rawPayload,
		Status:     domain.InboxStatusProcessing,
		ReceivedAt: util.Now(),
	}

	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.inboxRepo.CreateMessage(ctx, inboxMsg); err != nil {
			return err
		}
		if _, err := s.changeStatus(ctx, result.PaymentID, action); err != nil {
			return err
		}
		return s.inboxRepo.UpdateStatus(ctx, inboxMsg.ID, domain.InboxStatusProcessed, "")
	})
	switch {
	case err == nil:
		s.logger.Info("Gateway result applied",
			zap.String("event_id", result.EventID),
			zap.String("payment_id", result.PaymentID),
			zap.String("outcome", result.Outcome))
		return nil
	case errors.Is(err, inbox_repo.ErrMessageAlreadyProcessed):
		s.logger.Info("Gateway result already processed, skipping", zap.String("event_id", result.EventID))
		return nil
	case domain.IsDomainError(err):
		s.recordRejectedResult(ctx, inboxMsg, err)
		return err
	default:
		s.logger.Error("Failed to apply gateway result", zap.String("event_id", result.EventID), zap.Error(err))
		return fmt.Errorf("failed to apply gateway result %s: %w", result.EventID, err)
	}
}

func (s *paymentService) recordRejectedResult(ctx context.Context, msg *domain.InboxMessage, cause error) {
	s.logger.Warn("Gateway result rejected",
		zap.String("event_id", msg.ID),
		zap.Error(cause))

	rejected := *msg
	rejected.Status = domain.InboxStatusRejected
	rejected.Error = cause.Error()
	if err := s.inboxRepo.CreateMessage(ctx, &rejected); err != nil && !errors.Is(err, inbox_repo.ErrMessageAlreadyProcessed) {
		s.logger.Error("Failed to record rejected gateway result", zap.String("event_id", msg.ID), zap.Error(err))
	}
}

func (s *paymentService) changeStatusInTx(ctx context.Context, paymentID string, action domain.PaymentAction) (*PaymentResponse, error) {
	var payment *domain.Payment
	err := s.uow.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.changeStatus(ctx, paymentID, action)
		return err
	})
	if err != nil {
		return nil, s.writeError(string(action), zap.String("payment_id", paymentID), err)
	}
	return mapPaymentToResponse(payment), nil
}

// changeStatus must run inside a unit of work. Approval locks the owning order
// before the payment so that concurrent approvals on one order serialize and
// reconciliation sees every payment approved before it.
func (s *paymentService) changeStatus(ctx context.Context, paymentID string, action domain.PaymentAction) (*domain.Payment, error) {
	var order *domain.Order
	if action == domain.PaymentActionApprove {
		current, err := s.paymentRepo.GetByID(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		if order, err = s.orderRepo.GetByIDForUpdate(ctx, current.OrderID); err != nil {
			return nil, err
		}
	}

	payment, err := s.paymentRepo.GetByIDForUpdate(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	now := util.Now()
	events, err := payment.Apply(action, now)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		s.logger.Info("Payment already in target status, nothing to do",
			zap.String("payment_id", payment.ID),
			zap.String("status", string(payment.Status())))
		return payment, nil
	}
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}

	if order != nil {
		orderEvents, err := s.reconcile(ctx, order, now)
		if err != nil {
			return nil, err
		}
		events = append(events, orderEvents...)
	}

	if err := s.events.Enqueue(ctx, events...); err != nil {
		return nil, err
	}
	s.logger.Info("Payment status changed",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", payment.OrderID),
		zap.String("status", string(payment.Status())))
	return payment, nil
}

func (s *paymentService) reconcile(ctx context.Context, order *domain.Order, now time.Time) ([]domain.Event, error) {
	payments, err := s.paymentRepo.ListByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	events, err := s.reconciler.Reconcile(order, payments, now)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	s.logger.Info("Order fully paid",
		zap.String("order_id", order.ID),
		zap.Stringer("total_approved", domain.TotalApproved(payments)))
	return events, nil
}

func (s *paymentService) readError(err error, field zap.Field) error {
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debug("Not found", field, zap.Error(err))
		return err
	}
	s.logger.Error("Failed to read payments", field, zap.Error(err))
	return fmt.Errorf("failed to read payments: %w", err)
}

func (s *paymentService) writeError(op string, field zap.Field, err error) error {
	if domain.IsDomainError(err) {
		s.logger.Warn("Payment operation rejected", zap.String("operation", op), field, zap.Error(err))
		return err
	}
	s.logger.Error("Payment operation failed", zap.String("operation", op), field, zap.Error(err))
	return fmt.Errorf("failed to %s payment: %w", op, err)
}

func mapPaymentToResponse(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:           p.ID,
		OrderID:      p.OrderID,
		Amount:       p.Amount,
		Status:       string(p.Status()),
		Transactions: p.Transactions(),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func mapPaymentsToResponse(payments []*domain.Payment) []*PaymentResponse {
	responses := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		responses[i] = mapPaymentToResponse(p)
	}
	return responses
}
