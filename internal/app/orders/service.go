package orders

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ordersystem/internal/domain"
	"ordersystem/internal/repository"
	"ordersystem/internal/repository/customers_repo"
	"ordersystem/internal/repository/order_repo"
	"ordersystem/internal/util"
)

type OrderService interface {
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error)
	GetOrder(ctx context.Context, orderID string) (*OrderResponse, error)
	GetOrdersByCustomerID(ctx context.Context, customerID string) ([]*OrderResponse, error)
	GetOrdersByStatus(ctx context.Context, status string) ([]*OrderResponse, error)
	ConfirmOrder(ctx context.Context, orderID string) (*OrderResponse, error)
	CancelOrder(ctx context.Context, orderID string) (*OrderResponse, error)
	ShipOrder(ctx context.Context, orderID string) (*OrderResponse, error)
}

// EventWriter records events inside the current unit of work.
type EventWriter interface {
	Enqueue(ctx context.Context, events ...domain.Event) error
}

type orderService struct {
	uow          repository.UnitOfWork
	orderRepo    order_repo.OrderRepository
	customerRepo customers_repo.CustomerRepository
	events       EventWriter
	logger       *zap.Logger
}

func NewOrderService(
	uow repository.UnitOfWork,
	orderRepo order_repo.OrderRepository,
	customerRepo customers_repo.CustomerRepository,
	events EventWriter,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		uow:          uow,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		events:       events,
		logger:       logger,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	items := make([]domain.OrderItem, 0, len(req.Items))
	for i, it := range req.Items {
		item, err := domain.NewOrderItem(it.ProductName, it.Quantity, it.UnitPrice)
		if err != nil {
			s.logger.Warn("Rejected order item", zap.Int("index", i), zap.Error(err))
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}
	order, err := domain.NewOrder(util.GenerateUUID(), req.CustomerID, items, util.Now())
	if err != nil {
		s.logger.Warn("Rejected order data", zap.Error(err))
		return nil, err
	}

	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.customerRepo.GetByID(ctx, order.CustomerID); err != nil {
			return err
		}
		return s.orderRepo.Create(ctx, order)
	})
	if err != nil {
		return nil, s.writeError("create", order.ID, err)
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("customer_id", order.CustomerID),
		zap.Stringer("total_amount", order.TotalAmount()))
	return MapOrderToResponse(order), nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debug("Order not found", zap.String("order_id", orderID))
			return nil, err
		}
		s.logger.Error("Failed to get order from repository", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return MapOrderToResponse(order), nil
}

func (s *orderService) GetOrdersByCustomerID(ctx context.Context, customerID string) ([]*OrderResponse, error) {
	if _, err := s.customerRepo.GetByID(ctx, customerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	orders, err := s.orderRepo.ListByCustomerID(ctx, customerID)
	if err != nil {
		s.logger.Error("Failed to get orders for customer from repository", zap.String("customer_id", customerID), zap.Error(err))
		return nil, fmt.Errorf("failed to get orders for customer: %w", err)
	}
	return MapOrdersToResponse(orders), nil
}

func (s *orderService) GetOrdersByStatus(ctx context.Context, status string) ([]*OrderResponse, error) {
	parsed, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.ListByStatus(ctx, parsed)
	if err != nil {
		s.logger.Error("Failed to get orders by status from repository", zap.String("status", status), zap.Error(err))
		return nil, fmt.Errorf("failed to get orders by status: %w", err)
	}
	return MapOrdersToResponse(orders), nil
}

func (s *orderService) ConfirmOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	return s.transition(ctx, orderID, domain.OrderActionConfirm)
}

func (s *orderService) CancelOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	return s.transition(ctx, orderID, domain.OrderActionCancel)
}

func (s *orderService) ShipOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	return s.transition(ctx, orderID, domain.OrderActionShip)
}

// transition applies a caller-driven action under a row lock. Marking as paid
// is not reachable from here; only payment reconciliation does that.
func (s *orderService) transition(ctx context.Context, orderID string, action domain.OrderAction) (*OrderResponse, error) {
	var (
		order   *domain.Order
		changed bool
	)
	err := s.uow.RunInTx(ctx, func(ctx context.Context) error {
		o, err := s.orderRepo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		events, err := applyOrderAction(o, action)
		if err != nil {
			return err
		}
		order = o
		if len(events) == 0 {
			return nil
		}
		changed = true
		if err := s.orderRepo.Update(ctx, o); err != nil {
			return err
		}
		return s.events.Enqueue(ctx, events...)
	})
	if err != nil {
		return nil, s.writeError(string(action), orderID, err)
	}

	if changed {
		s.logger.Info("Order status changed",
			zap.String("order_id", order.ID),
			zap.String("action", string(action)),
			zap.String("status", string(order.Status())))
	} else {
		s.logger.Info("Order already in target status, nothing to do",
			zap.String("order_id", order.ID),
			zap.String("action", string(action)),
			zap.String("status", string(order.Status())))
	}
	return MapOrderToResponse(order), nil
}

func applyOrderAction(o *domain.Order, action domain.OrderAction) ([]domain.Event, error) {
	now := util.Now()
	switch action {
	case domain.OrderActionConfirm:
		return o.Confirm(now)
	case domain.OrderActionCancel:
		return o.Cancel(now)
	case domain.OrderActionShip:
		return o.MarkAsShipped(now)
	default:
		return nil, fmt.Errorf("order action %q is not available to callers", action)
	}
}

func (s *orderService) writeError(op, orderID string, err error) error {
	if domain.IsDomainError(err) {
		s.logger.Warn("Order operation rejected",
			zap.String("operation", op),
			zap.String("order_id", orderID),
			zap.Error(err))
		return err
	}
	s.logger.Error("Order operation failed",
		zap.String("operation", op),
		zap.String("order_id", orderID),
		zap.Error(err))
	return fmt.Errorf("failed to %s order: %w", op, err)
}

func MapOrderToResponse(order *domain.Order) *OrderResponse {
	items := order.Items()
	itemResponses := make([]OrderItemResponse, len(items))
	for i, item := range items {
		itemResponses[i] = OrderItemResponse{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal(),
		}
	}
	history := order.History()
	if history == nil {
		history = []domain.OrderStateTransition{}
	}
	return &OrderResponse{
		ID:          order.ID,
		CustomerID:  order.CustomerID,
		Status:      string(order.Status()),
		TotalAmount: order.TotalAmount(),
		Items:       itemResponses,
		History:     history,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
}

func MapOrdersToResponse(orders []*domain.Order) []*OrderResponse {
	responses := make([]*OrderResponse, len(orders))
	for i, order := range orders {
		responses[i] = MapOrderToResponse(order)
	}
	return responses
}
