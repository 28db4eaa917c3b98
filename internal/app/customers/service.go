package customers

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ordersystem/internal/domain"
	"ordersystem/internal/repository"
	"ordersystem/internal/repository/customers_repo"
	"ordersystem/internal/util"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*CustomerResponse, error)
	GetCustomer(ctx context.Context, customerID string) (*CustomerResponse, error)
	GetCustomerByEmail(ctx context.Context, email string) (*CustomerResponse, error)
}

type customerService struct {
	uow          repository.UnitOfWork
	customerRepo customers_repo.CustomerRepository
	logger       *zap.Logger
}

func NewCustomerService(
	uow repository.UnitOfWork,
	customerRepo customers_repo.CustomerRepository,
	logger *zap.Logger,
) CustomerService {
	return &customerService{
		uow:          uow,
		customerRepo: customerRepo,
		logger:       logger,
	}
}

func (s *customerService) CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*CustomerResponse, error) {
	customer, err := domain.NewCustomer(util.GenerateUUID(), req.Name, req.Email, util.Now())
	if err != nil {
		s.logger.Warn("Rejected customer data", zap.Error(err))
		return nil, err
	}

	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.customerRepo.GetByEmail(ctx, customer.Email)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			return domain.NewBusinessRuleError(domain.RuleDuplicateEmail,
				fmt.Sprintf("email %s is already registered", customer.Email))
		}
		return s.customerRepo.Create(ctx, customer)
	})
	if err != nil {
		if domain.IsDomainError(err) {
			s.logger.Warn("Customer not created", zap.String("email", customer.Email), zap.Error(err))
			return nil, err
		}
		s.logger.Error("Failed to create customer", zap.String("email", customer.Email), zap.Error(err))
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.Info("Customer created", zap.String("customer_id", customer.ID))
	return mapCustomerToResponse(customer), nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID string) (*CustomerResponse, error) {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, s.readError(err, zap.String("customer_id", customerID))
	}
	return mapCustomerToResponse(customer), nil
}

func (s *customerService) GetCustomerByEmail(ctx context.Context, email string) (*CustomerResponse, error) {
	customer, err := s.customerRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, s.readError(err, zap.String("email", email))
	}
	return mapCustomerToResponse(customer), nil
}

func (s *customerService) readError(err error, field zap.Field) error {
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debug("Customer not found", field)
		return err
	}
	s.logger.Error("Failed to get customer from repository", field, zap.Error(err))
	return fmt.Errorf("failed to get customer: %w", err)
}

func mapCustomerToResponse(c *domain.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
	}
}
