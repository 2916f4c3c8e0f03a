package customer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"loan-recovery/internal/pkg/apperrors"
)

type Service interface {
	CreateCustomer(ctx context.Context, name, email, phone, address string) (*Customer, error)

	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)

	ListCustomers(ctx context.Context) ([]*Customer, error)
}

var _ Service = (*customerService)(nil)

type customerService struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) Service {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	return &customerService{
		repo:   repo,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func (s *customerService) CreateCustomer(ctx context.Context, name, email, phone, address string) (*Customer, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)

	if name == "" {
		return nil, apperrors.NewValidationError("name", "name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("email", "a valid email is required")
	}
	if phone == "" {
		return nil, apperrors.NewValidationError("phone", "phone is required")
	}

	created, err := s.repo.CreateCustomer(ctx, &Customer{
		Name:    name,
		Email:   email,
		Phone:   phone,
		Address: strings.TrimSpace(address),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.InfoContext(ctx, "Customer created", "customerID", created.ID)
	return created, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	cust, err := s.repo.GetCustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return cust, nil
}

func (s *customerService) ListCustomers(ctx context.Context) ([]*Customer, error) {
	return s.repo.ListCustomers(ctx)
}
