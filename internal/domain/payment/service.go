package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loan-recovery/internal/domain/loan"
	"loan-recovery/internal/domain/user"
	"loan-recovery/internal/infrastructure/monitoring"
	"loan-recovery/internal/pkg/apperrors"
)

type Service interface {
	// CreatePayment records a completed payment against an approved loan
	// with an outstanding balance.
	CreatePayment(ctx context.Context, p user.Principal, loanID int64, amount float64) (*Payment, error)

	ListPayments(ctx context.Context, p user.Principal) ([]*Payment, error)

	ListPaymentsByLoan(ctx context.Context, p user.Principal, loanID int64) ([]*Payment, error)
}

type paymentService struct {
	repo     Repository
	loanRepo loan.Repository
	logger   *slog.Logger
	now      func() time.Time
}

var _ Service = (*paymentService)(nil)

func NewService(repo Repository, loanRepo loan.Repository, logger *slog.Logger) Service {
	if repo == nil || loanRepo == nil {
		panic("payment service dependencies cannot be nil")
	}
	return &paymentService{
		repo:     repo,
		loanRepo: loanRepo,
		logger:   logger.With(slog.String("component", "paymentService")),
		now:      time.Now,
	}
}

func (s *paymentService) CreatePayment(ctx context.Context, p user.Principal, loanID int64, amount float64) (pm *Payment, err error) {
	s.logger.InfoContext(ctx, "Recording payment", "loanID", loanID, "amount", amount)

	defer func() {
		status := "success"
		switch {
		case err == nil:
		case apperrors.Kind(err) == "VALIDATION":
			status = "failure_validation"
		case apperrors.Kind(err) == "NOT_FOUND":
			status = "failure_not_found"
		default:
			status = "failure_internal"
		}
		monitoring.RecordPayment(status)
	}()

	if amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be greater than 0", apperrors.ErrInvalidPaymentAmount)
	}

	l, err := s.loanRepo.GetLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if p.IsCustomer() && l.CustomerID != p.UserID {
		return nil, fmt.Errorf("%w: you can only pay your own loans", apperrors.ErrForbidden)
	}
	if l.Status != loan.StatusApproved {
		return nil, fmt.Errorf("%w: payments are only accepted against approved loans", apperrors.ErrValidation)
	}

	paid, err := s.repo.SumCompletedPayments(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to compute balance for loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}
	if loan.OutstandingBalance(l.TotalPayable(), paid) <= 0 {
		return nil, fmt.Errorf("%w (loanID: %d)", apperrors.ErrLoanFullyPaid, loanID)
	}

	created, err := s.repo.CreatePayment(ctx, &Payment{
		LoanID:      loanID,
		Amount:      amount,
		PaymentDate: s.now(),
		Status:      StatusCompleted,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist payment", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to save payment: %v", apperrors.ErrInternalServer, err)
	}

	s.logger.InfoContext(ctx, "Payment recorded", "paymentID", created.ID, "loanID", loanID, "actor", p.UserID)
	return created, nil
}

func (s *paymentService) ListPayments(ctx context.Context, p user.Principal) ([]*Payment, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can list all payments", apperrors.ErrForbidden)
	}
	return s.repo.ListPayments(ctx)
}

func (s *paymentService) ListPaymentsByLoan(ctx context.Context, p user.Principal, loanID int64) ([]*Payment, error) {
	l, err := s.loanRepo.GetLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if p.IsCustomer() && l.CustomerID != p.UserID {
		return nil, fmt.Errorf("%w: you can only view payments on your own loans", apperrors.ErrForbidden)
	}
	if p.IsAgent() && (l.AgentID == nil || *l.AgentID != p.UserID) {
		return nil, fmt.Errorf("%w: you can only view payments on loans assigned to you", apperrors.ErrForbidden)
	}
	return s.repo.ListPaymentsByLoan(ctx, loanID)
}
