package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loan-recovery/internal/domain/agent"
	"loan-recovery/internal/domain/customer"
	"loan-recovery/internal/domain/user"
	"loan-recovery/internal/infrastructure/monitoring"
	"loan-recovery/internal/notification"
	"loan-recovery/internal/pkg/apperrors"
)

type Money = float64

type Service interface {
	CreateLoan(ctx context.Context, p user.Principal, customerID int64, amount, interestRate Money, termMonths int) (*Loan, error)

	GetLoan(ctx context.Context, p user.Principal, loanID int64) (*Loan, error)

	ListLoans(ctx context.Context, p user.Principal) ([]*Loan, error)

	ListLoansByCustomer(ctx context.Context, p user.Principal, customerID int64) ([]*Loan, *customer.Customer, error)

	ListLoansByAgent(ctx context.Context, p user.Principal, agentID int64) ([]*Loan, *agent.Agent, error)

	UpdateStatus(ctx context.Context, p user.Principal, loanID int64, newStatus Status) (*Loan, error)

	UpdateRecoveryStatus(ctx context.Context, p user.Principal, loanID int64, newStatus RecoveryStatus) (*Loan, error)

	AssignAgent(ctx context.Context, p user.Principal, loanID, agentID int64) (*Loan, error)

	DeleteLoan(ctx context.Context, p user.Principal, loanID int64) error

	GetOutstanding(ctx context.Context, p user.Principal, loanID int64) (Money, error)

	GetInstallmentPlan(ctx context.Context, p user.Principal, loanID int64) (*Loan, []ScheduleEntry, error)
}

type loanService struct {
	repo         Repository
	customerRepo customer.Repository
	agentRepo    agent.Repository
	userRepo     user.Repository
	payments     PaymentLedger
	sink         notification.Sink
	logger       *slog.Logger
	now          func() time.Time
}

var _ Service = (*loanService)(nil)

func NewService(
	repo Repository,
	customerRepo customer.Repository,
	agentRepo agent.Repository,
	userRepo user.Repository,
	payments PaymentLedger,
	sink notification.Sink,
	logger *slog.Logger,
) Service {
	if repo == nil || customerRepo == nil || agentRepo == nil || userRepo == nil || payments == nil {
		panic("loan service dependencies cannot be nil")
	}
	return &loanService{
		repo:         repo,
		customerRepo: customerRepo,
		agentRepo:    agentRepo,
		userRepo:     userRepo,
		payments:     payments,
		sink:         sink,
		logger:       logger.With(slog.String("component", "loanService")),
		now:          time.Now,
	}
}

func (s *loanService) CreateLoan(ctx context.Context, p user.Principal, customerID int64, amount, interestRate Money, termMonths int) (*Loan, error) {
	s.logger.InfoContext(ctx, "Creating loan application", "customerID", customerID)

	if !p.IsCustomer() {
		return nil, fmt.Errorf("%w: only customers can apply for loans", apperrors.ErrForbidden)
	}
	if p.UserID != customerID {
		return nil, fmt.Errorf("%w: you can only apply for your own loans", apperrors.ErrForbidden)
	}

	if _, err := s.customerRepo.GetCustomerByID(ctx, customerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %d not found", apperrors.ErrNotFound, customerID)
		}
		return nil, fmt.Errorf("failed to verify customer: %w", err)
	}

	newLoan, err := NewLoan(customerID, amount, interestRate, termMonths)
	if err != nil {
		s.logger.WarnContext(ctx, "Loan application rejected by validation", slog.Any("error", err))
		return nil, err
	}

	created, err := s.repo.CreateLoan(ctx, newLoan)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist loan", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to save loan: %v", apperrors.ErrInternalServer, err)
	}

	monitoring.RecordLoanCreated()
	s.logger.InfoContext(ctx, "Loan application created", "loanID", created.ID, "customerID", customerID)
	return created, nil
}

func (s *loanService) GetLoan(ctx context.Context, p user.Principal, loanID int64) (*Loan, error) {
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(p, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *loanService) ListLoans(ctx context.Context, p user.Principal) ([]*Loan, error) {
	switch {
	case p.IsCustomer():
		return s.repo.ListLoansByCustomer(ctx, p.UserID)
	case p.IsAgent():
		return s.repo.ListLoansByAgent(ctx, p.UserID)
	default:
		return s.repo.ListLoans(ctx)
	}
}

func (s *loanService) ListLoansByCustomer(ctx context.Context, p user.Principal, customerID int64) ([]*Loan, *customer.Customer, error) {
	if p.IsCustomer() && p.UserID != customerID {
		return nil, nil, fmt.Errorf("%w: you can only view your own loans", apperrors.ErrForbidden)
	}

	cust, err := s.customerRepo.GetCustomerByID(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}

	loans, err := s.repo.ListLoansByCustomer(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}
	return loans, cust, nil
}

func (s *loanService) ListLoansByAgent(ctx context.Context, p user.Principal, agentID int64) ([]*Loan, *agent.Agent, error) {
	if p.IsAgent() && p.UserID != agentID {
		return nil, nil, fmt.Errorf("%w: you can only view your own assigned loans", apperrors.ErrForbidden)
	}

	ag, err := s.agentRepo.GetAgentByID(ctx, agentID)
	if err != nil {
		return nil, nil, err
	}

	loans, err := s.repo.ListLoansByAgent(ctx, agentID)
	if err != nil {
		return nil, nil, err
	}
	return loans, ag, nil
}

func (s *loanService) UpdateStatus(ctx context.Context, p user.Principal, loanID int64, newStatus Status) (*Loan, error) {
	s.logger.InfoContext(ctx, "Updating loan status", "loanID", loanID, "newStatus", newStatus)

	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("status", fmt.Sprintf("invalid status '%s'", newStatus))
	}

	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if p.IsCustomer() && l.CustomerID != p.UserID {
		return nil, fmt.Errorf("%w: you can only update your own loans", apperrors.ErrForbidden)
	}

	previous := l.Status
	if err := l.ApplyStatus(newStatus, s.now()); err != nil {
		s.logger.WarnContext(ctx, "Rejected loan status transition",
			"loanID", loanID, "from", previous, "to", newStatus, slog.Any("error", err))
		return nil, err
	}

	updated, err := s.repo.UpdateLoan(ctx, l)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist loan status", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to update loan: %v", apperrors.ErrInternalServer, err)
	}

	if previous != updated.Status {
		monitoring.RecordStatusTransition(string(previous), string(updated.Status))
	}
	s.logger.InfoContext(ctx, "Loan status updated",
		"loanID", loanID, "from", previous, "to", updated.Status, "actor", p.UserID)
	return updated, nil
}

func (s *loanService) UpdateRecoveryStatus(ctx context.Context, p user.Principal, loanID int64, newStatus RecoveryStatus) (*Loan, error) {
	s.logger.InfoContext(ctx, "Updating recovery status", "loanID", loanID, "newStatus", newStatus)

	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("recoveryStatus", fmt.Sprintf("invalid recovery status '%s'", newStatus))
	}

	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	switch {
	case p.IsAdmin():
		// unrestricted
	case p.IsAgent():
		if l.AgentID == nil || *l.AgentID != p.UserID {
			return nil, fmt.Errorf("%w: you can only update loans assigned to you", apperrors.ErrForbidden)
		}
	default:
		return nil, fmt.Errorf("%w: only admins and agents can update recovery status", apperrors.ErrForbidden)
	}

	l.RecoveryStatus = &newStatus
	updated, err := s.repo.UpdateLoan(ctx, l)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist recovery status", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to update loan: %v", apperrors.ErrInternalServer, err)
	}

	s.logger.InfoContext(ctx, "Recovery status updated",
		"loanID", loanID, "recoveryStatus", newStatus, "actor", p.UserID, "role", p.Role)
	return updated, nil
}

func (s *loanService) AssignAgent(ctx context.Context, p user.Principal, loanID, agentID int64) (*Loan, error) {
	s.logger.InfoContext(ctx, "Assigning agent to loan", "loanID", loanID, "agentID", agentID)

	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can assign agents to loans", apperrors.ErrForbidden)
	}

	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	ag, err := s.agentRepo.GetAgentByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: agent %d not found", apperrors.ErrNotFound, agentID)
		}
		return nil, err
	}

	if l.Status != StatusApproved && l.Status != StatusDefaulted {
		return nil, fmt.Errorf("%w: can only assign agents to approved or defaulted loans", apperrors.ErrValidation)
	}
	if l.AgentID != nil && *l.AgentID == agentID {
		return nil, fmt.Errorf("%w: this agent is already assigned to this loan", apperrors.ErrValidation)
	}

	l.AgentID = &agentID
	rs := RecoveryPending
	if l.Status == StatusDefaulted {
		rs = RecoveryAssigned
	}
	l.RecoveryStatus = &rs

	updated, err := s.repo.UpdateLoan(ctx, l)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist agent assignment", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to update loan: %v", apperrors.ErrInternalServer, err)
	}

	monitoring.RecordAgentAssignment()
	s.logger.InfoContext(ctx, "Agent assigned to loan", "loanID", loanID, "agentID", agentID, "admin", p.UserID)

	// Delivery is best effort. The assignment stands regardless of whether
	// the agent could be notified.
	s.notifyAssignedAgent(ctx, p, updated, ag)

	return updated, nil
}

func (s *loanService) notifyAssignedAgent(ctx context.Context, admin user.Principal, l *Loan, ag *agent.Agent) {
	if s.sink == nil {
		return
	}

	recipient, err := s.resolveAgentUser(ctx, ag)
	if err != nil {
		monitoring.RecordNotification("unroutable")
		s.logger.WarnContext(ctx, "No user found for assigned agent, skipping notification",
			"agentID", ag.ID, "agentEmail", ag.Email, slog.Any("error", err))
		return
	}

	customerName := "Unknown"
	customerEmail := ""
	if l.Customer != nil {
		customerName = l.Customer.Name
		customerEmail = l.Customer.Email
	}
	recoveryStatus := ""
	if l.RecoveryStatus != nil {
		recoveryStatus = string(*l.RecoveryStatus)
	}

	n := notification.Notification{
		UserID: recipient.ID,
		Kind:   notification.KindLoanAssignment,
		Message: fmt.Sprintf("You have been assigned to Loan #%d (%.2f) for customer %s. Please review and begin recovery process.",
			l.ID, l.Amount, customerName),
		Data: map[string]any{
			"loanId":         l.ID,
			"loanAmount":     l.Amount,
			"customerName":   customerName,
			"customerEmail":  customerEmail,
			"loanStatus":     string(l.Status),
			"recoveryStatus": recoveryStatus,
			"assignedBy":     admin.UserID,
			"assignedAt":     s.now().Format(time.RFC3339),
		},
	}

	if err := s.sink.Deliver(ctx, n); err != nil {
		monitoring.RecordNotification("failure")
		s.logger.ErrorContext(ctx, "Failed to deliver assignment notification",
			"loanID", l.ID, "agentID", ag.ID, slog.Any("error", err))
		return
	}
	monitoring.RecordNotification("success")
}

// resolveAgentUser prefers the explicit user link captured at agent creation
// and falls back to the agent-role email lookup for older rows.
func (s *loanService) resolveAgentUser(ctx context.Context, ag *agent.Agent) (*user.User, error) {
	if ag.UserID != nil {
		u, err := s.userRepo.GetUserByID(ctx, *ag.UserID)
		if err == nil {
			return u, nil
		}
		s.logger.Warn("Agent user link is stale, falling back to email lookup",
			"agentID", ag.ID, "userID", *ag.UserID, slog.Any("error", err))
	}
	return s.userRepo.FindAgentUserByEmail(ctx, ag.Email)
}

func (s *loanService) DeleteLoan(ctx context.Context, p user.Principal, loanID int64) error {
	s.logger.InfoContext(ctx, "Deleting loan", "loanID", loanID)

	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		return err
	}

	if l.Status != StatusRejected {
		return fmt.Errorf("%w: only rejected loans can be deleted", apperrors.ErrValidation)
	}
	if p.IsCustomer() && l.CustomerID != p.UserID {
		return fmt.Errorf("%w: you can only delete your own loans", apperrors.ErrForbidden)
	}
	if !p.Role.Valid() {
		return fmt.Errorf("%w: you do not have permission to delete loans", apperrors.ErrForbidden)
	}

	if err := s.repo.DeleteLoan(ctx, loanID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete loan", slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete loan: %v", apperrors.ErrInternalServer, err)
	}

	s.logger.InfoContext(ctx, "Loan deleted", "loanID", loanID, "actor", p.UserID, "role", p.Role)
	return nil
}

func (s *loanService) GetOutstanding(ctx context.Context, p user.Principal, loanID int64) (Money, error) {
	l, err := s.GetLoan(ctx, p, loanID)
	if err != nil {
		return 0, err
	}

	paid, err := s.payments.SumCompletedPayments(ctx, loanID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to sum payments", "loanID", loanID, slog.Any("error", err))
		return 0, fmt.Errorf("%w: failed to compute balance for loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}

	return OutstandingBalance(l.TotalPayable(), paid), nil
}

func (s *loanService) GetInstallmentPlan(ctx context.Context, p user.Principal, loanID int64) (*Loan, []ScheduleEntry, error) {
	l, err := s.GetLoan(ctx, p, loanID)
	if err != nil {
		return nil, nil, err
	}

	from := l.CreatedAt
	if l.StartDate != nil {
		from = *l.StartDate
	}
	plan, err := l.InstallmentPlan(from)
	if err != nil {
		return nil, nil, err
	}
	return l, plan, nil
}

func (s *loanService) authorizeView(p user.Principal, l *Loan) error {
	if p.IsCustomer() && l.CustomerID != p.UserID {
		return fmt.Errorf("%w: you can only view your own loans", apperrors.ErrForbidden)
	}
	if p.IsAgent() && (l.AgentID == nil || *l.AgentID != p.UserID) {
		return fmt.Errorf("%w: you can only view loans assigned to you", apperrors.ErrForbidden)
	}
	return nil
}
