package loan

import (
	"fmt"
	"time"

	"loan-recovery/internal/domain/agent"
	"loan-recovery/internal/domain/customer"
	"loan-recovery/internal/pkg/apperrors"
)

const (
	MinTermMonths   = 1
	MaxTermMonths   = 360
	MaxInterestRate = 100.0
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusActive    Status = "active"
	StatusClosed    Status = "closed"
	StatusDefaulted Status = "defaulted"
)

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether the status locks the loan against any further
// status change.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusRejected
}

type RecoveryStatus string

const (
	RecoveryPending    RecoveryStatus = "pending"
	RecoveryAssigned   RecoveryStatus = "assigned"
	RecoveryInProgress RecoveryStatus = "in_progress"
	RecoveryContacted  RecoveryStatus = "contacted"
	RecoveryNegotiated RecoveryStatus = "negotiated"
	RecoveryRecovered  RecoveryStatus = "recovered"
	RecoveryFailed     RecoveryStatus = "failed"
)

func (r RecoveryStatus) Valid() bool {
	switch r {
	case RecoveryPending, RecoveryAssigned, RecoveryInProgress, RecoveryContacted,
		RecoveryNegotiated, RecoveryRecovered, RecoveryFailed:
		return true
	}
	return false
}

// transitions enumerates every permitted status change. Same-value writes are
// accepted as no-ops and are not listed. A defaulted loan may resume (active)
// once recovered or be closed out.
var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusActive, StatusClosed, StatusDefaulted},
	StatusActive:    {StatusClosed, StatusDefaulted},
	StatusDefaulted: {StatusActive, StatusClosed},
	StatusClosed:    {},
	StatusRejected:  {},
}

type Loan struct {
	ID             int64
	CustomerID     int64
	AgentID        *int64
	Amount         float64
	InterestRate   float64
	TermMonths     int
	Status         Status
	RecoveryStatus *RecoveryStatus
	StartDate      *time.Time
	EndDate        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Customer *customer.Customer
	Agent    *agent.Agent
}

// NewLoan builds a pending loan application after validating the terms.
func NewLoan(customerID int64, amount, interestRate float64, termMonths int) (*Loan, error) {
	if amount <= 0 {
		return nil, apperrors.NewValidationError("amount", "loan amount must be greater than 0")
	}
	if interestRate < 0 || interestRate > MaxInterestRate {
		return nil, apperrors.NewValidationError("interestRate", "interest rate must be between 0 and 100")
	}
	if termMonths < MinTermMonths || termMonths > MaxTermMonths {
		return nil, apperrors.NewValidationError("termMonths", "loan term must be between 1 and 360 months")
	}

	return &Loan{
		CustomerID:   customerID,
		Amount:       amount,
		InterestRate: interestRate,
		TermMonths:   termMonths,
		Status:       StatusPending,
	}, nil
}

// CanTransition reports whether the loan may move to the given status.
// Writing the current status back is always permitted and treated as a no-op
// by ApplyStatus.
func (l *Loan) CanTransition(to Status) bool {
	if to == l.Status {
		return true
	}
	for _, allowed := range transitions[l.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ApplyStatus validates the transition against the table and applies its
// side effects: approval stamps the start date and derives the end date by
// calendar-month arithmetic, defaulting resets the recovery status to
// pending.
func (l *Loan) ApplyStatus(to Status, now time.Time) error {
	if !to.Valid() {
		return apperrors.NewValidationError("status", fmt.Sprintf("invalid status '%s'", to))
	}
	if to == l.Status {
		return nil
	}
	if l.Status.Terminal() {
		return fmt.Errorf("%w: cannot modify a %s loan", apperrors.ErrValidation, l.Status)
	}
	if !l.CanTransition(to) {
		return fmt.Errorf("%w: cannot transition loan from %s to %s", apperrors.ErrValidation, l.Status, to)
	}

	l.Status = to
	switch to {
	case StatusApproved:
		start := now
		end := start.AddDate(0, l.TermMonths, 0)
		l.StartDate = &start
		l.EndDate = &end
	case StatusDefaulted:
		rs := RecoveryPending
		l.RecoveryStatus = &rs
	}
	return nil
}
