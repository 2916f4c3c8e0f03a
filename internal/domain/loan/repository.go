package loan

import (
	"context"
	"time"
)

type Repository interface {
	CreateLoan(ctx context.Context, l *Loan) (*Loan, error)

	// GetLoanByID loads the loan with its customer and, when assigned, agent.
	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)

	ListLoans(ctx context.Context) ([]*Loan, error)

	ListLoansByCustomer(ctx context.Context, customerID int64) ([]*Loan, error)

	ListLoansByAgent(ctx context.Context, agentID int64) ([]*Loan, error)

	// UpdateLoan persists the mutable fields: status, recovery status,
	// agent binding and derived dates.
	UpdateLoan(ctx context.Context, l *Loan) (*Loan, error)

	DeleteLoan(ctx context.Context, loanID int64) error

	// ListOverdueApprovedIDs returns approved loans whose end date has
	// passed as of the given time. Used by the overdue sweep job.
	ListOverdueApprovedIDs(ctx context.Context, asOf time.Time) ([]int64, error)
}

// PaymentLedger is the slice of the payment store the loan service needs to
// compute balances. The postgres payment repository satisfies it.
type PaymentLedger interface {
	SumCompletedPayments(ctx context.Context, loanID int64) (float64, error)
}
