package payment

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Payment is a recorded installment against a loan. Payments are immutable
// once created; balance tracking only counts completed ones.
type Payment struct {
	ID          int64
	LoanID      int64
	Amount      float64
	PaymentDate time.Time
	Status      Status
	CreatedAt   time.Time
}
