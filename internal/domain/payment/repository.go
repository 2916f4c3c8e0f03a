package payment

import "context"

type Repository interface {
	CreatePayment(ctx context.Context, pm *Payment) (*Payment, error)

	ListPayments(ctx context.Context) ([]*Payment, error)

	ListPaymentsByLoan(ctx context.Context, loanID int64) ([]*Payment, error)

	// SumCompletedPayments totals the completed payments recorded against a
	// loan. Also satisfies loan.PaymentLedger.
	SumCompletedPayments(ctx context.Context, loanID int64) (float64, error)
}
