package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loan-recovery/internal/domain/payment"
	"loan-recovery/internal/infrastructure/monitoring"
	"loan-recovery/internal/pkg/apperrors"
)

const paymentColumns = `id, loan_id, amount, payment_date, status, created_at`

type PaymentRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewPaymentRepository(db DBPool, logger *slog.Logger) *PaymentRepository {
	return &PaymentRepository{db: db, logger: logger.With("component", "PaymentRepository")}
}

var _ payment.Repository = (*PaymentRepository)(nil)

func (r *PaymentRepository) CreatePayment(ctx context.Context, pm *payment.Payment) (*payment.Payment, error) {
	start := time.Now()
	sql := `
        INSERT INTO payments (loan_id, amount, payment_date, status, created_at)
        VALUES ($1, $2, $3, $4, NOW())
        RETURNING id, created_at`

	err := r.db.QueryRow(ctx, sql, pm.LoanID, pm.Amount, pm.PaymentDate, pm.Status).
		Scan(&pm.ID, &pm.CreatedAt)
	if err != nil {
		monitoring.RecordDBQuery("create_payment", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to insert payment", "loan_id", pm.LoanID, "error", err)
		return nil, fmt.Errorf("%w: failed to insert payment: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("create_payment", "success", time.Since(start))
	r.logger.InfoContext(ctx, "Payment created in DB", "payment_id", pm.ID, "loan_id", pm.LoanID)
	return pm, nil
}

func (r *PaymentRepository) ListPayments(ctx context.Context) ([]*payment.Payment, error) {
	return r.queryPayments(ctx, "list_payments",
		`SELECT `+paymentColumns+` FROM payments ORDER BY created_at DESC`)
}

func (r *PaymentRepository) ListPaymentsByLoan(ctx context.Context, loanID int64) ([]*payment.Payment, error) {
	return r.queryPayments(ctx, "list_payments_by_loan",
		`SELECT `+paymentColumns+` FROM payments WHERE loan_id = $1 ORDER BY created_at DESC`, loanID)
}

func (r *PaymentRepository) queryPayments(ctx context.Context, queryName, sql string, args ...any) ([]*payment.Payment, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		monitoring.RecordDBQuery(queryName, "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to query payments", "query", queryName, "error", err)
		return nil, fmt.Errorf("%w: failed to query payments: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		var pm payment.Payment
		if err := rows.Scan(&pm.ID, &pm.LoanID, &pm.Amount, &pm.PaymentDate, &pm.Status, &pm.CreatedAt); err != nil {
			monitoring.RecordDBQuery(queryName, "error", time.Since(start))
			return nil, fmt.Errorf("%w: failed to scan payment row: %w", apperrors.ErrDatabase, err)
		}
		payments = append(payments, &pm)
	}
	if err := rows.Err(); err != nil {
		monitoring.RecordDBQuery(queryName, "error", time.Since(start))
		return nil, fmt.Errorf("%w: payment rows iteration failed: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery(queryName, "success", time.Since(start))
	return payments, nil
}

func (r *PaymentRepository) SumCompletedPayments(ctx context.Context, loanID int64) (float64, error) {
	start := time.Now()
	sql := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE loan_id = $1 AND status = $2`

	var total float64
	err := r.db.QueryRow(ctx, sql, loanID, payment.StatusCompleted).Scan(&total)
	if err != nil {
		monitoring.RecordDBQuery("sum_completed_payments", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to sum payments", "loan_id", loanID, "error", err)
		return 0, fmt.Errorf("%w: failed to sum payments for loan %d: %w", apperrors.ErrDatabase, loanID, err)
	}

	monitoring.RecordDBQuery("sum_completed_payments", "success", time.Since(start))
	return total, nil
}
