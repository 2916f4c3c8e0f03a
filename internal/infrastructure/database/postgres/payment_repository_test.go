package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"

	"loan-recovery/internal/domain/payment"
	"loan-recovery/internal/pkg/apperrors"
)

func setupPaymentRepo(t *testing.T) (context.Context, *PaymentRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}

	ctx := context.Background()
	repo := NewPaymentRepository(mockPool, logger)

	return ctx, repo, mockPool
}

func TestPaymentRepositoryCreatePayment(t *testing.T) {
	ctx, repo, mockPool := setupPaymentRepo(t)
	defer mockPool.Close()
	now := time.Now()

	pm := &payment.Payment{
		LoanID:      5,
		Amount:      1000,
		PaymentDate: now,
		Status:      payment.StatusCompleted,
	}

	mockPool.ExpectQuery(regexp.QuoteMeta(`INSERT INTO payments`)).
		WithArgs(pm.LoanID, pm.Amount, pm.PaymentDate, pm.Status).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))

	created, err := repo.CreatePayment(ctx, pm)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestPaymentRepositoryCreatePaymentDBError(t *testing.T) {
	ctx, repo, mockPool := setupPaymentRepo(t)
	defer mockPool.Close()

	pm := &payment.Payment{LoanID: 5, Amount: 1000, Status: payment.StatusCompleted}

	mockPool.ExpectQuery(regexp.QuoteMeta(`INSERT INTO payments`)).
		WithArgs(pm.LoanID, pm.Amount, pm.PaymentDate, pm.Status).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.CreatePayment(ctx, pm)

	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestPaymentRepositoryListPaymentsByLoan(t *testing.T) {
	ctx, repo, mockPool := setupPaymentRepo(t)
	defer mockPool.Close()
	now := time.Now()

	mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT `+paymentColumns+` FROM payments WHERE loan_id = $1 ORDER BY created_at DESC`)).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "loan_id", "amount", "payment_date", "status", "created_at"}).
			AddRow(int64(2), int64(5), 1000.0, now, payment.StatusCompleted, now).
			AddRow(int64(1), int64(5), 500.0, now.Add(-time.Hour), payment.StatusCompleted, now.Add(-time.Hour)))

	payments, err := repo.ListPaymentsByLoan(ctx, 5)

	assert.NoError(t, err)
	assert.Len(t, payments, 2)
	assert.Equal(t, int64(2), payments[0].ID)
	assert.Equal(t, 1000.0, payments[0].Amount)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestPaymentRepositorySumCompletedPayments(t *testing.T) {
	ctx, repo, mockPool := setupPaymentRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE loan_id = $1 AND status = $2`)).
		WithArgs(int64(5), payment.StatusCompleted).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(1500.0))

	total, err := repo.SumCompletedPayments(ctx, 5)

	assert.NoError(t, err)
	assert.Equal(t, 1500.0, total)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestPaymentRepositorySumCompletedPaymentsEmptyLedger(t *testing.T) {
	ctx, repo, mockPool := setupPaymentRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(amount), 0) FROM payments`)).
		WithArgs(int64(9), payment.StatusCompleted).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(0.0))

	total, err := repo.SumCompletedPayments(ctx, 9)

	assert.NoError(t, err)
	assert.Equal(t, 0.0, total)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
