package postgres

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"

	"loan-recovery/internal/domain/loan"
	"loan-recovery/internal/pkg/apperrors"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

const pgxmockExpectationsNotMetMsg = "there were unfulfilled pgxmock expectations"

var joinedLoanColumns = []string{
	"id", "customer_id", "agent_id", "amount", "interest_rate", "term_months",
	"status", "recovery_status", "start_date", "end_date", "created_at", "updated_at",
	"c_id", "c_name", "c_email", "c_phone", "c_address", "c_created_at", "c_updated_at",
	"a_id", "a_name", "a_email", "a_phone", "a_user_id", "a_created_at", "a_updated_at",
}

func setupLoanRepo(t *testing.T) (context.Context, *LoanRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}

	ctx := context.Background()
	repo := NewLoanRepository(mockPool, logger)

	return ctx, repo, mockPool
}

// joinedLoanRow builds one result row of the joined loan query with NULL
// agent columns.
func joinedLoanRow(loanID, customerID int64, status loan.Status, now time.Time) []any {
	return []any{
		loanID, customerID, (*int64)(nil), 100000.0, 12.0, 12,
		status, (*loan.RecoveryStatus)(nil), (*time.Time)(nil), (*time.Time)(nil), now, now,
		customerID, "Asha", "asha@example.com", "555-0100", "", now, now,
		(*int64)(nil), (*string)(nil), (*string)(nil), (*string)(nil), (*int64)(nil), (*time.Time)(nil), (*time.Time)(nil),
	}
}

func TestLoanRepositoryGetLoanByID(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()
	now := time.Now()

	mockPool.ExpectQuery(regexp.QuoteMeta(loanJoinedQuery+` WHERE l.id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(joinedLoanColumns).AddRow(joinedLoanRow(1, 2, loan.StatusPending, now)...))

	l, err := repo.GetLoanByID(ctx, 1)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), l.ID)
	assert.Equal(t, int64(2), l.CustomerID)
	assert.Equal(t, loan.StatusPending, l.Status)
	assert.Nil(t, l.AgentID)
	assert.Nil(t, l.Agent)
	assert.NotNil(t, l.Customer)
	assert.Equal(t, "Asha", l.Customer.Name)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepositoryGetLoanByIDNotFound(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(loanJoinedQuery+` WHERE l.id = $1`)).
		WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetLoanByID(ctx, 404)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, err.Error(), "loan with ID 404 not found")
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepositoryGetLoanByIDScansAgent(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()
	now := time.Now()
	agentID := int64(7)
	userID := int64(70)
	rs := loan.RecoveryAssigned

	row := []any{
		int64(1), int64(2), &agentID, 100000.0, 12.0, 12,
		loan.StatusDefaulted, &rs, &now, &now, now, now,
		int64(2), "Asha", "asha@example.com", "555-0100", "", now, now,
		&agentID, ptr("Ravi"), ptr("ravi@example.com"), ptr("555-0200"), &userID, &now, &now,
	}
	mockPool.ExpectQuery(regexp.QuoteMeta(loanJoinedQuery+` WHERE l.id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(joinedLoanColumns).AddRow(row...))

	l, err := repo.GetLoanByID(ctx, 1)

	assert.NoError(t, err)
	assert.NotNil(t, l.Agent)
	assert.Equal(t, agentID, l.Agent.ID)
	assert.Equal(t, "Ravi", l.Agent.Name)
	assert.Equal(t, &userID, l.Agent.UserID)
	assert.NotNil(t, l.RecoveryStatus)
	assert.Equal(t, loan.RecoveryAssigned, *l.RecoveryStatus)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func ptr[T any](v T) *T { return &v }

func TestLoanRepositoryCreateLoan(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()
	now := time.Now()

	newLoan := &loan.Loan{
		CustomerID:   2,
		Amount:       100000,
		InterestRate: 12,
		TermMonths:   12,
		Status:       loan.StatusPending,
	}

	mockPool.ExpectQuery(regexp.QuoteMeta(`INSERT INTO loans`)).
		WithArgs(newLoan.CustomerID, newLoan.AgentID, newLoan.Amount, newLoan.InterestRate,
			newLoan.TermMonths, newLoan.Status, newLoan.RecoveryStatus, newLoan.StartDate, newLoan.EndDate).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))

	mockPool.ExpectQuery(regexp.QuoteMeta(loanJoinedQuery+` WHERE l.id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(joinedLoanColumns).AddRow(joinedLoanRow(1, 2, loan.StatusPending, now)...))

	created, err := repo.CreateLoan(ctx, newLoan)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, loan.StatusPending, created.Status)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepositoryListLoansByCustomer(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()
	now := time.Now()

	mockPool.ExpectQuery(regexp.QuoteMeta(loanJoinedQuery+` WHERE l.customer_id = $1 ORDER BY l.created_at DESC`)).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows(joinedLoanColumns).
			AddRow(joinedLoanRow(1, 2, loan.StatusPending, now)...).
			AddRow(joinedLoanRow(3, 2, loan.StatusApproved, now)...))

	loans, err := repo.ListLoansByCustomer(ctx, 2)

	assert.NoError(t, err)
	assert.Len(t, loans, 2)
	assert.Equal(t, int64(1), loans[0].ID)
	assert.Equal(t, int64(3), loans[1].ID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepositoryUpdateLoanNotFound(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	l := &loan.Loan{ID: 404, Status: loan.StatusApproved}
	mockPool.ExpectExec(regexp.QuoteMeta(`UPDATE loans`)).
		WithArgs(l.ID, l.AgentID, l.Status, l.RecoveryStatus, l.StartDate, l.EndDate).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	_, err := repo.UpdateLoan(ctx, l)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepositoryDeleteLoan(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM loans WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, repo.DeleteLoan(ctx, 1))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepositoryDeleteLoanNotFound(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM loans WHERE id = $1`)).
		WithArgs(int64(404)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.DeleteLoan(ctx, 404)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepositoryListOverdueApprovedIDs(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()
	asOf := time.Now()

	mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM loans WHERE status = $1 AND end_date IS NOT NULL AND end_date < $2`)).
		WithArgs(loan.StatusApproved, asOf).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(9)))

	ids, err := repo.ListOverdueApprovedIDs(ctx, asOf)

	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 9}, ids)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
