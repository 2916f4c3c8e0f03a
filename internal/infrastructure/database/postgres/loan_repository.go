package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"loan-recovery/internal/domain/agent"
	"loan-recovery/internal/domain/customer"
	"loan-recovery/internal/domain/loan"
	"loan-recovery/internal/infrastructure/monitoring"
	"loan-recovery/internal/pkg/apperrors"
)

const loanColumns = `l.id, l.customer_id, l.agent_id, l.amount, l.interest_rate, l.term_months,
       l.status, l.recovery_status, l.start_date, l.end_date, l.created_at, l.updated_at`

const loanJoinedQuery = `
    SELECT ` + loanColumns + `,
           c.id, c.name, c.email, c.phone, COALESCE(c.address, ''), c.created_at, c.updated_at,
           a.id, a.name, a.email, a.phone, a.user_id, a.created_at, a.updated_at
    FROM loans l
    JOIN customers c ON c.id = l.customer_id
    LEFT JOIN agents a ON a.id = l.agent_id`

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

var _ loan.Repository = (*LoanRepository)(nil)

func (r *LoanRepository) CreateLoan(ctx context.Context, l *loan.Loan) (*loan.Loan, error) {
	start := time.Now()
	sql := `
        INSERT INTO loans (customer_id, agent_id, amount, interest_rate, term_months, status, recovery_status, start_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, sql,
		l.CustomerID, l.AgentID, l.Amount, l.InterestRate, l.TermMonths,
		l.Status, l.RecoveryStatus, l.StartDate, l.EndDate,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		monitoring.RecordDBQuery("create_loan", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to insert loan", "error", err)
		return nil, fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("create_loan", "success", time.Since(start))
	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", l.ID)
	return r.GetLoanByID(ctx, l.ID)
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	start := time.Now()
	row := r.db.QueryRow(ctx, loanJoinedQuery+` WHERE l.id = $1`, loanID)

	l, err := scanJoinedLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			monitoring.RecordDBQuery("get_loan", "not_found", time.Since(start))
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		monitoring.RecordDBQuery("get_loan", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to query loan", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to query loan %d: %w", apperrors.ErrDatabase, loanID, err)
	}

	monitoring.RecordDBQuery("get_loan", "success", time.Since(start))
	return l, nil
}

func (r *LoanRepository) ListLoans(ctx context.Context) ([]*loan.Loan, error) {
	return r.queryLoans(ctx, "list_loans", loanJoinedQuery+` ORDER BY l.created_at DESC`)
}

func (r *LoanRepository) ListLoansByCustomer(ctx context.Context, customerID int64) ([]*loan.Loan, error) {
	return r.queryLoans(ctx, "list_loans_by_customer",
		loanJoinedQuery+` WHERE l.customer_id = $1 ORDER BY l.created_at DESC`, customerID)
}

func (r *LoanRepository) ListLoansByAgent(ctx context.Context, agentID int64) ([]*loan.Loan, error) {
	return r.queryLoans(ctx, "list_loans_by_agent",
		loanJoinedQuery+` WHERE l.agent_id = $1 ORDER BY l.created_at DESC`, agentID)
}

func (r *LoanRepository) queryLoans(ctx context.Context, queryName, sql string, args ...any) ([]*loan.Loan, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		monitoring.RecordDBQuery(queryName, "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to query loans", "query", queryName, "error", err)
		return nil, fmt.Errorf("%w: failed to query loans: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var loans []*loan.Loan
	for rows.Next() {
		l, err := scanJoinedLoan(rows)
		if err != nil {
			monitoring.RecordDBQuery(queryName, "error", time.Since(start))
			return nil, fmt.Errorf("%w: failed to scan loan row: %w", apperrors.ErrDatabase, err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		monitoring.RecordDBQuery(queryName, "error", time.Since(start))
		return nil, fmt.Errorf("%w: loan rows iteration failed: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery(queryName, "success", time.Since(start))
	return loans, nil
}

func (r *LoanRepository) UpdateLoan(ctx context.Context, l *loan.Loan) (*loan.Loan, error) {
	start := time.Now()
	sql := `
        UPDATE loans
        SET agent_id = $2, status = $3, recovery_status = $4, start_date = $5, end_date = $6, updated_at = NOW()
        WHERE id = $1`

	tag, err := r.db.Exec(ctx, sql, l.ID, l.AgentID, l.Status, l.RecoveryStatus, l.StartDate, l.EndDate)
	if err != nil {
		monitoring.RecordDBQuery("update_loan", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to update loan", "loan_id", l.ID, "error", err)
		return nil, fmt.Errorf("%w: failed to update loan %d: %w", apperrors.ErrDatabase, l.ID, err)
	}
	if tag.RowsAffected() == 0 {
		monitoring.RecordDBQuery("update_loan", "not_found", time.Since(start))
		return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, l.ID)
	}

	monitoring.RecordDBQuery("update_loan", "success", time.Since(start))
	return r.GetLoanByID(ctx, l.ID)
}

func (r *LoanRepository) DeleteLoan(ctx context.Context, loanID int64) error {
	start := time.Now()
	tag, err := r.db.Exec(ctx, `DELETE FROM loans WHERE id = $1`, loanID)
	if err != nil {
		monitoring.RecordDBQuery("delete_loan", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to delete loan", "loan_id", loanID, "error", err)
		return fmt.Errorf("%w: failed to delete loan %d: %w", apperrors.ErrDatabase, loanID, err)
	}
	if tag.RowsAffected() == 0 {
		monitoring.RecordDBQuery("delete_loan", "not_found", time.Since(start))
		return fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
	}

	monitoring.RecordDBQuery("delete_loan", "success", time.Since(start))
	r.logger.InfoContext(ctx, "Loan deleted from DB", "loan_id", loanID)
	return nil
}

func (r *LoanRepository) ListOverdueApprovedIDs(ctx context.Context, asOf time.Time) ([]int64, error) {
	start := time.Now()
	sql := `SELECT id FROM loans WHERE status = $1 AND end_date IS NOT NULL AND end_date < $2`

	rows, err := r.db.Query(ctx, sql, loan.StatusApproved, asOf)
	if err != nil {
		monitoring.RecordDBQuery("list_overdue_approved", "error", time.Since(start))
		return nil, fmt.Errorf("%w: failed to query overdue loans: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			monitoring.RecordDBQuery("list_overdue_approved", "error", time.Since(start))
			return nil, fmt.Errorf("%w: failed to scan overdue loan id: %w", apperrors.ErrDatabase, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		monitoring.RecordDBQuery("list_overdue_approved", "error", time.Since(start))
		return nil, fmt.Errorf("%w: overdue loan rows iteration failed: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("list_overdue_approved", "success", time.Since(start))
	return ids, nil
}

// scanJoinedLoan reads one row of loanJoinedQuery. Agent columns come from a
// LEFT JOIN and may all be NULL.
func scanJoinedLoan(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	var c customer.Customer

	var agentID *int64
	var agentName, agentEmail, agentPhone *string
	var agentUserID *int64
	var agentCreatedAt, agentUpdatedAt *time.Time

	err := row.Scan(
		&l.ID, &l.CustomerID, &l.AgentID, &l.Amount, &l.InterestRate, &l.TermMonths,
		&l.Status, &l.RecoveryStatus, &l.StartDate, &l.EndDate, &l.CreatedAt, &l.UpdatedAt,
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt,
		&agentID, &agentName, &agentEmail, &agentPhone, &agentUserID, &agentCreatedAt, &agentUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Customer = &c
	if agentID != nil {
		l.Agent = &agent.Agent{
			ID:        *agentID,
			Name:      *agentName,
			Email:     *agentEmail,
			Phone:     *agentPhone,
			UserID:    agentUserID,
			CreatedAt: *agentCreatedAt,
			UpdatedAt: *agentUpdatedAt,
		}
	}
	return &l, nil
}
