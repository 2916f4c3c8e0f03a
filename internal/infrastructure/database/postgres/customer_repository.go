package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"loan-recovery/internal/domain/customer"
	"loan-recovery/internal/infrastructure/monitoring"
	"loan-recovery/internal/pkg/apperrors"
)

const customerColumns = `id, name, email, phone, COALESCE(address, ''), created_at, updated_at`

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	return &CustomerRepository{db: db, logger: logger.With("component", "CustomerRepository")}
}

var _ customer.Repository = (*CustomerRepository)(nil)

func (r *CustomerRepository) CreateCustomer(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	start := time.Now()
	sql := `
        INSERT INTO customers (name, email, phone, address, created_at, updated_at)
        VALUES ($1, $2, $3, NULLIF($4, ''), NOW(), NOW())
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, sql, c.Name, c.Email, c.Phone, c.Address).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		monitoring.RecordDBQuery("create_customer", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to insert customer", "error", err)
		return nil, fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("create_customer", "success", time.Since(start))
	r.logger.InfoContext(ctx, "Customer created in DB", "customer_id", c.ID)
	return c, nil
}

func (r *CustomerRepository) GetCustomerByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	start := time.Now()
	var c customer.Customer
	err := r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, customerID).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			monitoring.RecordDBQuery("get_customer", "not_found", time.Since(start))
			return nil, fmt.Errorf("%w: customer with ID %d not found", apperrors.ErrNotFound, customerID)
		}
		monitoring.RecordDBQuery("get_customer", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to query customer", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf("%w: failed to query customer %d: %w", apperrors.ErrDatabase, customerID, err)
	}

	monitoring.RecordDBQuery("get_customer", "success", time.Since(start))
	return &c, nil
}

func (r *CustomerRepository) ListCustomers(ctx context.Context) ([]*customer.Customer, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC`)
	if err != nil {
		monitoring.RecordDBQuery("list_customers", "error", time.Since(start))
		return nil, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var customers []*customer.Customer
	for rows.Next() {
		var c customer.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			monitoring.RecordDBQuery("list_customers", "error", time.Since(start))
			return nil, fmt.Errorf("%w: failed to scan customer row: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, &c)
	}
	if err := rows.Err(); err != nil {
		monitoring.RecordDBQuery("list_customers", "error", time.Since(start))
		return nil, fmt.Errorf("%w: customer rows iteration failed: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("list_customers", "success", time.Since(start))
	return customers, nil
}
