package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"loan-recovery/internal/domain/user"
	"loan-recovery/internal/infrastructure/monitoring"
	"loan-recovery/internal/pkg/apperrors"
)

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

type UserRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewUserRepository(db DBPool, logger *slog.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger.With("component", "UserRepository")}
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) CreateUser(ctx context.Context, u *user.User) (*user.User, error) {
	start := time.Now()
	sql := `
        INSERT INTO users (name, email, password_hash, role, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, sql, u.Name, u.Email, u.PasswordHash, u.Role).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		monitoring.RecordDBQuery("create_user", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to insert user", "error", err)
		return nil, fmt.Errorf("%w: failed to insert user: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("create_user", "success", time.Since(start))
	return u, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, userID int64) (*user.User, error) {
	return r.queryUser(ctx, "get_user", `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.queryUser(ctx, "get_user_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) FindAgentUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.queryUser(ctx, "find_agent_user",
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND role = $2`, email, user.RoleAgent)
}

func (r *UserRepository) queryUser(ctx context.Context, queryName, sql string, args ...any) (*user.User, error) {
	start := time.Now()
	var u user.User
	err := r.db.QueryRow(ctx, sql, args...).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			monitoring.RecordDBQuery(queryName, "not_found", time.Since(start))
			return nil, fmt.Errorf("%w: user not found", apperrors.ErrNotFound)
		}
		monitoring.RecordDBQuery(queryName, "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to query user", "query", queryName, "error", err)
		return nil, fmt.Errorf("%w: failed to query user: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery(queryName, "success", time.Since(start))
	return &u, nil
}
