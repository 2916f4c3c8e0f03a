package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"loan-recovery/internal/domain/agent"
	"loan-recovery/internal/infrastructure/monitoring"
	"loan-recovery/internal/pkg/apperrors"
)

const agentColumns = `id, name, email, phone, user_id, created_at, updated_at`

type AgentRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewAgentRepository(db DBPool, logger *slog.Logger) *AgentRepository {
	return &AgentRepository{db: db, logger: logger.With("component", "AgentRepository")}
}

var _ agent.Repository = (*AgentRepository)(nil)

func (r *AgentRepository) CreateAgent(ctx context.Context, a *agent.Agent) (*agent.Agent, error) {
	start := time.Now()
	sql := `
        INSERT INTO agents (name, email, phone, user_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, sql, a.Name, a.Email, a.Phone, a.UserID).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		monitoring.RecordDBQuery("create_agent", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to insert agent", "error", err)
		return nil, fmt.Errorf("%w: failed to insert agent: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("create_agent", "success", time.Since(start))
	r.logger.InfoContext(ctx, "Agent created in DB", "agent_id", a.ID)
	return a, nil
}

func (r *AgentRepository) GetAgentByID(ctx context.Context, agentID int64) (*agent.Agent, error) {
	start := time.Now()
	var a agent.Agent
	err := r.db.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, agentID).
		Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.UserID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			monitoring.RecordDBQuery("get_agent", "not_found", time.Since(start))
			return nil, fmt.Errorf("%w: agent with ID %d not found", apperrors.ErrNotFound, agentID)
		}
		monitoring.RecordDBQuery("get_agent", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to query agent", "agent_id", agentID, "error", err)
		return nil, fmt.Errorf("%w: failed to query agent %d: %w", apperrors.ErrDatabase, agentID, err)
	}

	monitoring.RecordDBQuery("get_agent", "success", time.Since(start))
	return &a, nil
}

func (r *AgentRepository) ListAgents(ctx context.Context) ([]*agent.Agent, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY created_at DESC`)
	if err != nil {
		monitoring.RecordDBQuery("list_agents", "error", time.Since(start))
		return nil, fmt.Errorf("%w: failed to query agents: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var agents []*agent.Agent
	for rows.Next() {
		var a agent.Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.UserID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			monitoring.RecordDBQuery("list_agents", "error", time.Since(start))
			return nil, fmt.Errorf("%w: failed to scan agent row: %w", apperrors.ErrDatabase, err)
		}
		agents = append(agents, &a)
	}
	if err := rows.Err(); err != nil {
		monitoring.RecordDBQuery("list_agents", "error", time.Since(start))
		return nil, fmt.Errorf("%w: agent rows iteration failed: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("list_agents", "success", time.Since(start))
	return agents, nil
}
