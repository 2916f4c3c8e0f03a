package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"loan-recovery/internal/pkg/apperrors"
)

type Service interface {
	CreateAgent(ctx context.Context, name, email, phone string, userID *int64) (*Agent, error)

	GetAgent(ctx context.Context, agentID int64) (*Agent, error)

	ListAgents(ctx context.Context) ([]*Agent, error)
}

var _ Service = (*agentService)(nil)

type agentService struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) Service {
	if repo == nil {
		panic("agent repository cannot be nil")
	}
	return &agentService{
		repo:   repo,
		logger: logger.With(slog.String("component", "agentService")),
	}
}

func (s *agentService) CreateAgent(ctx context.Context, name, email, phone string, userID *int64) (*Agent, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)

	if name == "" {
		return nil, apperrors.NewValidationError("name", "name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("email", "a valid email is required")
	}
	if phone == "" {
		return nil, apperrors.NewValidationError("phone", "phone is required")
	}

	created, err := s.repo.CreateAgent(ctx, &Agent{
		Name:   name,
		Email:  email,
		Phone:  phone,
		UserID: userID,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create agent", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	s.logger.InfoContext(ctx, "Agent created", "agentID", created.ID)
	return created, nil
}

func (s *agentService) GetAgent(ctx context.Context, agentID int64) (*Agent, error) {
	return s.repo.GetAgentByID(ctx, agentID)
}

func (s *agentService) ListAgents(ctx context.Context) ([]*Agent, error) {
	return s.repo.ListAgents(ctx)
}
