package agent

import "context"

type Repository interface {
	CreateAgent(ctx context.Context, a *Agent) (*Agent, error)

	GetAgentByID(ctx context.Context, agentID int64) (*Agent, error)

	ListAgents(ctx context.Context) ([]*Agent, error)
}
