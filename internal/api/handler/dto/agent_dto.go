package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"loan-recovery/internal/domain/agent"
)

type CreateAgentRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	UserID *int64 `json:"userId,omitempty"`
}

func (r *CreateAgentRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if strings.TrimSpace(r.Phone) == "" {
		return fmt.Errorf("phone is required")
	}
	if r.UserID != nil && *r.UserID <= 0 {
		return fmt.Errorf("userId must be positive when given")
	}
	return nil
}

type AgentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	UserID    *string   `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewAgentResponse(a *agent.Agent) AgentResponse {
	resp := AgentResponse{
		ID:        strconv.FormatInt(a.ID, 10),
		Name:      a.Name,
		Email:     a.Email,
		Phone:     a.Phone,
		CreatedAt: a.CreatedAt,
	}
	if a.UserID != nil {
		s := strconv.FormatInt(*a.UserID, 10)
		resp.UserID = &s
	}
	return resp
}

func NewAgentListResponse(agents []*agent.Agent) []AgentResponse {
	out := make([]AgentResponse, len(agents))
	for i, a := range agents {
		out[i] = NewAgentResponse(a)
	}
	return out
}
