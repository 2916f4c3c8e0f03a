package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"loan-recovery/internal/api/handler/dto"
	"loan-recovery/internal/domain/agent"
	"loan-recovery/internal/pkg/apperrors"
)

type AgentHandler struct {
	service agent.Service
	logger  *slog.Logger
}

func NewAgentHandler(s agent.Service, l *slog.Logger) *AgentHandler {
	return &AgentHandler{
		service: s,
		logger:  l.With("component", "AgentHandler"),
	}
}

// CreateAgent registers a new recovery agent. Admin only.
//
// @Summary Register a recovery agent
// @Tags Agents
// @Accept json
// @Produce json
// @Param request body dto.CreateAgentRequest true "Agent payload"
// @Success 201 {object} dto.Envelope
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 403 {object} dto.ErrorResponse "Admin only"
// @Router /agents [post]
// @Security BearerAuth
func (h *AgentHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if !p.IsAdmin() {
		respondError(w, fmt.Errorf("%w: only admins can register agents", apperrors.ErrForbidden))
		return
	}

	var req dto.CreateAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	created, err := h.service.CreateAgent(r.Context(), req.Name, req.Email, req.Phone, req.UserID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.OKWithMessage(
		"Agent registered successfully",
		map[string]any{"agent": dto.NewAgentResponse(created)},
	))
}

// GetAgent retrieves one recovery agent. Admin only.
//
// @Summary Retrieve an agent
// @Tags Agents
// @Produce json
// @Param agentID path int true "Agent ID"
// @Success 200 {object} dto.Envelope
// @Failure 403 {object} dto.ErrorResponse "Admin only"
// @Failure 404 {object} dto.ErrorResponse "Agent not found"
// @Router /agents/{agentID} [get]
// @Security BearerAuth
func (h *AgentHandler) GetAgent(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if !p.IsAdmin() {
		respondError(w, fmt.Errorf("%w: only admins can view agents", apperrors.ErrForbidden))
		return
	}
	agentID, err := idFromURL(r, "agentID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	a, err := h.service.GetAgent(r.Context(), agentID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.OK(map[string]any{"agent": dto.NewAgentResponse(a)}))
}

// ListAgents returns every recovery agent. Admin only.
//
// @Summary List agents
// @Tags Agents
// @Produce json
// @Success 200 {object} dto.Envelope
// @Failure 403 {object} dto.ErrorResponse "Admin only"
// @Router /agents [get]
// @Security BearerAuth
func (h *AgentHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if !p.IsAdmin() {
		respondError(w, fmt.Errorf("%w: only admins can list agents", apperrors.ErrForbidden))
		return
	}

	agents, err := h.service.ListAgents(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	env := dto.OKWithCount(map[string]any{"agents": dto.NewAgentListResponse(agents)}, len(agents))
	respondJSON(w, http.StatusOK, env)
}
