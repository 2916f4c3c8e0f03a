package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"loan-recovery/internal/api/handler/dto"
	"loan-recovery/internal/domain/loan"
	"loan-recovery/internal/pkg/apperrors"
)

type LoanHandler struct {
	service loan.Service
	logger  *slog.Logger
}

func NewLoanHandler(s loan.Service, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

// CreateLoan submits a new loan application.
//
// @Summary Create a new loan application
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.CreateLoanRequest true "Loan application payload"
// @Success 201 {object} dto.Envelope "Loan application submitted"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 403 {object} dto.ErrorResponse "Caller may not apply for this customer"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	created, err := h.service.CreateLoan(r.Context(), p, req.CustomerID, req.Amount, req.InterestRate, req.TermMonths)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.OKWithMessage(
		"Loan application submitted successfully",
		map[string]any{"loan": dto.NewLoanResponse(created)},
	))
}

// ListLoans returns the loans visible to the caller: all of them for admins,
// own loans for customers, assigned loans for agents.
//
// @Summary List loans
// @Tags Loans
// @Produce json
// @Success 200 {object} dto.Envelope
// @Router /loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	loans, err := h.service.ListLoans(r.Context(), p)
	if err != nil {
		respondError(w, err)
		return
	}

	env := dto.OKWithCount(map[string]any{"loans": dto.NewLoanListResponse(loans)}, len(loans))
	respondJSON(w, http.StatusOK, env)
}

// GetLoan retrieves one loan with its customer and agent.
//
// @Summary Retrieve loan details
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.Envelope
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	l, err := h.service.GetLoan(r.Context(), p, loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.OK(map[string]any{"loan": dto.NewLoanResponse(l)}))
}

// ListByCustomer returns a customer's loans together with the customer record.
//
// @Summary List loans by customer
// @Tags Loans
// @Produce json
// @Param customerID path int true "Customer ID"
// @Success 200 {object} dto.Envelope
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Router /loans/customer/{customerID} [get]
// @Security BearerAuth
func (h *LoanHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	customerID, err := idFromURL(r, "customerID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	loans, cust, err := h.service.ListLoansByCustomer(r.Context(), p, customerID)
	if err != nil {
		respondError(w, err)
		return
	}

	env := dto.OKWithCount(map[string]any{
		"loans":    dto.NewLoanListResponse(loans),
		"customer": dto.NewCustomerResponse(cust),
	}, len(loans))
	respondJSON(w, http.StatusOK, env)
}

// ListByAgent returns an agent's assigned loans together with the agent record.
//
// @Summary List loans by agent
// @Tags Loans
// @Produce json
// @Param agentID path int true "Agent ID"
// @Success 200 {object} dto.Envelope
// @Failure 404 {object} dto.ErrorResponse "Agent not found"
// @Router /loans/agent/{agentID} [get]
// @Security BearerAuth
func (h *LoanHandler) ListByAgent(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	agentID, err := idFromURL(r, "agentID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	loans, ag, err := h.service.ListLoansByAgent(r.Context(), p, agentID)
	if err != nil {
		respondError(w, err)
		return
	}

	env := dto.OKWithCount(map[string]any{
		"loans": dto.NewLoanListResponse(loans),
		"agent": dto.NewAgentResponse(ag),
	}, len(loans))
	respondJSON(w, http.StatusOK, env)
}

// UpdateStatus moves a loan through its lifecycle state machine.
//
// @Summary Update loan status
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param request body dto.UpdateStatusRequest true "Target status"
// @Success 200 {object} dto.Envelope
// @Failure 400 {object} dto.ErrorResponse "Illegal transition"
// @Failure 403 {object} dto.ErrorResponse "Not the loan owner"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID}/status [patch]
// @Security BearerAuth
func (h *LoanHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), p, loanID, loan.Status(req.Status))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.OKWithMessage(
		fmt.Sprintf("Loan status updated to %s", updated.Status),
		map[string]any{"loan": dto.NewLoanResponse(updated)},
	))
}

// UpdateRecoveryStatus records an agent's collection progress.
//
// @Summary Update recovery status
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param request body dto.UpdateRecoveryStatusRequest true "Target recovery status"
// @Success 200 {object} dto.Envelope
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this loan"
// @Router /loans/{loanID}/recovery-status [patch]
// @Security BearerAuth
func (h *LoanHandler) UpdateRecoveryStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.UpdateRecoveryStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updated, err := h.service.UpdateRecoveryStatus(r.Context(), p, loanID, loan.RecoveryStatus(req.RecoveryStatus))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.OKWithMessage(
		"Recovery status updated successfully",
		map[string]any{"loan": dto.NewLoanResponse(updated)},
	))
}

// AssignAgent binds a recovery agent to a loan and notifies them.
//
// @Summary Assign a recovery agent
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param request body dto.AssignAgentRequest true "Agent to assign"
// @Success 200 {object} dto.Envelope
// @Failure 400 {object} dto.ErrorResponse "Loan not assignable or agent already assigned"
// @Failure 403 {object} dto.ErrorResponse "Admin only"
// @Failure 404 {object} dto.ErrorResponse "Loan or agent not found"
// @Router /loans/{loanID}/assign-agent [patch]
// @Security BearerAuth
func (h *LoanHandler) AssignAgent(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.AssignAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updated, err := h.service.AssignAgent(r.Context(), p, loanID, req.AgentID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.OKWithMessage(
		"Agent assigned successfully",
		map[string]any{"loan": dto.NewLoanResponse(updated)},
	))
}

// DeleteLoan removes a rejected loan.
//
// @Summary Delete a rejected loan
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.Envelope
// @Failure 400 {object} dto.ErrorResponse "Loan is not rejected"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID} [delete]
// @Security BearerAuth
func (h *LoanHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	if err := h.service.DeleteLoan(r.Context(), p, loanID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.OKWithMessage("Loan deleted successfully", nil))
}

// GetOutstanding reports the EMI-based balance still owed on a loan.
//
// @Summary Retrieve outstanding loan amount
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.Envelope
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID}/outstanding [get]
// @Security BearerAuth
func (h *LoanHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	outstanding, err := h.service.GetOutstanding(r.Context(), p, loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.OK(dto.OutstandingResponse{
		LoanID:            strconv.FormatInt(loanID, 10),
		OutstandingAmount: fmt.Sprintf("%.2f", outstanding),
	}))
}

// GetInstallmentPlan returns the month-by-month EMI breakdown of a loan.
//
// @Summary Retrieve EMI installment plan
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.Envelope
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID}/emi [get]
// @Security BearerAuth
func (h *LoanHandler) GetInstallmentPlan(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	l, plan, err := h.service.GetInstallmentPlan(r.Context(), p, loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.OK(dto.NewInstallmentPlanResponse(l, plan)))
}
