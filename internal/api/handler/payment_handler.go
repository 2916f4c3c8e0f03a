package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"loan-recovery/internal/api/handler/dto"
	"loan-recovery/internal/domain/payment"
	"loan-recovery/internal/pkg/apperrors"
)

type PaymentHandler struct {
	service payment.Service
	logger  *slog.Logger
}

func NewPaymentHandler(s payment.Service, l *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: s,
		logger:  l.With("component", "PaymentHandler"),
	}
}

// CreatePayment records a payment against a loan.
//
// @Summary Record a payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body dto.CreatePaymentRequest true "Payment payload"
// @Success 201 {object} dto.Envelope "Payment recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid amount, loan not approved, or loan fully paid"
// @Failure 403 {object} dto.ErrorResponse "Not the loan owner"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /payments [post]
// @Security BearerAuth
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.CreatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	created, err := h.service.CreatePayment(r.Context(), p, req.LoanID, req.Amount)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.OKWithMessage(
		"Payment recorded successfully",
		map[string]any{"payment": dto.NewPaymentResponse(created)},
	))
}

// ListPayments returns every payment in the system. Admin only.
//
// @Summary List all payments
// @Tags Payments
// @Produce json
// @Success 200 {object} dto.Envelope
// @Failure 403 {object} dto.ErrorResponse "Admin only"
// @Router /payments [get]
// @Security BearerAuth
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	payments, err := h.service.ListPayments(r.Context(), p)
	if err != nil {
		respondError(w, err)
		return
	}

	env := dto.OKWithCount(map[string]any{"payments": dto.NewPaymentListResponse(payments)}, len(payments))
	respondJSON(w, http.StatusOK, env)
}

// ListByLoan returns the payment history of one loan.
//
// @Summary List payments for a loan
// @Tags Payments
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.Envelope
// @Failure 403 {object} dto.ErrorResponse "Caller may not view this loan"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /payments/loan/{loanID} [get]
// @Security BearerAuth
func (h *PaymentHandler) ListByLoan(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	payments, err := h.service.ListPaymentsByLoan(r.Context(), p, loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	env := dto.OKWithCount(map[string]any{"payments": dto.NewPaymentListResponse(payments)}, len(payments))
	respondJSON(w, http.StatusOK, env)
}
