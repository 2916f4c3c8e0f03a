package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"loan-recovery/internal/api/handler/dto"
	"loan-recovery/internal/domain/customer"
	"loan-recovery/internal/pkg/apperrors"
)

type CustomerHandler struct {
	service customer.Service
	logger  *slog.Logger
}

func NewCustomerHandler(s customer.Service, l *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: s,
		logger:  l.With("component", "CustomerHandler"),
	}
}

// CreateCustomer registers a new customer. Admin only.
//
// @Summary Register a customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body dto.CreateCustomerRequest true "Customer payload"
// @Success 201 {object} dto.Envelope
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 403 {object} dto.ErrorResponse "Admin only"
// @Router /customers [post]
// @Security BearerAuth
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if !p.IsAdmin() {
		respondError(w, fmt.Errorf("%w: only admins can register customers", apperrors.ErrForbidden))
		return
	}

	var req dto.CreateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	created, err := h.service.CreateCustomer(r.Context(), req.Name, req.Email, req.Phone, req.Address)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.OKWithMessage(
		"Customer registered successfully",
		map[string]any{"customer": dto.NewCustomerResponse(created)},
	))
}

// GetCustomer retrieves one customer. Admins may fetch anyone; a customer
// may fetch their own record.
//
// @Summary Retrieve a customer
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID"
// @Success 200 {object} dto.Envelope
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Router /customers/{customerID} [get]
// @Security BearerAuth
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	customerID, err := idFromURL(r, "customerID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if !p.IsAdmin() && !(p.IsCustomer() && p.UserID == customerID) {
		respondError(w, fmt.Errorf("%w: you can only view your own record", apperrors.ErrForbidden))
		return
	}

	c, err := h.service.GetCustomer(r.Context(), customerID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.OK(map[string]any{"customer": dto.NewCustomerResponse(c)}))
}

// ListCustomers returns every registered customer. Admin only.
//
// @Summary List customers
// @Tags Customers
// @Produce json
// @Success 200 {object} dto.Envelope
// @Failure 403 {object} dto.ErrorResponse "Admin only"
// @Router /customers [get]
// @Security BearerAuth
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if !p.IsAdmin() {
		respondError(w, fmt.Errorf("%w: only admins can list customers", apperrors.ErrForbidden))
		return
	}

	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	env := dto.OKWithCount(map[string]any{"customers": dto.NewCustomerListResponse(customers)}, len(customers))
	respondJSON(w, http.StatusOK, env)
}
