package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"loan-recovery/internal/api/middleware"
	"loan-recovery/internal/domain/agent"
	"loan-recovery/internal/domain/customer"
	"loan-recovery/internal/domain/loan"
	"loan-recovery/internal/domain/user"
	"loan-recovery/internal/pkg/apperrors"
)

var testLogger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

var (
	adminPrincipal    = user.Principal{UserID: 99, Role: user.RoleAdmin}
	customerPrincipal = user.Principal{UserID: 1, Role: user.RoleCustomer}
)

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) CreateLoan(ctx context.Context, p user.Principal, customerID int64, amount, interestRate loan.Money, termMonths int) (*loan.Loan, error) {
	args := m.Called(ctx, p, customerID, amount, interestRate, termMonths)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, p user.Principal, loanID int64) (*loan.Loan, error) {
	args := m.Called(ctx, p, loanID)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) ListLoans(ctx context.Context, p user.Principal) ([]*loan.Loan, error) {
	args := m.Called(ctx, p)
	if loans, ok := args.Get(0).([]*loan.Loan); ok {
		return loans, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) ListLoansByCustomer(ctx context.Context, p user.Principal, customerID int64) ([]*loan.Loan, *customer.Customer, error) {
	args := m.Called(ctx, p, customerID)
	var loans []*loan.Loan
	if v, ok := args.Get(0).([]*loan.Loan); ok {
		loans = v
	}
	var cust *customer.Customer
	if v, ok := args.Get(1).(*customer.Customer); ok {
		cust = v
	}
	return loans, cust, args.Error(2)
}

func (m *MockLoanService) ListLoansByAgent(ctx context.Context, p user.Principal, agentID int64) ([]*loan.Loan, *agent.Agent, error) {
	args := m.Called(ctx, p, agentID)
	var loans []*loan.Loan
	if v, ok := args.Get(0).([]*loan.Loan); ok {
		loans = v
	}
	var ag *agent.Agent
	if v, ok := args.Get(1).(*agent.Agent); ok {
		ag = v
	}
	return loans, ag, args.Error(2)
}

func (m *MockLoanService) UpdateStatus(ctx context.Context, p user.Principal, loanID int64, newStatus loan.Status) (*loan.Loan, error) {
	args := m.Called(ctx, p, loanID, newStatus)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) UpdateRecoveryStatus(ctx context.Context, p user.Principal, loanID int64, newStatus loan.RecoveryStatus) (*loan.Loan, error) {
	args := m.Called(ctx, p, loanID, newStatus)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) AssignAgent(ctx context.Context, p user.Principal, loanID, agentID int64) (*loan.Loan, error) {
	args := m.Called(ctx, p, loanID, agentID)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) DeleteLoan(ctx context.Context, p user.Principal, loanID int64) error {
	args := m.Called(ctx, p, loanID)
	return args.Error(0)
}

func (m *MockLoanService) GetOutstanding(ctx context.Context, p user.Principal, loanID int64) (loan.Money, error) {
	args := m.Called(ctx, p, loanID)
	if v, ok := args.Get(0).(loan.Money); ok {
		return v, args.Error(1)
	}
	return 0, args.Error(1)
}

func (m *MockLoanService) GetInstallmentPlan(ctx context.Context, p user.Principal, loanID int64) (*loan.Loan, []loan.ScheduleEntry, error) {
	args := m.Called(ctx, p, loanID)
	var l *loan.Loan
	if v, ok := args.Get(0).(*loan.Loan); ok {
		l = v
	}
	var plan []loan.ScheduleEntry
	if v, ok := args.Get(1).([]loan.ScheduleEntry); ok {
		plan = v
	}
	return l, plan, args.Error(2)
}

// requestWith builds a request carrying the caller's principal and chi URL
// params, the way the router middleware would.
func requestWith(method, target string, body string, p user.Principal, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}

	ctx := middleware.WithPrincipal(req.Context(), p)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

type envelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
	Count   *int           `json:"count"`
}

type errorResponse struct {
	Success bool `json:"success"`
	Error   struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestLoanHandlerCreateLoan(t *testing.T) {
	mockService := new(MockLoanService)
	h := NewLoanHandler(mockService, testLogger)

	t.Run("successfully creates a loan", func(t *testing.T) {
		mockService.On("CreateLoan", mock.Anything, customerPrincipal, int64(1), 100000.0, 12.0, 12).
			Return(&loan.Loan{ID: 10, CustomerID: 1, Amount: 100000, InterestRate: 12, TermMonths: 12, Status: loan.StatusPending}, nil).Once()

		body := `{"customerId":1,"amount":100000,"interestRate":12,"termMonths":12}`
		rec := httptest.NewRecorder()

		h.CreateLoan(rec, requestWith(http.MethodPost, "/loans", body, customerPrincipal, nil))

		assert.Equal(t, http.StatusCreated, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)
		assert.Equal(t, "Loan application submitted successfully", env.Message)
		loanData := env.Data["loan"].(map[string]any)
		assert.Equal(t, "10", loanData["id"])
		assert.Equal(t, "pending", loanData["status"])
		mockService.AssertExpectations(t)
	})

	t.Run("rejects malformed payload", func(t *testing.T) {
		rec := httptest.NewRecorder()

		h.CreateLoan(rec, requestWith(http.MethodPost, "/loans", `{"amount":`, customerPrincipal, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION", decodeError(t, rec).Error.Kind)
	})

	t.Run("rejects invalid terms before the service is called", func(t *testing.T) {
		freshService := new(MockLoanService)
		freshHandler := NewLoanHandler(freshService, testLogger)
		rec := httptest.NewRecorder()

		body := `{"customerId":1,"amount":-5,"interestRate":12,"termMonths":12}`
		freshHandler.CreateLoan(rec, requestWith(http.MethodPost, "/loans", body, customerPrincipal, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		freshService.AssertNotCalled(t, "CreateLoan", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("requires a principal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/loans", strings.NewReader(`{}`))

		h.CreateLoan(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLoanHandlerGetLoan(t *testing.T) {
	mockService := new(MockLoanService)
	h := NewLoanHandler(mockService, testLogger)

	t.Run("successfully retrieves loan details", func(t *testing.T) {
		mockService.On("GetLoan", mock.Anything, adminPrincipal, int64(123)).
			Return(&loan.Loan{ID: 123, CustomerID: 1, Status: loan.StatusApproved}, nil).Once()

		rec := httptest.NewRecorder()
		h.GetLoan(rec, requestWith(http.MethodGet, "/loans/123", "", adminPrincipal, map[string]string{"loanID": "123"}))

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		loanData := env.Data["loan"].(map[string]any)
		assert.Equal(t, "123", loanData["id"])
		mockService.AssertExpectations(t)
	})

	t.Run("returns error for invalid loan ID", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetLoan(rec, requestWith(http.MethodGet, "/loans/abc", "", adminPrincipal, map[string]string{"loanID": "abc"}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps not found to 404", func(t *testing.T) {
		mockService.On("GetLoan", mock.Anything, adminPrincipal, int64(404)).
			Return(nil, apperrors.ErrNotFound).Once()

		rec := httptest.NewRecorder()
		h.GetLoan(rec, requestWith(http.MethodGet, "/loans/404", "", adminPrincipal, map[string]string{"loanID": "404"}))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Error.Kind)
	})
}

func TestLoanHandlerListLoans(t *testing.T) {
	mockService := new(MockLoanService)
	h := NewLoanHandler(mockService, testLogger)

	mockService.On("ListLoans", mock.Anything, adminPrincipal).
		Return([]*loan.Loan{{ID: 1, CustomerID: 1}, {ID: 2, CustomerID: 2}}, nil).Once()

	rec := httptest.NewRecorder()
	h.ListLoans(rec, requestWith(http.MethodGet, "/loans", "", adminPrincipal, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.NotNil(t, env.Count)
	assert.Equal(t, 2, *env.Count)
	assert.Len(t, env.Data["loans"], 2)
}

func TestLoanHandlerListByCustomer(t *testing.T) {
	mockService := new(MockLoanService)
	h := NewLoanHandler(mockService, testLogger)

	mockService.On("ListLoansByCustomer", mock.Anything, adminPrincipal, int64(1)).
		Return([]*loan.Loan{{ID: 1, CustomerID: 1}}, &customer.Customer{ID: 1, Name: "Asha"}, nil).Once()

	rec := httptest.NewRecorder()
	h.ListByCustomer(rec, requestWith(http.MethodGet, "/loans/customer/1", "", adminPrincipal, map[string]string{"customerID": "1"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	custData := env.Data["customer"].(map[string]any)
	assert.Equal(t, "Asha", custData["name"])
	assert.Len(t, env.Data["loans"], 1)
}

func TestLoanHandlerUpdateStatus(t *testing.T) {
	mockService := new(MockLoanService)
	h := NewLoanHandler(mockService, testLogger)

	t.Run("reports the new status in the message", func(t *testing.T) {
		mockService.On("UpdateStatus", mock.Anything, adminPrincipal, int64(5), loan.StatusApproved).
			Return(&loan.Loan{ID: 5, CustomerID: 1, Status: loan.StatusApproved}, nil).Once()

		rec := httptest.NewRecorder()
		h.UpdateStatus(rec, requestWith(http.MethodPatch, "/loans/5/status",
			`{"status":"approved"}`, adminPrincipal, map[string]string{"loanID": "5"}))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Loan status updated to approved", decodeEnvelope(t, rec).Message)
		mockService.AssertExpectations(t)
	})

	t.Run("maps illegal transitions to 400", func(t *testing.T) {
		mockService.On("UpdateStatus", mock.Anything, adminPrincipal, int64(5), loan.StatusActive).
			Return(nil, apperrors.ErrValidation).Once()

		rec := httptest.NewRecorder()
		h.UpdateStatus(rec, requestWith(http.MethodPatch, "/loans/5/status",
			`{"status":"active"}`, adminPrincipal, map[string]string{"loanID": "5"}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requires a status value", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.UpdateStatus(rec, requestWith(http.MethodPatch, "/loans/5/status",
			`{}`, adminPrincipal, map[string]string{"loanID": "5"}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoanHandlerAssignAgent(t *testing.T) {
	mockService := new(MockLoanService)
	h := NewLoanHandler(mockService, testLogger)

	t.Run("successfully assigns an agent", func(t *testing.T) {
		agentID := int64(7)
		rs := loan.RecoveryAssigned
		mockService.On("AssignAgent", mock.Anything, adminPrincipal, int64(5), agentID).
			Return(&loan.Loan{ID: 5, CustomerID: 1, AgentID: &agentID, Status: loan.StatusDefaulted, RecoveryStatus: &rs}, nil).Once()

		rec := httptest.NewRecorder()
		h.AssignAgent(rec, requestWith(http.MethodPatch, "/loans/5/assign-agent",
			`{"agentId":7}`, adminPrincipal, map[string]string{"loanID": "5"}))

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "Agent assigned successfully", env.Message)
		loanData := env.Data["loan"].(map[string]any)
		assert.Equal(t, "7", loanData["agentId"])
		assert.Equal(t, "assigned", loanData["recoveryStatus"])
	})

	t.Run("forbidden for non-admins maps to 403", func(t *testing.T) {
		mockService.On("AssignAgent", mock.Anything, customerPrincipal, int64(5), int64(7)).
			Return(nil, apperrors.ErrForbidden).Once()

		rec := httptest.NewRecorder()
		h.AssignAgent(rec, requestWith(http.MethodPatch, "/loans/5/assign-agent",
			`{"agentId":7}`, customerPrincipal, map[string]string{"loanID": "5"}))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestLoanHandlerDeleteLoan(t *testing.T) {
	mockService := new(MockLoanService)
	h := NewLoanHandler(mockService, testLogger)

	mockService.On("DeleteLoan", mock.Anything, adminPrincipal, int64(5)).Return(nil).Once()

	rec := httptest.NewRecorder()
	h.DeleteLoan(rec, requestWith(http.MethodDelete, "/loans/5", "", adminPrincipal, map[string]string{"loanID": "5"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Loan deleted successfully", decodeEnvelope(t, rec).Message)
}

func TestLoanHandlerGetOutstanding(t *testing.T) {
	mockService := new(MockLoanService)
	h := NewLoanHandler(mockService, testLogger)

	mockService.On("GetOutstanding", mock.Anything, adminPrincipal, int64(5)).
		Return(loan.Money(9000), nil).Once()

	rec := httptest.NewRecorder()
	h.GetOutstanding(rec, requestWith(http.MethodGet, "/loans/5/outstanding", "", adminPrincipal, map[string]string{"loanID": "5"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "5", env.Data["loanId"])
	assert.Equal(t, "9000.00", env.Data["outstandingAmount"])
}

func TestLoanHandlerGetInstallmentPlan(t *testing.T) {
	mockService := new(MockLoanService)
	h := NewLoanHandler(mockService, testLogger)

	l := &loan.Loan{ID: 5, CustomerID: 1, Amount: 12000, InterestRate: 0, TermMonths: 2}
	plan := []loan.ScheduleEntry{
		{Month: 1, DueAmount: 6000},
		{Month: 2, DueAmount: 6000},
	}
	mockService.On("GetInstallmentPlan", mock.Anything, adminPrincipal, int64(5)).Return(l, plan, nil).Once()

	rec := httptest.NewRecorder()
	h.GetInstallmentPlan(rec, requestWith(http.MethodGet, "/loans/5/emi", "", adminPrincipal, map[string]string{"loanID": "5"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "5", env.Data["loanId"])
	assert.Len(t, env.Data["schedule"], 2)
}
