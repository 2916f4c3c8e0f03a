package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"loan-recovery/internal/domain/customer"
	"loan-recovery/internal/pkg/apperrors"
)

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) CreateCustomer(ctx context.Context, name, email, phone, address string) (*customer.Customer, error) {
	args := m.Called(ctx, name, email, phone, address)
	if c, ok := args.Get(0).(*customer.Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	if c, ok := args.Get(0).(*customer.Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerService) ListCustomers(ctx context.Context) ([]*customer.Customer, error) {
	args := m.Called(ctx)
	if customers, ok := args.Get(0).([]*customer.Customer); ok {
		return customers, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCustomerHandlerCreateCustomer(t *testing.T) {
	t.Run("successfully registers a customer", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := NewCustomerHandler(mockService, testLogger)
		mockService.On("CreateCustomer", mock.Anything, "Asha", "asha@example.com", "555-0100", "").
			Return(&customer.Customer{ID: 3, Name: "Asha", Email: "asha@example.com", Phone: "555-0100"}, nil).Once()

		rec := httptest.NewRecorder()
		h.CreateCustomer(rec, requestWith(http.MethodPost, "/customers",
			`{"name":"Asha","email":"asha@example.com","phone":"555-0100"}`, adminPrincipal, nil))

		assert.Equal(t, http.StatusCreated, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "Customer registered successfully", env.Message)
		customerData := env.Data["customer"].(map[string]any)
		assert.Equal(t, "3", customerData["id"])
		mockService.AssertExpectations(t)
	})

	t.Run("non-admin callers are forbidden", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := NewCustomerHandler(mockService, testLogger)

		rec := httptest.NewRecorder()
		h.CreateCustomer(rec, requestWith(http.MethodPost, "/customers",
			`{"name":"Asha","email":"asha@example.com","phone":"555-0100"}`, customerPrincipal, nil))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		mockService.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects an invalid email", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := NewCustomerHandler(mockService, testLogger)

		rec := httptest.NewRecorder()
		h.CreateCustomer(rec, requestWith(http.MethodPost, "/customers",
			`{"name":"Asha","email":"not-an-email","phone":"555-0100"}`, adminPrincipal, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCustomerHandlerGetCustomer(t *testing.T) {
	t.Run("admins may fetch anyone", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := NewCustomerHandler(mockService, testLogger)
		mockService.On("GetCustomer", mock.Anything, int64(3)).
			Return(&customer.Customer{ID: 3, Name: "Asha"}, nil).Once()

		rec := httptest.NewRecorder()
		h.GetCustomer(rec, requestWith(http.MethodGet, "/customers/3", "", adminPrincipal,
			map[string]string{"customerID": "3"}))

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		customerData := env.Data["customer"].(map[string]any)
		assert.Equal(t, "Asha", customerData["name"])
	})

	t.Run("a customer may fetch their own record", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := NewCustomerHandler(mockService, testLogger)
		mockService.On("GetCustomer", mock.Anything, customerPrincipal.UserID).
			Return(&customer.Customer{ID: customerPrincipal.UserID, Name: "Asha"}, nil).Once()

		rec := httptest.NewRecorder()
		h.GetCustomer(rec, requestWith(http.MethodGet, "/customers/1", "", customerPrincipal,
			map[string]string{"customerID": "1"}))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("a customer may not fetch someone else's record", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := NewCustomerHandler(mockService, testLogger)

		rec := httptest.NewRecorder()
		h.GetCustomer(rec, requestWith(http.MethodGet, "/customers/2", "", customerPrincipal,
			map[string]string{"customerID": "2"}))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		mockService.AssertNotCalled(t, "GetCustomer", mock.Anything, mock.Anything)
	})

	t.Run("maps not found to 404", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := NewCustomerHandler(mockService, testLogger)
		mockService.On("GetCustomer", mock.Anything, int64(404)).
			Return(nil, apperrors.ErrNotFound).Once()

		rec := httptest.NewRecorder()
		h.GetCustomer(rec, requestWith(http.MethodGet, "/customers/404", "", adminPrincipal,
			map[string]string{"customerID": "404"}))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCustomerHandlerListCustomers(t *testing.T) {
	t.Run("returns every customer for admins", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := NewCustomerHandler(mockService, testLogger)
		mockService.On("ListCustomers", mock.Anything).
			Return([]*customer.Customer{{ID: 1}, {ID: 2}}, nil).Once()

		rec := httptest.NewRecorder()
		h.ListCustomers(rec, requestWith(http.MethodGet, "/customers", "", adminPrincipal, nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, 2, *env.Count)
		assert.Len(t, env.Data["customers"], 2)
	})

	t.Run("non-admin callers are forbidden", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := NewCustomerHandler(mockService, testLogger)

		rec := httptest.NewRecorder()
		h.ListCustomers(rec, requestWith(http.MethodGet, "/customers", "", customerPrincipal, nil))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		mockService.AssertNotCalled(t, "ListCustomers", mock.Anything)
	})
}
