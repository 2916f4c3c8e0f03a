package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"loan-recovery/internal/domain/loan"
)

func TestNewLoanResponse(t *testing.T) {
	agentID := int64(7)
	rs := loan.RecoveryAssigned
	start := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 12, 0)
	mockLoan := &loan.Loan{
		ID:           1,
		CustomerID:   3,
		Amount:       12000.0,
		InterestRate: 0,
		TermMonths:   12,
		Status:       loan.StatusApproved,
		StartDate:    &start,
		EndDate:      &end,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	t.Run("without assignment", func(t *testing.T) {
		response := NewLoanResponse(mockLoan)

		assert.Equal(t, "1", response.ID)
		assert.Equal(t, "3", response.CustomerID)
		assert.Equal(t, "12000.00", response.Amount)
		assert.Equal(t, "0", response.InterestRate)
		assert.Equal(t, 12, response.TermMonths)
		assert.Equal(t, string(loan.StatusApproved), response.Status)
		assert.Equal(t, "1000.00", response.MonthlyInstallment)
		assert.Equal(t, "12000.00", response.TotalPayable)
		assert.NotNil(t, response.StartDate)
		assert.Equal(t, "2026-01-31", *response.StartDate)
		assert.NotNil(t, response.EndDate)
		assert.Equal(t, "2027-01-31", *response.EndDate)
		assert.Nil(t, response.AgentID)
		assert.Nil(t, response.RecoveryStatus)
		assert.Equal(t, mockLoan.CreatedAt, response.CreatedAt)
		assert.Equal(t, mockLoan.UpdatedAt, response.UpdatedAt)
	})

	t.Run("with assignment", func(t *testing.T) {
		assigned := *mockLoan
		assigned.AgentID = &agentID
		assigned.RecoveryStatus = &rs

		response := NewLoanResponse(&assigned)

		assert.NotNil(t, response.AgentID)
		assert.Equal(t, "7", *response.AgentID)
		assert.NotNil(t, response.RecoveryStatus)
		assert.Equal(t, string(loan.RecoveryAssigned), *response.RecoveryStatus)
	})
}

func TestCreateLoanRequestValidate(t *testing.T) {
	valid := CreateLoanRequest{CustomerID: 1, Amount: 1000, InterestRate: 12, TermMonths: 12}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*CreateLoanRequest)
	}{
		{"missing customer", func(r *CreateLoanRequest) { r.CustomerID = 0 }},
		{"zero amount", func(r *CreateLoanRequest) { r.Amount = 0 }},
		{"negative rate", func(r *CreateLoanRequest) { r.InterestRate = -1 }},
		{"rate over cap", func(r *CreateLoanRequest) { r.InterestRate = 101 }},
		{"zero term", func(r *CreateLoanRequest) { r.TermMonths = 0 }},
		{"term over cap", func(r *CreateLoanRequest) { r.TermMonths = 361 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestNewInstallmentPlanResponse(t *testing.T) {
	l := &loan.Loan{ID: 5, Amount: 1000, InterestRate: 0, TermMonths: 3}
	plan, err := l.InstallmentPlan(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)

	response := NewInstallmentPlanResponse(l, plan)

	assert.Equal(t, "5", response.LoanID)
	assert.Equal(t, "333.33", response.MonthlyInstallment)
	assert.Equal(t, "999.99", response.TotalPayable)
	assert.Len(t, response.Schedule, 3)
	assert.Equal(t, 1, response.Schedule[0].Month)
	assert.Equal(t, "2026-02-15", response.Schedule[0].DueDate)
	assert.Equal(t, "333.33", response.Schedule[0].DueAmount)
}
