package dto

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"loan-recovery/internal/domain/loan"
)

const dateLayout = "2006-01-02"

type CreateLoanRequest struct {
	CustomerID   int64   `json:"customerId"`
	Amount       float64 `json:"amount"`
	InterestRate float64 `json:"interestRate"`
	TermMonths   int     `json:"termMonths"`
}

func (r *CreateLoanRequest) Validate() error {
	if r.CustomerID <= 0 {
		return fmt.Errorf("customerId is required")
	}
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	if r.InterestRate < 0 || r.InterestRate > loan.MaxInterestRate {
		return fmt.Errorf("interestRate must be between 0 and 100")
	}
	if r.TermMonths < loan.MinTermMonths || r.TermMonths > loan.MaxTermMonths {
		return fmt.Errorf("termMonths must be between 1 and 360")
	}
	return nil
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdateStatusRequest) Validate() error {
	if r.Status == "" {
		return fmt.Errorf("status is required")
	}
	return nil
}

type UpdateRecoveryStatusRequest struct {
	RecoveryStatus string `json:"recoveryStatus"`
}

func (r *UpdateRecoveryStatusRequest) Validate() error {
	if r.RecoveryStatus == "" {
		return fmt.Errorf("recoveryStatus is required")
	}
	return nil
}

type AssignAgentRequest struct {
	AgentID int64 `json:"agentId"`
}

func (r *AssignAgentRequest) Validate() error {
	if r.AgentID <= 0 {
		return fmt.Errorf("agentId is required")
	}
	return nil
}

type LoanResponse struct {
	ID                 string            `json:"id"`
	CustomerID         string            `json:"customerId"`
	AgentID            *string           `json:"agentId,omitempty"`
	Amount             string            `json:"amount"`
	InterestRate       string            `json:"interestRate"`
	TermMonths         int               `json:"termMonths"`
	Status             string            `json:"status"`
	RecoveryStatus     *string           `json:"recoveryStatus,omitempty"`
	MonthlyInstallment string            `json:"monthlyInstallment"`
	TotalPayable       string            `json:"totalPayable"`
	StartDate          *string           `json:"startDate,omitempty"`
	EndDate            *string           `json:"endDate,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
	Customer           *CustomerResponse `json:"customer,omitempty"`
	Agent              *AgentResponse    `json:"agent,omitempty"`
}

type ScheduleEntryResponse struct {
	Month     int    `json:"month"`
	DueDate   string `json:"dueDate"`
	DueAmount string `json:"dueAmount"`
}

type InstallmentPlanResponse struct {
	LoanID             string                  `json:"loanId"`
	MonthlyInstallment string                  `json:"monthlyInstallment"`
	TotalPayable       string                  `json:"totalPayable"`
	Schedule           []ScheduleEntryResponse `json:"schedule"`
}

type OutstandingResponse struct {
	LoanID            string `json:"loanId"`
	OutstandingAmount string `json:"outstandingAmount"`
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	resp := LoanResponse{
		ID:                 strconv.FormatInt(l.ID, 10),
		CustomerID:         strconv.FormatInt(l.CustomerID, 10),
		Amount:             money(l.Amount),
		InterestRate:       decimal.NewFromFloat(l.InterestRate).String(),
		TermMonths:         l.TermMonths,
		Status:             string(l.Status),
		MonthlyInstallment: money(l.MonthlyInstallment()),
		TotalPayable:       money(l.TotalPayable()),
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}

	if l.AgentID != nil {
		s := strconv.FormatInt(*l.AgentID, 10)
		resp.AgentID = &s
	}
	if l.RecoveryStatus != nil {
		s := string(*l.RecoveryStatus)
		resp.RecoveryStatus = &s
	}
	if l.StartDate != nil {
		s := l.StartDate.Format(dateLayout)
		resp.StartDate = &s
	}
	if l.EndDate != nil {
		s := l.EndDate.Format(dateLayout)
		resp.EndDate = &s
	}
	if l.Customer != nil {
		c := NewCustomerResponse(l.Customer)
		resp.Customer = &c
	}
	if l.Agent != nil {
		a := NewAgentResponse(l.Agent)
		resp.Agent = &a
	}
	return resp
}

func NewLoanListResponse(loans []*loan.Loan) []LoanResponse {
	out := make([]LoanResponse, len(loans))
	for i, l := range loans {
		out[i] = NewLoanResponse(l)
	}
	return out
}

func NewInstallmentPlanResponse(l *loan.Loan, plan []loan.ScheduleEntry) InstallmentPlanResponse {
	schedule := make([]ScheduleEntryResponse, len(plan))
	for i, entry := range plan {
		schedule[i] = ScheduleEntryResponse{
			Month:     entry.Month,
			DueDate:   entry.DueDate.Format(dateLayout),
			DueAmount: money(entry.DueAmount),
		}
	}
	return InstallmentPlanResponse{
		LoanID:             strconv.FormatInt(l.ID, 10),
		MonthlyInstallment: money(l.MonthlyInstallment()),
		TotalPayable:       money(l.TotalPayable()),
		Schedule:           schedule,
	}
}
