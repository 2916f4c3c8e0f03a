package dto

import (
	"fmt"
	"strconv"
	"time"

	"loan-recovery/internal/domain/payment"
)

type CreatePaymentRequest struct {
	LoanID int64   `json:"loanId"`
	Amount float64 `json:"amount"`
}

func (r *CreatePaymentRequest) Validate() error {
	if r.LoanID <= 0 {
		return fmt.Errorf("loanId is required")
	}
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	return nil
}

type PaymentResponse struct {
	ID          string    `json:"id"`
	LoanID      string    `json:"loanId"`
	Amount      string    `json:"amount"`
	PaymentDate string    `json:"paymentDate"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewPaymentResponse(pm *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          strconv.FormatInt(pm.ID, 10),
		LoanID:      strconv.FormatInt(pm.LoanID, 10),
		Amount:      money(pm.Amount),
		PaymentDate: pm.PaymentDate.Format(dateLayout),
		Status:      string(pm.Status),
		CreatedAt:   pm.CreatedAt,
	}
}

func NewPaymentListResponse(payments []*payment.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i, pm := range payments {
		out[i] = NewPaymentResponse(pm)
	}
	return out
}
