package loan

import (
	"fmt"
	"math"
	"time"

	"loan-recovery/internal/pkg/apperrors"
)

// Balances below one currency unit are reported as fully paid to absorb
// floating-point and rounding drift accumulated over a payment history.
const fullyPaidTolerance = 1.0

// MonthlyInstallment computes the fixed EMI for the loan using the standard
// reducing-balance formula, rounded to 2 decimal places. A zero interest rate
// degenerates to an even principal split.
func (l *Loan) MonthlyInstallment() float64 {
	n := float64(l.TermMonths)
	r := l.InterestRate / 100 / 12
	if r == 0 {
		return roundTo(l.Amount/n, 2)
	}
	factor := math.Pow(1+r, n)
	return roundTo(l.Amount*r*factor/(factor-1), 2)
}

// TotalPayable is the amount due over the full term, EMI times term.
func (l *Loan) TotalPayable() float64 {
	return roundTo(l.MonthlyInstallment()*float64(l.TermMonths), 2)
}

// OutstandingBalance reports what remains of totalDue after paidToDate,
// clamped at zero.
func OutstandingBalance(totalDue, paidToDate float64) float64 {
	balance := roundTo(totalDue-paidToDate, 2)
	if balance < fullyPaidTolerance {
		return 0
	}
	return balance
}

type ScheduleEntry struct {
	Month     int
	DueDate   time.Time
	DueAmount float64
}

// InstallmentPlan lays the EMIs out month by month from the given base date.
// The final installment absorbs the rounding remainder so the plan sums to
// the total payable exactly.
func (l *Loan) InstallmentPlan(from time.Time) ([]ScheduleEntry, error) {
	if l.TermMonths <= 0 {
		return nil, fmt.Errorf("%w: invalid loan term for installment plan", apperrors.ErrInvalidArgument)
	}

	emi := l.MonthlyInstallment()
	total := l.TotalPayable()

	plan := make([]ScheduleEntry, 0, l.TermMonths)
	accumulated := 0.0
	for month := 1; month <= l.TermMonths; month++ {
		amount := emi
		if month == l.TermMonths {
			amount = roundTo(total-accumulated, 2)
			if amount < 0 {
				amount = 0
			}
		}
		plan = append(plan, ScheduleEntry{
			Month:     month,
			DueDate:   from.AddDate(0, month, 0),
			DueAmount: amount,
		})
		accumulated += amount
	}

	if math.Abs(roundTo(accumulated, 2)-total) > 0.01 {
		return nil, fmt.Errorf("%w: installment plan sums to %.2f, expected %.2f",
			apperrors.ErrInternalServer, accumulated, total)
	}
	return plan, nil
}

func roundTo(n float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(n*pow) / pow
}
