package service

import (
	"errors"
	"time"

	"github.com/hmtravels/backoffice-backend/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrFrequencyInvalid = errors.New("frequency must be weekly, biweekly, or monthly")
	ErrTermCountInvalid = errors.New("term count must be at least 1")
	ErrDepositInvalid   = errors.New("deposit must be between zero and the total amount")
)

// Payment frequencies
const (
	FrequencyWeekly   = "weekly"
	FrequencyBiweekly = "biweekly"
	FrequencyMonthly  = "monthly"
)

// PlanInput describes one service charge to be split into installments.
// TermCount is expressed in periods for weekly and monthly plans, and
// in weeks for biweekly plans (one installment covers two weeks).
type PlanInput struct {
	TotalAmount      decimal.Decimal
	Deposit          decimal.Decimal
	TermCount        int
	Frequency        string
	FirstPaymentDate time.Time
}

// InstallmentCount returns how many installments a plan produces.
// Biweekly plans cover two weeks per installment, so the count rounds
// the week-denominated term up to the next whole installment.
func InstallmentCount(termCount int, frequency string) (int, error) {
	switch frequency {
	case FrequencyWeekly, FrequencyMonthly:
		return termCount, nil
	case FrequencyBiweekly:
		return (termCount + 1) / 2, nil
	default:
		return 0, ErrFrequencyInvalid
	}
}

// GenerateSchedule converts a lump service charge into an ordered
// installment schedule. The amount net of deposit is split into
// equal cent-floored installments, with the final installment
// absorbing the leftover cents so the schedule sums exactly to the
// financed amount. A deposit covering the full amount yields an empty
// schedule.
func GenerateSchedule(input PlanInput) ([]*domain.Installment, error) {
	if input.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrLoanAmountInvalid
	}
	if input.Deposit.IsNegative() || input.Deposit.GreaterThan(input.TotalAmount) {
		return nil, ErrDepositInvalid
	}
	if input.TermCount < 1 {
		return nil, ErrTermCountInvalid
	}

	n, err := InstallmentCount(input.TermCount, input.Frequency)
	if err != nil {
		return nil, err
	}

	remaining := input.TotalAmount.Sub(input.Deposit)
	if remaining.LessThanOrEqual(decimal.Zero) || n == 0 {
		return []*domain.Installment{}, nil
	}

	base := remaining.Div(decimal.NewFromInt(int64(n))).RoundDown(2)
	last := remaining.Sub(base.Mul(decimal.NewFromInt(int64(n - 1))))

	schedule := make([]*domain.Installment, 0, n)
	outstanding := remaining
	for i := 0; i < n; i++ {
		amount := base
		if i == n-1 {
			amount = last
		}
		outstanding = outstanding.Sub(amount)
		if outstanding.IsNegative() {
			outstanding = decimal.Zero
		}
		schedule = append(schedule, &domain.Installment{
			Sequence:       int32(i + 1),
			DueDate:        dueDateFor(input.FirstPaymentDate, input.Frequency, i),
			Amount:         amount,
			AmountPaid:     decimal.Zero,
			RunningBalance: outstanding,
			Status:         domain.InstallmentStatusPending,
		})
	}
	return schedule, nil
}

// dueDateFor returns the due date of the i-th installment (0-based).
// Monthly plans use calendar month addition, which can shift the
// day-of-month past short months; that shift is intentional and not
// normalized back.
func dueDateFor(first time.Time, frequency string, i int) time.Time {
	switch frequency {
	case FrequencyWeekly:
		return first.AddDate(0, 0, 7*i)
	case FrequencyBiweekly:
		return first.AddDate(0, 0, 14*i)
	default:
		return first.AddDate(0, i, 0)
	}
}
