package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInstallmentNotFound       = errors.New("installment not found")
	ErrInstallmentImmutable      = errors.New("paid or skipped installments cannot be edited")
	ErrInstallmentSumMismatch    = errors.New("installment amounts must sum to the financed amount")
	ErrInstallmentDateInPast     = errors.New("due date cannot be earlier than today")
	ErrInstallmentAmountInvalid  = errors.New("installment amount must be positive")
	ErrInstallmentPaymentInvalid = errors.New("payment amount must be positive")
)

// Installment statuses
const (
	InstallmentStatusPending = "pending"
	InstallmentStatusPartial = "partial"
	InstallmentStatusPaid    = "paid"
	InstallmentStatusSkipped = "skipped"
)

// SumTolerance absorbs rounding drift when comparing a schedule's sum
// against the amount it finances.
var SumTolerance = decimal.NewFromFloat(0.01)

// Installment is one scheduled partial payment of a single service
// transaction. The amounts of a service's installments must sum to the
// financed amount (the charge less any upfront deposit) within
// SumTolerance.
type Installment struct {
	ID             int32           `json:"id"`
	TransactionID  int32           `json:"transactionId"`
	Sequence       int32           `json:"sequence"`
	DueDate        time.Time       `json:"dueDate"`
	Amount         decimal.Decimal `json:"amount"`
	AmountPaid     decimal.Decimal `json:"amountPaid"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// IsResolved reports whether the installment no longer contributes a
// due date: fully paid or explicitly skipped.
func (i *Installment) IsResolved() bool {
	return i.Status == InstallmentStatusPaid || i.Status == InstallmentStatusSkipped
}

// EffectiveAmount is the amount an installment contributes when
// checking the schedule-sum invariant: paid rows count what was
// actually paid, skipped rows count nothing.
func (i *Installment) EffectiveAmount() decimal.Decimal {
	switch i.Status {
	case InstallmentStatusPaid:
		return i.AmountPaid
	case InstallmentStatusSkipped:
		return decimal.Zero
	default:
		return i.Amount
	}
}

type InstallmentRepository interface {
	CreateBatchTx(tx interface{}, installments []*Installment) error
	GetByID(id int32) (*Installment, error)
	GetByTransactionID(transactionID int32) ([]*Installment, error)
	GetByTransactionIDs(transactionIDs []int32) (map[int32][]*Installment, error)
	UpdateScheduleTx(tx interface{}, installments []*Installment) error
	RecordPayment(id int32, amountPaid decimal.Decimal, status string) (*Installment, error)
}
