package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrTransactionNotFound      = errors.New("transaction not found")
	ErrTransactionKindInvalid   = errors.New("transaction kind must be service, fee, or payment")
	ErrTransactionAmountInvalid = errors.New("transaction amount must be positive")
	ErrTransactionLoanRequired  = errors.New("loan ID is required")
)

// Transaction kinds
const (
	TransactionKindService = "service"
	TransactionKindFee     = "fee"
	TransactionKindPayment = "payment"
)

// DepositRemark marks the payment row written alongside a service
// charge for its upfront deposit. A deposit reduces the amount the
// installment schedule has to cover.
const DepositRemark = "Deposit"

// Transaction is an immutable ledger entry on a loan. Payments carry a
// server-generated receipt reference and may carry an explicit link to
// the service transaction they settle; when the link is absent the
// projector falls back to date-proximity matching.
type Transaction struct {
	ID            int32           `json:"id"`
	LoanID        int32           `json:"loanId"`
	Kind          string          `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Remark        *string         `json:"remark,omitempty"`
	PaymentMethod *string         `json:"paymentMethod,omitempty"`
	ReceiptRef    *string         `json:"receiptRef,omitempty"`
	AppliesToID   *int32          `json:"appliesToId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (t *Transaction) Validate() error {
	if t.LoanID <= 0 {
		return ErrTransactionLoanRequired
	}
	switch NormalizeKind(t.Kind) {
	case TransactionKindService, TransactionKindFee, TransactionKindPayment:
	default:
		return ErrTransactionKindInvalid
	}
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrTransactionAmountInvalid
	}
	return nil
}

// NormalizeKind lower-cases and trims a kind string so ledger rows
// written with mixed casing still partition correctly.
func NormalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}

type TransactionRepository interface {
	Create(txn *Transaction) (*Transaction, error)
	CreateTx(tx interface{}, txn *Transaction) (*Transaction, error) // Transactional create
	GetByID(id int32) (*Transaction, error)
	GetByLoanID(loanID int32) ([]*Transaction, error)
	GetByLoanIDs(loanIDs []int32) ([]*Transaction, error)
	GetByLoanIDTx(tx interface{}, loanID int32) ([]*Transaction, error)
}
