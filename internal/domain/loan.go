package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrLoanNotFound       = errors.New("loan not found")
	ErrLoanAmountInvalid  = errors.New("amount must be positive")
	ErrLoanCustomerNeeded = errors.New("customer ID is required")
)

// Loan statuses
const (
	LoanStatusActive  = "Active"
	LoanStatusSettled = "Settled"
)

// Loan is the running-balance account for one customer. CurrentBalance
// is derived state: it is rewritten from the ledger sum on every
// mutation and recomputed from the ledger on every read, so it can
// never drift from the transaction log.
type Loan struct {
	ID             int32           `json:"id"`
	CustomerID     int32           `json:"customerId"`
	TotalDebt      decimal.Decimal `json:"totalDebt"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	Status         string          `json:"status"`
	NextDueDate    *time.Time      `json:"nextDueDate,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (l *Loan) Validate() error {
	if l.CustomerID <= 0 {
		return ErrLoanCustomerNeeded
	}
	if l.TotalDebt.IsNegative() {
		return ErrLoanAmountInvalid
	}
	return nil
}

type LoanRepository interface {
	Create(loan *Loan) (*Loan, error)
	CreateTx(tx interface{}, loan *Loan) (*Loan, error) // Transactional create
	GetByID(id int32) (*Loan, error)
	GetByCustomerID(customerID int32) (*Loan, error)
	GetByCustomerIDs(customerIDs []int32) ([]*Loan, error)
	UpdateBalanceTx(tx interface{}, id int32, balance, totalDebt decimal.Decimal, status string, nextDue *time.Time) error
}
