package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hmtravels/backoffice-backend/internal/domain"
	"github.com/hmtravels/backoffice-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// LedgerService owns the LMS write paths: recording payments, adding
// service charges and fees, and customer lifecycle. Every multi-step
// write runs inside a single database transaction; a failure anywhere
// rolls the whole step back.
type LedgerService struct {
	txManager       domain.TxManager
	customerRepo    domain.CustomerRepository
	loanRepo        domain.LoanRepository
	transactionRepo domain.TransactionRepository
	installmentRepo domain.InstallmentRepository
	deleteAuthCode  string
	eventPublisher  websocket.EventPublisher
	now             func() time.Time
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(txManager domain.TxManager, customerRepo domain.CustomerRepository, loanRepo domain.LoanRepository, transactionRepo domain.TransactionRepository, installmentRepo domain.InstallmentRepository, deleteAuthCode string) *LedgerService {
	return &LedgerService{
		txManager:       txManager,
		customerRepo:    customerRepo,
		loanRepo:        loanRepo,
		transactionRepo: transactionRepo,
		installmentRepo: installmentRepo,
		deleteAuthCode:  deleteAuthCode,
		now:             time.Now,
	}
}

// SetEventPublisher sets the publisher for real-time updates
func (s *LedgerService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock overrides the service clock, for tests.
func (s *LedgerService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *LedgerService) publish(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// CreateCustomerInput contains input for creating a customer
type CreateCustomerInput struct {
	Name    string
	Phone   *string
	Email   *string
	CNIC    *string
	Address *string
}

// CreateCustomer creates a new customer record
func (s *LedgerService) CreateCustomer(input CreateCustomerInput) (*domain.Customer, error) {
	customer := &domain.Customer{
		Name:    strings.TrimSpace(input.Name),
		Phone:   input.Phone,
		Email:   input.Email,
		CNIC:    input.CNIC,
		Address: input.Address,
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	created, err := s.customerRepo.Create(customer)
	if err != nil {
		return nil, err
	}
	s.publish(websocket.CustomerCreated(created))
	return created, nil
}

// UpdateCustomer updates a customer's identity fields
func (s *LedgerService) UpdateCustomer(id int32, input CreateCustomerInput) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	customer.Name = strings.TrimSpace(input.Name)
	customer.Phone = input.Phone
	customer.Email = input.Email
	customer.CNIC = input.CNIC
	customer.Address = input.Address
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.customerRepo.Update(customer)
	if err != nil {
		return nil, err
	}
	s.publish(websocket.CustomerUpdated(updated))
	return updated, nil
}

// DeleteCustomer removes a customer and, via foreign keys, the entire
// ledger beneath them. The configured auth code gates the cascade.
func (s *LedgerService) DeleteCustomer(id int32, authCode string) error {
	if authCode == "" || authCode != s.deleteAuthCode {
		return domain.ErrForbidden
	}
	if _, err := s.customerRepo.GetByID(id); err != nil {
		return err
	}
	if err := s.customerRepo.Delete(id); err != nil {
		return err
	}
	s.publish(websocket.CustomerDeleted(map[string]int32{"id": id}))
	return nil
}

// PlanRequest describes the optional installment plan for a service
// charge. TermCount is in periods for weekly/monthly plans and in
// weeks for biweekly plans.
type PlanRequest struct {
	Deposit          decimal.Decimal
	TermCount        int
	Frequency        string
	FirstPaymentDate time.Time
}

// AddServiceInput contains input for adding a service charge
type AddServiceInput struct {
	CustomerID    int32
	Amount        decimal.Decimal
	Remark        *string
	PaymentMethod *string
	OccurredAt    *time.Time
	Plan          *PlanRequest
}

// AddServiceResult is the outcome of a service charge write
type AddServiceResult struct {
	Loan         *domain.Loan          `json:"loan"`
	Transaction  *domain.Transaction   `json:"transaction"`
	Installments []*domain.Installment `json:"installments"`
}

// AddService records a debt-creating service charge, its installment
// schedule, and the deposit payment when one was taken. The loan row,
// service transaction, schedule, and deposit are written in one
// database transaction: either the whole debt record exists with its
// schedule or nothing does.
func (s *LedgerService) AddService(ctx context.Context, input AddServiceInput) (*AddServiceResult, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrTransactionAmountInvalid
	}
	customer, err := s.customerRepo.GetByID(input.CustomerID)
	if err != nil {
		return nil, err
	}

	occurredAt := s.now()
	if input.OccurredAt != nil {
		occurredAt = *input.OccurredAt
	}

	// Generate the schedule before touching the database so invalid
	// plans are rejected without opening a transaction.
	var schedule []*domain.Installment
	if input.Plan != nil {
		schedule, err = GenerateSchedule(PlanInput{
			TotalAmount:      input.Amount,
			Deposit:          input.Plan.Deposit,
			TermCount:        input.Plan.TermCount,
			Frequency:        input.Plan.Frequency,
			FirstPaymentDate: input.Plan.FirstPaymentDate,
		})
		if err != nil {
			return nil, err
		}
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	loan, err := s.loanRepo.GetByCustomerID(customer.ID)
	if err == domain.ErrLoanNotFound {
		loan, err = s.loanRepo.CreateTx(tx, &domain.Loan{
			CustomerID:     customer.ID,
			TotalDebt:      decimal.Zero,
			CurrentBalance: decimal.Zero,
			Status:         domain.LoanStatusActive,
		})
	}
	if err != nil {
		return nil, err
	}

	serviceTxn, err := s.transactionRepo.CreateTx(tx, &domain.Transaction{
		LoanID:        loan.ID,
		Kind:          domain.TransactionKindService,
		Amount:        input.Amount,
		OccurredAt:    occurredAt,
		Remark:        input.Remark,
		PaymentMethod: input.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	if len(schedule) > 0 {
		for _, inst := range schedule {
			inst.TransactionID = serviceTxn.ID
		}
		if err := s.installmentRepo.CreateBatchTx(tx, schedule); err != nil {
			return nil, err
		}
	}

	if input.Plan != nil && input.Plan.Deposit.GreaterThan(decimal.Zero) {
		ref := uuid.NewString()
		remark := domain.DepositRemark
		if _, err := s.transactionRepo.CreateTx(tx, &domain.Transaction{
			LoanID:        loan.ID,
			Kind:          domain.TransactionKindPayment,
			Amount:        input.Plan.Deposit,
			OccurredAt:    occurredAt,
			Remark:        &remark,
			PaymentMethod: input.PaymentMethod,
			ReceiptRef:    &ref,
			AppliesToID:   &serviceTxn.ID,
		}); err != nil {
			return nil, err
		}
	}

	nextDue := occurredAt
	if len(schedule) > 0 {
		nextDue = schedule[0].DueDate
	}
	candidate := &nextDue
	if loan.NextDueDate != nil && loan.NextDueDate.Before(nextDue) {
		candidate = loan.NextDueDate
	}

	loan, err = s.settleLoanTx(tx, loan, candidate)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	result := &AddServiceResult{Loan: loan, Transaction: serviceTxn, Installments: schedule}
	s.publish(websocket.AccountUpdated(result))
	return result, nil
}

// RecordPaymentInput contains input for recording a payment
type RecordPaymentInput struct {
	CustomerID    int32
	Amount        decimal.Decimal
	PaymentMethod *string
	Remark        *string
	OccurredAt    *time.Time
	AppliesToID   *int32
}

// RecordPaymentResult is the outcome of a payment write
type RecordPaymentResult struct {
	Transaction *domain.Transaction `json:"transaction"`
	Loan        *domain.Loan        `json:"loan"`
}

// RecordPayment inserts a payment transaction and refreshes the loan's
// derived balance and status in the same database transaction. The
// stored balance is rewritten from the ledger sum, not decremented, so
// it cannot drift from the transaction log.
func (s *LedgerService) RecordPayment(ctx context.Context, input RecordPaymentInput) (*RecordPaymentResult, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrTransactionAmountInvalid
	}
	loan, err := s.loanForCustomer(input.CustomerID)
	if err != nil {
		return nil, err
	}

	occurredAt := s.now()
	if input.OccurredAt != nil {
		occurredAt = *input.OccurredAt
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ref := uuid.NewString()
	payment, err := s.transactionRepo.CreateTx(tx, &domain.Transaction{
		LoanID:        loan.ID,
		Kind:          domain.TransactionKindPayment,
		Amount:        input.Amount,
		OccurredAt:    occurredAt,
		Remark:        input.Remark,
		PaymentMethod: input.PaymentMethod,
		ReceiptRef:    &ref,
		AppliesToID:   input.AppliesToID,
	})
	if err != nil {
		return nil, err
	}

	loan, err = s.settleLoanTx(tx, loan, loan.NextDueDate)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	result := &RecordPaymentResult{Transaction: payment, Loan: loan}
	s.publish(websocket.AccountUpdated(result))
	return result, nil
}

// AddFeeInput contains input for adding an immediately-due fee
type AddFeeInput struct {
	CustomerID int32
	Amount     decimal.Decimal
	Remark     *string
	OccurredAt *time.Time
}

// AddFee records an additional charge that is due the moment it is
// written; fees never carry an installment plan.
func (s *LedgerService) AddFee(ctx context.Context, input AddFeeInput) (*RecordPaymentResult, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrTransactionAmountInvalid
	}
	loan, err := s.loanForCustomer(input.CustomerID)
	if err != nil {
		return nil, err
	}

	occurredAt := s.now()
	if input.OccurredAt != nil {
		occurredAt = *input.OccurredAt
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	fee, err := s.transactionRepo.CreateTx(tx, &domain.Transaction{
		LoanID:     loan.ID,
		Kind:       domain.TransactionKindFee,
		Amount:     input.Amount,
		OccurredAt: occurredAt,
		Remark:     input.Remark,
	})
	if err != nil {
		return nil, err
	}

	nextDue := &occurredAt
	if loan.NextDueDate != nil && loan.NextDueDate.Before(occurredAt) {
		nextDue = loan.NextDueDate
	}
	loan, err = s.settleLoanTx(tx, loan, nextDue)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	result := &RecordPaymentResult{Transaction: fee, Loan: loan}
	s.publish(websocket.AccountUpdated(result))
	return result, nil
}

// loanForCustomer resolves the running account for a customer,
// verifying the customer first so a missing customer reads as 404
// rather than a missing loan.
func (s *LedgerService) loanForCustomer(customerID int32) (*domain.Loan, error) {
	if _, err := s.customerRepo.GetByID(customerID); err != nil {
		return nil, err
	}
	return s.loanRepo.GetByCustomerID(customerID)
}

// settleLoanTx rewrites the loan's derived columns from the ledger sum
// inside tx and returns the refreshed loan. A non-positive ledger sum
// settles the account and clears its next due date; the stored balance
// is clamped at zero.
func (s *LedgerService) settleLoanTx(tx domain.Tx, loan *domain.Loan, nextDue *time.Time) (*domain.Loan, error) {
	transactions, err := s.transactionRepo.GetByLoanIDTx(tx, loan.ID)
	if err != nil {
		return nil, err
	}

	balance := decimal.Zero
	totalDebt := decimal.Zero
	for _, t := range transactions {
		switch domain.NormalizeKind(t.Kind) {
		case domain.TransactionKindService, domain.TransactionKindFee:
			balance = balance.Add(t.Amount)
			totalDebt = totalDebt.Add(t.Amount)
		case domain.TransactionKindPayment:
			balance = balance.Sub(t.Amount)
		}
	}

	status := domain.LoanStatusActive
	if balance.LessThanOrEqual(decimal.Zero) {
		status = domain.LoanStatusSettled
		nextDue = nil
		balance = decimal.Zero
	}

	if err := s.loanRepo.UpdateBalanceTx(tx, loan.ID, balance, totalDebt, status, nextDue); err != nil {
		return nil, err
	}

	updated := *loan
	updated.CurrentBalance = balance
	updated.TotalDebt = totalDebt
	updated.Status = status
	updated.NextDueDate = nextDue
	return &updated, nil
}
