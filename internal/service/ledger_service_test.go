package service

import (
	"context"
	"testing"
	"time"

	"github.com/hmtravels/backoffice-backend/internal/domain"
	"github.com/hmtravels/backoffice-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func setupLedgerService() (*LedgerService, *testutil.MockTxManager, *testutil.MockCustomerRepository, *testutil.MockLoanRepository, *testutil.MockTransactionRepository, *testutil.MockInstallmentRepository) {
	txManager := testutil.NewMockTxManager()
	customerRepo := testutil.NewMockCustomerRepository()
	loanRepo := testutil.NewMockLoanRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	installmentRepo := testutil.NewMockInstallmentRepository()

	service := NewLedgerService(txManager, customerRepo, loanRepo, transactionRepo, installmentRepo, "1234")
	return service, txManager, customerRepo, loanRepo, transactionRepo, installmentRepo
}

func TestCreateCustomer_TrimsAndValidates(t *testing.T) {
	service, _, _, _, _, _ := setupLedgerService()

	customer, err := service.CreateCustomer(CreateCustomerInput{Name: "  Ahmed Khan  "})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if customer.Name != "Ahmed Khan" {
		t.Errorf("Expected trimmed name, got %q", customer.Name)
	}

	if _, err := service.CreateCustomer(CreateCustomerInput{Name: "   "}); err != domain.ErrCustomerNameEmpty {
		t.Errorf("Expected ErrCustomerNameEmpty, got %v", err)
	}
}

func TestDeleteCustomer_RequiresAuthCode(t *testing.T) {
	service, _, customerRepo, _, _, _ := setupLedgerService()
	customer, _ := customerRepo.Create(&domain.Customer{Name: "Ahmed"})

	if err := service.DeleteCustomer(customer.ID, "wrong"); err != domain.ErrForbidden {
		t.Errorf("Expected ErrForbidden for bad code, got %v", err)
	}
	if err := service.DeleteCustomer(customer.ID, ""); err != domain.ErrForbidden {
		t.Errorf("Expected ErrForbidden for empty code, got %v", err)
	}
	if err := service.DeleteCustomer(customer.ID, "1234"); err != nil {
		t.Errorf("Expected delete to succeed with correct code, got %v", err)
	}
	if _, ok := customerRepo.Customers[customer.ID]; ok {
		t.Error("Expected customer to be removed")
	}
}

func TestAddService_WritesChargeScheduleAndDeposit(t *testing.T) {
	service, txManager, customerRepo, loanRepo, transactionRepo, installmentRepo := setupLedgerService()
	customer, _ := customerRepo.Create(&domain.Customer{Name: "Ahmed"})
	firstDue := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	result, err := service.AddService(context.Background(), AddServiceInput{
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(1200),
		Plan: &PlanRequest{
			Deposit:          decimal.NewFromInt(200),
			TermCount:        5,
			Frequency:        FrequencyMonthly,
			FirstPaymentDate: firstDue,
		},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !txManager.LastTx.Committed {
		t.Error("Expected transaction to commit")
	}
	if result.Loan == nil || result.Loan.CustomerID != customer.ID {
		t.Fatal("Expected a loan for the customer")
	}
	// Ledger sum: 1200 service - 200 deposit
	if !result.Loan.CurrentBalance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected balance 1000, got %s", result.Loan.CurrentBalance.String())
	}
	if len(result.Installments) != 5 {
		t.Fatalf("Expected 5 installments, got %d", len(result.Installments))
	}
	for _, inst := range result.Installments {
		if inst.TransactionID != result.Transaction.ID {
			t.Error("Expected installments to reference the service transaction")
		}
		if _, ok := installmentRepo.Installments[inst.ID]; !ok {
			t.Error("Expected installments to be persisted")
		}
	}
	if result.Loan.NextDueDate == nil || !result.Loan.NextDueDate.Equal(firstDue) {
		t.Errorf("Expected next due %s, got %v", firstDue, result.Loan.NextDueDate)
	}

	// The deposit payment must carry a receipt and an explicit link to
	// the service it settles
	var deposit *domain.Transaction
	for _, txn := range transactionRepo.Transactions {
		if txn.Kind == domain.TransactionKindPayment {
			deposit = txn
		}
	}
	if deposit == nil {
		t.Fatal("Expected a deposit payment transaction")
	}
	if deposit.ReceiptRef == nil || *deposit.ReceiptRef == "" {
		t.Error("Expected deposit to carry a receipt reference")
	}
	if deposit.AppliesToID == nil || *deposit.AppliesToID != result.Transaction.ID {
		t.Error("Expected deposit to link to the service transaction")
	}

	// A second service reuses the same loan
	result2, err := service.AddService(context.Background(), AddServiceInput{
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(300),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result2.Loan.ID != result.Loan.ID {
		t.Error("Expected the existing loan to be reused")
	}
	if len(loanRepo.Loans) != 1 {
		t.Errorf("Expected exactly one loan, got %d", len(loanRepo.Loans))
	}
}

func TestAddService_InvalidPlanLeavesNothingBehind(t *testing.T) {
	service, txManager, customerRepo, _, transactionRepo, _ := setupLedgerService()
	customer, _ := customerRepo.Create(&domain.Customer{Name: "Ahmed"})

	_, err := service.AddService(context.Background(), AddServiceInput{
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(100),
		Plan: &PlanRequest{
			Deposit:          decimal.NewFromInt(500),
			TermCount:        3,
			Frequency:        FrequencyMonthly,
			FirstPaymentDate: time.Now(),
		},
	})
	if err != ErrDepositInvalid {
		t.Fatalf("Expected ErrDepositInvalid, got %v", err)
	}
	if txManager.LastTx != nil {
		t.Error("Expected no transaction to be opened for an invalid plan")
	}
	if len(transactionRepo.Transactions) != 0 {
		t.Error("Expected no transactions to be written")
	}
}

func TestRecordPayment_SettlesWhenLedgerClears(t *testing.T) {
	service, _, customerRepo, loanRepo, transactionRepo, _ := setupLedgerService()
	customer, _ := customerRepo.Create(&domain.Customer{Name: "Ahmed"})

	_, err := service.AddService(context.Background(), AddServiceInput{
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	result, err := service.RecordPayment(context.Background(), RecordPaymentInput{
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(200),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Transaction.ReceiptRef == nil || *result.Transaction.ReceiptRef == "" {
		t.Error("Expected payment to carry a server-generated receipt")
	}
	if !result.Loan.CurrentBalance.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Expected balance 300, got %s", result.Loan.CurrentBalance.String())
	}
	if result.Loan.Status != domain.LoanStatusActive {
		t.Errorf("Expected Active, got %s", result.Loan.Status)
	}

	// Clearing the remainder settles the account and drops the due date
	result, err = service.RecordPayment(context.Background(), RecordPaymentInput{
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(300),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Loan.Status != domain.LoanStatusSettled {
		t.Errorf("Expected Settled, got %s", result.Loan.Status)
	}
	if !result.Loan.CurrentBalance.IsZero() {
		t.Errorf("Expected balance 0, got %s", result.Loan.CurrentBalance.String())
	}
	if result.Loan.NextDueDate != nil {
		t.Error("Expected next due date to clear on settlement")
	}

	// The stored loan row matches what the service returned
	stored, _ := loanRepo.GetByCustomerID(customer.ID)
	if stored.Status != domain.LoanStatusSettled {
		t.Errorf("Expected stored loan Settled, got %s", stored.Status)
	}
	if len(transactionRepo.Transactions) != 3 {
		t.Errorf("Expected 3 ledger entries, got %d", len(transactionRepo.Transactions))
	}
}

func TestRecordPayment_OverpaymentClampsAtZero(t *testing.T) {
	service, _, customerRepo, _, _, _ := setupLedgerService()
	customer, _ := customerRepo.Create(&domain.Customer{Name: "Ahmed"})

	service.AddService(context.Background(), AddServiceInput{
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(100),
	})
	result, err := service.RecordPayment(context.Background(), RecordPaymentInput{
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(150),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.Loan.CurrentBalance.IsZero() {
		t.Errorf("Expected clamped balance 0, got %s", result.Loan.CurrentBalance.String())
	}
	if result.Loan.Status != domain.LoanStatusSettled {
		t.Errorf("Expected Settled, got %s", result.Loan.Status)
	}
}

func TestRecordPayment_RequiresExistingAccount(t *testing.T) {
	service, _, customerRepo, _, _, _ := setupLedgerService()

	_, err := service.RecordPayment(context.Background(), RecordPaymentInput{
		CustomerID: 42,
		Amount:     decimal.NewFromInt(50),
	})
	if err != domain.ErrCustomerNotFound {
		t.Errorf("Expected ErrCustomerNotFound, got %v", err)
	}

	customer, _ := customerRepo.Create(&domain.Customer{Name: "Ahmed"})
	_, err = service.RecordPayment(context.Background(), RecordPaymentInput{
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(50),
	})
	if err != domain.ErrLoanNotFound {
		t.Errorf("Expected ErrLoanNotFound, got %v", err)
	}
}

func TestRecordPayment_RejectsNonPositiveAmount(t *testing.T) {
	service, _, _, _, _, _ := setupLedgerService()

	_, err := service.RecordPayment(context.Background(), RecordPaymentInput{
		CustomerID: 1,
		Amount:     decimal.Zero,
	})
	if err != domain.ErrTransactionAmountInvalid {
		t.Errorf("Expected ErrTransactionAmountInvalid, got %v", err)
	}
}

func TestAddFee_DueImmediately(t *testing.T) {
	service, _, customerRepo, _, _, _ := setupLedgerService()
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	service.SetClock(func() time.Time { return now })
	customer, _ := customerRepo.Create(&domain.Customer{Name: "Ahmed"})

	service.AddService(context.Background(), AddServiceInput{
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(200),
	})

	result, err := service.AddFee(context.Background(), AddFeeInput{
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(30),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Transaction.Kind != domain.TransactionKindFee {
		t.Errorf("Expected fee kind, got %s", result.Transaction.Kind)
	}
	if !result.Loan.CurrentBalance.Equal(decimal.NewFromInt(230)) {
		t.Errorf("Expected balance 230, got %s", result.Loan.CurrentBalance.String())
	}
	if !result.Loan.TotalDebt.Equal(decimal.NewFromInt(230)) {
		t.Errorf("Expected total debt 230, got %s", result.Loan.TotalDebt.String())
	}
}

func TestAddFee_KeepsEarlierDueDate(t *testing.T) {
	service, _, customerRepo, _, _, _ := setupLedgerService()
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	service.SetClock(func() time.Time { return now })
	customer, _ := customerRepo.Create(&domain.Customer{Name: "Ahmed"})

	earlier := now.AddDate(0, 0, -5)
	service.AddService(context.Background(), AddServiceInput{
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(400),
		Plan: &PlanRequest{
			TermCount:        2,
			Frequency:        FrequencyWeekly,
			FirstPaymentDate: earlier,
		},
	})

	result, err := service.AddFee(context.Background(), AddFeeInput{
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(30),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Loan.NextDueDate == nil || !result.Loan.NextDueDate.Equal(earlier) {
		t.Errorf("Expected next due to stay %s, got %v", earlier, result.Loan.NextDueDate)
	}
}
