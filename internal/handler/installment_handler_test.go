package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hmtravels/backoffice-backend/internal/domain"
	"github.com/hmtravels/backoffice-backend/internal/service"
	"github.com/hmtravels/backoffice-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

type installmentFixture struct {
	handler         *InstallmentHandler
	loanRepo        *testutil.MockLoanRepository
	transactionRepo *testutil.MockTransactionRepository
	installmentRepo *testutil.MockInstallmentRepository
}

func setupInstallmentHandler() *installmentFixture {
	txManager := testutil.NewMockTxManager()
	loanRepo := testutil.NewMockLoanRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	installmentRepo := testutil.NewMockInstallmentRepository()

	installmentService := service.NewInstallmentService(txManager, loanRepo, transactionRepo, installmentRepo)
	return &installmentFixture{
		handler:         NewInstallmentHandler(installmentService),
		loanRepo:        loanRepo,
		transactionRepo: transactionRepo,
		installmentRepo: installmentRepo,
	}
}

// seedHandlerSchedule writes one service charge of 300 with a 3 x 100
// schedule for customer 7.
func (f *installmentFixture) seedHandlerSchedule(firstDue time.Time) *domain.Transaction {
	loan, _ := f.loanRepo.Create(&domain.Loan{CustomerID: 7, Status: domain.LoanStatusActive})
	svc, _ := f.transactionRepo.Create(&domain.Transaction{
		LoanID: loan.ID, Kind: domain.TransactionKindService,
		Amount: decimal.NewFromInt(300), OccurredAt: firstDue.AddDate(0, 0, -7),
	})
	f.installmentRepo.CreateBatchTx(nil, []*domain.Installment{
		{TransactionID: svc.ID, Sequence: 1, DueDate: firstDue, Amount: decimal.NewFromInt(100), Status: domain.InstallmentStatusPending},
		{TransactionID: svc.ID, Sequence: 2, DueDate: firstDue.AddDate(0, 1, 0), Amount: decimal.NewFromInt(100), Status: domain.InstallmentStatusPending},
		{TransactionID: svc.ID, Sequence: 3, DueDate: firstDue.AddDate(0, 2, 0), Amount: decimal.NewFromInt(100), Status: domain.InstallmentStatusPending},
	})
	return svc
}

func TestGetSchedule_Success(t *testing.T) {
	e := newTestEcho()
	f := setupInstallmentHandler()
	f.seedHandlerSchedule(time.Now().AddDate(0, 1, 0))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lms/accounts/7/installments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("customerId")
	c.SetParamValues("7")

	if err := f.handler.GetSchedule(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response struct {
		Schedules []service.ServiceSchedule `json:"schedules"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response.Schedules) != 1 || len(response.Schedules[0].Installments) != 3 {
		t.Errorf("Expected 1 schedule with 3 installments, got %+v", response.Schedules)
	}
}

func TestGetSchedule_NoAccount(t *testing.T) {
	e := newTestEcho()
	f := setupInstallmentHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lms/accounts/99/installments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("customerId")
	c.SetParamValues("99")

	if err := f.handler.GetSchedule(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestUpdateSchedule_OutOfOrderReturnsConflictWithWarnings(t *testing.T) {
	e := newTestEcho()
	f := setupInstallmentHandler()
	firstDue := time.Now().AddDate(0, 1, 0)
	svc := f.seedHandlerSchedule(firstDue)

	// Push installment 1 past installment 2 without confirming
	late := firstDue.AddDate(0, 3, 0).Format("2006-01-02")
	reqBody := `{
		"transactionId": ` + itoa(svc.ID) + `,
		"edits": [{"installmentId": 1, "dueDate": "` + late + `"}]
	}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/lms/installments", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := f.handler.UpdateSchedule(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d: %s", rec.Code, rec.Body.String())
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(problem.Warnings) == 0 {
		t.Error("Expected out-of-order warnings in the problem payload")
	}
}

func TestUpdateSchedule_SumMismatchRejected(t *testing.T) {
	e := newTestEcho()
	f := setupInstallmentHandler()
	svc := f.seedHandlerSchedule(time.Now().AddDate(0, 1, 0))

	reqBody := `{
		"transactionId": ` + itoa(svc.ID) + `,
		"edits": [{"installmentId": 1, "amount": "250.00"}]
	}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/lms/installments", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := f.handler.UpdateSchedule(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestUpdateSchedule_EmptyEditsRejected(t *testing.T) {
	e := newTestEcho()
	f := setupInstallmentHandler()

	reqBody := `{"transactionId": 1, "edits": []}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/lms/installments", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := f.handler.UpdateSchedule(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestRecordInstallmentPayment_Success(t *testing.T) {
	e := newTestEcho()
	f := setupInstallmentHandler()
	f.seedHandlerSchedule(time.Now().AddDate(0, 1, 0))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lms/installments/1/payments", strings.NewReader(`{"amount": "40.00"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := f.handler.RecordPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var result service.InstallmentPaymentResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if result.Installment.Status != domain.InstallmentStatusPartial {
		t.Errorf("Expected partial, got %s", result.Installment.Status)
	}
}

func TestRecordInstallmentPayment_UnknownInstallment(t *testing.T) {
	e := newTestEcho()
	f := setupInstallmentHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lms/installments/99/payments", strings.NewReader(`{"amount": "40.00"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")

	if err := f.handler.RecordPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}
