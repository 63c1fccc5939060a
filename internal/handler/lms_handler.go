package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hmtravels/backoffice-backend/internal/domain"
	"github.com/hmtravels/backoffice-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// LMS action discriminators for POST /api/v1/lms
const (
	ActionRecordPayment  = "record_payment"
	ActionAddService     = "add_service"
	ActionAddFee         = "add_fee"
	ActionCreateCustomer = "create_customer"
	ActionUpdateCustomer = "update_customer"
	ActionDeleteCustomer = "delete_customer"
)

// LMSHandler handles the accounts-list read path and the LMS action
// write path
type LMSHandler struct {
	projectionService *service.ProjectionService
	ledgerService     *service.LedgerService
}

// NewLMSHandler creates a new LMSHandler
func NewLMSHandler(projectionService *service.ProjectionService, ledgerService *service.LedgerService) *LMSHandler {
	return &LMSHandler{
		projectionService: projectionService,
		ledgerService:     ledgerService,
	}
}

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID            int32   `json:"id"`
	LoanID        int32   `json:"loanId"`
	Kind          string  `json:"kind"`
	Amount        string  `json:"amount"`
	OccurredAt    string  `json:"occurredAt"`
	Remark        *string `json:"remark,omitempty"`
	PaymentMethod *string `json:"paymentMethod,omitempty"`
	ReceiptRef    *string `json:"receiptRef,omitempty"`
	AppliesToID   *int32  `json:"appliesToId,omitempty"`
}

// AccountResponse represents one projected account in API responses
type AccountResponse struct {
	Customer        *domain.Customer      `json:"customer"`
	Loan            *LoanResponse         `json:"loan,omitempty"`
	Balance         string                `json:"balance"`
	ActiveServices  int                   `json:"activeServices"`
	IsOverdue       bool                  `json:"isOverdue"`
	IsDueSoon       bool                  `json:"isDueSoon"`
	NextDue         *string               `json:"nextDue,omitempty"`
	LastTransaction *string               `json:"lastTransaction,omitempty"`
	Transactions    []TransactionResponse `json:"transactions"`
}

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	ID             int32   `json:"id"`
	CustomerID     int32   `json:"customerId"`
	TotalDebt      string  `json:"totalDebt"`
	CurrentBalance string  `json:"currentBalance"`
	Status         string  `json:"status"`
	NextDueDate    *string `json:"nextDueDate,omitempty"`
}

// StatsResponse represents page-scoped account statistics
type StatsResponse struct {
	TotalOutstanding string `json:"totalOutstanding"`
	ActiveCount      int    `json:"activeCount"`
	OverdueCount     int    `json:"overdueCount"`
	SettledCount     int    `json:"settledCount"`
}

// PaginationResponse represents pagination metadata
type PaginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// AccountListResponse is the GET /api/v1/lms payload
type AccountListResponse struct {
	Accounts   []AccountResponse  `json:"accounts"`
	Stats      StatsResponse      `json:"stats"`
	Pagination PaginationResponse `json:"pagination"`
}

// GetAccounts handles GET /api/v1/lms
func (h *LMSHandler) GetAccounts(c echo.Context) error {
	filter := c.QueryParam("filter")
	if filter == "" {
		filter = domain.AccountFilterAll
	}
	switch filter {
	case domain.AccountFilterAll, domain.AccountFilterActive, domain.AccountFilterOverdue, domain.AccountFilterSettled:
	default:
		return NewValidationError(c, "Invalid filter", []ValidationError{
			{Field: "filter", Message: "Must be one of active, overdue, all, settled"},
		})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	search := strings.TrimSpace(c.QueryParam("search"))

	var accountID *int32
	if raw := c.QueryParam("accountId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return NewValidationError(c, "Invalid account ID", []ValidationError{
				{Field: "accountId", Message: "Must be an integer"},
			})
		}
		id32 := int32(id)
		accountID = &id32
	}

	result, err := h.projectionService.GetAccounts(filter, accountID, search, page, limit)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return NewNotFoundError(c, "Customer not found")
		}
		log.Error().Err(err).Msg("Failed to project accounts")
		return NewInternalError(c, "Failed to load accounts")
	}

	accounts := make([]AccountResponse, len(result.Accounts))
	for i, account := range result.Accounts {
		accounts[i] = toAccountResponse(account)
	}

	totalPages := (result.Total + int64(result.Limit) - 1) / int64(result.Limit)
	return c.JSON(http.StatusOK, AccountListResponse{
		Accounts: accounts,
		Stats: StatsResponse{
			TotalOutstanding: result.Stats.TotalOutstanding.StringFixed(2),
			ActiveCount:      result.Stats.ActiveCount,
			OverdueCount:     result.Stats.OverdueCount,
			SettledCount:     result.Stats.SettledCount,
		},
		Pagination: PaginationResponse{
			Page:       result.Page,
			Limit:      result.Limit,
			Total:      result.Total,
			TotalPages: totalPages,
		},
	})
}

// LMSActionRequest is the POST /api/v1/lms request body. Action picks
// the operation; the remaining fields are action-specific.
type LMSActionRequest struct {
	Action string `json:"action"`

	// Customer fields
	CustomerID int32   `json:"customerId"`
	Name       string  `json:"name"`
	Phone      *string `json:"phone,omitempty"`
	Email      *string `json:"email,omitempty"`
	CNIC       *string `json:"cnic,omitempty"`
	Address    *string `json:"address,omitempty"`
	AuthCode   string  `json:"authCode"`

	// Money fields
	Amount        string  `json:"amount"`
	PaymentMethod *string `json:"paymentMethod,omitempty"`
	Remark        *string `json:"remark,omitempty"`
	Date          *string `json:"date,omitempty"`
	AppliesToID   *int32  `json:"appliesToId,omitempty"`

	// Installment plan fields (add_service only)
	Deposit          *string `json:"deposit,omitempty"`
	TermCount        *int    `json:"termCount,omitempty"`
	Frequency        *string `json:"frequency,omitempty"`
	FirstPaymentDate *string `json:"firstPaymentDate,omitempty"`
}

// PostAction handles POST /api/v1/lms
func (h *LMSHandler) PostAction(c echo.Context) error {
	var req LMSActionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	switch req.Action {
	case ActionCreateCustomer:
		return h.createCustomer(c, req)
	case ActionUpdateCustomer:
		return h.updateCustomer(c, req)
	case ActionDeleteCustomer:
		return h.deleteCustomer(c, req)
	case ActionRecordPayment:
		return h.recordPayment(c, req)
	case ActionAddService:
		return h.addService(c, req)
	case ActionAddFee:
		return h.addFee(c, req)
	default:
		return NewValidationError(c, "Unknown action", []ValidationError{
			{Field: "action", Message: "Must be one of record_payment, add_service, add_fee, create_customer, update_customer, delete_customer"},
		})
	}
}

func (h *LMSHandler) createCustomer(c echo.Context, req LMSActionRequest) error {
	customer, err := h.ledgerService.CreateCustomer(service.CreateCustomerInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		CNIC:    req.CNIC,
		Address: req.Address,
	})
	if err != nil {
		return h.mapLedgerError(c, err)
	}
	return c.JSON(http.StatusCreated, customer)
}

func (h *LMSHandler) updateCustomer(c echo.Context, req LMSActionRequest) error {
	customer, err := h.ledgerService.UpdateCustomer(req.CustomerID, service.CreateCustomerInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		CNIC:    req.CNIC,
		Address: req.Address,
	})
	if err != nil {
		return h.mapLedgerError(c, err)
	}
	return c.JSON(http.StatusOK, customer)
}

func (h *LMSHandler) deleteCustomer(c echo.Context, req LMSActionRequest) error {
	if err := h.ledgerService.DeleteCustomer(req.CustomerID, req.AuthCode); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return NewForbiddenError(c, "Invalid authorization code")
		}
		return h.mapLedgerError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}

func (h *LMSHandler) recordPayment(c echo.Context, req LMSActionRequest) error {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}
	occurredAt, badDate := parseDatePtr(req.Date)
	if badDate != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be YYYY-MM-DD or RFC 3339"},
		})
	}

	result, err := h.ledgerService.RecordPayment(c.Request().Context(), service.RecordPaymentInput{
		CustomerID:    req.CustomerID,
		Amount:        amount,
		PaymentMethod: req.PaymentMethod,
		Remark:        req.Remark,
		OccurredAt:    occurredAt,
		AppliesToID:   req.AppliesToID,
	})
	if err != nil {
		return h.mapLedgerError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *LMSHandler) addService(c echo.Context, req LMSActionRequest) error {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}
	occurredAt, badDate := parseDatePtr(req.Date)
	if badDate != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be YYYY-MM-DD or RFC 3339"},
		})
	}

	var plan *service.PlanRequest
	if req.TermCount != nil && req.Frequency != nil {
		deposit := decimal.Zero
		if req.Deposit != nil && *req.Deposit != "" {
			deposit, err = decimal.NewFromString(*req.Deposit)
			if err != nil {
				return NewValidationError(c, "Invalid deposit", []ValidationError{
					{Field: "deposit", Message: "Must be a valid decimal number"},
				})
			}
		}
		if req.FirstPaymentDate == nil {
			return NewValidationError(c, "Missing first payment date", []ValidationError{
				{Field: "firstPaymentDate", Message: "Required when an installment plan is requested"},
			})
		}
		firstDue, badDue := parseDatePtr(req.FirstPaymentDate)
		if badDue != nil {
			return NewValidationError(c, "Invalid first payment date", []ValidationError{
				{Field: "firstPaymentDate", Message: "Must be YYYY-MM-DD or RFC 3339"},
			})
		}
		plan = &service.PlanRequest{
			Deposit:          deposit,
			TermCount:        *req.TermCount,
			Frequency:        *req.Frequency,
			FirstPaymentDate: *firstDue,
		}
	}

	result, err := h.ledgerService.AddService(c.Request().Context(), service.AddServiceInput{
		CustomerID:    req.CustomerID,
		Amount:        amount,
		Remark:        req.Remark,
		PaymentMethod: req.PaymentMethod,
		OccurredAt:    occurredAt,
		Plan:          plan,
	})
	if err != nil {
		return h.mapLedgerError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *LMSHandler) addFee(c echo.Context, req LMSActionRequest) error {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}
	occurredAt, badDate := parseDatePtr(req.Date)
	if badDate != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be YYYY-MM-DD or RFC 3339"},
		})
	}

	result, err := h.ledgerService.AddFee(c.Request().Context(), service.AddFeeInput{
		CustomerID: req.CustomerID,
		Amount:     amount,
		Remark:     req.Remark,
		OccurredAt: occurredAt,
	})
	if err != nil {
		return h.mapLedgerError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// mapLedgerError translates domain errors into problem responses
func (h *LMSHandler) mapLedgerError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrCustomerNotFound):
		return NewNotFoundError(c, "Customer not found")
	case errors.Is(err, domain.ErrLoanNotFound):
		return NewNotFoundError(c, "No account exists for this customer")
	case errors.Is(err, domain.ErrCustomerNameEmpty),
		errors.Is(err, domain.ErrCustomerNameTooLong),
		errors.Is(err, domain.ErrCustomerPhoneTooLong),
		errors.Is(err, domain.ErrTransactionAmountInvalid),
		errors.Is(err, domain.ErrLoanAmountInvalid),
		errors.Is(err, service.ErrTermCountInvalid),
		errors.Is(err, service.ErrFrequencyInvalid),
		errors.Is(err, service.ErrDepositInvalid):
		return NewValidationError(c, err.Error(), nil)
	default:
		log.Error().Err(err).Msg("LMS action failed")
		return NewInternalError(c, err.Error())
	}
}

func toAccountResponse(account *domain.Account) AccountResponse {
	resp := AccountResponse{
		Customer:        account.Customer,
		Balance:         account.Balance.StringFixed(2),
		ActiveServices:  account.ActiveServices,
		IsOverdue:       account.IsOverdue,
		IsDueSoon:       account.IsDueSoon,
		NextDue:         formatTimePtr(account.NextDue),
		LastTransaction: formatTimePtr(account.LastTransaction),
		Transactions:    make([]TransactionResponse, len(account.Transactions)),
	}
	if account.Loan != nil {
		resp.Loan = &LoanResponse{
			ID:             account.Loan.ID,
			CustomerID:     account.Loan.CustomerID,
			TotalDebt:      account.Loan.TotalDebt.StringFixed(2),
			CurrentBalance: account.Loan.CurrentBalance.StringFixed(2),
			Status:         account.Loan.Status,
			NextDueDate:    formatTimePtr(account.Loan.NextDueDate),
		}
	}
	for i, t := range account.Transactions {
		resp.Transactions[i] = TransactionResponse{
			ID:            t.ID,
			LoanID:        t.LoanID,
			Kind:          t.Kind,
			Amount:        t.Amount.StringFixed(2),
			OccurredAt:    t.OccurredAt.Format(time.RFC3339),
			Remark:        t.Remark,
			PaymentMethod: t.PaymentMethod,
			ReceiptRef:    t.ReceiptRef,
			AppliesToID:   t.AppliesToID,
		}
	}
	return resp
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// parseDatePtr parses an optional date string, accepting a plain
// calendar date or a full RFC 3339 timestamp.
func parseDatePtr(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", *raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
