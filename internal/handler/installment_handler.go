package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/hmtravels/backoffice-backend/internal/domain"
	"github.com/hmtravels/backoffice-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// InstallmentHandler handles schedule reads, schedule edits, and
// per-installment payments
type InstallmentHandler struct {
	installmentService *service.InstallmentService
}

// NewInstallmentHandler creates a new InstallmentHandler
func NewInstallmentHandler(installmentService *service.InstallmentService) *InstallmentHandler {
	return &InstallmentHandler{installmentService: installmentService}
}

// GetSchedule handles GET /api/v1/lms/accounts/:customerId/installments
func (h *InstallmentHandler) GetSchedule(c echo.Context) error {
	customerID, err := strconv.ParseInt(c.Param("customerId"), 10, 32)
	if err != nil {
		return NewValidationError(c, "Invalid customer ID", []ValidationError{
			{Field: "customerId", Message: "Must be an integer"},
		})
	}

	schedules, err := h.installmentService.GetScheduleByCustomer(int32(customerID))
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) || errors.Is(err, domain.ErrCustomerNotFound) {
			return NewNotFoundError(c, "No account exists for this customer")
		}
		log.Error().Err(err).Msg("Failed to load schedule")
		return NewInternalError(c, "Failed to load schedule")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"schedules": schedules})
}

// ScheduleEditRequest is one installment edit within an UpdateScheduleRequest
type ScheduleEditRequest struct {
	InstallmentID int32   `json:"installmentId" validate:"required"`
	DueDate       *string `json:"dueDate,omitempty"`
	Amount        *string `json:"amount,omitempty"`
	Skip          bool    `json:"skip"`
}

// UpdateScheduleRequest is the PUT /api/v1/lms/installments body
type UpdateScheduleRequest struct {
	TransactionID int32                 `json:"transactionId" validate:"required"`
	Edits         []ScheduleEditRequest `json:"edits" validate:"required,min=1,dive"`
	Confirm       bool                  `json:"confirm"`
}

// UpdateSchedule handles PUT /api/v1/lms/installments
func (h *InstallmentHandler) UpdateSchedule(c echo.Context) error {
	var req UpdateScheduleRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Validation failed", fieldErrors(err))
	}

	edits := make([]service.ScheduleEdit, len(req.Edits))
	for i, e := range req.Edits {
		edit := service.ScheduleEdit{InstallmentID: e.InstallmentID, Skip: e.Skip}
		if e.DueDate != nil {
			due, err := parseDatePtr(e.DueDate)
			if err != nil {
				return NewValidationError(c, "Invalid due date", []ValidationError{
					{Field: "edits", Message: "Due dates must be YYYY-MM-DD or RFC 3339"},
				})
			}
			edit.DueDate = due
		}
		if e.Amount != nil {
			amount, err := decimal.NewFromString(*e.Amount)
			if err != nil {
				return NewValidationError(c, "Invalid amount", []ValidationError{
					{Field: "edits", Message: "Amounts must be valid decimal numbers"},
				})
			}
			edit.Amount = &amount
		}
		edits[i] = edit
	}

	warnings, err := h.installmentService.UpdateSchedule(c.Request().Context(), req.TransactionID, edits, req.Confirm)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrScheduleNeedsConfirm):
			return NewConflictError(c, "Schedule leaves due dates out of order; resubmit with confirm to apply", warnings)
		case errors.Is(err, domain.ErrTransactionNotFound), errors.Is(err, domain.ErrInstallmentNotFound):
			return NewNotFoundError(c, err.Error())
		case errors.Is(err, domain.ErrInstallmentImmutable),
			errors.Is(err, domain.ErrInstallmentDateInPast),
			errors.Is(err, domain.ErrInstallmentAmountInvalid),
			errors.Is(err, domain.ErrInstallmentSumMismatch),
			errors.Is(err, service.ErrNotServiceCharge):
			return NewValidationError(c, err.Error(), nil)
		default:
			log.Error().Err(err).Msg("Failed to update schedule")
			return NewInternalError(c, "Failed to update schedule")
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"updated": true, "warnings": warnings})
}

// InstallmentPaymentRequest is the POST installment payment body
type InstallmentPaymentRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// RecordPayment handles POST /api/v1/lms/installments/:id/payments
func (h *InstallmentHandler) RecordPayment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return NewValidationError(c, "Invalid installment ID", []ValidationError{
			{Field: "id", Message: "Must be an integer"},
		})
	}

	var req InstallmentPaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	result, err := h.installmentService.RecordInstallmentPayment(int32(id), amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInstallmentNotFound):
			return NewNotFoundError(c, "Installment not found")
		case errors.Is(err, domain.ErrInstallmentImmutable), errors.Is(err, domain.ErrInstallmentPaymentInvalid):
			return NewValidationError(c, err.Error(), nil)
		default:
			log.Error().Err(err).Msg("Failed to record installment payment")
			return NewInternalError(c, "Failed to record installment payment")
		}
	}
	return c.JSON(http.StatusCreated, result)
}
