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

// ApplicationHandler handles the NADRA / passport / visa ledgers
type ApplicationHandler struct {
	applicationService *service.ApplicationService
}

// NewApplicationHandler creates a new ApplicationHandler
func NewApplicationHandler(applicationService *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

// ApplicationRequest is the create/update request body
type ApplicationRequest struct {
	CustomerID     *int32  `json:"customerId,omitempty"`
	Kind           string  `json:"kind" validate:"required,oneof=nadra pk_passport uk_passport visa"`
	ApplicantName  string  `json:"applicantName" validate:"required,max=200"`
	TrackingNumber *string `json:"trackingNumber,omitempty"`
	GovernmentFee  string  `json:"governmentFee"`
	ServiceCharge  string  `json:"serviceCharge"`
	Status         string  `json:"status" validate:"omitempty,oneof=received in_process submitted collected delivered"`
	SubmittedAt    *string `json:"submittedAt,omitempty"`
	CollectedAt    *string `json:"collectedAt,omitempty"`
	Remarks        *string `json:"remarks,omitempty"`
}

func (r *ApplicationRequest) toInput() (service.ApplicationInput, []ValidationError) {
	governmentFee := decimal.Zero
	if r.GovernmentFee != "" {
		fee, err := decimal.NewFromString(r.GovernmentFee)
		if err != nil {
			return service.ApplicationInput{}, []ValidationError{{Field: "governmentFee", Message: "Must be a valid decimal number"}}
		}
		governmentFee = fee
	}
	serviceCharge := decimal.Zero
	if r.ServiceCharge != "" {
		charge, err := decimal.NewFromString(r.ServiceCharge)
		if err != nil {
			return service.ApplicationInput{}, []ValidationError{{Field: "serviceCharge", Message: "Must be a valid decimal number"}}
		}
		serviceCharge = charge
	}
	submittedAt, err := parseDatePtr(r.SubmittedAt)
	if err != nil {
		return service.ApplicationInput{}, []ValidationError{{Field: "submittedAt", Message: "Must be YYYY-MM-DD or RFC 3339"}}
	}
	collectedAt, err := parseDatePtr(r.CollectedAt)
	if err != nil {
		return service.ApplicationInput{}, []ValidationError{{Field: "collectedAt", Message: "Must be YYYY-MM-DD or RFC 3339"}}
	}

	return service.ApplicationInput{
		CustomerID:     r.CustomerID,
		Kind:           r.Kind,
		ApplicantName:  r.ApplicantName,
		TrackingNumber: r.TrackingNumber,
		GovernmentFee:  governmentFee,
		ServiceCharge:  serviceCharge,
		Status:         r.Status,
		SubmittedAt:    submittedAt,
		CollectedAt:    collectedAt,
		Remarks:        r.Remarks,
	}, nil
}

// Create handles POST /api/v1/applications
func (h *ApplicationHandler) Create(c echo.Context) error {
	var req ApplicationRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Validation failed", fieldErrors(err))
	}
	input, fieldErrs := req.toInput()
	if fieldErrs != nil {
		return NewValidationError(c, "Validation failed", fieldErrs)
	}

	app, err := h.applicationService.CreateApplication(input)
	if err != nil {
		return h.mapApplicationError(c, err)
	}
	return c.JSON(http.StatusCreated, app)
}

// Get handles GET /api/v1/applications/:id
func (h *ApplicationHandler) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return NewValidationError(c, "Invalid application ID", []ValidationError{
			{Field: "id", Message: "Must be an integer"},
		})
	}
	app, err := h.applicationService.GetApplication(int32(id))
	if err != nil {
		return h.mapApplicationError(c, err)
	}
	return c.JSON(http.StatusOK, app)
}

// ApplicationListResponse is the GET /api/v1/applications payload
type ApplicationListResponse struct {
	Applications []*domain.Application `json:"applications"`
	Pagination   PaginationResponse    `json:"pagination"`
}

// List handles GET /api/v1/applications
func (h *ApplicationHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	filter := domain.ApplicationFilter{
		Kind:   c.QueryParam("kind"),
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
		Page:   page,
		Limit:  limit,
	}

	apps, total, err := h.applicationService.ListApplications(filter)
	if err != nil {
		return h.mapApplicationError(c, err)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	totalPages := (total + int64(filter.Limit) - 1) / int64(filter.Limit)
	return c.JSON(http.StatusOK, ApplicationListResponse{
		Applications: apps,
		Pagination: PaginationResponse{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// Update handles PUT /api/v1/applications/:id
func (h *ApplicationHandler) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return NewValidationError(c, "Invalid application ID", []ValidationError{
			{Field: "id", Message: "Must be an integer"},
		})
	}
	var req ApplicationRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Validation failed", fieldErrors(err))
	}
	input, fieldErrs := req.toInput()
	if fieldErrs != nil {
		return NewValidationError(c, "Validation failed", fieldErrs)
	}

	app, err := h.applicationService.UpdateApplication(int32(id), input)
	if err != nil {
		return h.mapApplicationError(c, err)
	}
	return c.JSON(http.StatusOK, app)
}

// Delete handles DELETE /api/v1/applications/:id
func (h *ApplicationHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return NewValidationError(c, "Invalid application ID", []ValidationError{
			{Field: "id", Message: "Must be an integer"},
		})
	}
	if err := h.applicationService.DeleteApplication(int32(id)); err != nil {
		return h.mapApplicationError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}

func (h *ApplicationHandler) mapApplicationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrApplicationNotFound):
		return NewNotFoundError(c, "Application not found")
	case errors.Is(err, domain.ErrCustomerNotFound):
		return NewNotFoundError(c, "Customer not found")
	case errors.Is(err, domain.ErrApplicationKindInvalid),
		errors.Is(err, domain.ErrApplicationStatusInvalid),
		errors.Is(err, domain.ErrCustomerNameEmpty),
		errors.Is(err, domain.ErrTransactionAmountInvalid):
		return NewValidationError(c, err.Error(), nil)
	default:
		log.Error().Err(err).Msg("Application operation failed")
		return NewInternalError(c, "Application operation failed")
	}
}
