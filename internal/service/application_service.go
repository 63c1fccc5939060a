package service

import (
	"strings"
	"time"

	"github.com/hmtravels/backoffice-backend/internal/domain"
	"github.com/hmtravels/backoffice-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// ApplicationService handles the NADRA / passport / visa ledgers
type ApplicationService struct {
	applicationRepo domain.ApplicationRepository
	customerRepo    domain.CustomerRepository
	eventPublisher  websocket.EventPublisher
}

// NewApplicationService creates a new ApplicationService
func NewApplicationService(applicationRepo domain.ApplicationRepository, customerRepo domain.CustomerRepository) *ApplicationService {
	return &ApplicationService{
		applicationRepo: applicationRepo,
		customerRepo:    customerRepo,
	}
}

// SetEventPublisher sets the publisher for real-time updates
func (s *ApplicationService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// ApplicationInput contains input for creating or updating an application
type ApplicationInput struct {
	CustomerID     *int32
	Kind           string
	ApplicantName  string
	TrackingNumber *string
	GovernmentFee  decimal.Decimal
	ServiceCharge  decimal.Decimal
	Status         string
	SubmittedAt    *time.Time
	CollectedAt    *time.Time
	Remarks        *string
}

// CreateApplication records a new ledger entry
func (s *ApplicationService) CreateApplication(input ApplicationInput) (*domain.Application, error) {
	if input.Status == "" {
		input.Status = domain.ApplicationStatusReceived
	}
	app := &domain.Application{
		CustomerID:     input.CustomerID,
		Kind:           input.Kind,
		ApplicantName:  strings.TrimSpace(input.ApplicantName),
		TrackingNumber: input.TrackingNumber,
		GovernmentFee:  input.GovernmentFee,
		ServiceCharge:  input.ServiceCharge,
		Status:         input.Status,
		SubmittedAt:    input.SubmittedAt,
		CollectedAt:    input.CollectedAt,
		Remarks:        input.Remarks,
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	if input.CustomerID != nil {
		if _, err := s.customerRepo.GetByID(*input.CustomerID); err != nil {
			return nil, err
		}
	}
	created, err := s.applicationRepo.Create(app)
	if err != nil {
		return nil, err
	}
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(websocket.ApplicationCreated(created))
	}
	return created, nil
}

// GetApplication retrieves one application
func (s *ApplicationService) GetApplication(id int32) (*domain.Application, error) {
	return s.applicationRepo.GetByID(id)
}

// ListApplications returns one page of the requested ledger
func (s *ApplicationService) ListApplications(filter domain.ApplicationFilter) ([]*domain.Application, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Kind != "" && !domain.ValidApplicationKind(filter.Kind) {
		return nil, 0, domain.ErrApplicationKindInvalid
	}
	if filter.Status != "" && !domain.ValidApplicationStatus(filter.Status) {
		return nil, 0, domain.ErrApplicationStatusInvalid
	}
	return s.applicationRepo.List(filter)
}

// UpdateApplication replaces the editable fields of an application
func (s *ApplicationService) UpdateApplication(id int32, input ApplicationInput) (*domain.Application, error) {
	app, err := s.applicationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	app.CustomerID = input.CustomerID
	app.Kind = input.Kind
	app.ApplicantName = strings.TrimSpace(input.ApplicantName)
	app.TrackingNumber = input.TrackingNumber
	app.GovernmentFee = input.GovernmentFee
	app.ServiceCharge = input.ServiceCharge
	app.Status = input.Status
	app.SubmittedAt = input.SubmittedAt
	app.CollectedAt = input.CollectedAt
	app.Remarks = input.Remarks
	if err := app.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.applicationRepo.Update(app)
	if err != nil {
		return nil, err
	}
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(websocket.ApplicationUpdated(updated))
	}
	return updated, nil
}

// DeleteApplication removes a ledger entry
func (s *ApplicationService) DeleteApplication(id int32) error {
	if _, err := s.applicationRepo.GetByID(id); err != nil {
		return err
	}
	if err := s.applicationRepo.Delete(id); err != nil {
		return err
	}
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(websocket.ApplicationDeleted(map[string]int32{"id": id}))
	}
	return nil
}
