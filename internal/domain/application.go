package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrApplicationNotFound      = errors.New("application not found")
	ErrApplicationKindInvalid   = errors.New("unknown application kind")
	ErrApplicationStatusInvalid = errors.New("unknown application status")
)

// Application kinds, one per back-office ledger
const (
	ApplicationKindNADRA      = "nadra"
	ApplicationKindPKPassport = "pk_passport"
	ApplicationKindUKPassport = "uk_passport"
	ApplicationKindVisa       = "visa"
)

// Application statuses
const (
	ApplicationStatusReceived  = "received"
	ApplicationStatusInProcess = "in_process"
	ApplicationStatusSubmitted = "submitted"
	ApplicationStatusCollected = "collected"
	ApplicationStatusDelivered = "delivered"
)

// Application is one row in the NADRA / passport / visa ledgers.
// GovernmentFee is what the authority charges, ServiceCharge is the
// agency's own fee; the service charge is what feeds the customer's
// loan when billed on account.
type Application struct {
	ID             int32           `json:"id"`
	CustomerID     *int32          `json:"customerId,omitempty"`
	Kind           string          `json:"kind"`
	ApplicantName  string          `json:"applicantName"`
	TrackingNumber *string         `json:"trackingNumber,omitempty"`
	GovernmentFee  decimal.Decimal `json:"governmentFee"`
	ServiceCharge  decimal.Decimal `json:"serviceCharge"`
	Status         string          `json:"status"`
	SubmittedAt    *time.Time      `json:"submittedAt,omitempty"`
	CollectedAt    *time.Time      `json:"collectedAt,omitempty"`
	Remarks        *string         `json:"remarks,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (a *Application) Validate() error {
	if a.ApplicantName == "" {
		return ErrCustomerNameEmpty
	}
	if !ValidApplicationKind(a.Kind) {
		return ErrApplicationKindInvalid
	}
	if !ValidApplicationStatus(a.Status) {
		return ErrApplicationStatusInvalid
	}
	if a.GovernmentFee.IsNegative() || a.ServiceCharge.IsNegative() {
		return ErrTransactionAmountInvalid
	}
	return nil
}

func ValidApplicationKind(kind string) bool {
	switch kind {
	case ApplicationKindNADRA, ApplicationKindPKPassport, ApplicationKindUKPassport, ApplicationKindVisa:
		return true
	}
	return false
}

func ValidApplicationStatus(status string) bool {
	switch status {
	case ApplicationStatusReceived, ApplicationStatusInProcess, ApplicationStatusSubmitted,
		ApplicationStatusCollected, ApplicationStatusDelivered:
		return true
	}
	return false
}

// ApplicationFilter narrows the applications list
type ApplicationFilter struct {
	Kind   string
	Status string
	Search string
	Page   int
	Limit  int
}

type ApplicationRepository interface {
	Create(app *Application) (*Application, error)
	GetByID(id int32) (*Application, error)
	List(filter ApplicationFilter) ([]*Application, int64, error)
	Update(app *Application) (*Application, error)
	Delete(id int32) error
}
