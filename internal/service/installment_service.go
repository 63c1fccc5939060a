package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hmtravels/backoffice-backend/internal/domain"
	"github.com/hmtravels/backoffice-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

var (
	ErrScheduleNeedsConfirm = errors.New("schedule has out-of-order due dates and was not confirmed")
	ErrNotServiceCharge     = errors.New("installments belong to service transactions only")
)

// InstallmentService handles schedule views, manual schedule edits,
// and per-installment payment recording.
type InstallmentService struct {
	txManager       domain.TxManager
	loanRepo        domain.LoanRepository
	transactionRepo domain.TransactionRepository
	installmentRepo domain.InstallmentRepository
	eventPublisher  websocket.EventPublisher
	now             func() time.Time
}

// NewInstallmentService creates a new InstallmentService
func NewInstallmentService(txManager domain.TxManager, loanRepo domain.LoanRepository, transactionRepo domain.TransactionRepository, installmentRepo domain.InstallmentRepository) *InstallmentService {
	return &InstallmentService{
		txManager:       txManager,
		loanRepo:        loanRepo,
		transactionRepo: transactionRepo,
		installmentRepo: installmentRepo,
		now:             time.Now,
	}
}

// SetEventPublisher sets the publisher for real-time updates
func (s *InstallmentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock overrides the service clock, for tests.
func (s *InstallmentService) SetClock(now func() time.Time) {
	s.now = now
}

// ServiceSchedule pairs a service transaction with its schedule for
// statement display.
type ServiceSchedule struct {
	Transaction  *domain.Transaction   `json:"transaction"`
	Installments []*domain.Installment `json:"installments"`
}

// GetScheduleByCustomer returns every service transaction on the
// customer's account together with its installments.
func (s *InstallmentService) GetScheduleByCustomer(customerID int32) ([]*ServiceSchedule, error) {
	loan, err := s.loanRepo.GetByCustomerID(customerID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.transactionRepo.GetByLoanID(loan.ID)
	if err != nil {
		return nil, err
	}

	var serviceIDs []int32
	var services []*domain.Transaction
	for _, t := range transactions {
		if domain.NormalizeKind(t.Kind) == domain.TransactionKindService {
			services = append(services, t)
			serviceIDs = append(serviceIDs, t.ID)
		}
	}
	byTxn, err := s.installmentRepo.GetByTransactionIDs(serviceIDs)
	if err != nil {
		return nil, err
	}

	schedules := make([]*ServiceSchedule, 0, len(services))
	for _, svc := range services {
		schedules = append(schedules, &ServiceSchedule{
			Transaction:  svc,
			Installments: byTxn[svc.ID],
		})
	}
	return schedules, nil
}

// ScheduleEdit is one operator change to an unpaid installment. Nil
// fields are left untouched.
type ScheduleEdit struct {
	InstallmentID int32
	DueDate       *time.Time
	Amount        *decimal.Decimal
	Skip          bool
}

// UpdateSchedule applies operator edits to a service transaction's
// schedule, all-or-nothing. Paid and skipped rows are immutable, new
// due dates may not fall before today, and the effective amounts must
// still sum to the financed amount within tolerance. Edits that leave
// due dates out of order are applied only when confirm is set;
// otherwise the warnings are returned with ErrScheduleNeedsConfirm and
// nothing is written.
func (s *InstallmentService) UpdateSchedule(ctx context.Context, transactionID int32, edits []ScheduleEdit, confirm bool) ([]string, error) {
	txn, err := s.transactionRepo.GetByID(transactionID)
	if err != nil {
		return nil, err
	}
	if domain.NormalizeKind(txn.Kind) != domain.TransactionKindService {
		return nil, ErrNotServiceCharge
	}

	installments, err := s.installmentRepo.GetByTransactionID(transactionID)
	if err != nil {
		return nil, err
	}
	if len(installments) == 0 {
		return nil, domain.ErrInstallmentNotFound
	}

	byID := make(map[int32]*domain.Installment, len(installments))
	for _, inst := range installments {
		byID[inst.ID] = inst
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	updated := make(map[int32]*domain.Installment, len(edits))
	for _, edit := range edits {
		inst, ok := byID[edit.InstallmentID]
		if !ok {
			return nil, domain.ErrInstallmentNotFound
		}
		if inst.IsResolved() {
			return nil, domain.ErrInstallmentImmutable
		}

		next := *inst
		if edit.DueDate != nil {
			if edit.DueDate.Before(today) {
				return nil, domain.ErrInstallmentDateInPast
			}
			next.DueDate = *edit.DueDate
		}
		if edit.Amount != nil {
			if edit.Amount.LessThanOrEqual(decimal.Zero) {
				return nil, domain.ErrInstallmentAmountInvalid
			}
			next.Amount = *edit.Amount
		}
		if edit.Skip {
			next.Status = domain.InstallmentStatusSkipped
		}
		updated[inst.ID] = &next
	}

	// Schedule-sum invariant: paid rows count what was paid, skipped
	// rows count nothing, everything else counts its (edited) amount.
	sum := decimal.Zero
	final := make([]*domain.Installment, 0, len(installments))
	for _, inst := range installments {
		row := inst
		if u, ok := updated[inst.ID]; ok {
			row = u
		}
		sum = sum.Add(row.EffectiveAmount())
		final = append(final, row)
	}
	target, err := s.financedAmount(txn)
	if err != nil {
		return nil, err
	}
	if sum.Sub(target).Abs().GreaterThan(domain.SumTolerance) {
		return nil, domain.ErrInstallmentSumMismatch
	}

	var warnings []string
	for i := 1; i < len(final); i++ {
		if !final[i].DueDate.After(final[i-1].DueDate) {
			warnings = append(warnings, fmt.Sprintf("installment %d is not due after installment %d", final[i].Sequence, final[i-1].Sequence))
		}
	}
	if len(warnings) > 0 && !confirm {
		return warnings, ErrScheduleNeedsConfirm
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return warnings, err
	}
	defer tx.Rollback(ctx)

	changed := make([]*domain.Installment, 0, len(updated))
	for _, inst := range updated {
		changed = append(changed, inst)
	}
	if err := s.installmentRepo.UpdateScheduleTx(tx, changed); err != nil {
		return warnings, err
	}
	if err := tx.Commit(ctx); err != nil {
		return warnings, err
	}

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(websocket.ScheduleUpdated(map[string]int32{"transactionId": transactionID}))
	}
	return warnings, nil
}

// financedAmount is the portion of a service charge the schedule has
// to cover: the charge amount less any deposit payment linked to it.
func (s *InstallmentService) financedAmount(txn *domain.Transaction) (decimal.Decimal, error) {
	transactions, err := s.transactionRepo.GetByLoanID(txn.LoanID)
	if err != nil {
		return decimal.Zero, err
	}
	target := txn.Amount
	for _, t := range transactions {
		if domain.NormalizeKind(t.Kind) != domain.TransactionKindPayment {
			continue
		}
		if t.AppliesToID == nil || *t.AppliesToID != txn.ID {
			continue
		}
		if t.Remark != nil && *t.Remark == domain.DepositRemark {
			target = target.Sub(t.Amount)
		}
	}
	return target, nil
}

// InstallmentPaymentResult reports the outcome of recording a payment
// against one installment. Delta is positive for overpayment and
// negative for the amount still owed; it is reported to the operator,
// never redistributed across other installments.
type InstallmentPaymentResult struct {
	Installment *domain.Installment `json:"installment"`
	Delta       decimal.Decimal     `json:"delta"`
}

// RecordInstallmentPayment applies an amount to a single installment
// and advances its status (pending → partial → paid). The loan balance
// itself is only moved by ledger payment transactions; this operation
// tracks schedule progress.
func (s *InstallmentService) RecordInstallmentPayment(id int32, amount decimal.Decimal) (*InstallmentPaymentResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInstallmentPaymentInvalid
	}
	inst, err := s.installmentRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if inst.IsResolved() {
		return nil, domain.ErrInstallmentImmutable
	}

	paid := inst.AmountPaid.Add(amount)
	status := domain.InstallmentStatusPartial
	if paid.GreaterThanOrEqual(inst.Amount.Sub(domain.SumTolerance)) {
		status = domain.InstallmentStatusPaid
	}

	updated, err := s.installmentRepo.RecordPayment(id, paid, status)
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(websocket.ScheduleUpdated(map[string]int32{"transactionId": updated.TransactionID}))
	}
	return &InstallmentPaymentResult{
		Installment: updated,
		Delta:       paid.Sub(inst.Amount),
	}, nil
}
