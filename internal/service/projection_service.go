package service

import (
	"sort"
	"time"

	"github.com/hmtravels/backoffice-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// ProjectionService derives account views by replaying the transaction
// ledger. It never trusts the cached loan balance column: everything a
// caller sees is recomputed from the transactions on every call.
type ProjectionService struct {
	customerRepo    domain.CustomerRepository
	loanRepo        domain.LoanRepository
	transactionRepo domain.TransactionRepository
	installmentRepo domain.InstallmentRepository
	now             func() time.Time
}

// NewProjectionService creates a new ProjectionService
func NewProjectionService(customerRepo domain.CustomerRepository, loanRepo domain.LoanRepository, transactionRepo domain.TransactionRepository, installmentRepo domain.InstallmentRepository) *ProjectionService {
	return &ProjectionService{
		customerRepo:    customerRepo,
		loanRepo:        loanRepo,
		transactionRepo: transactionRepo,
		installmentRepo: installmentRepo,
		now:             time.Now,
	}
}

// SetClock overrides the service clock, for tests.
func (s *ProjectionService) SetClock(now func() time.Time) {
	s.now = now
}

// AccountPage is one page of projected accounts with page-scoped stats.
type AccountPage struct {
	Accounts []*domain.Account
	Stats    domain.AccountStats
	Total    int64
	Page     int
	Limit    int
}

// GetAccounts projects the accounts for one page of customers, or for
// a single customer when accountID is set. A non-empty search narrows
// the page to customers matching by name, phone, or CNIC. Customers
// are paginated first and ledgers fetched only for that page, so the
// stats cover the page, not the whole book.
func (s *ProjectionService) GetAccounts(filter string, accountID *int32, search string, page, limit int) (*AccountPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var customers []*domain.Customer
	var total int64
	switch {
	case accountID != nil:
		customer, err := s.customerRepo.GetByID(*accountID)
		if err != nil {
			return nil, err
		}
		customers = []*domain.Customer{customer}
		total = 1
	case search != "":
		var err error
		customers, total, err = s.customerRepo.Search(search, page, limit)
		if err != nil {
			return nil, err
		}
	default:
		var err error
		customers, total, err = s.customerRepo.List(page, limit)
		if err != nil {
			return nil, err
		}
	}

	customerIDs := make([]int32, len(customers))
	for i, c := range customers {
		customerIDs[i] = c.ID
	}

	loans, err := s.loanRepo.GetByCustomerIDs(customerIDs)
	if err != nil {
		return nil, err
	}
	loanByCustomer := make(map[int32]*domain.Loan, len(loans))
	loanIDs := make([]int32, 0, len(loans))
	for _, l := range loans {
		loanByCustomer[l.CustomerID] = l
		loanIDs = append(loanIDs, l.ID)
	}

	transactions, err := s.transactionRepo.GetByLoanIDs(loanIDs)
	if err != nil {
		return nil, err
	}
	txnsByLoan := make(map[int32][]*domain.Transaction)
	serviceTxnIDs := make([]int32, 0)
	for _, t := range transactions {
		txnsByLoan[t.LoanID] = append(txnsByLoan[t.LoanID], t)
		if domain.NormalizeKind(t.Kind) == domain.TransactionKindService {
			serviceTxnIDs = append(serviceTxnIDs, t.ID)
		}
	}

	installmentsByTxn, err := s.installmentRepo.GetByTransactionIDs(serviceTxnIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stats := domain.AccountStats{TotalOutstanding: decimal.Zero}
	accounts := make([]*domain.Account, 0, len(customers))
	for _, customer := range customers {
		loan := loanByCustomer[customer.ID]
		var txns []*domain.Transaction
		if loan != nil {
			txns = txnsByLoan[loan.ID]
		}
		account := BuildAccount(customer, loan, txns, installmentsByTxn, now)

		switch {
		case account.IsOverdue:
			stats.OverdueCount++
			stats.ActiveCount++
		case account.Balance.GreaterThan(decimal.Zero):
			stats.ActiveCount++
		default:
			stats.SettledCount++
		}
		if account.Balance.GreaterThan(decimal.Zero) {
			stats.TotalOutstanding = stats.TotalOutstanding.Add(account.Balance)
		}

		if matchesFilter(account, filter) {
			accounts = append(accounts, account)
		}
	}

	return &AccountPage{
		Accounts: accounts,
		Stats:    stats,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

// BuildAccount projects one customer's ledger into an account view.
// Unrecognized transaction kinds are excluded from every total rather
// than rejected; the ledger may contain rows written by older tooling.
func BuildAccount(customer *domain.Customer, loan *domain.Loan, transactions []*domain.Transaction, installmentsByTxn map[int32][]*domain.Installment, now time.Time) *domain.Account {
	var services, fees, payments []*domain.Transaction
	for _, t := range transactions {
		switch domain.NormalizeKind(t.Kind) {
		case domain.TransactionKindService:
			services = append(services, t)
		case domain.TransactionKindFee:
			fees = append(fees, t)
		case domain.TransactionKindPayment:
			payments = append(payments, t)
		}
	}

	balance := decimal.Zero
	for _, t := range services {
		balance = balance.Add(t.Amount)
	}
	for _, t := range fees {
		balance = balance.Add(t.Amount)
	}
	for _, t := range payments {
		balance = balance.Sub(t.Amount)
	}

	// Unresolved due dates: unpaid/unskipped installments per service,
	// the service's own date when it has no schedule, and every fee
	// date (fees are due the moment they are recorded).
	var dueDates []time.Time
	activeServices := 0
	for _, svc := range services {
		installments := installmentsByTxn[svc.ID]
		if len(installments) > 0 {
			unresolved := false
			for _, inst := range installments {
				if !inst.IsResolved() {
					unresolved = true
					dueDates = append(dueDates, inst.DueDate)
				}
			}
			if unresolved {
				activeServices++
			}
			continue
		}
		dueDates = append(dueDates, svc.OccurredAt)
		if paymentsTowards(svc, payments).LessThan(svc.Amount) {
			activeServices++
		}
	}
	for _, fee := range fees {
		dueDates = append(dueDates, fee.OccurredAt)
	}

	nextDue := domain.EarliestDate(dueDates)
	if balance.LessThanOrEqual(decimal.Zero) {
		nextDue = nil
	}
	overdue, dueSoon := domain.ClassifyDue(nextDue, balance, now)

	var lastTransaction *time.Time
	for _, t := range transactions {
		if lastTransaction == nil || t.OccurredAt.After(*lastTransaction) {
			ts := t.OccurredAt
			lastTransaction = &ts
		}
	}

	sorted := make([]*domain.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.After(sorted[j].OccurredAt)
	})

	return &domain.Account{
		Customer:        customer,
		Loan:            loan,
		Balance:         balance,
		ActiveServices:  activeServices,
		IsOverdue:       overdue,
		IsDueSoon:       dueSoon,
		NextDue:         nextDue,
		LastTransaction: lastTransaction,
		Transactions:    sorted,
	}
}

// paymentsTowards sums the payments attributable to a service that has
// no installment schedule. Explicitly linked payments win; only when a
// service has no linked payments at all does the legacy ±1-day
// date-proximity heuristic apply.
func paymentsTowards(svc *domain.Transaction, payments []*domain.Transaction) decimal.Decimal {
	linked := decimal.Zero
	hasLinks := false
	for _, p := range payments {
		if p.AppliesToID != nil && *p.AppliesToID == svc.ID {
			hasLinks = true
			linked = linked.Add(p.Amount)
		}
	}
	if hasLinks {
		return linked
	}

	sum := decimal.Zero
	window := 24 * time.Hour
	for _, p := range payments {
		delta := p.OccurredAt.Sub(svc.OccurredAt)
		if delta < 0 {
			delta = -delta
		}
		if delta <= window {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}

func matchesFilter(account *domain.Account, filter string) bool {
	switch filter {
	case domain.AccountFilterActive:
		return account.Balance.GreaterThan(decimal.Zero)
	case domain.AccountFilterOverdue:
		return account.IsOverdue
	case domain.AccountFilterSettled:
		return account.Balance.LessThanOrEqual(decimal.Zero)
	default:
		return true
	}
}
