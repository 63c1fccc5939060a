package testutil

import (
	"context"
	"strings"
	"time"

	"github.com/hmtravels/backoffice-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// MockTx is a no-op domain.Tx for service tests
type MockTx struct {
	Committed  bool
	RolledBack bool
	CommitErr  error
}

func (m *MockTx) Commit(ctx context.Context) error {
	if m.CommitErr != nil {
		return m.CommitErr
	}
	m.Committed = true
	return nil
}

func (m *MockTx) Rollback(ctx context.Context) error {
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockTxManager is a mock implementation of domain.TxManager
type MockTxManager struct {
	LastTx   *MockTx
	BeginErr error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

func (m *MockTxManager) Begin(ctx context.Context) (domain.Tx, error) {
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	m.LastTx = &MockTx{}
	return m.LastTx, nil
}

// MockCustomerRepository is a mock implementation of domain.CustomerRepository
type MockCustomerRepository struct {
	Customers map[int32]*domain.Customer
	NextID    int32
}

// NewMockCustomerRepository creates a new MockCustomerRepository
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		Customers: make(map[int32]*domain.Customer),
		NextID:    1,
	}
}

// Create creates a new customer
func (m *MockCustomerRepository) Create(customer *domain.Customer) (*domain.Customer, error) {
	customer.ID = m.NextID
	m.NextID++
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt
	m.Customers[customer.ID] = customer
	return customer, nil
}

// GetByID retrieves a customer by ID
func (m *MockCustomerRepository) GetByID(id int32) (*domain.Customer, error) {
	if customer, ok := m.Customers[id]; ok {
		return customer, nil
	}
	return nil, domain.ErrCustomerNotFound
}

// List returns one page of customers ordered by ID
func (m *MockCustomerRepository) List(page, limit int) ([]*domain.Customer, int64, error) {
	all := m.sorted()
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

// Search is List narrowed to customers whose name, phone, or CNIC
// contains the query, case-insensitively.
func (m *MockCustomerRepository) Search(query string, page, limit int) ([]*domain.Customer, int64, error) {
	q := strings.ToLower(query)
	contains := func(s *string) bool {
		return s != nil && strings.Contains(strings.ToLower(*s), q)
	}
	var matched []*domain.Customer
	for _, c := range m.sorted() {
		if strings.Contains(strings.ToLower(c.Name), q) || contains(c.Phone) || contains(c.CNIC) {
			matched = append(matched, c)
		}
	}
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], int64(len(matched)), nil
}

// Update updates an existing customer
func (m *MockCustomerRepository) Update(customer *domain.Customer) (*domain.Customer, error) {
	if _, ok := m.Customers[customer.ID]; !ok {
		return nil, domain.ErrCustomerNotFound
	}
	customer.UpdatedAt = time.Now()
	m.Customers[customer.ID] = customer
	return customer, nil
}

// Delete removes a customer
func (m *MockCustomerRepository) Delete(id int32) error {
	if _, ok := m.Customers[id]; !ok {
		return domain.ErrCustomerNotFound
	}
	delete(m.Customers, id)
	return nil
}

func (m *MockCustomerRepository) sorted() []*domain.Customer {
	all := make([]*domain.Customer, 0, len(m.Customers))
	for id := int32(1); id < m.NextID; id++ {
		if c, ok := m.Customers[id]; ok {
			all = append(all, c)
		}
	}
	return all
}

// MockLoanRepository is a mock implementation of domain.LoanRepository
type MockLoanRepository struct {
	Loans  map[int32]*domain.Loan
	NextID int32
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{
		Loans:  make(map[int32]*domain.Loan),
		NextID: 1,
	}
}

// Create creates a new loan
func (m *MockLoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	loan.ID = m.NextID
	m.NextID++
	loan.CreatedAt = time.Now()
	loan.UpdatedAt = loan.CreatedAt
	m.Loans[loan.ID] = loan
	return loan, nil
}

// CreateTx creates a new loan inside a transaction
func (m *MockLoanRepository) CreateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	return m.Create(loan)
}

// GetByID retrieves a loan by ID
func (m *MockLoanRepository) GetByID(id int32) (*domain.Loan, error) {
	if loan, ok := m.Loans[id]; ok {
		return loan, nil
	}
	return nil, domain.ErrLoanNotFound
}

// GetByCustomerID retrieves the loan for a customer
func (m *MockLoanRepository) GetByCustomerID(customerID int32) (*domain.Loan, error) {
	for _, loan := range m.Loans {
		if loan.CustomerID == customerID {
			return loan, nil
		}
	}
	return nil, domain.ErrLoanNotFound
}

// GetByCustomerIDs retrieves the loans for a set of customers
func (m *MockLoanRepository) GetByCustomerIDs(customerIDs []int32) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	for _, id := range customerIDs {
		if loan, err := m.GetByCustomerID(id); err == nil {
			loans = append(loans, loan)
		}
	}
	return loans, nil
}

// UpdateBalanceTx rewrites a loan's derived columns inside a transaction
func (m *MockLoanRepository) UpdateBalanceTx(tx interface{}, id int32, balance, totalDebt decimal.Decimal, status string, nextDue *time.Time) error {
	loan, ok := m.Loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	loan.CurrentBalance = balance
	loan.TotalDebt = totalDebt
	loan.Status = status
	loan.NextDueDate = nextDue
	loan.UpdatedAt = time.Now()
	return nil
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions map[int32]*domain.Transaction
	NextID       int32
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[int32]*domain.Transaction),
		NextID:       1,
	}
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(txn *domain.Transaction) (*domain.Transaction, error) {
	txn.ID = m.NextID
	m.NextID++
	txn.Kind = domain.NormalizeKind(txn.Kind)
	txn.CreatedAt = time.Now()
	m.Transactions[txn.ID] = txn
	return txn, nil
}

// CreateTx creates a new transaction inside a database transaction
func (m *MockTransactionRepository) CreateTx(tx interface{}, txn *domain.Transaction) (*domain.Transaction, error) {
	return m.Create(txn)
}

// GetByID retrieves a transaction by ID
func (m *MockTransactionRepository) GetByID(id int32) (*domain.Transaction, error) {
	if txn, ok := m.Transactions[id]; ok {
		return txn, nil
	}
	return nil, domain.ErrTransactionNotFound
}

// GetByLoanID retrieves every transaction on a loan
func (m *MockTransactionRepository) GetByLoanID(loanID int32) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	for id := int32(1); id < m.NextID; id++ {
		if txn, ok := m.Transactions[id]; ok && txn.LoanID == loanID {
			txns = append(txns, txn)
		}
	}
	return txns, nil
}

// GetByLoanIDs retrieves the transactions for a set of loans
func (m *MockTransactionRepository) GetByLoanIDs(loanIDs []int32) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	for _, loanID := range loanIDs {
		loanTxns, _ := m.GetByLoanID(loanID)
		txns = append(txns, loanTxns...)
	}
	return txns, nil
}

// GetByLoanIDTx retrieves every transaction on a loan inside a transaction
func (m *MockTransactionRepository) GetByLoanIDTx(tx interface{}, loanID int32) ([]*domain.Transaction, error) {
	return m.GetByLoanID(loanID)
}

// MockInstallmentRepository is a mock implementation of domain.InstallmentRepository
type MockInstallmentRepository struct {
	Installments map[int32]*domain.Installment
	NextID       int32
	UpdateErr    error
}

// NewMockInstallmentRepository creates a new MockInstallmentRepository
func NewMockInstallmentRepository() *MockInstallmentRepository {
	return &MockInstallmentRepository{
		Installments: make(map[int32]*domain.Installment),
		NextID:       1,
	}
}

// CreateBatchTx inserts a schedule inside a transaction
func (m *MockInstallmentRepository) CreateBatchTx(tx interface{}, installments []*domain.Installment) error {
	for _, inst := range installments {
		inst.ID = m.NextID
		m.NextID++
		inst.CreatedAt = time.Now()
		inst.UpdatedAt = inst.CreatedAt
		m.Installments[inst.ID] = inst
	}
	return nil
}

// GetByID retrieves an installment by ID
func (m *MockInstallmentRepository) GetByID(id int32) (*domain.Installment, error) {
	if inst, ok := m.Installments[id]; ok {
		return inst, nil
	}
	return nil, domain.ErrInstallmentNotFound
}

// GetByTransactionID retrieves a service transaction's schedule in
// sequence order
func (m *MockInstallmentRepository) GetByTransactionID(transactionID int32) ([]*domain.Installment, error) {
	var insts []*domain.Installment
	for id := int32(1); id < m.NextID; id++ {
		if inst, ok := m.Installments[id]; ok && inst.TransactionID == transactionID {
			insts = append(insts, inst)
		}
	}
	return insts, nil
}

// GetByTransactionIDs retrieves schedules for a set of service transactions
func (m *MockInstallmentRepository) GetByTransactionIDs(transactionIDs []int32) (map[int32][]*domain.Installment, error) {
	byTxn := make(map[int32][]*domain.Installment)
	for _, txnID := range transactionIDs {
		insts, _ := m.GetByTransactionID(txnID)
		if len(insts) > 0 {
			byTxn[txnID] = insts
		}
	}
	return byTxn, nil
}

// UpdateScheduleTx applies schedule edits inside a transaction
func (m *MockInstallmentRepository) UpdateScheduleTx(tx interface{}, installments []*domain.Installment) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for _, inst := range installments {
		if _, ok := m.Installments[inst.ID]; !ok {
			return domain.ErrInstallmentNotFound
		}
		inst.UpdatedAt = time.Now()
		m.Installments[inst.ID] = inst
	}
	return nil
}

// RecordPayment applies a payment to one installment
func (m *MockInstallmentRepository) RecordPayment(id int32, amountPaid decimal.Decimal, status string) (*domain.Installment, error) {
	inst, ok := m.Installments[id]
	if !ok {
		return nil, domain.ErrInstallmentNotFound
	}
	inst.AmountPaid = amountPaid
	inst.Status = status
	inst.UpdatedAt = time.Now()
	return inst, nil
}

// MockApplicationRepository is a mock implementation of domain.ApplicationRepository
type MockApplicationRepository struct {
	Applications map[int32]*domain.Application
	NextID       int32
}

// NewMockApplicationRepository creates a new MockApplicationRepository
func NewMockApplicationRepository() *MockApplicationRepository {
	return &MockApplicationRepository{
		Applications: make(map[int32]*domain.Application),
		NextID:       1,
	}
}

// Create records a new application
func (m *MockApplicationRepository) Create(app *domain.Application) (*domain.Application, error) {
	app.ID = m.NextID
	m.NextID++
	app.CreatedAt = time.Now()
	app.UpdatedAt = app.CreatedAt
	m.Applications[app.ID] = app
	return app, nil
}

// GetByID retrieves an application by ID
func (m *MockApplicationRepository) GetByID(id int32) (*domain.Application, error) {
	if app, ok := m.Applications[id]; ok {
		return app, nil
	}
	return nil, domain.ErrApplicationNotFound
}

// List returns one page of applications matching the filter
func (m *MockApplicationRepository) List(filter domain.ApplicationFilter) ([]*domain.Application, int64, error) {
	var matched []*domain.Application
	for id := int32(1); id < m.NextID; id++ {
		app, ok := m.Applications[id]
		if !ok {
			continue
		}
		if filter.Kind != "" && app.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		matched = append(matched, app)
	}
	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// Update updates an existing application
func (m *MockApplicationRepository) Update(app *domain.Application) (*domain.Application, error) {
	if _, ok := m.Applications[app.ID]; !ok {
		return nil, domain.ErrApplicationNotFound
	}
	app.UpdatedAt = time.Now()
	m.Applications[app.ID] = app
	return app, nil
}

// Delete removes an application
func (m *MockApplicationRepository) Delete(id int32) error {
	if _, ok := m.Applications[id]; !ok {
		return domain.ErrApplicationNotFound
	}
	delete(m.Applications, id)
	return nil
}
