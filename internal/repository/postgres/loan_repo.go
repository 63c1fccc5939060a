package postgres

import (
	"context"
	"time"

	"github.com/hmtravels/backoffice-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LoanRepository implements domain.LoanRepository using PostgreSQL
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

const loanColumns = `id, customer_id, total_debt, current_balance, status, next_due_date, created_at, updated_at`

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var l domain.Loan
	var totalDebt, balance pgtype.Numeric
	err := row.Scan(&l.ID, &l.CustomerID, &totalDebt, &balance, &l.Status, &l.NextDueDate, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	l.TotalDebt = pgNumericToDecimal(totalDebt)
	l.CurrentBalance = pgNumericToDecimal(balance)
	return &l, nil
}

// Create inserts a new loan
func (r *LoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	return r.create(context.Background(), r.pool, loan)
}

// CreateTx inserts a new loan within a transaction
func (r *LoanRepository) CreateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	return r.create(context.Background(), pgxTx, loan)
}

func (r *LoanRepository) create(ctx context.Context, q querier, loan *domain.Loan) (*domain.Loan, error) {
	totalDebt, err := decimalToPgNumeric(loan.TotalDebt)
	if err != nil {
		return nil, err
	}
	balance, err := decimalToPgNumeric(loan.CurrentBalance)
	if err != nil {
		return nil, err
	}
	row := q.QueryRow(ctx, `
		INSERT INTO loans (customer_id, total_debt, current_balance, status, next_due_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+loanColumns,
		loan.CustomerID, totalDebt, balance, loan.Status, loan.NextDueDate)
	return scanLoan(row)
}

// GetByID retrieves a loan by ID
func (r *LoanRepository) GetByID(id int32) (*domain.Loan, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)
	return scanLoan(row)
}

// GetByCustomerID retrieves a customer's running account
func (r *LoanRepository) GetByCustomerID(customerID int32) (*domain.Loan, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE customer_id = $1`, customerID)
	return scanLoan(row)
}

// GetByCustomerIDs retrieves the loans for one page of customers
func (r *LoanRepository) GetByCustomerIDs(customerIDs []int32) ([]*domain.Loan, error) {
	if len(customerIDs) == 0 {
		return nil, nil
	}
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE customer_id = ANY($1)`,
		customerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*domain.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

// UpdateBalanceTx rewrites a loan's derived columns within a transaction
func (r *LoanRepository) UpdateBalanceTx(tx interface{}, id int32, balance, totalDebt decimal.Decimal, status string, nextDue *time.Time) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}
	pgBalance, err := decimalToPgNumeric(balance)
	if err != nil {
		return err
	}
	pgTotal, err := decimalToPgNumeric(totalDebt)
	if err != nil {
		return err
	}
	ctx := context.Background()
	tag, err := pgxTx.Exec(ctx, `
		UPDATE loans
		SET current_balance = $1, total_debt = $2, status = $3, next_due_date = $4, updated_at = NOW()
		WHERE id = $5`,
		pgBalance, pgTotal, status, nextDue, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}
