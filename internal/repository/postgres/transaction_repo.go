package postgres

import (
	"context"

	"github.com/hmtravels/backoffice-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, loan_id, kind, amount, occurred_at, remark, payment_method, receipt_ref, applies_to_id, created_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var amount pgtype.Numeric
	err := row.Scan(&t.ID, &t.LoanID, &t.Kind, &amount, &t.OccurredAt, &t.Remark, &t.PaymentMethod, &t.ReceiptRef, &t.AppliesToID, &t.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	t.Amount = pgNumericToDecimal(amount)
	return &t, nil
}

// Create inserts a ledger entry
func (r *TransactionRepository) Create(txn *domain.Transaction) (*domain.Transaction, error) {
	return r.create(context.Background(), r.pool, txn)
}

// CreateTx inserts a ledger entry within a transaction
func (r *TransactionRepository) CreateTx(tx interface{}, txn *domain.Transaction) (*domain.Transaction, error) {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	return r.create(context.Background(), pgxTx, txn)
}

func (r *TransactionRepository) create(ctx context.Context, q querier, txn *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(txn.Amount)
	if err != nil {
		return nil, err
	}
	row := q.QueryRow(ctx, `
		INSERT INTO transactions (loan_id, kind, amount, occurred_at, remark, payment_method, receipt_ref, applies_to_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+transactionColumns,
		txn.LoanID, domain.NormalizeKind(txn.Kind), amount, txn.OccurredAt, txn.Remark, txn.PaymentMethod, txn.ReceiptRef, txn.AppliesToID)
	return scanTransaction(row)
}

// GetByID retrieves a ledger entry by ID
func (r *TransactionRepository) GetByID(id int32) (*domain.Transaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

// GetByLoanID retrieves a loan's complete ledger, oldest first
func (r *TransactionRepository) GetByLoanID(loanID int32) ([]*domain.Transaction, error) {
	return r.byLoanID(context.Background(), r.pool, loanID)
}

// GetByLoanIDTx retrieves a loan's complete ledger within a
// transaction, so balance recomputation sees the rows written earlier
// in the same transaction.
func (r *TransactionRepository) GetByLoanIDTx(tx interface{}, loanID int32) ([]*domain.Transaction, error) {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	return r.byLoanID(context.Background(), pgxTx, loanID)
}

func (r *TransactionRepository) byLoanID(ctx context.Context, q querier, loanID int32) ([]*domain.Transaction, error) {
	rows, err := q.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE loan_id = $1
		ORDER BY occurred_at, id`,
		loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// GetByLoanIDs retrieves the ledgers for one page of loans
func (r *TransactionRepository) GetByLoanIDs(loanIDs []int32) ([]*domain.Transaction, error) {
	if len(loanIDs) == 0 {
		return nil, nil
	}
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE loan_id = ANY($1)
		ORDER BY occurred_at, id`,
		loanIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
