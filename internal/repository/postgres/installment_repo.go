package postgres

import (
	"context"

	"github.com/hmtravels/backoffice-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// InstallmentRepository implements domain.InstallmentRepository using PostgreSQL
type InstallmentRepository struct {
	pool *pgxpool.Pool
}

// NewInstallmentRepository creates a new InstallmentRepository
func NewInstallmentRepository(pool *pgxpool.Pool) *InstallmentRepository {
	return &InstallmentRepository{pool: pool}
}

const installmentColumns = `id, transaction_id, sequence, due_date, amount, amount_paid, running_balance, status, created_at, updated_at`

func scanInstallment(row pgx.Row) (*domain.Installment, error) {
	var i domain.Installment
	var amount, paid, running pgtype.Numeric
	err := row.Scan(&i.ID, &i.TransactionID, &i.Sequence, &i.DueDate, &amount, &paid, &running, &i.Status, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrInstallmentNotFound
		}
		return nil, err
	}
	i.Amount = pgNumericToDecimal(amount)
	i.AmountPaid = pgNumericToDecimal(paid)
	i.RunningBalance = pgNumericToDecimal(running)
	return &i, nil
}

// CreateBatchTx inserts a whole schedule within a transaction
func (r *InstallmentRepository) CreateBatchTx(tx interface{}, installments []*domain.Installment) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}
	ctx := context.Background()
	for _, inst := range installments {
		amount, err := decimalToPgNumeric(inst.Amount)
		if err != nil {
			return err
		}
		paid, err := decimalToPgNumeric(inst.AmountPaid)
		if err != nil {
			return err
		}
		running, err := decimalToPgNumeric(inst.RunningBalance)
		if err != nil {
			return err
		}
		row := pgxTx.QueryRow(ctx, `
			INSERT INTO installments (transaction_id, sequence, due_date, amount, amount_paid, running_balance, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+installmentColumns,
			inst.TransactionID, inst.Sequence, inst.DueDate, amount, paid, running, inst.Status)
		created, err := scanInstallment(row)
		if err != nil {
			return err
		}
		*inst = *created
	}
	return nil
}

// GetByID retrieves an installment by ID
func (r *InstallmentRepository) GetByID(id int32) (*domain.Installment, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT `+installmentColumns+` FROM installments WHERE id = $1`, id)
	return scanInstallment(row)
}

// GetByTransactionID retrieves a service transaction's schedule in order
func (r *InstallmentRepository) GetByTransactionID(transactionID int32) ([]*domain.Installment, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+installmentColumns+`
		FROM installments
		WHERE transaction_id = $1
		ORDER BY sequence`,
		transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInstallments(rows)
}

// GetByTransactionIDs retrieves the schedules for one page of service
// transactions, grouped by transaction
func (r *InstallmentRepository) GetByTransactionIDs(transactionIDs []int32) (map[int32][]*domain.Installment, error) {
	result := make(map[int32][]*domain.Installment)
	if len(transactionIDs) == 0 {
		return result, nil
	}
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+installmentColumns+`
		FROM installments
		WHERE transaction_id = ANY($1)
		ORDER BY transaction_id, sequence`,
		transactionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	installments, err := collectInstallments(rows)
	if err != nil {
		return nil, err
	}
	for _, inst := range installments {
		result[inst.TransactionID] = append(result[inst.TransactionID], inst)
	}
	return result, nil
}

// UpdateScheduleTx applies operator edits within a transaction
func (r *InstallmentRepository) UpdateScheduleTx(tx interface{}, installments []*domain.Installment) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}
	ctx := context.Background()
	for _, inst := range installments {
		amount, err := decimalToPgNumeric(inst.Amount)
		if err != nil {
			return err
		}
		tag, err := pgxTx.Exec(ctx, `
			UPDATE installments
			SET due_date = $1, amount = $2, status = $3, updated_at = NOW()
			WHERE id = $4`,
			inst.DueDate, amount, inst.Status, inst.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrInstallmentNotFound
		}
	}
	return nil
}

// RecordPayment sets the amount paid and status on one installment
func (r *InstallmentRepository) RecordPayment(id int32, amountPaid decimal.Decimal, status string) (*domain.Installment, error) {
	paid, err := decimalToPgNumeric(amountPaid)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE installments
		SET amount_paid = $1, status = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+installmentColumns,
		paid, status, id)
	return scanInstallment(row)
}

func collectInstallments(rows pgx.Rows) ([]*domain.Installment, error) {
	var installments []*domain.Installment
	for rows.Next() {
		i, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		installments = append(installments, i)
	}
	return installments, rows.Err()
}
