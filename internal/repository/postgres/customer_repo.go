package postgres

import (
	"context"

	"github.com/hmtravels/backoffice-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomerRepository implements domain.CustomerRepository using PostgreSQL
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

const customerColumns = `id, name, phone, email, cnic, address, created_at, updated_at`

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CNIC, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a new customer
func (r *CustomerRepository) Create(customer *domain.Customer) (*domain.Customer, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (name, phone, email, cnic, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+customerColumns,
		customer.Name, customer.Phone, customer.Email, customer.CNIC, customer.Address)
	return scanCustomer(row)
}

// GetByID retrieves a customer by ID
func (r *CustomerRepository) GetByID(id int32) (*domain.Customer, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	return scanCustomer(row)
}

// List retrieves one page of customers, newest first
func (r *CustomerRepository) List(page, limit int) ([]*domain.Customer, int64, error) {
	ctx := context.Background()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	customers, err := collectCustomers(rows)
	if err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

// Search retrieves customers whose name, phone, or CNIC matches the query
func (r *CustomerRepository) Search(query string, page, limit int) ([]*domain.Customer, int64, error) {
	ctx := context.Background()
	pattern := "%" + query + "%"

	var total int64
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM customers
		WHERE name ILIKE $1 OR phone ILIKE $1 OR cnic ILIKE $1`,
		pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE name ILIKE $1 OR phone ILIKE $1 OR cnic ILIKE $1
		ORDER BY name, id
		LIMIT $2 OFFSET $3`,
		pattern, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	customers, err := collectCustomers(rows)
	if err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

// Update updates a customer's identity fields
func (r *CustomerRepository) Update(customer *domain.Customer) (*domain.Customer, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE customers
		SET name = $1, phone = $2, email = $3, cnic = $4, address = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING `+customerColumns,
		customer.Name, customer.Phone, customer.Email, customer.CNIC, customer.Address, customer.ID)
	return scanCustomer(row)
}

// Delete removes a customer; the loan, transaction, and installment
// rows beneath them go with it via ON DELETE CASCADE.
func (r *CustomerRepository) Delete(id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func collectCustomers(rows pgx.Rows) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
