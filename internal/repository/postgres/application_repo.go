package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/hmtravels/backoffice-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ApplicationRepository implements domain.ApplicationRepository using PostgreSQL
type ApplicationRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{pool: pool}
}

const applicationColumns = `id, customer_id, kind, applicant_name, tracking_number, government_fee, service_charge, status, submitted_at, collected_at, remarks, created_at, updated_at`

func scanApplication(row pgx.Row) (*domain.Application, error) {
	var a domain.Application
	var govFee, charge pgtype.Numeric
	err := row.Scan(&a.ID, &a.CustomerID, &a.Kind, &a.ApplicantName, &a.TrackingNumber, &govFee, &charge, &a.Status, &a.SubmittedAt, &a.CollectedAt, &a.Remarks, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, err
	}
	a.GovernmentFee = pgNumericToDecimal(govFee)
	a.ServiceCharge = pgNumericToDecimal(charge)
	return &a, nil
}

// Create inserts an application
func (r *ApplicationRepository) Create(app *domain.Application) (*domain.Application, error) {
	govFee, err := decimalToPgNumeric(app.GovernmentFee)
	if err != nil {
		return nil, err
	}
	charge, err := decimalToPgNumeric(app.ServiceCharge)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO applications (customer_id, kind, applicant_name, tracking_number, government_fee, service_charge, status, submitted_at, collected_at, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+applicationColumns,
		app.CustomerID, app.Kind, app.ApplicantName, app.TrackingNumber, govFee, charge, app.Status, app.SubmittedAt, app.CollectedAt, app.Remarks)
	return scanApplication(row)
}

// GetByID retrieves an application by ID
func (r *ApplicationRepository) GetByID(id int32) (*domain.Application, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	return scanApplication(row)
}

// List retrieves one page of applications matching the filter
func (r *ApplicationRepository) List(filter domain.ApplicationFilter) ([]*domain.Application, int64, error) {
	ctx := context.Background()

	conditions := []string{"TRUE"}
	args := []any{}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(applicant_name ILIKE $%d OR tracking_number ILIKE $%d)", len(args), len(args)))
	}
	where := strings.Join(conditions, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM applications WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM applications
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		applicationColumns, where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var applications []*domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		applications = append(applications, a)
	}
	return applications, total, rows.Err()
}

// Update replaces an application's editable fields
func (r *ApplicationRepository) Update(app *domain.Application) (*domain.Application, error) {
	govFee, err := decimalToPgNumeric(app.GovernmentFee)
	if err != nil {
		return nil, err
	}
	charge, err := decimalToPgNumeric(app.ServiceCharge)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE applications
		SET customer_id = $1, kind = $2, applicant_name = $3, tracking_number = $4, government_fee = $5,
		    service_charge = $6, status = $7, submitted_at = $8, collected_at = $9, remarks = $10, updated_at = NOW()
		WHERE id = $11
		RETURNING `+applicationColumns,
		app.CustomerID, app.Kind, app.ApplicantName, app.TrackingNumber, govFee, charge, app.Status, app.SubmittedAt, app.CollectedAt, app.Remarks, app.ID)
	return scanApplication(row)
}

// Delete removes an application
func (r *ApplicationRepository) Delete(id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrApplicationNotFound
	}
	return nil
}
