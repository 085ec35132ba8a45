package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
)

// CustomerRepository is the postgres implementation
type CustomerRepository struct {
	DB *sql.DB
}

const customerColumns = `id, business_id, name, phone, email, visit_date, source, created_at`

func scanCustomer(row interface{ Scan(...any) error }) (*model.Customer, error) {
	var c model.Customer
	if err := row.Scan(&c.ID, &c.BusinessID, &c.Name, &c.Phone, &c.Email, &c.VisitDate, &c.Source, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	if c.VisitDate.IsZero() {
		c.VisitDate = c.CreatedAt
	}
	query := `
		INSERT INTO customers (id, business_id, name, phone, email, visit_date, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.DB.ExecContext(ctx, query, c.ID, c.BusinessID, c.Name, c.Phone, c.Email, c.VisitDate, c.Source, c.CreatedAt)
	return err
}

// Get fetches a customer scoped to its business
func (r *CustomerRepository) Get(ctx context.Context, businessID, id uuid.UUID) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id=$1 AND business_id=$2`
	c, err := scanCustomer(r.DB.QueryRowContext(ctx, query, id, businessID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("customer", id)
		}
		return nil, err
	}
	return c, nil
}

// ListByBusiness fetches the whole customer list, used when sending campaigns
func (r *CustomerRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE business_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, businessID)
}

// ListVisitedBetween returns customers whose visit falls in [from, to].
func (r *CustomerRepository) ListVisitedBetween(ctx context.Context, businessID uuid.UUID, from, to time.Time) ([]*model.Customer, error) {
	query := `
		SELECT ` + customerColumns + ` FROM customers
		WHERE business_id=$1 AND visit_date >= $2 AND visit_date <= $3
		ORDER BY visit_date
	`
	return r.list(ctx, query, businessID, from, to)
}

func (r *CustomerRepository) list(ctx context.Context, query string, args ...any) ([]*model.Customer, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []*model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM customers WHERE id=$1 AND business_id=$2`, id, businessID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("customer", id)
	}
	return nil
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
