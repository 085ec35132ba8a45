package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
)

type QRCodeRepository struct {
	DB *sql.DB
}

func (r *QRCodeRepository) Create(ctx context.Context, q *model.QRCode) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	q.CreatedAt = time.Now()
	query := `
		INSERT INTO qr_codes (id, business_id, name, short_code, scan_count, is_active, color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.DB.ExecContext(ctx, query, q.ID, q.BusinessID, q.Name, q.ShortCode, q.ScanCount, q.IsActive, q.Color, q.CreatedAt)
	if uniqueConstraint(err) != "" {
		return appErrors.ErrDuplicateCode
	}
	return err
}

func (r *QRCodeRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]*model.QRCode, error) {
	query := `
		SELECT id, business_id, name, short_code, scan_count, is_active, color, created_at
		FROM qr_codes WHERE business_id=$1 ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := []*model.QRCode{}
	for rows.Next() {
		var q model.QRCode
		if err := rows.Scan(&q.ID, &q.BusinessID, &q.Name, &q.ShortCode, &q.ScanCount, &q.IsActive, &q.Color, &q.CreatedAt); err != nil {
			return nil, err
		}
		codes = append(codes, &q)
	}
	return codes, rows.Err()
}

func (r *QRCodeRepository) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM qr_codes WHERE short_code=$1)`, code).Scan(&exists)
	return exists, err
}

var _ QRCodeRepositoryInterface = (*QRCodeRepository)(nil)
