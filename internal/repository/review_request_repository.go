package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
)

type ReviewRequestRepository struct {
	DB *sql.DB
}

const requestColumns = `id, business_id, customer_id, campaign_id, unique_code, method, origin, status, last_error,
	sent_at, opened_at, clicked_at, reviewed_at, created_at`

func scanRequest(row interface{ Scan(...any) error }) (*model.ReviewRequest, error) {
	var r model.ReviewRequest
	err := row.Scan(&r.ID, &r.BusinessID, &r.CustomerID, &r.CampaignID, &r.UniqueCode, &r.Method, &r.Origin,
		&r.Status, &r.LastError, &r.SentAt, &r.OpenedAt, &r.ClickedAt, &r.ReviewedAt, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a new request. The caller sets status and code.
func (r *ReviewRequestRepository) Create(ctx context.Context, req *model.ReviewRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO review_requests (id, business_id, customer_id, campaign_id, unique_code, method, origin, status, last_error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.DB.ExecContext(ctx, query, req.ID, req.BusinessID, req.CustomerID, req.CampaignID, req.UniqueCode,
		req.Method, req.Origin, req.Status, req.LastError, req.CreatedAt)
	switch uniqueConstraint(err) {
	case "":
		return err
	case "review_requests_unique_code_key":
		return appErrors.ErrDuplicateCode
	case "review_requests_active_auto_idx":
		return appErrors.ErrActiveRequestExists
	default:
		return err
	}
}

func (r *ReviewRequestRepository) Get(ctx context.Context, id uuid.UUID) (*model.ReviewRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM review_requests WHERE id=$1`
	req, err := scanRequest(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("review request", id)
		}
		return nil, err
	}
	return req, nil
}

func (r *ReviewRequestRepository) GetByCode(ctx context.Context, code string) (*model.ReviewRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM review_requests WHERE unique_code=$1`
	req, err := scanRequest(r.DB.QueryRowContext(ctx, query, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("review request", code)
		}
		return nil, err
	}
	return req, nil
}

func (r *ReviewRequestRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM review_requests WHERE unique_code=$1)`, code).Scan(&exists)
	return exists, err
}

// HasActiveRequest reports whether the customer has any request that did not fail.
func (r *ReviewRequestRepository) HasActiveRequest(ctx context.Context, customerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM review_requests WHERE customer_id=$1 AND status <> 'failed'
		)`, customerID).Scan(&exists)
	return exists, err
}

func (r *ReviewRequestRepository) Update(ctx context.Context, req *model.ReviewRequest, prev model.RequestStatus) error {
	query := `
		UPDATE review_requests
		SET status=$1, last_error=$2, sent_at=$3, opened_at=$4, clicked_at=$5, reviewed_at=$6
		WHERE id=$7 AND status=$8
	`
	res, err := r.DB.ExecContext(ctx, query, req.Status, req.LastError, req.SentAt, req.OpenedAt, req.ClickedAt,
		req.ReviewedAt, req.ID, prev)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.ErrConcurrentUpdate
	}
	return nil
}

func (r *ReviewRequestRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID, limit int) ([]*model.ReviewRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM review_requests WHERE business_id=$1 ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, query, businessID, limit)
}

func (r *ReviewRequestRepository) ListCreatedSince(ctx context.Context, businessID uuid.UUID, since time.Time) ([]*model.ReviewRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM review_requests WHERE business_id=$1 AND created_at >= $2 ORDER BY created_at`
	return r.list(ctx, query, businessID, since)
}

func (r *ReviewRequestRepository) list(ctx context.Context, query string, args ...any) ([]*model.ReviewRequest, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []*model.ReviewRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (r *ReviewRequestRepository) CampaignStats(ctx context.Context, campaignID uuid.UUID) (map[model.RequestStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM review_requests WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[model.RequestStatus]int{model.StatusPending: 0, model.StatusSent: 0, model.StatusFailed: 0}
	for rows.Next() {
		var status model.RequestStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ ReviewRequestRepositoryInterface = (*ReviewRequestRepository)(nil)
