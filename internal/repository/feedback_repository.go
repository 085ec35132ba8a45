package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
)

// ====================== Review clicks ======================

type ClickRepository struct {
	DB *sql.DB
}

func (r *ClickRepository) Create(ctx context.Context, c *model.ReviewClick) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.ClickedAt.IsZero() {
		c.ClickedAt = time.Now()
	}
	query := `
		INSERT INTO review_clicks (id, request_id, satisfaction_score, action, user_agent, ip_address, clicked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query, c.ID, c.RequestID, c.SatisfactionScore, c.Action, c.UserAgent, c.IPAddress, c.ClickedAt)
	return err
}

func (r *ClickRepository) ListByRequests(ctx context.Context, requestIDs []uuid.UUID) ([]*model.ReviewClick, error) {
	if len(requestIDs) == 0 {
		return []*model.ReviewClick{}, nil
	}
	ids := make([]string, len(requestIDs))
	for i, id := range requestIDs {
		ids[i] = id.String()
	}
	query := `
		SELECT id, request_id, satisfaction_score, action, user_agent, ip_address, clicked_at
		FROM review_clicks WHERE request_id = ANY($1::uuid[]) ORDER BY clicked_at
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clicks := []*model.ReviewClick{}
	for rows.Next() {
		var c model.ReviewClick
		if err := rows.Scan(&c.ID, &c.RequestID, &c.SatisfactionScore, &c.Action, &c.UserAgent, &c.IPAddress, &c.ClickedAt); err != nil {
			return nil, err
		}
		clicks = append(clicks, &c)
	}
	return clicks, rows.Err()
}

var _ ClickRepositoryInterface = (*ClickRepository)(nil)

// ====================== Private feedback ======================

type FeedbackRepository struct {
	DB *sql.DB
}

const feedbackColumns = `id, business_id, request_id, customer_id, score, message, category, is_read, is_resolved, resolved_at, created_at`

func scanFeedback(row interface{ Scan(...any) error }) (*model.PrivateFeedback, error) {
	var f model.PrivateFeedback
	err := row.Scan(&f.ID, &f.BusinessID, &f.RequestID, &f.CustomerID, &f.Score, &f.Message, &f.Category,
		&f.IsRead, &f.IsResolved, &f.ResolvedAt, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a feedback row. A second row for the same request is
// rejected by the request_id unique key and reported as ErrDuplicateCode.
func (r *FeedbackRepository) Create(ctx context.Context, f *model.PrivateFeedback) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO private_feedbacks (id, business_id, request_id, customer_id, score, message, category, is_read, is_resolved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.DB.ExecContext(ctx, query, f.ID, f.BusinessID, f.RequestID, f.CustomerID, f.Score, f.Message,
		f.Category, f.IsRead, f.IsResolved, f.CreatedAt)
	if uniqueConstraint(err) != "" {
		return fmt.Errorf("feedback for request %s: %w", f.RequestID, appErrors.ErrDuplicateCode)
	}
	return err
}

func (r *FeedbackRepository) Get(ctx context.Context, businessID, id uuid.UUID) (*model.PrivateFeedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM private_feedbacks WHERE id=$1 AND business_id=$2`
	f, err := scanFeedback(r.DB.QueryRowContext(ctx, query, id, businessID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("feedback", id)
		}
		return nil, err
	}
	return f, nil
}

func (r *FeedbackRepository) FindByRequest(ctx context.Context, requestID uuid.UUID) (*model.PrivateFeedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM private_feedbacks WHERE request_id=$1`
	f, err := scanFeedback(r.DB.QueryRowContext(ctx, query, requestID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

func (r *FeedbackRepository) List(ctx context.Context, businessID uuid.UUID, filter model.FeedbackFilter) ([]*model.PrivateFeedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM private_feedbacks WHERE business_id=$1`
	if filter.UnreadOnly {
		query += ` AND is_read = FALSE`
	}
	if filter.UnresolvedOnly {
		query += ` AND is_resolved = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	feedbacks := []*model.PrivateFeedback{}
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		feedbacks = append(feedbacks, f)
	}
	return feedbacks, rows.Err()
}

func (r *FeedbackRepository) MarkRead(ctx context.Context, businessID, id uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE private_feedbacks SET is_read = TRUE WHERE id=$1 AND business_id=$2`, id, businessID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("feedback", id)
	}
	return nil
}

func (r *FeedbackRepository) Resolve(ctx context.Context, businessID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE private_feedbacks
		SET is_resolved = TRUE, is_read = TRUE, resolved_at = COALESCE(resolved_at, $1)
		WHERE id=$2 AND business_id=$3
	`
	res, err := r.DB.ExecContext(ctx, query, at, id, businessID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("feedback", id)
	}
	return nil
}

var _ FeedbackRepositoryInterface = (*FeedbackRepository)(nil)
