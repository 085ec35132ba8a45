package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
)

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, business_id, name, method, status, total_recipients, sent_count, failed_count,
	scheduled_at, completed_at, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.BusinessID, &c.Name, &c.Method, &c.Status, &c.TotalRecipients, &c.SentCount,
		&c.FailedCount, &c.ScheduledAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	query := `
		INSERT INTO campaigns (id, business_id, name, method, status, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query, c.ID, c.BusinessID, c.Name, c.Method, c.Status, c.ScheduledAt, c.CreatedAt)
	return err
}

func (r *CampaignRepository) Get(ctx context.Context, businessID, id uuid.UUID) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1 AND business_id=$2`
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id, businessID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) List(ctx context.Context, businessID uuid.UUID, offset, limit int, method, status string) ([]*model.Campaign, int, error) {
	where := ` WHERE business_id=$1`
	args := []any{businessID}
	argPos := 2

	if method != "" {
		where += fmt.Sprintf(" AND method=$%d", argPos)
		args = append(args, method)
		argPos++
	}
	if status != "" {
		where += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	rows, err := r.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, total, rows.Err()
}

func (r *CampaignRepository) ListDueScheduled(ctx context.Context, now time.Time) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE status='scheduled' AND scheduled_at <= $1 ORDER BY scheduled_at`
	rows, err := r.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// ====================== Dispatch state ======================

func (r *CampaignRepository) MarkSending(ctx context.Context, businessID, id uuid.UUID, total int) (bool, error) {
	query := `
		UPDATE campaigns
		SET status='sending', total_recipients=$1, sent_count=0, failed_count=0, updated_at=NOW()
		WHERE id=$2 AND business_id=$3 AND status IN ('draft', 'scheduled')
	`
	res, err := r.DB.ExecContext(ctx, query, total, id, businessID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *CampaignRepository) MarkCompleted(ctx context.Context, id uuid.UUID, sent, failed int, at time.Time) error {
	query := `
		UPDATE campaigns
		SET status='completed', sent_count=$1, failed_count=$2, completed_at=$3, updated_at=$3
		WHERE id=$4 AND status='sending'
	`
	res, err := r.DB.ExecContext(ctx, query, sent, failed, at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.ErrCampaignState
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
