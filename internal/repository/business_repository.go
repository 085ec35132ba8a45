package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
)

type BusinessRepository struct {
	DB *sql.DB
}

const businessColumns = `id, name, email, phone, google_review_url, logo_url, sms_template, email_template,
	auto_send_enabled, auto_send_delay_hours, send_method, plan, monthly_sms_limit, monthly_sms_used,
	created_at, updated_at`

func scanBusiness(row interface{ Scan(...any) error }) (*model.Business, error) {
	var b model.Business
	err := row.Scan(&b.ID, &b.Name, &b.Email, &b.Phone, &b.GoogleReviewURL, &b.LogoURL,
		&b.SMSTemplate, &b.EmailTemplate, &b.AutoSendEnabled, &b.AutoSendDelayHours,
		&b.SendMethod, &b.Plan, &b.MonthlySMSLimit, &b.MonthlySMSUsed, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BusinessRepository) Create(ctx context.Context, b *model.Business) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now()
	query := `
		INSERT INTO businesses (id, name, email, phone, google_review_url, logo_url, sms_template, email_template,
			auto_send_enabled, auto_send_delay_hours, send_method, plan, monthly_sms_limit, monthly_sms_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.DB.ExecContext(ctx, query, b.ID, b.Name, b.Email, b.Phone, b.GoogleReviewURL, b.LogoURL,
		b.SMSTemplate, b.EmailTemplate, b.AutoSendEnabled, b.AutoSendDelayHours, b.SendMethod, b.Plan,
		b.MonthlySMSLimit, b.MonthlySMSUsed, b.CreatedAt)
	return err
}

func (r *BusinessRepository) Get(ctx context.Context, id uuid.UUID) (*model.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE id=$1`
	b, err := scanBusiness(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("business", id)
		}
		return nil, err
	}
	return b, nil
}

func (r *BusinessRepository) UpdateSettings(ctx context.Context, b *model.Business) error {
	now := time.Now()
	query := `
		UPDATE businesses
		SET name=$1, google_review_url=$2, logo_url=$3, sms_template=$4, email_template=$5,
			auto_send_enabled=$6, auto_send_delay_hours=$7, send_method=$8, updated_at=$9
		WHERE id=$10
	`
	res, err := r.DB.ExecContext(ctx, query, b.Name, b.GoogleReviewURL, b.LogoURL, b.SMSTemplate, b.EmailTemplate,
		b.AutoSendEnabled, b.AutoSendDelayHours, b.SendMethod, now, b.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("business", b.ID)
	}
	b.UpdatedAt = &now
	return nil
}

func (r *BusinessRepository) ListAutoSendEnabled(ctx context.Context) ([]*model.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE auto_send_enabled = TRUE ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	businesses := []*model.Business{}
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, b)
	}
	return businesses, rows.Err()
}

func (r *BusinessRepository) ConsumeSMS(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE businesses
		SET monthly_sms_used = monthly_sms_used + 1
		WHERE id=$1 AND monthly_sms_used < monthly_sms_limit
	`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *BusinessRepository) RefundSMS(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE businesses SET monthly_sms_used = GREATEST(monthly_sms_used - 1, 0) WHERE id=$1`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

func (r *BusinessRepository) SetPlan(ctx context.Context, id uuid.UUID, plan model.Plan, limit int) error {
	query := `UPDATE businesses SET plan=$1, monthly_sms_limit=$2, updated_at=NOW() WHERE id=$3`
	res, err := r.DB.ExecContext(ctx, query, plan, limit, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("business", id)
	}
	return nil
}

func (r *BusinessRepository) ResetUsage(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE businesses SET monthly_sms_used = 0 WHERE monthly_sms_used <> 0`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ BusinessRepositoryInterface = (*BusinessRepository)(nil)
