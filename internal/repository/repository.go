package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/unclebandit/reviewboost-backend/internal/model"
)

// Lookups named Get* return an appErrors not-found error on a miss.
// Lookups named Find* return nil, nil.

type BusinessRepositoryInterface interface {
	Create(ctx context.Context, b *model.Business) error
	Get(ctx context.Context, id uuid.UUID) (*model.Business, error)
	UpdateSettings(ctx context.Context, b *model.Business) error
	ListAutoSendEnabled(ctx context.Context) ([]*model.Business, error)

	// ConsumeSMS increments the monthly counter only while it is below the limit.
	ConsumeSMS(ctx context.Context, id uuid.UUID) (bool, error)
	RefundSMS(ctx context.Context, id uuid.UUID) error
	SetPlan(ctx context.Context, id uuid.UUID, plan model.Plan, limit int) error
	ResetUsage(ctx context.Context) (int64, error)
}

type CustomerRepositoryInterface interface {
	Create(ctx context.Context, c *model.Customer) error
	Get(ctx context.Context, businessID, id uuid.UUID) (*model.Customer, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]*model.Customer, error)
	ListVisitedBetween(ctx context.Context, businessID uuid.UUID, from, to time.Time) ([]*model.Customer, error)
	Delete(ctx context.Context, businessID, id uuid.UUID) error
}

type ReviewRequestRepositoryInterface interface {
	// Create returns ErrDuplicateCode on a unique_code collision and
	// ErrActiveRequestExists when the active auto-send index rejects the row.
	Create(ctx context.Context, r *model.ReviewRequest) error
	Get(ctx context.Context, id uuid.UUID) (*model.ReviewRequest, error)
	GetByCode(ctx context.Context, code string) (*model.ReviewRequest, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	HasActiveRequest(ctx context.Context, customerID uuid.UUID) (bool, error)

	// Update writes status and timestamps only if the stored status still
	// equals prev. A miss yields ErrConcurrentUpdate.
	Update(ctx context.Context, r *model.ReviewRequest, prev model.RequestStatus) error

	ListByBusiness(ctx context.Context, businessID uuid.UUID, limit int) ([]*model.ReviewRequest, error)
	ListCreatedSince(ctx context.Context, businessID uuid.UUID, since time.Time) ([]*model.ReviewRequest, error)
	CampaignStats(ctx context.Context, campaignID uuid.UUID) (map[model.RequestStatus]int, error)
}

type ClickRepositoryInterface interface {
	Create(ctx context.Context, c *model.ReviewClick) error
	ListByRequests(ctx context.Context, requestIDs []uuid.UUID) ([]*model.ReviewClick, error)
}

type FeedbackRepositoryInterface interface {
	Create(ctx context.Context, f *model.PrivateFeedback) error
	Get(ctx context.Context, businessID, id uuid.UUID) (*model.PrivateFeedback, error)
	FindByRequest(ctx context.Context, requestID uuid.UUID) (*model.PrivateFeedback, error)
	List(ctx context.Context, businessID uuid.UUID, filter model.FeedbackFilter) ([]*model.PrivateFeedback, error)
	MarkRead(ctx context.Context, businessID, id uuid.UUID) error
	Resolve(ctx context.Context, businessID, id uuid.UUID, at time.Time) error
}

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	Get(ctx context.Context, businessID, id uuid.UUID) (*model.Campaign, error)
	List(ctx context.Context, businessID uuid.UUID, offset, limit int, method, status string) ([]*model.Campaign, int, error)
	ListDueScheduled(ctx context.Context, now time.Time) ([]*model.Campaign, error)

	// MarkSending moves a draft or scheduled campaign to sending. It reports
	// false when another run already claimed it.
	MarkSending(ctx context.Context, businessID, id uuid.UUID, total int) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, sent, failed int, at time.Time) error
}

type QRCodeRepositoryInterface interface {
	Create(ctx context.Context, q *model.QRCode) error
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]*model.QRCode, error)
	ShortCodeExists(ctx context.Context, code string) (bool, error)
}

// Store groups every repository a process needs.
type Store struct {
	Businesses BusinessRepositoryInterface
	Customers  CustomerRepositoryInterface
	Requests   ReviewRequestRepositoryInterface
	Clicks     ClickRepositoryInterface
	Feedbacks  FeedbackRepositoryInterface
	Campaigns  CampaignRepositoryInterface
	QRCodes    QRCodeRepositoryInterface
}

// NewPostgresStore wires every postgres repository onto one connection pool.
func NewPostgresStore(db *sql.DB) *Store {
	return &Store{
		Businesses: &BusinessRepository{DB: db},
		Customers:  &CustomerRepository{DB: db},
		Requests:   &ReviewRequestRepository{DB: db},
		Clicks:     &ClickRepository{DB: db},
		Feedbacks:  &FeedbackRepository{DB: db},
		Campaigns:  &CampaignRepository{DB: db},
		QRCodes:    &QRCodeRepository{DB: db},
	}
}

const uniqueViolation = "23505"

// uniqueConstraint returns the violated constraint name, or "" if err is
// not a unique violation.
func uniqueConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint
	}
	return ""
}
