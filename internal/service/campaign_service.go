// internal/service/campaign_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/queue"
	"github.com/unclebandit/reviewboost-backend/internal/repository"
	"github.com/unclebandit/reviewboost-backend/internal/tracing"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	BusinessRepo repository.BusinessRepositoryInterface
	RequestRepo  repository.ReviewRequestRepositoryInterface
	Lifecycle    *RequestService
	Queue        queue.Queue
	Logger       *zap.Logger

	// SendDelay spaces consecutive recipients of one campaign.
	SendDelay time.Duration
	Now       func() time.Time
}

// Result struct for SendCampaign
type SendCampaignResult struct {
	CampaignID      uuid.UUID `json:"campaignId"`
	SentCount       int       `json:"sentCount"`
	FailedCount     int       `json:"failedCount"`
	TotalRecipients int       `json:"totalRecipients"`
}

type CampaignDetails struct {
	*model.Campaign
	Stats map[string]int `json:"stats"`
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *CampaignService) CreateCampaign(ctx context.Context, businessID uuid.UUID, name string, method model.SendMethod, scheduledAt *string) (*model.Campaign, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.NewValidation("name", "is required")
	}
	if method == "" {
		b, err := s.BusinessRepo.Get(ctx, businessID)
		if err != nil {
			return nil, err
		}
		method = b.SendMethod
	}
	if !method.Valid() {
		return nil, appErrors.NewValidation("method", fmt.Sprintf("unsupported method %q", method))
	}

	c := &model.Campaign{
		BusinessID: businessID,
		Name:       name,
		Method:     method,
		Status:     model.CampaignDraft,
		CreatedAt:  s.now(),
	}

	if scheduledAt != nil && strings.TrimSpace(*scheduledAt) != "" {
		t, err := time.Parse(time.RFC3339, *scheduledAt)
		if err != nil {
			return nil, appErrors.NewValidation("scheduled_at", "must be an RFC3339 timestamp")
		}
		c.ScheduledAt = &t
		c.Status = model.CampaignScheduled
	}

	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, businessID uuid.UUID, page, pageSize int, method, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.List(ctx, businessID, offset, pageSize, method, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, businessID, campaignID uuid.UUID) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.Get(ctx, businessID, campaignID)
	if err != nil {
		return nil, err
	}

	counts, err := s.RequestRepo.CampaignStats(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("campaign stats: %w", err)
	}

	stats := map[string]int{"total": 0}
	for _, st := range []model.RequestStatus{
		model.StatusPending, model.StatusSent, model.StatusOpened, model.StatusClicked,
		model.StatusReviewed, model.StatusFeedback, model.StatusFailed,
	} {
		stats[string(st)] = counts[st]
		stats["total"] += counts[st]
	}

	return &CampaignDetails{Campaign: campaign, Stats: stats}, nil
}

// SendCampaign sends one review request per customer of the business,
// sequentially with SendDelay between recipients. Nothing is written when
// the campaign, business or customer list cannot be loaded.
func (s *CampaignService) SendCampaign(ctx context.Context, businessID, campaignID uuid.UUID) (*SendCampaignResult, error) {
	ctx, span := tracing.StartSpan(ctx, "CampaignService.SendCampaign")
	defer span.End()
	span.SetAttributes(attribute.String("campaign_id", campaignID.String()))

	campaign, err := s.CampaignRepo.Get(ctx, businessID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != model.CampaignDraft && campaign.Status != model.CampaignScheduled {
		return nil, fmt.Errorf("status %s: %w", campaign.Status, appErrors.ErrCampaignState)
	}

	business, err := s.BusinessRepo.Get(ctx, businessID)
	if err != nil {
		return nil, err
	}
	customers, err := s.CustomerRepo.ListByBusiness(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	if len(customers) == 0 {
		return nil, appErrors.ErrNoRecipients
	}

	claimed, err := s.CampaignRepo.MarkSending(ctx, businessID, campaignID, len(customers))
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, fmt.Errorf("campaign %s already claimed: %w", campaignID, appErrors.ErrCampaignState)
	}

	method := campaign.Method
	if method == "" {
		method = business.SendMethod
	}

	result := &SendCampaignResult{CampaignID: campaignID, TotalRecipients: len(customers)}
	for i, c := range customers {
		if i > 0 && !s.pause(ctx) {
			result.FailedCount += len(customers) - i
			s.Logger.Warn("campaign interrupted, remaining recipients counted as failed",
				zap.String("campaign_id", campaignID.String()),
				zap.Int("remaining", len(customers)-i))
			break
		}

		res, err := s.Lifecycle.CreateAndDispatch(ctx, business, c, method, model.OriginCampaign, &campaign.ID)
		if err != nil {
			s.Logger.Error("campaign recipient failed",
				zap.String("campaign_id", campaignID.String()),
				zap.String("customer_id", c.ID.String()),
				zap.Error(err))
		}
		if res != nil && res.Sent {
			result.SentCount++
		} else {
			result.FailedCount++
		}
	}

	if err := s.CampaignRepo.MarkCompleted(context.WithoutCancel(ctx), campaignID, result.SentCount, result.FailedCount, s.now()); err != nil {
		span.RecordError(err)
		return result, fmt.Errorf("complete campaign %s: %w", campaignID, err)
	}

	span.SetAttributes(attribute.Int("sent", result.SentCount), attribute.Int("failed", result.FailedCount))
	s.Logger.Info("campaign completed",
		zap.String("campaign_id", campaignID.String()),
		zap.Int("sent", result.SentCount),
		zap.Int("failed", result.FailedCount),
		zap.Int("total", result.TotalRecipients))
	return result, nil
}

// pause waits SendDelay and reports false if ctx ended first.
func (s *CampaignService) pause(ctx context.Context) bool {
	if s.SendDelay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(s.SendDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// EnqueueCampaign hands the campaign to the worker instead of sending inline.
func (s *CampaignService) EnqueueCampaign(ctx context.Context, businessID, campaignID uuid.UUID) error {
	campaign, err := s.CampaignRepo.Get(ctx, businessID, campaignID)
	if err != nil {
		return err
	}
	if campaign.Status != model.CampaignDraft && campaign.Status != model.CampaignScheduled {
		return fmt.Errorf("status %s: %w", campaign.Status, appErrors.ErrCampaignState)
	}
	job := queue.CampaignSendJob{CampaignID: campaign.ID, BusinessID: campaign.BusinessID}
	if err := queue.PublishJSON(ctx, s.Queue, queue.TopicCampaignSends, job); err != nil {
		return fmt.Errorf("enqueue campaign %s: %w", campaignID, err)
	}
	return nil
}

// EnqueueDueScheduled publishes every scheduled campaign whose time has come.
func (s *CampaignService) EnqueueDueScheduled(ctx context.Context) (int, error) {
	due, err := s.CampaignRepo.ListDueScheduled(ctx, s.now())
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, c := range due {
		job := queue.CampaignSendJob{CampaignID: c.ID, BusinessID: c.BusinessID}
		if err := queue.PublishJSON(ctx, s.Queue, queue.TopicCampaignSends, job); err != nil {
			s.Logger.Error("failed to enqueue scheduled campaign",
				zap.String("campaign_id", c.ID.String()), zap.Error(err))
			continue
		}
		queued++
	}
	return queued, nil
}

// HandleSendJob is the campaign_sends queue handler. A campaign that was
// already claimed is acknowledged rather than retried.
func (s *CampaignService) HandleSendJob(ctx context.Context, body []byte) error {
	var job queue.CampaignSendJob
	if err := json.Unmarshal(body, &job); err != nil {
		s.Logger.Error("dropping malformed campaign job", zap.ByteString("body", body), zap.Error(err))
		return nil
	}
	_, err := s.SendCampaign(ctx, job.BusinessID, job.CampaignID)
	if isPermanent(err) {
		s.Logger.Warn("campaign job skipped", zap.String("campaign_id", job.CampaignID.String()), zap.Error(err))
		return nil
	}
	return err
}
