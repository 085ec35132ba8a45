package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/queue"
	"github.com/unclebandit/reviewboost-backend/internal/repository"
	"github.com/unclebandit/reviewboost-backend/internal/transport"
)

// FeedbackService backs the owner's private feedback inbox.
type FeedbackService struct {
	Feedbacks  repository.FeedbackRepositoryInterface
	Businesses repository.BusinessRepositoryInterface
	Customers  repository.CustomerRepositoryInterface
	Email      transport.EmailSender
	AppURL     string
	Logger     *zap.Logger
	Now        func() time.Time
}

func (s *FeedbackService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *FeedbackService) List(ctx context.Context, businessID uuid.UUID, filter model.FeedbackFilter) ([]*model.PrivateFeedback, error) {
	return s.Feedbacks.List(ctx, businessID, filter)
}

func (s *FeedbackService) MarkRead(ctx context.Context, businessID, id uuid.UUID) (*model.PrivateFeedback, error) {
	if err := s.Feedbacks.MarkRead(ctx, businessID, id); err != nil {
		return nil, err
	}
	return s.Feedbacks.Get(ctx, businessID, id)
}

// Resolve closes a feedback. It is also marked read.
func (s *FeedbackService) Resolve(ctx context.Context, businessID, id uuid.UUID) (*model.PrivateFeedback, error) {
	if err := s.Feedbacks.Resolve(ctx, businessID, id, s.now()); err != nil {
		return nil, err
	}
	return s.Feedbacks.Get(ctx, businessID, id)
}

// SendAlert emails the business owner about a new private feedback.
func (s *FeedbackService) SendAlert(ctx context.Context, businessID, feedbackID uuid.UUID) error {
	fb, err := s.Feedbacks.Get(ctx, businessID, feedbackID)
	if err != nil {
		return err
	}
	b, err := s.Businesses.Get(ctx, businessID)
	if err != nil {
		return err
	}
	if b.Email == "" {
		s.Logger.Info("business has no email, feedback alert skipped", zap.String("business_id", b.ID.String()))
		return nil
	}

	customerName := ""
	if c, err := s.Customers.Get(ctx, businessID, fb.CustomerID); err == nil {
		customerName = c.Name
	}

	subject, html, err := transport.BuildFeedbackAlertEmail(transport.FeedbackAlertData{
		BusinessName: b.Name,
		CustomerName: customerName,
		Score:        fb.Score,
		Category:     fb.Category,
		Message:      fb.Message,
		DashboardURL: s.AppURL + "/dashboard/feedback",
	})
	if err != nil {
		return err
	}

	id, err := s.Email.SendEmail(ctx, transport.EmailMessage{To: b.Email, Subject: subject, HTML: html})
	if err != nil {
		return fmt.Errorf("send feedback alert: %w", err)
	}
	s.Logger.Info("feedback alert sent",
		zap.String("feedback_id", fb.ID.String()), zap.String("message_id", id))
	return nil
}

// HandleAlertJob is the feedback_alerts queue handler.
func (s *FeedbackService) HandleAlertJob(ctx context.Context, body []byte) error {
	var job queue.FeedbackAlertJob
	if err := json.Unmarshal(body, &job); err != nil {
		s.Logger.Error("dropping malformed feedback alert job", zap.ByteString("body", body), zap.Error(err))
		return nil
	}
	err := s.SendAlert(ctx, job.BusinessID, job.FeedbackID)
	if isPermanent(err) {
		s.Logger.Warn("feedback alert skipped", zap.String("feedback_id", job.FeedbackID.String()), zap.Error(err))
		return nil
	}
	return err
}
