package service

import (
	"context"
	"errors"
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

const (
	MinScore = 1
	MaxScore = 5

	// GoogleThreshold is the lowest score sent to the public review page.
	GoogleThreshold = 4
)

var errScoreRange = appErrors.NewValidation("score", "must be an integer between 1 and 5")

// DecideAction routes a satisfaction score.
func DecideAction(score int) (model.Action, error) {
	if score < MinScore || score > MaxScore {
		return "", errScoreRange
	}
	if score >= GoogleThreshold {
		return model.ActionRedirectGoogle, nil
	}
	return model.ActionPrivateFeedback, nil
}

type SubmitInput struct {
	RequestID  uuid.UUID
	BusinessID uuid.UUID
	CustomerID uuid.UUID
	Score      int
	Action     model.Action
	Feedback   string
	Category   string
	Meta       ClickMeta
}

type SubmitResult struct {
	Action          model.Action           `json:"action"`
	Status          model.RequestStatus    `json:"status"`
	GoogleReviewURL string                 `json:"googleReviewUrl,omitempty"`
	Feedback        *model.PrivateFeedback `json:"feedback,omitempty"`
}

// RoutingService handles the end customer's answer to the satisfaction prompt.
type RoutingService struct {
	Requests   repository.ReviewRequestRepositoryInterface
	Businesses repository.BusinessRepositoryInterface
	Feedbacks  repository.FeedbackRepositoryInterface
	Lifecycle  *RequestService
	Queue      queue.Queue
	Logger     *zap.Logger
	Now        func() time.Time
}

func (s *RoutingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *RoutingService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	ctx, span := tracing.StartSpan(ctx, "RoutingService.Submit")
	defer span.End()
	span.SetAttributes(attribute.Int("score", in.Score), attribute.String("action", string(in.Action)))

	decided, err := DecideAction(in.Score)
	if err != nil {
		return nil, err
	}
	if in.Action != decided {
		return nil, appErrors.NewValidation("action", "does not match score")
	}

	req, err := s.Requests.Get(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if req.BusinessID != in.BusinessID || req.CustomerID != in.CustomerID {
		return nil, appErrors.NewValidation("requestId", "does not belong to this business or customer")
	}

	req, err = s.Lifecycle.RecordResponse(ctx, req.ID, in.Score, in.Action, in.Meta)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	result := &SubmitResult{Action: in.Action, Status: req.Status}

	switch in.Action {
	case model.ActionRedirectGoogle:
		b, err := s.Businesses.Get(ctx, req.BusinessID)
		if err != nil {
			return nil, err
		}
		result.GoogleReviewURL = b.GoogleReviewURL

	case model.ActionPrivateFeedback:
		message := strings.TrimSpace(in.Feedback)
		if message == "" {
			return result, nil
		}
		fb, err := s.saveFeedback(ctx, req, in.Score, message, in.Category)
		if err != nil {
			return nil, err
		}
		result.Feedback = fb
	}
	return result, nil
}

// saveFeedback stores at most one feedback per request. A repeated
// submission returns the stored row.
func (s *RoutingService) saveFeedback(ctx context.Context, req *model.ReviewRequest, score int, message, category string) (*model.PrivateFeedback, error) {
	existing, err := s.Feedbacks.FindByRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if strings.TrimSpace(category) == "" {
		category = model.DefaultFeedbackCategory
	}
	fb := &model.PrivateFeedback{
		BusinessID: req.BusinessID,
		RequestID:  req.ID,
		CustomerID: req.CustomerID,
		Score:      score,
		Message:    message,
		Category:   category,
		CreatedAt:  s.now(),
	}
	if err := s.Feedbacks.Create(ctx, fb); err != nil {
		if errors.Is(err, appErrors.ErrDuplicateCode) {
			return s.Feedbacks.FindByRequest(ctx, req.ID)
		}
		return nil, err
	}

	if s.Queue != nil {
		job := queue.FeedbackAlertJob{FeedbackID: fb.ID, BusinessID: fb.BusinessID}
		if err := queue.PublishJSON(ctx, s.Queue, queue.TopicFeedbackAlerts, job); err != nil {
			s.Logger.Warn("failed to publish feedback alert",
				zap.String("feedback_id", fb.ID.String()), zap.Error(err))
		}
	}
	return fb, nil
}
