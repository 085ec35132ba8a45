package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/unclebandit/reviewboost-backend/internal/codegen"
	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/repository"
	"github.com/unclebandit/reviewboost-backend/internal/tracing"
)

const maxInsertAttempts = 3

// RequestService owns creation and forward-only transitions of review requests.
type RequestService struct {
	Requests   repository.ReviewRequestRepositoryInterface
	Clicks     repository.ClickRepositoryInterface
	Dispatcher *Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

func (s *RequestService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type CreateRequestParams struct {
	BusinessID uuid.UUID
	CustomerID uuid.UUID
	Method     model.SendMethod
	Origin     model.RequestOrigin
	CampaignID *uuid.UUID
}

// Create persists a pending request under a fresh unique code.
func (s *RequestService) Create(ctx context.Context, p CreateRequestParams) (*model.ReviewRequest, error) {
	if !p.Method.Valid() {
		return nil, appErrors.NewValidation("method", fmt.Sprintf("unsupported method %q", p.Method))
	}
	if p.Method == model.MethodBoth {
		p.Method = model.MethodSMS
	}
	if p.Origin == "" {
		p.Origin = model.OriginManual
	}

	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		code, err := codegen.GenerateUnique(ctx, codegen.RequestCodeLength, s.Requests.CodeExists)
		if err != nil {
			return nil, err
		}
		req := &model.ReviewRequest{
			BusinessID: p.BusinessID,
			CustomerID: p.CustomerID,
			CampaignID: p.CampaignID,
			UniqueCode: code,
			Method:     p.Method,
			Origin:     p.Origin,
			Status:     model.StatusPending,
			CreatedAt:  s.now(),
		}
		err = s.Requests.Create(ctx, req)
		if errors.Is(err, appErrors.ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return req, nil
	}
	return nil, appErrors.ErrDuplicateCode
}

// Resolve looks a request up by its public code.
func (s *RequestService) Resolve(ctx context.Context, code string) (*model.ReviewRequest, error) {
	if !codegen.Valid(code) {
		return nil, appErrors.NewNotFound("review request", code)
	}
	return s.Requests.GetByCode(ctx, code)
}

// transition moves req to next and persists it. Re-applying the current
// status is a no-op so stored timestamps are kept. On a failed write req
// is left as it was read.
func (s *RequestService) transition(ctx context.Context, req *model.ReviewRequest, next model.RequestStatus, stamp func(r *model.ReviewRequest, now time.Time)) error {
	if req.Status == next {
		return nil
	}
	if !req.Status.CanAdvanceTo(next) {
		return fmt.Errorf("%s -> %s: %w", req.Status, next, appErrors.ErrInvalidTransition)
	}
	return s.write(ctx, req, func(r *model.ReviewRequest) {
		r.Status = next
		if stamp != nil {
			stamp(r, s.now())
		}
	})
}

// write applies mutate and stores req guarded by its current status.
func (s *RequestService) write(ctx context.Context, req *model.ReviewRequest, mutate func(r *model.ReviewRequest)) error {
	saved := *req
	mutate(req)
	if err := s.Requests.Update(ctx, req, saved.Status); err != nil {
		*req = saved
		return err
	}
	return nil
}

// advance is transition with one retry against the stored row when another
// writer moved the request first. It returns the row that was written.
func (s *RequestService) advance(ctx context.Context, req *model.ReviewRequest, next model.RequestStatus, stamp func(r *model.ReviewRequest, now time.Time)) (*model.ReviewRequest, error) {
	err := s.transition(ctx, req, next, stamp)
	if !errors.Is(err, appErrors.ErrConcurrentUpdate) {
		if err != nil {
			return nil, err
		}
		return req, nil
	}
	cur, err := s.Requests.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, cur, next, stamp); err != nil {
		return nil, err
	}
	return cur, nil
}

// MarkDispatchResult records the transport outcome for the request with code.
func (s *RequestService) MarkDispatchResult(ctx context.Context, code string, sendErr error) (*model.ReviewRequest, error) {
	req, err := s.Requests.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return req, s.markDispatched(ctx, req, sendErr)
}

func (s *RequestService) markDispatched(ctx context.Context, req *model.ReviewRequest, sendErr error) error {
	err := s.recordDispatch(ctx, req, sendErr)
	if !errors.Is(err, appErrors.ErrConcurrentUpdate) {
		return err
	}

	cur, err := s.Requests.Get(ctx, req.ID)
	if err != nil {
		return err
	}
	if cur.Status.After(model.StatusSent) {
		// the link was used before the outcome landed; keep the status
		err = s.write(ctx, cur, func(r *model.ReviewRequest) {
			if sendErr != nil {
				r.LastError = sendErr.Error()
				return
			}
			if r.SentAt == nil {
				now := s.now()
				r.SentAt = &now
			}
			r.LastError = ""
		})
	} else {
		err = s.recordDispatch(ctx, cur, sendErr)
	}
	if err != nil {
		return err
	}
	*req = *cur
	return nil
}

func (s *RequestService) recordDispatch(ctx context.Context, req *model.ReviewRequest, sendErr error) error {
	if sendErr == nil {
		return s.transition(ctx, req, model.StatusSent, func(r *model.ReviewRequest, now time.Time) {
			r.SentAt = &now
			r.LastError = ""
		})
	}
	return s.transition(ctx, req, model.StatusFailed, func(r *model.ReviewRequest, _ time.Time) {
		r.LastError = sendErr.Error()
	})
}

// MarkOpened stamps opened_at the first time the public link is resolved.
// Later calls, concurrent ones included, change nothing and return the
// stored row.
func (s *RequestService) MarkOpened(ctx context.Context, code string) (*model.ReviewRequest, error) {
	req, err := s.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	err = s.stampOpened(ctx, req)
	if errors.Is(err, appErrors.ErrConcurrentUpdate) {
		if req, err = s.Requests.GetByCode(ctx, code); err != nil {
			return nil, err
		}
		err = s.stampOpened(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *RequestService) stampOpened(ctx context.Context, req *model.ReviewRequest) error {
	if req.OpenedAt != nil || req.Status.Terminal() {
		return nil
	}
	return s.write(ctx, req, func(r *model.ReviewRequest) {
		now := s.now()
		r.OpenedAt = &now
		if r.Status.CanAdvanceTo(model.StatusOpened) {
			r.Status = model.StatusOpened
		}
	})
}

type ClickMeta struct {
	UserAgent string
	IPAddress string
}

// RecordResponse appends the click, then moves the request to clicked
// (google redirect) or feedback (private feedback).
func (s *RequestService) RecordResponse(ctx context.Context, requestID uuid.UUID, score int, action model.Action, meta ClickMeta) (*model.ReviewRequest, error) {
	if !action.Valid() {
		return nil, appErrors.NewValidation("action", fmt.Sprintf("unknown action %q", action))
	}
	if score < MinScore || score > MaxScore {
		return nil, errScoreRange
	}
	req, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	click := &model.ReviewClick{
		RequestID:         req.ID,
		SatisfactionScore: score,
		Action:            action,
		UserAgent:         meta.UserAgent,
		IPAddress:         meta.IPAddress,
		ClickedAt:         s.now(),
	}
	if err := s.Clicks.Create(ctx, click); err != nil {
		return nil, fmt.Errorf("record click: %w", err)
	}

	next := model.StatusFeedback
	if action == model.ActionRedirectGoogle {
		next = model.StatusClicked
	}
	return s.advance(ctx, req, next, func(r *model.ReviewRequest, now time.Time) {
		r.ClickedAt = &now
	})
}

// ConfirmRedirect marks a clicked request reviewed once the customer
// actually heads to the public review page.
func (s *RequestService) ConfirmRedirect(ctx context.Context, code string) (*model.ReviewRequest, error) {
	req, err := s.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	if req.Status != model.StatusClicked && req.Status != model.StatusReviewed {
		return nil, fmt.Errorf("confirm redirect from %s: %w", req.Status, appErrors.ErrInvalidTransition)
	}
	return s.advance(ctx, req, model.StatusReviewed, func(r *model.ReviewRequest, now time.Time) {
		r.ReviewedAt = &now
	})
}

func (s *RequestService) History(ctx context.Context, businessID uuid.UUID, limit int) ([]*model.ReviewRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.Requests.ListByBusiness(ctx, businessID, limit)
}

// DispatchResult reports what happened to one customer.
type DispatchResult struct {
	Request  *model.ReviewRequest `json:"request"`
	Channels []ChannelResult      `json:"channels"`
	Sent     bool                 `json:"sent"`
}

// CreateAndDispatch persists a pending request, attempts transport, then
// records the outcome. A non-nil result with a non-nil error means the
// request exists but a later write failed.
func (s *RequestService) CreateAndDispatch(ctx context.Context, b *model.Business, c *model.Customer, method model.SendMethod, origin model.RequestOrigin, campaignID *uuid.UUID) (*DispatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "RequestService.CreateAndDispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("business_id", b.ID.String()),
		attribute.String("customer_id", c.ID.String()),
		attribute.String("method", string(method)),
	)

	req, err := s.Create(ctx, CreateRequestParams{
		BusinessID: b.ID,
		CustomerID: c.ID,
		Method:     ResolveRequestMethod(method, c),
		Origin:     origin,
		CampaignID: campaignID,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	channels, sendErr := s.Dispatcher.Dispatch(ctx, b, c, req, method)
	result := &DispatchResult{Request: req, Channels: channels, Sent: sendErr == nil}
	if sendErr != nil {
		s.Logger.Warn("review request dispatch failed",
			zap.String("business_id", b.ID.String()),
			zap.String("customer_id", c.ID.String()),
			zap.String("code", req.UniqueCode),
			zap.Error(sendErr))
	}

	// the outcome is written even if the caller's context was cancelled mid-send
	if err := s.markDispatched(context.WithoutCancel(ctx), req, sendErr); err != nil {
		span.RecordError(err)
		return result, fmt.Errorf("record dispatch result for %s: %w", req.UniqueCode, err)
	}
	span.SetAttributes(attribute.String("status", string(req.Status)))
	return result, nil
}
