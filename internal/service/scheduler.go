package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/lock"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/repository"
	"github.com/unclebandit/reviewboost-backend/internal/tracing"
)

// AutoSendScheduler performs one sweep per external trigger. It never
// schedules itself.
type AutoSendScheduler struct {
	Businesses repository.BusinessRepositoryInterface
	Customers  repository.CustomerRepositoryInterface
	Requests   repository.ReviewRequestRepositoryInterface
	Lifecycle  *RequestService
	Quota      *QuotaGuard
	Locker     lock.Locker
	Logger     *zap.Logger

	// Window is the lookback ending at each business's cutoff.
	Window  time.Duration
	LockTTL time.Duration
	Now     func() time.Time
}

type SweepResult struct {
	TotalSent    int `json:"totalSent"`
	TotalFailed  int `json:"totalFailed"`
	TotalSkipped int `json:"totalSkipped"`
	Businesses   int `json:"businesses"`
}

func (s *AutoSendScheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AutoSendScheduler) window() time.Duration {
	if s.Window > 0 {
		return s.Window
	}
	return time.Hour
}

func (s *AutoSendScheduler) lockTTL() time.Duration {
	if s.LockTTL > 0 {
		return s.LockTTL
	}
	return 10 * time.Minute
}

// EligibilityWindow returns the visit range [cutoff-window, cutoff] for b.
func (s *AutoSendScheduler) EligibilityWindow(b *model.Business, now time.Time) (from, to time.Time) {
	cutoff := now.Add(-time.Duration(b.AutoSendDelayHours) * time.Hour)
	return cutoff.Add(-s.window()), cutoff
}

// Run sweeps every auto-send business. Failures for one customer or one
// business are logged and the sweep continues.
func (s *AutoSendScheduler) Run(ctx context.Context) (SweepResult, error) {
	ctx, span := tracing.StartSpan(ctx, "AutoSendScheduler.Run")
	defer span.End()

	var result SweepResult
	businesses, err := s.Businesses.ListAutoSendEnabled(ctx)
	if err != nil {
		span.RecordError(err)
		return result, fmt.Errorf("list auto-send businesses: %w", err)
	}

	now := s.now()
	for _, b := range businesses {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Businesses++
		s.sweepBusiness(ctx, b, now, &result)
	}

	span.SetAttributes(
		attribute.Int("sent", result.TotalSent),
		attribute.Int("failed", result.TotalFailed),
		attribute.Int("skipped", result.TotalSkipped),
	)
	s.Logger.Info("auto-send sweep finished",
		zap.Int("businesses", result.Businesses),
		zap.Int("sent", result.TotalSent),
		zap.Int("failed", result.TotalFailed),
		zap.Int("skipped", result.TotalSkipped))
	return result, nil
}

func (s *AutoSendScheduler) sweepBusiness(ctx context.Context, b *model.Business, now time.Time, result *SweepResult) {
	from, to := s.EligibilityWindow(b, now)
	customers, err := s.Customers.ListVisitedBetween(ctx, b.ID, from, to)
	if err != nil {
		s.Logger.Error("failed to load eligible customers",
			zap.String("business_id", b.ID.String()), zap.Error(err))
		return
	}
	if len(customers) == 0 {
		return
	}

	if b.SendMethod == model.MethodSMS && !s.Quota.CanSend(b) {
		s.Logger.Warn("sms quota exhausted, skipping business",
			zap.String("business_id", b.ID.String()), zap.Int("eligible", len(customers)))
		result.TotalSkipped += len(customers)
		return
	}

	for _, c := range customers {
		if ctx.Err() != nil {
			return
		}
		switch outcome := s.sendOne(ctx, b, c); outcome {
		case outcomeSent:
			result.TotalSent++
		case outcomeFailed:
			result.TotalFailed++
		default:
			result.TotalSkipped++
		}
	}
}

type sendOutcome int

const (
	outcomeSkipped sendOutcome = iota
	outcomeSent
	outcomeFailed
)

func (s *AutoSendScheduler) sendOne(ctx context.Context, b *model.Business, c *model.Customer) sendOutcome {
	log := s.Logger.With(zap.String("business_id", b.ID.String()), zap.String("customer_id", c.ID.String()))

	release, err := s.Locker.Acquire(ctx, "autosend:customer:"+c.ID.String(), s.lockTTL())
	if errors.Is(err, lock.ErrNotAcquired) {
		log.Debug("customer locked by a concurrent sweep")
		return outcomeSkipped
	}
	if err != nil {
		log.Error("failed to acquire customer lock", zap.Error(err))
		return outcomeFailed
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("failed to release customer lock", zap.Error(err))
		}
	}()

	exists, err := s.Requests.HasActiveRequest(ctx, c.ID)
	if err != nil {
		log.Error("dedup check failed", zap.Error(err))
		return outcomeFailed
	}
	if exists {
		return outcomeSkipped
	}

	res, err := s.Lifecycle.CreateAndDispatch(ctx, b, c, b.SendMethod, model.OriginAuto, nil)
	if errors.Is(err, appErrors.ErrActiveRequestExists) {
		return outcomeSkipped
	}
	if err != nil {
		log.Error("auto-send failed", zap.Error(err))
		if res != nil && res.Sent {
			return outcomeSent
		}
		return outcomeFailed
	}
	if !res.Sent {
		return outcomeFailed
	}
	return outcomeSent
}
