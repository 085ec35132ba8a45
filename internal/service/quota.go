package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/repository"
)

// PlanSMSLimits is the monthly SMS allowance per plan.
var PlanSMSLimits = map[model.Plan]int{
	model.PlanFree:     50,
	model.PlanStarter:  100,
	model.PlanPro:      500,
	model.PlanBusiness: 2000,
}

// PlanAllowsQRCodes reports whether the plan includes QR code generation.
func PlanAllowsQRCodes(p model.Plan) bool {
	return p == model.PlanPro || p == model.PlanBusiness
}

// QuotaGuard gates SMS volume. Consume is the only way usage grows, and it
// is a single conditional increment in the store.
type QuotaGuard struct {
	Businesses repository.BusinessRepositoryInterface
}

func (g *QuotaGuard) Remaining(b *model.Business) int {
	if r := b.MonthlySMSLimit - b.MonthlySMSUsed; r > 0 {
		return r
	}
	return 0
}

func (g *QuotaGuard) CanSend(b *model.Business) bool {
	return g.Remaining(b) > 0
}

// Consume reserves one SMS or returns ErrQuotaExceeded.
func (g *QuotaGuard) Consume(ctx context.Context, businessID uuid.UUID) error {
	ok, err := g.Businesses.ConsumeSMS(ctx, businessID)
	if err != nil {
		return fmt.Errorf("consume sms quota: %w", err)
	}
	if !ok {
		return appErrors.ErrQuotaExceeded
	}
	return nil
}

// Refund gives back a reservation whose send failed.
func (g *QuotaGuard) Refund(ctx context.Context, businessID uuid.UUID) error {
	return g.Businesses.RefundSMS(ctx, businessID)
}

// ChangePlan applies a plan change coming from the billing side.
func (g *QuotaGuard) ChangePlan(ctx context.Context, businessID uuid.UUID, plan model.Plan) error {
	limit, ok := PlanSMSLimits[plan]
	if !ok {
		return appErrors.NewValidation("plan", fmt.Sprintf("unknown plan %q", plan))
	}
	return g.Businesses.SetPlan(ctx, businessID, plan, limit)
}

func (g *QuotaGuard) ResetMonthly(ctx context.Context) (int64, error) {
	return g.Businesses.ResetUsage(ctx)
}
