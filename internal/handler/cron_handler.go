package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unclebandit/reviewboost-backend/internal/controller"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/service"
)

// CronHandler exposes the shared-secret triggers: the auto-send sweep, the
// monthly usage reset and plan changes pushed by billing.
type CronHandler struct {
	Scheduler *service.AutoSendScheduler
	Campaigns *service.CampaignService
	Quota     *service.QuotaGuard
	Logger    *zap.Logger
}

func (h *CronHandler) AutoSend(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())

	result, err := h.Scheduler.Run(ctx)
	if err != nil {
		h.Logger.Error("auto-send sweep failed", zap.Error(err))
		controller.RespondError(w, err)
		return
	}

	queued, err := h.Campaigns.EnqueueDueScheduled(ctx)
	if err != nil {
		// The sweep already ran; report it and carry on.
		h.Logger.Error("failed to enqueue scheduled campaigns", zap.Error(err))
	}

	controller.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":                    true,
		"totalSent":                  result.TotalSent,
		"totalFailed":                result.TotalFailed,
		"totalSkipped":               result.TotalSkipped,
		"businesses":                 result.Businesses,
		"scheduledCampaignsEnqueued": queued,
	})
}

func (h *CronHandler) ResetUsage(w http.ResponseWriter, r *http.Request) {
	n, err := h.Quota.ResetMonthly(r.Context())
	if err != nil {
		controller.RespondError(w, err)
		return
	}
	h.Logger.Info("monthly sms usage reset", zap.Int64("businesses", n))
	controller.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "businesses": n})
}

type planPayload struct {
	BusinessID string `json:"businessId" validate:"required,uuid"`
	Plan       string `json:"plan" validate:"required,oneof=free starter pro business"`
}

// ChangePlan applies a plan change and its SMS limit.
func (h *CronHandler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	var body planPayload
	if err := controller.DecodeJSON(r, &body); err != nil {
		controller.RespondError(w, err)
		return
	}
	plan := model.Plan(body.Plan)
	if err := h.Quota.ChangePlan(r.Context(), uuid.MustParse(body.BusinessID), plan); err != nil {
		controller.RespondError(w, err)
		return
	}
	controller.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"plan":            plan,
		"monthlySmsLimit": service.PlanSMSLimits[plan],
	})
}
