// internal/handler/campaign_handler.go
package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/unclebandit/reviewboost-backend/internal/controller"
	"github.com/unclebandit/reviewboost-backend/internal/middleware"
	"github.com/unclebandit/reviewboost-backend/internal/service"
)

// CampaignHandler is the campaign-send trigger that takes the campaign id in
// the body rather than the path.
type CampaignHandler struct {
	Service *service.CampaignService
}

func NewCampaignHandler(svc *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{Service: svc}
}

type campaignTriggerPayload struct {
	CampaignID string `json:"campaignId" validate:"required,uuid"`
}

// SendCampaignHandler runs the campaign to completion even if the caller
// goes away, then reports the counts.
func (h *CampaignHandler) SendCampaignHandler(w http.ResponseWriter, r *http.Request) {
	var payload campaignTriggerPayload
	if err := controller.DecodeJSON(r, &payload); err != nil {
		controller.RespondError(w, err)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	result, err := h.Service.SendCampaign(ctx, middleware.BusinessID(ctx), uuid.MustParse(payload.CampaignID))
	if err != nil {
		controller.RespondError(w, err)
		return
	}

	controller.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"sentCount":       result.SentCount,
		"failedCount":     result.FailedCount,
		"totalRecipients": result.TotalRecipients,
	})
}
