// internal/controller/campaign_controller.go
package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/unclebandit/reviewboost-backend/internal/middleware"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

type createCampaignPayload struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Method      string  `json:"method" validate:"omitempty,oneof=sms email both"`
	ScheduledAt *string `json:"scheduled_at"`
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body createCampaignPayload
	if err := DecodeJSON(r, &body); err != nil {
		RespondError(w, err)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), middleware.BusinessID(r.Context()),
		body.Name, model.SendMethod(body.Method), body.ScheduledAt)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	method := r.URL.Query().Get("method")
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), middleware.BusinessID(r.Context()),
		page, pageSize, method, status)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	id, err := URLUUID(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}

	details, err := c.CampaignService.GetCampaignDetailsWithStats(r.Context(), middleware.BusinessID(r.Context()), id)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, details)
}

// SendCampaign runs the campaign synchronously. The send continues if the
// client disconnects.
func (c *CampaignController) SendCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := URLUUID(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	result, err := c.CampaignService.SendCampaign(ctx, middleware.BusinessID(ctx), id)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"campaignId":      result.CampaignID,
		"sentCount":       result.SentCount,
		"failedCount":     result.FailedCount,
		"totalRecipients": result.TotalRecipients,
	})
}

// EnqueueCampaign hands the campaign to the background worker.
func (c *CampaignController) EnqueueCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := URLUUID(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}

	if err := c.CampaignService.EnqueueCampaign(r.Context(), middleware.BusinessID(r.Context()), id); err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusAccepted, map[string]interface{}{
		"campaignId": id,
		"status":     "queued",
	})
}
