package controller

import (
	"net/http"
	"strconv"

	"github.com/unclebandit/reviewboost-backend/internal/middleware"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/service"
)

// BusinessController serves the owner's settings, dashboard stats and
// request history.
type BusinessController struct {
	BusinessService *service.BusinessService
	StatsService    *service.StatsService
	RequestService  *service.RequestService
}

type settingsPayload struct {
	Name               *string `json:"name" validate:"omitempty,max=200"`
	GoogleReviewURL    *string `json:"google_review_url" validate:"omitempty,url"`
	LogoURL            *string `json:"logo_url" validate:"omitempty,url"`
	SMSTemplate        *string `json:"sms_template" validate:"omitempty,max=640"`
	EmailTemplate      *string `json:"email_template" validate:"omitempty,max=5000"`
	AutoSendEnabled    *bool   `json:"auto_send_enabled"`
	AutoSendDelayHours *int    `json:"auto_send_delay_hours" validate:"omitempty,min=1,max=168"`
	SendMethod         *string `json:"send_method" validate:"omitempty,oneof=sms email both"`
}

func (c *BusinessController) GetBusiness(w http.ResponseWriter, r *http.Request) {
	b, err := c.BusinessService.GetBusiness(r.Context(), middleware.BusinessID(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, b)
}

func (c *BusinessController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body settingsPayload
	if err := DecodeJSON(r, &body); err != nil {
		RespondError(w, err)
		return
	}

	update := service.SettingsUpdate{
		Name:               body.Name,
		GoogleReviewURL:    body.GoogleReviewURL,
		LogoURL:            body.LogoURL,
		SMSTemplate:        body.SMSTemplate,
		EmailTemplate:      body.EmailTemplate,
		AutoSendEnabled:    body.AutoSendEnabled,
		AutoSendDelayHours: body.AutoSendDelayHours,
	}
	if body.SendMethod != nil {
		m := model.SendMethod(*body.SendMethod)
		update.SendMethod = &m
	}

	b, err := c.BusinessService.UpdateSettings(r.Context(), middleware.BusinessID(r.Context()), update)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, b)
}

func (c *BusinessController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.StatsService.Dashboard(r.Context(), middleware.BusinessID(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, stats)
}

// History lists the most recent review requests, failed ones included.
func (c *BusinessController) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	requests, err := c.RequestService.History(r.Context(), middleware.BusinessID(r.Context()), limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"data": requests})
}
