package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/repository"
)

const (
	MinAutoSendDelayHours = 1
	MaxAutoSendDelayHours = 168
)

type BusinessService struct {
	BusinessRepo repository.BusinessRepositoryInterface
}

// SettingsUpdate carries a partial settings change. Nil fields are kept.
type SettingsUpdate struct {
	Name               *string
	GoogleReviewURL    *string
	LogoURL            *string
	SMSTemplate        *string
	EmailTemplate      *string
	AutoSendEnabled    *bool
	AutoSendDelayHours *int
	SendMethod         *model.SendMethod
}

func (s *BusinessService) GetBusiness(ctx context.Context, id uuid.UUID) (*model.Business, error) {
	return s.BusinessRepo.Get(ctx, id)
}

func (s *BusinessService) UpdateSettings(ctx context.Context, id uuid.UUID, u SettingsUpdate) (*model.Business, error) {
	b, err := s.BusinessRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return nil, appErrors.NewValidation("name", "cannot be empty")
		}
		b.Name = name
	}
	if u.GoogleReviewURL != nil {
		raw := strings.TrimSpace(*u.GoogleReviewURL)
		if raw != "" && !isHTTPURL(raw) {
			return nil, appErrors.NewValidation("google_review_url", "must be an http(s) URL")
		}
		b.GoogleReviewURL = raw
	}
	if u.LogoURL != nil {
		raw := strings.TrimSpace(*u.LogoURL)
		if raw != "" && !isHTTPURL(raw) {
			return nil, appErrors.NewValidation("logo_url", "must be an http(s) URL")
		}
		b.LogoURL = raw
	}
	if u.SMSTemplate != nil {
		b.SMSTemplate = *u.SMSTemplate
	}
	if u.EmailTemplate != nil {
		b.EmailTemplate = *u.EmailTemplate
	}
	if u.AutoSendEnabled != nil {
		b.AutoSendEnabled = *u.AutoSendEnabled
	}
	if u.AutoSendDelayHours != nil {
		d := *u.AutoSendDelayHours
		if d < MinAutoSendDelayHours || d > MaxAutoSendDelayHours {
			return nil, appErrors.NewValidation("auto_send_delay_hours",
				fmt.Sprintf("must be between %d and %d", MinAutoSendDelayHours, MaxAutoSendDelayHours))
		}
		b.AutoSendDelayHours = d
	}
	if u.SendMethod != nil {
		if !u.SendMethod.Valid() {
			return nil, appErrors.NewValidation("send_method", fmt.Sprintf("unsupported method %q", *u.SendMethod))
		}
		b.SendMethod = *u.SendMethod
	}

	if err := s.BusinessRepo.UpdateSettings(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
