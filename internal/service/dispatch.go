package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/unclebandit/reviewboost-backend/internal/contact"
	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/transport"
)

// ChannelResult is the outcome of one transport attempt for a request.
type ChannelResult struct {
	Channel        model.SendMethod `json:"channel"`
	ConfirmationID string           `json:"confirmation_id,omitempty"`
	Error          string           `json:"error,omitempty"`
	err            error
}

func (r ChannelResult) OK() bool { return r.err == nil }

// Dispatcher sends one review request over every channel the method and
// the customer's contact details allow.
type Dispatcher struct {
	SMS         transport.SMSSender
	Email       transport.EmailSender
	Quota       *QuotaGuard
	AppURL      string
	CountryCode string
	Logger      *zap.Logger
}

func (d *Dispatcher) ReviewLink(code string) string {
	return d.AppURL + "/review/" + code
}

// ResolveRequestMethod picks the channel recorded on the request row.
// "both" is recorded as sms unless the customer can only be emailed.
func ResolveRequestMethod(method model.SendMethod, c *model.Customer) model.SendMethod {
	if method != model.MethodBoth {
		return method
	}
	if c.Phone == "" && c.Email != "" {
		return model.MethodEmail
	}
	return model.MethodSMS
}

// Dispatch attempts each applicable channel independently. It returns nil
// when at least one channel succeeded, ErrNoChannel when none applied, and
// otherwise the joined channel errors.
func (d *Dispatcher) Dispatch(ctx context.Context, b *model.Business, c *model.Customer, req *model.ReviewRequest, method model.SendMethod) ([]ChannelResult, error) {
	link := d.ReviewLink(req.UniqueCode)
	var results []ChannelResult

	if method.IncludesSMS() && c.Phone != "" {
		id, err := d.sendSMS(ctx, b, c, link)
		results = append(results, newChannelResult(model.MethodSMS, id, err))
	}
	if method.IncludesEmail() && c.Email != "" {
		id, err := d.sendEmail(ctx, b, c, link)
		results = append(results, newChannelResult(model.MethodEmail, id, err))
	}

	if len(results) == 0 {
		return nil, appErrors.ErrNoChannel
	}

	var errs []error
	for _, r := range results {
		if r.OK() {
			return results, nil
		}
		errs = append(errs, r.err)
	}
	return results, errors.Join(errs...)
}

func newChannelResult(ch model.SendMethod, id string, err error) ChannelResult {
	r := ChannelResult{Channel: ch, ConfirmationID: id, err: err}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func (d *Dispatcher) sendSMS(ctx context.Context, b *model.Business, c *model.Customer, link string) (string, error) {
	if err := d.Quota.Consume(ctx, b.ID); err != nil {
		return "", fmt.Errorf("sms: %w", err)
	}

	template := b.SMSTemplate
	if template == "" {
		template = model.DefaultSMSTemplate
	}
	body := Interpolate(template, MessageVars(b, c, link))

	res, err := d.SMS.SendSMS(ctx, contact.NormalizePhone(c.Phone, d.CountryCode), body)
	if err != nil {
		if refundErr := d.Quota.Refund(context.WithoutCancel(ctx), b.ID); refundErr != nil {
			d.Logger.Error("failed to refund sms quota", zap.String("business_id", b.ID.String()), zap.Error(refundErr))
		}
		return "", fmt.Errorf("sms: %w", err)
	}
	return res.ConfirmationID, nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, b *model.Business, c *model.Customer, link string) (string, error) {
	template := b.EmailTemplate
	if template == "" {
		template = model.DefaultEmailTemplate
	}
	subject, html, err := transport.BuildReviewEmail(transport.ReviewEmailData{
		BusinessName: b.Name,
		Intro:        Interpolate(template, MessageVars(b, c, link)),
		ReviewURL:    link,
		LogoURL:      b.LogoURL,
	})
	if err != nil {
		return "", fmt.Errorf("email: %w", err)
	}

	id, err := d.Email.SendEmail(ctx, transport.EmailMessage{
		To:      contact.NormalizeEmail(c.Email),
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return "", fmt.Errorf("email: %w", err)
	}
	return id, nil
}
