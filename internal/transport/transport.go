// Package transport delivers review requests over SMS and email.
package transport

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SMSResult is the provider's acknowledgement of an accepted message.
type SMSResult struct {
	ConfirmationID string
	Status         string
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (SMSResult, error)
}

type EmailMessage struct {
	To      string
	Subject string
	HTML    string
}

type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) (string, error)
}

// LogSMSSender only logs. Used when no SMS provider is configured.
type LogSMSSender struct {
	Logger *zap.Logger
}

func (s *LogSMSSender) SendSMS(ctx context.Context, to, body string) (SMSResult, error) {
	id := "log-" + uuid.NewString()
	s.Logger.Info("sms not delivered, no provider configured",
		zap.String("to", to), zap.String("body", body), zap.String("confirmation_id", id))
	return SMSResult{ConfirmationID: id, Status: "logged"}, nil
}

// LogEmailSender only logs. Used when SMTP is not configured.
type LogEmailSender struct {
	Logger *zap.Logger
}

func (s *LogEmailSender) SendEmail(ctx context.Context, msg EmailMessage) (string, error) {
	id := "log-" + uuid.NewString()
	s.Logger.Info("email not delivered, no smtp configured",
		zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.String("id", id))
	return id, nil
}
