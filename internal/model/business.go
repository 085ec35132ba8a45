// internal/model/business.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type SendMethod string

const (
	MethodSMS   SendMethod = "sms"
	MethodEmail SendMethod = "email"
	MethodBoth  SendMethod = "both"
)

func (m SendMethod) Valid() bool {
	return m == MethodSMS || m == MethodEmail || m == MethodBoth
}

func (m SendMethod) IncludesSMS() bool   { return m == MethodSMS || m == MethodBoth }
func (m SendMethod) IncludesEmail() bool { return m == MethodEmail || m == MethodBoth }

type Plan string

const (
	PlanFree     Plan = "free"
	PlanStarter  Plan = "starter"
	PlanPro      Plan = "pro"
	PlanBusiness Plan = "business"
)

const (
	DefaultSMSTemplate   = "Bonjour {name}, merci pour votre visite chez {business} ! Votre avis compte pour nous 🙏 {link}"
	DefaultEmailTemplate = "Bonjour {name}, merci pour votre visite chez {business} ! Votre avis compte beaucoup pour nous."
)

// Business is the tenant root. Every other entity references it by BusinessID.
type Business struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	Name               string     `db:"name" json:"name"`
	Email              string     `db:"email" json:"email"`
	Phone              string     `db:"phone" json:"phone,omitempty"`
	GoogleReviewURL    string     `db:"google_review_url" json:"google_review_url,omitempty"`
	LogoURL            string     `db:"logo_url" json:"logo_url,omitempty"`
	SMSTemplate        string     `db:"sms_template" json:"sms_template"`
	EmailTemplate      string     `db:"email_template" json:"email_template"`
	AutoSendEnabled    bool       `db:"auto_send_enabled" json:"auto_send_enabled"`
	AutoSendDelayHours int        `db:"auto_send_delay_hours" json:"auto_send_delay_hours"`
	SendMethod         SendMethod `db:"send_method" json:"send_method"`
	Plan               Plan       `db:"plan" json:"plan"`
	MonthlySMSLimit    int        `db:"monthly_sms_limit" json:"monthly_sms_limit"`
	MonthlySMSUsed     int        `db:"monthly_sms_used" json:"monthly_sms_used"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
