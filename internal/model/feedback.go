// internal/model/feedback.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionRedirectGoogle  Action = "redirect_google"
	ActionPrivateFeedback Action = "private_feedback"
)

func (a Action) Valid() bool {
	return a == ActionRedirectGoogle || a == ActionPrivateFeedback
}

const DefaultFeedbackCategory = "general"

// FeedbackCategories lists the categories offered by the review page.
var FeedbackCategories = []string{"service", "qualite", "attente", "proprete", "prix", "autre", DefaultFeedbackCategory}

// ReviewClick is an append-only record of one answer to the satisfaction prompt.
type ReviewClick struct {
	ID                uuid.UUID `db:"id" json:"id"`
	RequestID         uuid.UUID `db:"request_id" json:"request_id"`
	SatisfactionScore int       `db:"satisfaction_score" json:"satisfaction_score"`
	Action            Action    `db:"action" json:"action"`
	UserAgent         string    `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress         string    `db:"ip_address" json:"ip_address,omitempty"`
	ClickedAt         time.Time `db:"clicked_at" json:"clicked_at"`
}

type PrivateFeedback struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	BusinessID uuid.UUID  `db:"business_id" json:"business_id"`
	RequestID  uuid.UUID  `db:"request_id" json:"request_id"`
	CustomerID uuid.UUID  `db:"customer_id" json:"customer_id"`
	Score      int        `db:"score" json:"score"`
	Message    string     `db:"message" json:"message"`
	Category   string     `db:"category" json:"category"`
	IsRead     bool       `db:"is_read" json:"is_read"`
	IsResolved bool       `db:"is_resolved" json:"is_resolved"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// FeedbackFilter narrows the feedback inbox listing.
type FeedbackFilter struct {
	UnreadOnly     bool
	UnresolvedOnly bool
}
