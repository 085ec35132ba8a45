// internal/model/review_request.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusSent     RequestStatus = "sent"
	StatusOpened   RequestStatus = "opened"
	StatusClicked  RequestStatus = "clicked"
	StatusReviewed RequestStatus = "reviewed"
	StatusFeedback RequestStatus = "feedback"
	StatusFailed   RequestStatus = "failed"
)

var statusRank = map[RequestStatus]int{
	StatusPending:  0,
	StatusSent:     1,
	StatusOpened:   2,
	StatusClicked:  3,
	StatusReviewed: 4,
	StatusFeedback: 4,
}

// Terminal reports whether no further transition may leave this status.
func (s RequestStatus) Terminal() bool {
	return s == StatusReviewed || s == StatusFailed
}

// CanAdvanceTo enforces forward-only movement. Re-applying the current
// status is allowed so repeated writes stay idempotent.
func (s RequestStatus) CanAdvanceTo(next RequestStatus) bool {
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	if next == StatusFailed {
		return s == StatusPending || s == StatusSent
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// After reports whether s is strictly further along the engagement path
// than other. Failed is on no path and is never after anything.
func (s RequestStatus) After(other RequestStatus) bool {
	from, ok := statusRank[other]
	if !ok {
		return false
	}
	to, ok := statusRank[s]
	return ok && to > from
}

type RequestOrigin string

const (
	OriginManual   RequestOrigin = "manual"
	OriginCampaign RequestOrigin = "campaign"
	OriginAuto     RequestOrigin = "auto"
)

// ReviewRequest is one tracked solicitation. UniqueCode is the only
// identifier exposed publicly and never changes after insert.
type ReviewRequest struct {
	ID         uuid.UUID     `db:"id" json:"id"`
	BusinessID uuid.UUID     `db:"business_id" json:"business_id"`
	CustomerID uuid.UUID     `db:"customer_id" json:"customer_id"`
	CampaignID *uuid.UUID    `db:"campaign_id" json:"campaign_id,omitempty"`
	UniqueCode string        `db:"unique_code" json:"unique_code"`
	Method     SendMethod    `db:"method" json:"method"`
	Origin     RequestOrigin `db:"origin" json:"origin"`
	Status     RequestStatus `db:"status" json:"status"`
	LastError  string        `db:"last_error" json:"last_error,omitempty"`
	SentAt     *time.Time    `db:"sent_at" json:"sent_at,omitempty"`
	OpenedAt   *time.Time    `db:"opened_at" json:"opened_at,omitempty"`
	ClickedAt  *time.Time    `db:"clicked_at" json:"clicked_at,omitempty"`
	ReviewedAt *time.Time    `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}
