package queue

import "github.com/google/uuid"

const (
	TopicCampaignSends  = "campaign_sends"
	TopicFeedbackAlerts = "feedback_alerts"
)

type CampaignSendJob struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	BusinessID uuid.UUID `json:"business_id"`
}

type FeedbackAlertJob struct {
	FeedbackID uuid.UUID `json:"feedback_id"`
	BusinessID uuid.UUID `json:"business_id"`
}
