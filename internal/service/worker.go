package service

import (
	"errors"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/queue"
)

// Worker consumes the background job topics.
type Worker struct {
	Queue     queue.Queue
	Campaigns *CampaignService
	Feedback  *FeedbackService
	Logger    *zap.Logger
}

// Constructor
func NewWorker(q queue.Queue, campaigns *CampaignService, feedback *FeedbackService, logger *zap.Logger) *Worker {
	return &Worker{
		Queue:     q,
		Campaigns: campaigns,
		Feedback:  feedback,
		Logger:    logger,
	}
}

// Start subscribes the job handlers. Delivery runs on the queue's goroutines.
func (w *Worker) Start() error {
	if w.Campaigns != nil {
		if err := w.Queue.Subscribe(queue.TopicCampaignSends, w.Campaigns.HandleSendJob); err != nil {
			return err
		}
		w.Logger.Info("subscribed", zap.String("topic", queue.TopicCampaignSends))
	}
	if w.Feedback != nil {
		if err := w.Queue.Subscribe(queue.TopicFeedbackAlerts, w.Feedback.HandleAlertJob); err != nil {
			return err
		}
		w.Logger.Info("subscribed", zap.String("topic", queue.TopicFeedbackAlerts))
	}
	return nil
}

// isPermanent reports errors a retry cannot fix.
func isPermanent(err error) bool {
	if err == nil {
		return false
	}
	return appErrors.IsNotFound(err) || appErrors.IsValidation(err) ||
		isAny(err, appErrors.ErrCampaignState, appErrors.ErrNoRecipients)
}

func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
