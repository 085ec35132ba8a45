// Package app wires configuration into stores, transports and services.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/unclebandit/reviewboost-backend/internal/config"
	"github.com/unclebandit/reviewboost-backend/internal/db"
	"github.com/unclebandit/reviewboost-backend/internal/lock"
	"github.com/unclebandit/reviewboost-backend/internal/queue"
	"github.com/unclebandit/reviewboost-backend/internal/repository"
	"github.com/unclebandit/reviewboost-backend/internal/repository/memory"
	"github.com/unclebandit/reviewboost-backend/internal/service"
	"github.com/unclebandit/reviewboost-backend/internal/transport"
)

// Deps are the infrastructure adapters chosen from config.
type Deps struct {
	Store  *repository.Store
	Queue  queue.Queue
	Locker lock.Locker
	SMS    transport.SMSSender
	Email  transport.EmailSender

	// InProcessQueue is true when jobs are delivered in this process, so
	// the caller must also start the worker subscriptions.
	InProcessQueue bool

	closers []func() error
}

// Close releases connections in reverse order of opening.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// Open picks each adapter: postgres or memory store, RabbitMQ or in-memory
// queue, Redis or in-memory lock, Twilio/SMTP or log-only transports.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Deps, error) {
	d := &Deps{}

	switch cfg.DatastoreDriver {
	case "memory":
		d.Store, _ = memory.NewStore()
		logger.Warn("using in-memory datastore, data is lost on restart")
	default:
		conn, err := db.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, conn.Close)
		d.Store = repository.NewPostgresStore(conn)
	}

	if cfg.AMQPURL != "" {
		q, err := queue.NewAMQPQueue(cfg.AMQPURL, logger)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		d.closers = append(d.closers, q.Close)
		d.Queue = q
	} else {
		d.Queue = queue.NewInMemoryQueue(logger)
		d.InProcessQueue = true
	}

	if cfg.RedisURL != "" {
		l, err := lock.NewRedisLocker(ctx, cfg.RedisURL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		d.closers = append(d.closers, l.Close)
		d.Locker = l
	} else {
		d.Locker = lock.NewMemoryLocker()
	}

	if cfg.Twilio.Configured() {
		d.SMS = transport.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	} else {
		d.SMS = &transport.LogSMSSender{Logger: logger}
	}
	if cfg.SMTP.Configured() {
		d.Email = transport.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		d.Email = &transport.LogEmailSender{Logger: logger}
	}
	return d, nil
}

type Services struct {
	Quota     *service.QuotaGuard
	Lifecycle *service.RequestService
	Routing   *service.RoutingService
	Scheduler *service.AutoSendScheduler
	Campaigns *service.CampaignService
	Customers *service.CustomerService
	Feedback  *service.FeedbackService
	QR        *service.QRService
	Stats     *service.StatsService
	Business  *service.BusinessService
}

func NewServices(cfg *config.Config, d *Deps, logger *zap.Logger) *Services {
	s := d.Store
	quota := &service.QuotaGuard{Businesses: s.Businesses}
	lifecycle := &service.RequestService{
		Requests: s.Requests,
		Clicks:   s.Clicks,
		Dispatcher: &service.Dispatcher{
			SMS:         d.SMS,
			Email:       d.Email,
			Quota:       quota,
			AppURL:      cfg.AppURL,
			CountryCode: cfg.DefaultCountryCode,
			Logger:      logger,
		},
		Logger: logger,
	}

	return &Services{
		Quota:     quota,
		Lifecycle: lifecycle,
		Routing: &service.RoutingService{
			Requests:   s.Requests,
			Businesses: s.Businesses,
			Feedbacks:  s.Feedbacks,
			Lifecycle:  lifecycle,
			Queue:      d.Queue,
			Logger:     logger,
		},
		Scheduler: &service.AutoSendScheduler{
			Businesses: s.Businesses,
			Customers:  s.Customers,
			Requests:   s.Requests,
			Lifecycle:  lifecycle,
			Quota:      quota,
			Locker:     d.Locker,
			Logger:     logger,
			Window:     cfg.AutoSendWindow,
			LockTTL:    cfg.AutoSendLockTTL,
		},
		Campaigns: &service.CampaignService{
			CampaignRepo: s.Campaigns,
			CustomerRepo: s.Customers,
			BusinessRepo: s.Businesses,
			RequestRepo:  s.Requests,
			Lifecycle:    lifecycle,
			Queue:        d.Queue,
			Logger:       logger,
			SendDelay:    cfg.CampaignSendDelay,
		},
		Customers: &service.CustomerService{
			CustomerRepo: s.Customers,
			BusinessRepo: s.Businesses,
			Lifecycle:    lifecycle,
			Logger:       logger,
		},
		Feedback: &service.FeedbackService{
			Feedbacks:  s.Feedbacks,
			Businesses: s.Businesses,
			Customers:  s.Customers,
			Email:      d.Email,
			AppURL:     cfg.AppURL,
			Logger:     logger,
		},
		QR: &service.QRService{
			QRRepo:       s.QRCodes,
			BusinessRepo: s.Businesses,
		},
		Stats: &service.StatsService{
			BusinessRepo: s.Businesses,
			RequestRepo:  s.Requests,
			ClickRepo:    s.Clicks,
		},
		Business: &service.BusinessService{BusinessRepo: s.Businesses},
	}
}

// Worker builds the queue consumer for both job topics.
func (s *Services) Worker(q queue.Queue, logger *zap.Logger) *service.Worker {
	return service.NewWorker(q, s.Campaigns, s.Feedback, logger)
}
