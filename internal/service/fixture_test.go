package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/reviewboost-backend/internal/lock"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/queue"
	"github.com/unclebandit/reviewboost-backend/internal/repository"
	"github.com/unclebandit/reviewboost-backend/internal/repository/memory"
	"github.com/unclebandit/reviewboost-backend/internal/service"
	"github.com/unclebandit/reviewboost-backend/internal/transport"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type fakeSMS struct {
	mu   sync.Mutex
	sent []string
	fail map[string]bool
}

func (f *fakeSMS) SendSMS(ctx context.Context, to, body string) (transport.SMSResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[to] {
		return transport.SMSResult{}, errors.New("provider rejected number")
	}
	f.sent = append(f.sent, to+"|"+body)
	return transport.SMSResult{ConfirmationID: fmt.Sprintf("SM%d", len(f.sent)), Status: "queued"}, nil
}

func (f *fakeSMS) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []transport.EmailMessage
	err  error
}

func (f *fakeEmail) SendEmail(ctx context.Context, msg transport.EmailMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("email-%d", len(f.sent)), nil
}

type fixture struct {
	store     *repository.Store
	sms       *fakeSMS
	email     *fakeEmail
	queue     *queue.InMemoryQueue
	quota     *service.QuotaGuard
	lifecycle *service.RequestService
	routing   *service.RoutingService
	campaigns *service.CampaignService
	customers *service.CustomerService
	feedback  *service.FeedbackService
	scheduler *service.AutoSendScheduler
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, _ := memory.NewStore()
	logger := zap.NewNop()
	f := &fixture{
		store: store,
		sms:   &fakeSMS{fail: map[string]bool{}},
		email: &fakeEmail{},
		queue: queue.NewInMemoryQueue(logger).WithBackoff(time.Millisecond),
		now:   fixedNow,
	}
	clock := func() time.Time { return f.now }

	f.quota = &service.QuotaGuard{Businesses: store.Businesses}
	dispatcher := &service.Dispatcher{
		SMS:         f.sms,
		Email:       f.email,
		Quota:       f.quota,
		AppURL:      "https://app.example.com",
		CountryCode: "+33",
		Logger:      logger,
	}
	f.lifecycle = &service.RequestService{
		Requests:   store.Requests,
		Clicks:     store.Clicks,
		Dispatcher: dispatcher,
		Logger:     logger,
		Now:        clock,
	}
	f.routing = &service.RoutingService{
		Requests:   store.Requests,
		Businesses: store.Businesses,
		Feedbacks:  store.Feedbacks,
		Lifecycle:  f.lifecycle,
		Queue:      f.queue,
		Logger:     logger,
		Now:        clock,
	}
	f.campaigns = &service.CampaignService{
		CampaignRepo: store.Campaigns,
		CustomerRepo: store.Customers,
		BusinessRepo: store.Businesses,
		RequestRepo:  store.Requests,
		Lifecycle:    f.lifecycle,
		Queue:        f.queue,
		Logger:       logger,
		Now:          clock,
	}
	f.customers = &service.CustomerService{
		CustomerRepo: store.Customers,
		BusinessRepo: store.Businesses,
		Lifecycle:    f.lifecycle,
		Logger:       logger,
		Now:          clock,
	}
	f.feedback = &service.FeedbackService{
		Feedbacks:  store.Feedbacks,
		Businesses: store.Businesses,
		Customers:  store.Customers,
		Email:      f.email,
		AppURL:     "https://app.example.com",
		Logger:     logger,
		Now:        clock,
	}
	f.scheduler = &service.AutoSendScheduler{
		Businesses: store.Businesses,
		Customers:  store.Customers,
		Requests:   store.Requests,
		Lifecycle:  f.lifecycle,
		Quota:      f.quota,
		Locker:     lock.NewMemoryLocker(),
		Logger:     logger,
		Window:     time.Hour,
		Now:        clock,
	}
	return f
}

func (f *fixture) business(t *testing.T, mutate ...func(*model.Business)) *model.Business {
	t.Helper()
	b := &model.Business{
		Name:               "Boulangerie Martin",
		Email:              "owner@martin.example",
		GoogleReviewURL:    "https://g.page/r/martin/review",
		AutoSendDelayHours: 24,
		SendMethod:         model.MethodSMS,
		Plan:               model.PlanPro,
		MonthlySMSLimit:    500,
		CreatedAt:          fixedNow.Add(-30 * 24 * time.Hour),
	}
	for _, m := range mutate {
		m(b)
	}
	require.NoError(t, f.store.Businesses.Create(context.Background(), b))
	return b
}

func (f *fixture) customer(t *testing.T, b *model.Business, name, phone, email string, visit time.Time) *model.Customer {
	t.Helper()
	c := &model.Customer{
		BusinessID: b.ID,
		Name:       name,
		Phone:      phone,
		Email:      email,
		VisitDate:  visit,
		Source:     model.SourceManual,
		CreatedAt:  visit,
	}
	require.NoError(t, f.store.Customers.Create(context.Background(), c))
	return c
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *model.ReviewRequest {
	t.Helper()
	r, err := f.store.Requests.Get(context.Background(), id)
	require.NoError(t, err)
	return r
}
