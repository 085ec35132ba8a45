// Package apptest runs the full router on the in-memory store for HTTP tests.
package apptest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/reviewboost-backend/internal/app"
	"github.com/unclebandit/reviewboost-backend/internal/auth"
	"github.com/unclebandit/reviewboost-backend/internal/config"
	"github.com/unclebandit/reviewboost-backend/internal/lock"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/queue"
	"github.com/unclebandit/reviewboost-backend/internal/repository"
	"github.com/unclebandit/reviewboost-backend/internal/repository/memory"
	"github.com/unclebandit/reviewboost-backend/internal/transport"
)

const (
	JWTSecret  = "test-jwt-secret"
	CronSecret = "test-cron-secret"
)

type Server struct {
	Store    *repository.Store
	Queue    *queue.InMemoryQueue
	Services *app.Services
	Handler  http.Handler
}

func New(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()
	store, _ := memory.NewStore()
	q := queue.NewInMemoryQueue(logger).WithBackoff(time.Millisecond)

	cfg := &config.Config{
		Env:                "test",
		AppURL:             "https://app.example.com",
		JWTSecret:          JWTSecret,
		CronSecret:         CronSecret,
		AllowedOrigins:     []string{"*"},
		DefaultCountryCode: "+33",
		AutoSendWindow:     time.Hour,
		AutoSendLockTTL:    time.Minute,
	}
	deps := &app.Deps{
		Store:          store,
		Queue:          q,
		Locker:         lock.NewMemoryLocker(),
		SMS:            &transport.LogSMSSender{Logger: logger},
		Email:          &transport.LogEmailSender{Logger: logger},
		InProcessQueue: true,
	}
	services := app.NewServices(cfg, deps, logger)
	require.NoError(t, services.Worker(q, logger).Start())

	return &Server{
		Store:    store,
		Queue:    q,
		Services: services,
		Handler:  app.NewRouter(cfg, store, services, logger),
	}
}

// Business stores a pro-plan business and returns it with a dashboard token.
func (s *Server) Business(t *testing.T, mutate ...func(*model.Business)) (*model.Business, string) {
	t.Helper()
	b := &model.Business{
		Name:               "Boulangerie Martin",
		Email:              "owner@martin.example",
		GoogleReviewURL:    "https://g.page/r/martin/review",
		AutoSendDelayHours: 24,
		SendMethod:         model.MethodSMS,
		Plan:               model.PlanPro,
		MonthlySMSLimit:    500,
		CreatedAt:          time.Now(),
	}
	for _, m := range mutate {
		m(b)
	}
	require.NoError(t, s.Store.Businesses.Create(context.Background(), b))

	token, err := auth.GenerateToken(b.ID, b.Email, JWTSecret, time.Hour)
	require.NoError(t, err)
	return b, token
}

func (s *Server) Customer(t *testing.T, b *model.Business, name, phone, email string) *model.Customer {
	t.Helper()
	c := &model.Customer{
		BusinessID: b.ID,
		Name:       name,
		Phone:      phone,
		Email:      email,
		VisitDate:  time.Now().Add(-30 * time.Minute),
		Source:     model.SourceManual,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, s.Store.Customers.Create(context.Background(), c))
	return c
}

// Do sends a request through the router. body may be nil, a string or any
// JSON-encodable value.
func (s *Server) Do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(v)
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, req)
	return rr
}

// Decode unmarshals the recorded body into a generic map.
func Decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}
