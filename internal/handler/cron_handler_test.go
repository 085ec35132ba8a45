package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/reviewboost-backend/internal/app/apptest"
	"github.com/unclebandit/reviewboost-backend/internal/model"
)

func TestCronRequiresSecret(t *testing.T) {
	srv := apptest.New(t)

	for _, path := range []string{"/api/cron/auto-send", "/api/cron/reset-usage", "/api/billing/plan"} {
		assert.Equal(t, http.StatusUnauthorized, srv.Do(t, http.MethodPost, path, "", nil).Code, path)
		assert.Equal(t, http.StatusUnauthorized, srv.Do(t, http.MethodPost, path, "wrong", nil).Code, path)
	}
	assert.Equal(t, http.StatusUnauthorized, srv.Do(t, http.MethodGet, "/api/cron/auto-send", "", nil).Code)
}

func TestAutoSendSweep(t *testing.T) {
	srv := apptest.New(t)
	b, _ := srv.Business(t, func(b *model.Business) {
		b.AutoSendEnabled = true
		b.AutoSendDelayHours = 1
	})
	// Visited 90 minutes ago: inside [now-2h, now-1h].
	require.NoError(t, srv.Store.Customers.Create(context.Background(), &model.Customer{
		BusinessID: b.ID,
		Name:       "Marie",
		Phone:      "0600000001",
		VisitDate:  time.Now().Add(-90 * time.Minute),
		Source:     model.SourceManual,
	}))
	// Too recent for the sweep.
	require.NoError(t, srv.Store.Customers.Create(context.Background(), &model.Customer{
		BusinessID: b.ID,
		Name:       "Paul",
		Phone:      "0600000002",
		VisitDate:  time.Now().Add(-10 * time.Minute),
		Source:     model.SourceManual,
	}))

	rr := srv.Do(t, http.MethodPost, "/api/cron/auto-send", apptest.CronSecret, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := apptest.Decode(t, rr)
	assert.EqualValues(t, 1, body["totalSent"])

	// scheduled triggers call the same sweep with GET
	rr = srv.Do(t, http.MethodGet, "/api/cron/auto-send", apptest.CronSecret, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body = apptest.Decode(t, rr)
	assert.EqualValues(t, 0, body["totalSent"], "a customer is auto-sent at most once")
	assert.EqualValues(t, 1, body["totalSkipped"])
}

func TestAutoSendEnqueuesDueCampaigns(t *testing.T) {
	srv := apptest.New(t)
	b, token := srv.Business(t)
	srv.Customer(t, b, "Marie", "0600000001", "")

	past := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	rr := srv.Do(t, http.MethodPost, "/api/campaigns", token, map[string]any{"name": "Programmée", "scheduled_at": past})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	id := apptest.Decode(t, rr)["id"].(string)

	rr = srv.Do(t, http.MethodPost, "/api/cron/auto-send", apptest.CronSecret, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 1, apptest.Decode(t, rr)["scheduledCampaignsEnqueued"])
	srv.Queue.Wait()

	rr = srv.Do(t, http.MethodGet, "/api/campaigns/"+id, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "completed", apptest.Decode(t, rr)["status"])
}

func TestPlanChangeAndUsageReset(t *testing.T) {
	srv := apptest.New(t)
	b, _ := srv.Business(t, func(b *model.Business) {
		b.Plan = model.PlanFree
		b.MonthlySMSLimit = 50
		b.MonthlySMSUsed = 50
	})

	rr := srv.Do(t, http.MethodPost, "/api/billing/plan", apptest.CronSecret, map[string]any{
		"businessId": b.ID.String(),
		"plan":       "business",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.EqualValues(t, 2000, apptest.Decode(t, rr)["monthlySmsLimit"])

	rr = srv.Do(t, http.MethodPost, "/api/billing/plan", apptest.CronSecret, map[string]any{
		"businessId": b.ID.String(),
		"plan":       "platinum",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.Do(t, http.MethodPost, "/api/cron/reset-usage", apptest.CronSecret, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	stored, err := srv.Store.Businesses.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlanBusiness, stored.Plan)
	assert.Equal(t, 2000, stored.MonthlySMSLimit)
	assert.Equal(t, 0, stored.MonthlySMSUsed)
}
