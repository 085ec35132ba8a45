package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/service"
)

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.business(t)
	happy := f.customer(t, b, "Marie", "0600000001", "", fixedNow)
	unhappy := f.customer(t, b, "Paul", "0600000002", "", fixedNow)
	unreachable := f.customer(t, b, "Léa", "0600000003", "", fixedNow)
	f.sms.fail["+33600000003"] = true

	send := func(at time.Time, c *model.Customer) *model.ReviewRequest {
		f.now = at
		res, err := f.lifecycle.CreateAndDispatch(ctx, b, c, model.MethodSMS, model.OriginManual, nil)
		require.NoError(t, err)
		return res.Request
	}
	respond := func(r *model.ReviewRequest, c *model.Customer, score int) {
		action, err := service.DecideAction(score)
		require.NoError(t, err)
		_, err = f.routing.Submit(ctx, submit(b, c, r, score, action))
		require.NoError(t, err)
		if action == model.ActionRedirectGoogle {
			_, err = f.lifecycle.ConfirmRedirect(ctx, r.UniqueCode)
			require.NoError(t, err)
		}
	}

	lastMonth := send(time.Date(2024, 2, 20, 10, 0, 0, 0, time.UTC), happy)
	respond(lastMonth, happy, 4)

	reviewed := send(time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC), happy)
	respond(reviewed, happy, 5)

	feedback := send(time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC), unhappy)
	respond(feedback, unhappy, 2)

	send(time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC), happy)
	send(time.Date(2024, 3, 14, 11, 0, 0, 0, time.UTC), unreachable)

	f.now = fixedNow
	stats, err := (&service.StatsService{
		BusinessRepo: f.store.Businesses,
		RequestRepo:  f.store.Requests,
		ClickRepo:    f.store.Clicks,
		Now:          func() time.Time { return f.now },
	}).Dashboard(ctx, b.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalRequestsSent)
	assert.Equal(t, 2, stats.Clicked)
	assert.Equal(t, 1, stats.GoogleReviewsObtained)
	assert.Equal(t, 67, stats.ClickRate)
	assert.Equal(t, 3.5, stats.AverageScore)
	assert.Equal(t, 4, stats.SMSUsed)
	assert.Equal(t, 500, stats.SMSLimit)

	require.Len(t, stats.ChartData, 30)
	assert.Equal(t, "2024-02-15", stats.ChartData[0].Date)
	assert.Equal(t, "2024-03-15", stats.ChartData[29].Date)

	byDate := map[string]model.DailyOutcome{}
	for _, d := range stats.ChartData {
		byDate[d.Date] = d
	}
	assert.Equal(t, 1, byDate["2024-02-20"].Reviews)
	assert.Equal(t, 1, byDate["2024-03-10"].Reviews)
	assert.Equal(t, 1, byDate["2024-03-12"].Feedbacks)
	assert.Equal(t, 0, byDate["2024-03-14"].Reviews+byDate["2024-03-14"].Feedbacks)
}
