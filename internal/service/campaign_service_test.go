package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/queue"
)

func strPtr(s string) *string { return &s }

func TestCreateCampaignDraftAndScheduled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.business(t, func(b *model.Business) { b.SendMethod = model.MethodEmail })

	draft, err := f.campaigns.CreateCampaign(ctx, b.ID, "Spring", "", nil)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignDraft, draft.Status)
	assert.Equal(t, model.MethodEmail, draft.Method)
	assert.Nil(t, draft.ScheduledAt)

	scheduled, err := f.campaigns.CreateCampaign(ctx, b.ID, "Summer", model.MethodSMS, strPtr("2024-06-01T09:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, model.CampaignScheduled, scheduled.Status)
	require.NotNil(t, scheduled.ScheduledAt)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), scheduled.ScheduledAt.UTC())

	_, err = f.campaigns.CreateCampaign(ctx, b.ID, "Bad date", model.MethodSMS, strPtr("tomorrow"))
	assert.True(t, appErrors.IsValidation(err))

	_, err = f.campaigns.CreateCampaign(ctx, b.ID, "  ", model.MethodSMS, nil)
	assert.True(t, appErrors.IsValidation(err))
}

func TestSendCampaignCountsEveryRecipient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.business(t)
	f.sms.fail["+33600000002"] = true
	f.customer(t, b, "Alice", "0600000001", "", fixedNow.Add(-3*time.Hour))
	f.customer(t, b, "Bob", "0600000002", "", fixedNow.Add(-2*time.Hour))
	f.customer(t, b, "Chloe", "", "chloe@example.com", fixedNow.Add(-time.Hour))

	campaign, err := f.campaigns.CreateCampaign(ctx, b.ID, "Relance", model.MethodSMS, nil)
	require.NoError(t, err)

	result, err := f.campaigns.SendCampaign(ctx, b.ID, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalRecipients)
	assert.Equal(t, 1, result.SentCount)
	assert.Equal(t, 2, result.FailedCount)
	assert.Equal(t, result.TotalRecipients, result.SentCount+result.FailedCount)

	stored, err := f.store.Campaigns.Get(ctx, b.ID, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignCompleted, stored.Status)
	assert.Equal(t, stored.TotalRecipients, stored.SentCount+stored.FailedCount)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, fixedNow, *stored.CompletedAt)

	details, err := f.campaigns.GetCampaignDetailsWithStats(ctx, b.ID, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, details.Stats["total"])
	assert.Equal(t, 1, details.Stats["sent"])
	assert.Equal(t, 2, details.Stats["failed"])
	assert.Equal(t, 0, details.Stats["pending"])
}

func TestSendCampaignRunsOnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.business(t)
	f.customer(t, b, "Alice", "0600000001", "", fixedNow)

	campaign, err := f.campaigns.CreateCampaign(ctx, b.ID, "Relance", model.MethodSMS, nil)
	require.NoError(t, err)
	_, err = f.campaigns.SendCampaign(ctx, b.ID, campaign.ID)
	require.NoError(t, err)

	_, err = f.campaigns.SendCampaign(ctx, b.ID, campaign.ID)
	assert.ErrorIs(t, err, appErrors.ErrCampaignState)
	assert.Equal(t, 1, f.sms.count())

	stored, err := f.store.Campaigns.Get(ctx, b.ID, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignCompleted, stored.Status)
}

func TestSendCampaignWithoutCustomersHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.business(t)

	campaign, err := f.campaigns.CreateCampaign(ctx, b.ID, "Empty", model.MethodSMS, nil)
	require.NoError(t, err)

	_, err = f.campaigns.SendCampaign(ctx, b.ID, campaign.ID)
	assert.ErrorIs(t, err, appErrors.ErrNoRecipients)

	stored, err := f.store.Campaigns.Get(ctx, b.ID, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignDraft, stored.Status)
}

func TestSendCampaignOfAnotherBusinessIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.business(t)
	intruder := f.business(t, func(b *model.Business) { b.Name = "Intruder" })
	f.customer(t, intruder, "Eve", "0600000009", "", fixedNow)

	campaign, err := f.campaigns.CreateCampaign(ctx, owner.ID, "Private", model.MethodSMS, nil)
	require.NoError(t, err)

	_, err = f.campaigns.SendCampaign(ctx, intruder.ID, campaign.ID)
	assert.True(t, appErrors.IsNotFound(err))

	_, err = f.campaigns.SendCampaign(ctx, owner.ID, uuid.New())
	assert.True(t, appErrors.IsNotFound(err))
}

func TestSendCampaignCancelledMidwayStillCompletes(t *testing.T) {
	f := newFixture(t)
	f.campaigns.SendDelay = time.Hour
	b := f.business(t)
	f.customer(t, b, "Alice", "0600000001", "", fixedNow.Add(-2*time.Hour))
	f.customer(t, b, "Bob", "0600000002", "", fixedNow.Add(-time.Hour))

	campaign, err := f.campaigns.CreateCampaign(context.Background(), b.ID, "Relance", model.MethodSMS, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	result, err := f.campaigns.SendCampaign(ctx, b.ID, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SentCount)
	assert.Equal(t, 1, result.FailedCount)

	stored, err := f.store.Campaigns.Get(context.Background(), b.ID, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignCompleted, stored.Status)
}

func TestEnqueuedCampaignIsSentByWorker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.queue.Subscribe(queue.TopicCampaignSends, f.campaigns.HandleSendJob))
	b := f.business(t)
	f.customer(t, b, "Alice", "0600000001", "", fixedNow)
	f.customer(t, b, "Bob", "0600000002", "", fixedNow)

	campaign, err := f.campaigns.CreateCampaign(ctx, b.ID, "Queued", model.MethodSMS, nil)
	require.NoError(t, err)
	require.NoError(t, f.campaigns.EnqueueCampaign(ctx, b.ID, campaign.ID))
	f.queue.Wait()

	// a replayed job for a finished campaign is acknowledged, not retried
	body := []byte(`{"campaign_id":"` + campaign.ID.String() + `","business_id":"` + b.ID.String() + `"}`)
	assert.NoError(t, f.campaigns.HandleSendJob(ctx, body))

	stored, err := f.store.Campaigns.Get(ctx, b.ID, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignCompleted, stored.Status)
	assert.Equal(t, 2, stored.SentCount)
	assert.Equal(t, 2, f.sms.count())
}

func TestEnqueueDueScheduledCampaigns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.queue.Subscribe(queue.TopicCampaignSends, f.campaigns.HandleSendJob))
	b := f.business(t)
	f.customer(t, b, "Alice", "0600000001", "", fixedNow)

	due, err := f.campaigns.CreateCampaign(ctx, b.ID, "Due", model.MethodSMS, strPtr(fixedNow.Add(-time.Minute).Format(time.RFC3339)))
	require.NoError(t, err)
	later, err := f.campaigns.CreateCampaign(ctx, b.ID, "Later", model.MethodSMS, strPtr(fixedNow.Add(time.Hour).Format(time.RFC3339)))
	require.NoError(t, err)

	queued, err := f.campaigns.EnqueueDueScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
	f.queue.Wait()

	stored, err := f.store.Campaigns.Get(ctx, b.ID, due.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignCompleted, stored.Status)

	pending, err := f.store.Campaigns.Get(ctx, b.ID, later.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignScheduled, pending.Status)
}
