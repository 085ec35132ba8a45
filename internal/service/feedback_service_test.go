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
)

func storedFeedback(t *testing.T, f *fixture) (*model.Business, *model.PrivateFeedback) {
	t.Helper()
	b, c, req := sentRequest(t, f)
	in := submit(b, c, req, 2, model.ActionPrivateFeedback)
	in.Feedback = "slow service"
	in.Category = "attente"
	result, err := f.routing.Submit(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, result.Feedback)
	return b, result.Feedback
}

func TestFeedbackInboxFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, fb := storedFeedback(t, f)

	unread, err := f.feedback.List(ctx, b.ID, model.FeedbackFilter{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)

	read, err := f.feedback.MarkRead(ctx, b.ID, fb.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	assert.False(t, read.IsResolved)

	unread, err = f.feedback.List(ctx, b.ID, model.FeedbackFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread)

	unresolved, err := f.feedback.List(ctx, b.ID, model.FeedbackFilter{UnresolvedOnly: true})
	require.NoError(t, err)
	assert.Len(t, unresolved, 1)
}

func TestResolveFeedbackStampsTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, fb := storedFeedback(t, f)

	f.now = fixedNow.Add(3 * time.Hour)
	resolved, err := f.feedback.Resolve(ctx, b.ID, fb.ID)
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	assert.True(t, resolved.IsRead)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, fixedNow.Add(3*time.Hour), *resolved.ResolvedAt)
}

func TestFeedbackOfAnotherBusinessIsHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, fb := storedFeedback(t, f)

	_, err := f.feedback.Resolve(ctx, uuid.New(), fb.ID)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestFeedbackAlertJobForMissingFeedbackIsDropped(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"feedback_id":"` + uuid.NewString() + `","business_id":"` + uuid.NewString() + `"}`)

	assert.NoError(t, f.feedback.HandleAlertJob(context.Background(), body))
	assert.NoError(t, f.feedback.HandleAlertJob(context.Background(), []byte("not json")))
	assert.Empty(t, f.email.sent)
}

func TestFeedbackAlertRetriesOnTransportError(t *testing.T) {
	f := newFixture(t)
	b, fb := storedFeedback(t, f)
	f.email.err = assert.AnError

	err := f.feedback.SendAlert(context.Background(), b.ID, fb.ID)
	assert.ErrorIs(t, err, assert.AnError)
}
