package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/reviewboost-backend/internal/codegen"
	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/service"
)

func TestCreateThenResolveByCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.business(t)
	c := f.customer(t, b, "Marie", "0612345678", "", fixedNow)

	req, err := f.lifecycle.Create(ctx, service.CreateRequestParams{
		BusinessID: b.ID,
		CustomerID: c.ID,
		Method:     model.MethodSMS,
	})
	require.NoError(t, err)
	assert.Len(t, req.UniqueCode, codegen.RequestCodeLength)
	assert.True(t, codegen.Valid(req.UniqueCode))
	assert.Equal(t, model.OriginManual, req.Origin)

	got, err := f.lifecycle.Resolve(ctx, req.UniqueCode)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, b.ID, got.BusinessID)
	assert.Equal(t, c.ID, got.CustomerID)
}

func TestCreateRecordsBothAsSMS(t *testing.T) {
	f := newFixture(t)
	b := f.business(t)
	c := f.customer(t, b, "Marie", "0612345678", "marie@example.com", fixedNow)

	req, err := f.lifecycle.Create(context.Background(), service.CreateRequestParams{
		BusinessID: b.ID,
		CustomerID: c.ID,
		Method:     model.MethodBoth,
	})
	require.NoError(t, err)
	assert.Equal(t, model.MethodSMS, req.Method)
}

func TestCreateRejectsUnknownMethod(t *testing.T) {
	f := newFixture(t)
	b := f.business(t)
	c := f.customer(t, b, "Marie", "0612345678", "", fixedNow)

	_, err := f.lifecycle.Create(context.Background(), service.CreateRequestParams{
		BusinessID: b.ID,
		CustomerID: c.ID,
		Method:     "pigeon",
	})
	assert.True(t, appErrors.IsValidation(err))
}

func TestResolveUnknownCodeIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.lifecycle.Resolve(context.Background(), "ABCDEFGHJKLM")
	assert.True(t, appErrors.IsNotFound(err))

	_, err = f.lifecycle.Resolve(context.Background(), "../etc/passwd")
	assert.True(t, appErrors.IsNotFound(err))
}

func TestMarkOpenedTwiceKeepsFirstTimestamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.business(t)
	c := f.customer(t, b, "Marie", "0612345678", "", fixedNow)

	res, err := f.lifecycle.CreateAndDispatch(ctx, b, c, model.MethodSMS, model.OriginManual, nil)
	require.NoError(t, err)
	code := res.Request.UniqueCode

	first, err := f.lifecycle.MarkOpened(ctx, code)
	require.NoError(t, err)
	require.NotNil(t, first.OpenedAt)
	assert.Equal(t, model.StatusOpened, first.Status)

	f.now = f.now.Add(2 * time.Hour)
	second, err := f.lifecycle.MarkOpened(ctx, code)
	require.NoError(t, err)

	stored := f.reload(t, res.Request.ID)
	assert.Equal(t, *first.OpenedAt, *second.OpenedAt)
	assert.Equal(t, *first.OpenedAt, *stored.OpenedAt)
	assert.Equal(t, model.StatusOpened, stored.Status)
}

func TestMarkOpenedLeavesLaterStatusAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.business(t)
	c := f.customer(t, b, "Marie", "0612345678", "", fixedNow)

	res, err := f.lifecycle.CreateAndDispatch(ctx, b, c, model.MethodSMS, model.OriginManual, nil)
	require.NoError(t, err)
	_, err = f.lifecycle.RecordResponse(ctx, res.Request.ID, 2, model.ActionPrivateFeedback, service.ClickMeta{})
	require.NoError(t, err)

	got, err := f.lifecycle.MarkOpened(ctx, res.Request.UniqueCode)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFeedback, got.Status)
}

func TestTerminalStatusCannotBeLeft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.business(t)
	c := f.customer(t, b, "Marie", "0612345678", "", fixedNow)

	res, err := f.lifecycle.CreateAndDispatch(ctx, b, c, model.MethodSMS, model.OriginManual, nil)
	require.NoError(t, err)
	_, err = f.lifecycle.RecordResponse(ctx, res.Request.ID, 5, model.ActionRedirectGoogle, service.ClickMeta{})
	require.NoError(t, err)
	_, err = f.lifecycle.ConfirmRedirect(ctx, res.Request.UniqueCode)
	require.NoError(t, err)

	_, err = f.lifecycle.MarkDispatchResult(ctx, res.Request.UniqueCode, assert.AnError)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Equal(t, model.StatusReviewed, f.reload(t, res.Request.ID).Status)
}

func TestCreateAndDispatchUsesBothChannels(t *testing.T) {
	f := newFixture(t)
	b := f.business(t, func(b *model.Business) { b.SendMethod = model.MethodBoth })
	c := f.customer(t, b, "Marie", "06 12 34 56 78", "Marie@Example.com", fixedNow)

	res, err := f.lifecycle.CreateAndDispatch(context.Background(), b, c, b.SendMethod, model.OriginManual, nil)
	require.NoError(t, err)
	assert.True(t, res.Sent)
	require.Len(t, res.Channels, 2)

	require.Equal(t, 1, f.sms.count())
	assert.Contains(t, f.sms.sent[0], "+33612345678|")
	assert.Contains(t, f.sms.sent[0], "Bonjour Marie, merci pour votre visite chez Boulangerie Martin")
	assert.Contains(t, f.sms.sent[0], "https://app.example.com/review/"+res.Request.UniqueCode)

	require.Len(t, f.email.sent, 1)
	assert.Equal(t, "marie@example.com", f.email.sent[0].To)

	stored := f.reload(t, res.Request.ID)
	assert.Equal(t, model.StatusSent, stored.Status)
	assert.Equal(t, model.MethodSMS, stored.Method)
	require.NotNil(t, stored.SentAt)
	assert.Equal(t, fixedNow, *stored.SentAt)
}

func TestCreateAndDispatchBothFallsBackToEmailRow(t *testing.T) {
	f := newFixture(t)
	b := f.business(t, func(b *model.Business) { b.SendMethod = model.MethodBoth })
	c := f.customer(t, b, "Paul", "", "paul@example.com", fixedNow)

	res, err := f.lifecycle.CreateAndDispatch(context.Background(), b, c, b.SendMethod, model.OriginManual, nil)
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Equal(t, model.MethodEmail, res.Request.Method)
	assert.Equal(t, 0, f.sms.count())
}

func TestCreateAndDispatchOneChannelFailingStillSends(t *testing.T) {
	f := newFixture(t)
	f.email.err = assert.AnError
	b := f.business(t, func(b *model.Business) { b.SendMethod = model.MethodBoth })
	c := f.customer(t, b, "Marie", "0612345678", "marie@example.com", fixedNow)

	res, err := f.lifecycle.CreateAndDispatch(context.Background(), b, c, b.SendMethod, model.OriginManual, nil)
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Equal(t, model.StatusSent, f.reload(t, res.Request.ID).Status)
}

func TestCreateAndDispatchTransportFailureMarksFailed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sms.fail["+33612345678"] = true
	b := f.business(t)
	c := f.customer(t, b, "Marie", "0612345678", "", fixedNow)

	res, err := f.lifecycle.CreateAndDispatch(ctx, b, c, model.MethodSMS, model.OriginManual, nil)
	require.NoError(t, err)
	assert.False(t, res.Sent)

	stored := f.reload(t, res.Request.ID)
	assert.Equal(t, model.StatusFailed, stored.Status)
	assert.Contains(t, stored.LastError, "provider rejected number")
	assert.Nil(t, stored.SentAt)

	refreshed, err := f.store.Businesses.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, refreshed.MonthlySMSUsed, "a failed send gives its quota back")
}

func TestCreateAndDispatchWithoutMatchingContactFails(t *testing.T) {
	f := newFixture(t)
	b := f.business(t)
	c := f.customer(t, b, "Paul", "", "paul@example.com", fixedNow)

	res, err := f.lifecycle.CreateAndDispatch(context.Background(), b, c, model.MethodSMS, model.OriginManual, nil)
	require.NoError(t, err)
	assert.False(t, res.Sent)

	stored := f.reload(t, res.Request.ID)
	assert.Equal(t, model.StatusFailed, stored.Status)
	assert.Equal(t, appErrors.ErrNoChannel.Error(), stored.LastError)
}

func TestCreateAndDispatchStopsAtQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.business(t, func(b *model.Business) {
		b.MonthlySMSLimit = 1
		b.MonthlySMSUsed = 1
	})
	c := f.customer(t, b, "Marie", "0612345678", "", fixedNow)

	res, err := f.lifecycle.CreateAndDispatch(ctx, b, c, model.MethodSMS, model.OriginManual, nil)
	require.NoError(t, err)
	assert.False(t, res.Sent)
	assert.Equal(t, 0, f.sms.count())

	stored := f.reload(t, res.Request.ID)
	assert.Equal(t, model.StatusFailed, stored.Status)
	assert.Contains(t, stored.LastError, appErrors.ErrQuotaExceeded.Error())
}

func TestHistoryListsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.business(t)
	c := f.customer(t, b, "Marie", "0612345678", "", fixedNow)

	first, err := f.lifecycle.CreateAndDispatch(ctx, b, c, model.MethodSMS, model.OriginManual, nil)
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	second, err := f.lifecycle.CreateAndDispatch(ctx, b, c, model.MethodSMS, model.OriginManual, nil)
	require.NoError(t, err)

	history, err := f.lifecycle.History(ctx, b.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.Request.ID, history[0].ID)
	assert.Equal(t, first.Request.ID, history[1].ID)
}
