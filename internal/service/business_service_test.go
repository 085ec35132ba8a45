package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/service"
)

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }

func TestUpdateSettingsKeepsUnsetFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.business(t)
	svc := &service.BusinessService{BusinessRepo: f.store.Businesses}

	method := model.MethodBoth
	updated, err := svc.UpdateSettings(ctx, b.ID, service.SettingsUpdate{
		AutoSendEnabled:    boolPtr(true),
		AutoSendDelayHours: intPtr(48),
		SendMethod:         &method,
	})
	require.NoError(t, err)
	assert.True(t, updated.AutoSendEnabled)
	assert.Equal(t, 48, updated.AutoSendDelayHours)
	assert.Equal(t, model.MethodBoth, updated.SendMethod)

	got, err := svc.GetBusiness(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Name, got.Name)
	assert.Equal(t, b.GoogleReviewURL, got.GoogleReviewURL)
	assert.Equal(t, 48, got.AutoSendDelayHours)
}

func TestUpdateSettingsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.business(t)
	svc := &service.BusinessService{BusinessRepo: f.store.Businesses}

	bad := model.SendMethod("carrier-pigeon")
	notURL := "g.page/review"
	empty := "  "
	for name, u := range map[string]service.SettingsUpdate{
		"delay too low":  {AutoSendDelayHours: intPtr(0)},
		"delay too high": {AutoSendDelayHours: intPtr(169)},
		"method":         {SendMethod: &bad},
		"review url":     {GoogleReviewURL: &notURL},
		"empty name":     {Name: &empty},
	} {
		_, err := svc.UpdateSettings(ctx, b.ID, u)
		assert.True(t, appErrors.IsValidation(err), name)
	}
}
