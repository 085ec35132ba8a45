package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/reviewboost-backend/internal/codegen"
	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/service"
)

func newQRService(f *fixture) *service.QRService {
	return &service.QRService{QRRepo: f.store.QRCodes, BusinessRepo: f.store.Businesses}
}

func TestCreateQRCodeDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.business(t)
	svc := newQRService(f)

	q, err := svc.CreateQRCode(ctx, b.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, service.DefaultQRName, q.Name)
	assert.Equal(t, service.DefaultQRColor, q.Color)
	assert.True(t, q.IsActive)
	assert.Len(t, q.ShortCode, codegen.QRCodeLength)

	other, err := svc.CreateQRCode(ctx, b.ID, "Comptoir", "#112233")
	require.NoError(t, err)
	assert.NotEqual(t, q.ShortCode, other.ShortCode)

	list, err := svc.ListQRCodes(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCreateQRCodeRequiresPlan(t *testing.T) {
	f := newFixture(t)
	b := f.business(t, func(b *model.Business) { b.Plan = model.PlanStarter })

	_, err := newQRService(f).CreateQRCode(context.Background(), b.ID, "", "")
	assert.ErrorIs(t, err, appErrors.ErrFeatureUnavailable)
}

func TestCreateQRCodeRejectsBadColor(t *testing.T) {
	f := newFixture(t)
	b := f.business(t)

	_, err := newQRService(f).CreateQRCode(context.Background(), b.ID, "", "blue")
	assert.True(t, appErrors.IsValidation(err))
}
