package controller_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/reviewboost-backend/internal/app/apptest"
	"github.com/unclebandit/reviewboost-backend/internal/model"
)

func TestQRCodes(t *testing.T) {
	srv := apptest.New(t)
	_, token := srv.Business(t)

	rr := srv.Do(t, http.MethodPost, "/api/qr-codes", token, map[string]any{"name": "Comptoir", "color": "#112233"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	qr := apptest.Decode(t, rr)
	assert.Len(t, qr["short_code"], 8)
	assert.Equal(t, "#112233", qr["color"])

	rr = srv.Do(t, http.MethodPost, "/api/qr-codes", token, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "QR Code", apptest.Decode(t, rr)["name"])

	rr = srv.Do(t, http.MethodPost, "/api/qr-codes", token, map[string]any{"color": "blue"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.Do(t, http.MethodGet, "/api/qr-codes", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, apptest.Decode(t, rr)["data"], 2)
}

func TestQRCodesNeedPaidPlan(t *testing.T) {
	srv := apptest.New(t)
	_, token := srv.Business(t, func(b *model.Business) { b.Plan = model.PlanStarter })

	rr := srv.Do(t, http.MethodPost, "/api/qr-codes", token, map[string]any{"name": "Comptoir"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
