package controller_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/reviewboost-backend/internal/app/apptest"
)

func TestBusinessSettings(t *testing.T) {
	srv := apptest.New(t)
	b, token := srv.Business(t)

	rr := srv.Do(t, http.MethodGet, "/api/business", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, b.Name, apptest.Decode(t, rr)["name"])

	rr = srv.Do(t, http.MethodPut, "/api/business", token, map[string]any{
		"auto_send_enabled":     true,
		"auto_send_delay_hours": 2,
		"send_method":           "both",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := apptest.Decode(t, rr)
	assert.Equal(t, true, updated["auto_send_enabled"])
	assert.EqualValues(t, 2, updated["auto_send_delay_hours"])
	assert.Equal(t, "both", updated["send_method"])
	assert.Equal(t, b.Name, updated["name"])

	for _, bad := range []map[string]any{
		{"auto_send_delay_hours": 500},
		{"send_method": "fax"},
		{"google_review_url": "not a url"},
	} {
		rr = srv.Do(t, http.MethodPut, "/api/business", token, bad)
		assert.Equal(t, http.StatusBadRequest, rr.Code, bad)
	}
}

func TestStatsAndHistory(t *testing.T) {
	srv := apptest.New(t)
	b, token := srv.Business(t)
	leaveFeedback(t, srv, b, srv.Customer(t, b, "Paul", "0600000002", ""), "Bof")

	rr := srv.Do(t, http.MethodGet, "/api/stats", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	stats := apptest.Decode(t, rr)
	assert.EqualValues(t, 1, stats["total_requests_sent"])
	assert.EqualValues(t, 1, stats["clicked"])
	assert.EqualValues(t, 1, stats["sms_used"])
	assert.Len(t, stats["chart_data"], 30)

	rr = srv.Do(t, http.MethodGet, "/api/requests?limit=10", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	history := apptest.Decode(t, rr)["data"].([]any)
	require.Len(t, history, 1)
	assert.Equal(t, "feedback", history[0].(map[string]any)["status"])
}
