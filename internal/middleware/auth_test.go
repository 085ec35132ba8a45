package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/reviewboost-backend/internal/auth"
)

func TestBusinessAuth(t *testing.T) {
	businessID := uuid.New()
	var seen uuid.UUID
	h := BusinessAuth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = BusinessID(r.Context())
	}))

	token, err := auth.GenerateToken(businessID, "owner@example.fr", "secret", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, businessID, seen)
}

func TestBusinessAuthRejectsMissingToken(t *testing.T) {
	h := BusinessAuth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCronAuth(t *testing.T) {
	called := 0
	h := CronAuth("cron-secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
	}))

	tests := []struct {
		header string
		want   int
	}{
		{"Bearer cron-secret", http.StatusOK},
		{"Bearer wrong", http.StatusUnauthorized},
		{"cron-secret", http.StatusUnauthorized},
		{"", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/cron/auto-send", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, tt.want, rr.Code, tt.header)
	}
	assert.Equal(t, 1, called)
}

func TestCronAuthWithEmptySecretRejectsAll(t *testing.T) {
	h := CronAuth("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/cron/auto-send", nil)
	req.Header.Set("Authorization", "Bearer ")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
