package handler

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unclebandit/reviewboost-backend/internal/controller"
	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/repository"
	"github.com/unclebandit/reviewboost-backend/internal/service"
)

const invalidLinkMessage = "invalid or expired link"

// ReviewHandler serves the public, unauthenticated review flow.
type ReviewHandler struct {
	Lifecycle  *service.RequestService
	Routing    *service.RoutingService
	Businesses repository.BusinessRepositoryInterface
	Customers  repository.CustomerRepositoryInterface
	Logger     *zap.Logger
}

type reviewPage struct {
	RequestID       uuid.UUID           `json:"requestId"`
	BusinessID      uuid.UUID           `json:"businessId"`
	CustomerID      uuid.UUID           `json:"customerId"`
	BusinessName    string              `json:"businessName"`
	GoogleReviewURL string              `json:"googleReviewUrl,omitempty"`
	LogoURL         string              `json:"logoUrl,omitempty"`
	CustomerName    string              `json:"customerName"`
	Status          model.RequestStatus `json:"status"`
}

// ResolveLink loads the review page for a code and records the first open.
func (h *ReviewHandler) ResolveLink(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	req, err := h.Lifecycle.MarkOpened(r.Context(), code)
	if err != nil {
		h.linkError(w, code, err)
		return
	}
	b, err := h.Businesses.Get(r.Context(), req.BusinessID)
	if err != nil {
		h.linkError(w, code, err)
		return
	}
	c, err := h.Customers.Get(r.Context(), req.BusinessID, req.CustomerID)
	if err != nil {
		h.linkError(w, code, err)
		return
	}

	controller.RespondJSON(w, http.StatusOK, reviewPage{
		RequestID:       req.ID,
		BusinessID:      b.ID,
		CustomerID:      c.ID,
		BusinessName:    b.Name,
		GoogleReviewURL: b.GoogleReviewURL,
		LogoURL:         b.LogoURL,
		CustomerName:    c.Name,
		Status:          req.Status,
	})
}

type submitPayload struct {
	RequestID  string `json:"requestId" validate:"required,uuid"`
	BusinessID string `json:"businessId" validate:"required,uuid"`
	CustomerID string `json:"customerId" validate:"required,uuid"`
	Score      int    `json:"score" validate:"required,min=1,max=5"`
	Action     string `json:"action" validate:"required,oneof=redirect_google private_feedback"`
	Feedback   string `json:"feedback" validate:"max=5000"`
	Category   string `json:"category" validate:"max=50"`
}

// Submit records the customer's satisfaction answer.
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var body submitPayload
	if err := controller.DecodeJSON(r, &body); err != nil {
		controller.RespondError(w, err)
		return
	}

	result, err := h.Routing.Submit(r.Context(), service.SubmitInput{
		RequestID:  uuid.MustParse(body.RequestID),
		BusinessID: uuid.MustParse(body.BusinessID),
		CustomerID: uuid.MustParse(body.CustomerID),
		Score:      body.Score,
		Action:     model.Action(body.Action),
		Feedback:   body.Feedback,
		Category:   body.Category,
		Meta: service.ClickMeta{
			UserAgent: r.UserAgent(),
			IPAddress: ClientIP(r),
		},
	})
	if err != nil {
		if appErrors.IsNotFound(err) {
			controller.RespondJSON(w, http.StatusNotFound, map[string]string{"error": invalidLinkMessage})
			return
		}
		controller.RespondError(w, err)
		return
	}

	controller.RespondJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*service.SubmitResult
	}{true, result})
}

// ConfirmRedirect is called when the customer follows the public review
// link after a positive answer.
func (h *ReviewHandler) ConfirmRedirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	req, err := h.Lifecycle.ConfirmRedirect(r.Context(), code)
	if err != nil {
		h.linkError(w, code, err)
		return
	}
	b, err := h.Businesses.Get(r.Context(), req.BusinessID)
	if err != nil {
		h.linkError(w, code, err)
		return
	}
	controller.RespondJSON(w, http.StatusOK, map[string]string{"googleReviewUrl": b.GoogleReviewURL})
}

// linkError answers unknown codes with the generic invalid-link 404. Any
// other failure keeps its own status.
func (h *ReviewHandler) linkError(w http.ResponseWriter, code string, err error) {
	if appErrors.IsNotFound(err) {
		controller.RespondJSON(w, http.StatusNotFound, map[string]string{"error": invalidLinkMessage})
		return
	}
	if appErrors.HTTPStatus(err) == http.StatusInternalServerError {
		h.Logger.Error("review link handling failed", zap.String("code", code), zap.Error(err))
	}
	controller.RespondError(w, err)
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
