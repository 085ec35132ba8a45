package controller

import (
	"net/http"
	"strconv"

	"github.com/unclebandit/reviewboost-backend/internal/middleware"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/service"
)

type FeedbackController struct {
	FeedbackService *service.FeedbackService
}

func (c *FeedbackController) ListFeedback(w http.ResponseWriter, r *http.Request) {
	unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	unresolved, _ := strconv.ParseBool(r.URL.Query().Get("unresolved"))

	items, err := c.FeedbackService.List(r.Context(), middleware.BusinessID(r.Context()), model.FeedbackFilter{
		UnreadOnly:     unread,
		UnresolvedOnly: unresolved,
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"data": items})
}

func (c *FeedbackController) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := URLUUID(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	fb, err := c.FeedbackService.MarkRead(r.Context(), middleware.BusinessID(r.Context()), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, fb)
}

func (c *FeedbackController) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := URLUUID(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	fb, err := c.FeedbackService.Resolve(r.Context(), middleware.BusinessID(r.Context()), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, fb)
}
