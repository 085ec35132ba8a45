package controller

import (
	"net/http"

	"github.com/unclebandit/reviewboost-backend/internal/middleware"
	"github.com/unclebandit/reviewboost-backend/internal/service"
)

type QRController struct {
	QRService *service.QRService
}

type createQRPayload struct {
	Name  string `json:"name" validate:"max=100"`
	Color string `json:"color"`
}

func (c *QRController) CreateQRCode(w http.ResponseWriter, r *http.Request) {
	var body createQRPayload
	if r.ContentLength != 0 {
		if err := DecodeJSON(r, &body); err != nil {
			RespondError(w, err)
			return
		}
	}

	qr, err := c.QRService.CreateQRCode(r.Context(), middleware.BusinessID(r.Context()), body.Name, body.Color)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, qr)
}

func (c *QRController) ListQRCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := c.QRService.ListQRCodes(r.Context(), middleware.BusinessID(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"data": codes})
}
