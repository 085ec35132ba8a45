package controller

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/unclebandit/reviewboost-backend/internal/middleware"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/service"
)

const maxImportBytes = 5 << 20

type CustomerController struct {
	CustomerService *service.CustomerService
}

type createCustomerPayload struct {
	Name      string     `json:"name" validate:"required,max=200"`
	Phone     string     `json:"phone" validate:"required_without=Email,max=32"`
	Email     string     `json:"email" validate:"required_without=Phone,max=254"`
	VisitDate *time.Time `json:"visit_date"`
}

func (c *CustomerController) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var body createCustomerPayload
	if err := DecodeJSON(r, &body); err != nil {
		RespondError(w, err)
		return
	}

	customer, warnings, err := c.CustomerService.CreateCustomer(r.Context(), middleware.BusinessID(r.Context()), service.CustomerInput{
		Name:      body.Name,
		Phone:     body.Phone,
		Email:     body.Email,
		VisitDate: body.VisitDate,
		Source:    model.SourceManual,
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}

	RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"customer": customer,
		"warnings": warnings,
	})
}

func (c *CustomerController) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := c.CustomerService.ListCustomers(r.Context(), middleware.BusinessID(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"data": customers})
}

func (c *CustomerController) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := URLUUID(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	if err := c.CustomerService.DeleteCustomer(r.Context(), middleware.BusinessID(r.Context()), id); err != nil {
		RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportCustomers accepts either a multipart "file" field or a raw text/csv body.
func (c *CustomerController) ImportCustomers(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "file: " + err.Error()})
			return
		}
		defer file.Close()
		src = file
	}

	result, err := c.CustomerService.ImportCSV(r.Context(), middleware.BusinessID(r.Context()), src)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

type sendToCustomerPayload struct {
	Method string `json:"method" validate:"omitempty,oneof=sms email both"`
}

// SendReviewRequest creates and dispatches one manual review request. A
// transport failure still answers 200 with sent=false and the failed request.
func (c *CustomerController) SendReviewRequest(w http.ResponseWriter, r *http.Request) {
	id, err := URLUUID(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}

	var body sendToCustomerPayload
	if r.ContentLength != 0 {
		if err := DecodeJSON(r, &body); err != nil {
			RespondError(w, err)
			return
		}
	}

	result, err := c.CustomerService.SendToCustomer(r.Context(), middleware.BusinessID(r.Context()), id, model.SendMethod(body.Method))
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}
