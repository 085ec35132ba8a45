// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrQuotaExceeded       = errors.New("monthly sms quota exceeded")
	ErrDuplicateCode       = errors.New("unique code already taken")
	ErrActiveRequestExists = errors.New("customer already has an active auto-send request")
	ErrCampaignState       = errors.New("campaign cannot be sent in its current status")
	ErrNoRecipients        = errors.New("business has no customers")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrConcurrentUpdate    = errors.New("record was modified concurrently")
	ErrNoChannel           = errors.New("customer has no contact for the requested method")
	ErrFeatureUnavailable  = errors.New("feature not available on current plan")
)

// NotFoundError is returned by repositories when a lookup by id or code misses.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFound(resource string, id any) error {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

func NewCampaignNotFound(id any) error {
	return NewNotFound("campaign", id)
}

// ValidationError is a client-side input problem. No side effects happen before it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// HTTPStatus maps an error from the service layer to a response code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoRecipients):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrFeatureUnavailable):
		return http.StatusForbidden
	case IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrCampaignState),
		errors.Is(err, ErrDuplicateCode),
		errors.Is(err, ErrActiveRequestExists),
		errors.Is(err, ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, ErrQuotaExceeded):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
