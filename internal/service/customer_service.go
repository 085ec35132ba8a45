package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unclebandit/reviewboost-backend/internal/contact"
	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/repository"
)

type CustomerService struct {
	CustomerRepo repository.CustomerRepositoryInterface
	BusinessRepo repository.BusinessRepositoryInterface
	Lifecycle    *RequestService
	Logger       *zap.Logger
	Now          func() time.Time
}

type CustomerInput struct {
	Name      string
	Phone     string
	Email     string
	VisitDate *time.Time
	Source    model.CustomerSource
}

func (s *CustomerService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ContactWarnings lists shape problems with the given contact details.
// They are hints for the dashboard and never block a save.
func ContactWarnings(phone, email string) []string {
	var warnings []string
	if phone != "" && !contact.IsValidPhone(phone) {
		warnings = append(warnings, fmt.Sprintf("phone %q does not look like a valid number", phone))
	}
	if email != "" && !contact.IsValidEmail(email) {
		warnings = append(warnings, fmt.Sprintf("email %q does not look like a valid address", email))
	}
	return warnings
}

func (s *CustomerService) CreateCustomer(ctx context.Context, businessID uuid.UUID, in CustomerInput) (*model.Customer, []string, error) {
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	email := contact.NormalizeEmail(in.Email)

	if name == "" {
		return nil, nil, appErrors.NewValidation("name", "is required")
	}
	if phone == "" && email == "" {
		return nil, nil, appErrors.NewValidation("contact", "a phone number or an email is required")
	}

	source := in.Source
	if source == "" {
		source = model.SourceManual
	}
	now := s.now()
	visit := now
	if in.VisitDate != nil && !in.VisitDate.IsZero() {
		visit = *in.VisitDate
	}

	c := &model.Customer{
		BusinessID: businessID,
		Name:       name,
		Phone:      phone,
		Email:      email,
		VisitDate:  visit,
		Source:     source,
		CreatedAt:  now,
	}
	if err := s.CustomerRepo.Create(ctx, c); err != nil {
		return nil, nil, err
	}
	return c, ContactWarnings(phone, email), nil
}

func (s *CustomerService) ListCustomers(ctx context.Context, businessID uuid.UUID) ([]*model.Customer, error) {
	return s.CustomerRepo.ListByBusiness(ctx, businessID)
}

func (s *CustomerService) DeleteCustomer(ctx context.Context, businessID, id uuid.UUID) error {
	return s.CustomerRepo.Delete(ctx, businessID, id)
}

// SendToCustomer creates and dispatches one manual review request.
// An empty method falls back to the business setting.
func (s *CustomerService) SendToCustomer(ctx context.Context, businessID, customerID uuid.UUID, method model.SendMethod) (*DispatchResult, error) {
	b, err := s.BusinessRepo.Get(ctx, businessID)
	if err != nil {
		return nil, err
	}
	c, err := s.CustomerRepo.Get(ctx, businessID, customerID)
	if err != nil {
		return nil, err
	}
	if method == "" {
		method = b.SendMethod
	}
	if !method.Valid() {
		return nil, appErrors.NewValidation("method", fmt.Sprintf("unsupported method %q", method))
	}
	return s.Lifecycle.CreateAndDispatch(ctx, b, c, method, model.OriginManual, nil)
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	Imported int              `json:"imported"`
	Errors   []ImportRowError `json:"errors"`
	Warnings []ImportRowError `json:"warnings"`
}

var visitDateLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02", "02/01/2006"}

func parseVisitDate(raw string) (time.Time, error) {
	for _, layout := range visitDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised visit_date %q", raw)
}

// ImportCSV reads a header-driven CSV (name, phone, email, optional
// visit_date). Bad rows are reported and skipped; good rows are kept.
func (s *CustomerService) ImportCSV(ctx context.Context, businessID uuid.UUID, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, appErrors.NewValidation("file", "csv is empty")
	}
	if err != nil {
		return nil, appErrors.NewValidation("file", err.Error())
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, appErrors.NewValidation("file", "missing name column")
	}
	_, hasPhone := cols["phone"]
	_, hasEmail := cols["email"]
	if !hasPhone && !hasEmail {
		return nil, appErrors.NewValidation("file", "missing phone or email column")
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	result := &ImportResult{Errors: []ImportRowError{}, Warnings: []ImportRowError{}}
	for row := 2; ; row++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: row, Message: err.Error()})
			continue
		}

		in := CustomerInput{
			Name:   field(rec, "name"),
			Phone:  field(rec, "phone"),
			Email:  field(rec, "email"),
			Source: model.SourceCSV,
		}
		if raw := field(rec, "visit_date"); raw != "" {
			t, err := parseVisitDate(raw)
			if err != nil {
				result.Errors = append(result.Errors, ImportRowError{Row: row, Message: err.Error()})
				continue
			}
			in.VisitDate = &t
		}

		_, warnings, err := s.CreateCustomer(ctx, businessID, in)
		if err != nil {
			if !appErrors.IsValidation(err) {
				return result, fmt.Errorf("import row %d: %w", row, err)
			}
			result.Errors = append(result.Errors, ImportRowError{Row: row, Message: err.Error()})
			continue
		}
		for _, w := range warnings {
			result.Warnings = append(result.Warnings, ImportRowError{Row: row, Message: w})
		}
		result.Imported++
	}

	s.Logger.Info("customer csv imported",
		zap.String("business_id", businessID.String()),
		zap.Int("imported", result.Imported),
		zap.Int("rejected", len(result.Errors)))
	return result, nil
}
