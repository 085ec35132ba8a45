package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/reviewboost-backend/internal/codegen"
	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
	"github.com/unclebandit/reviewboost-backend/internal/model"
	"github.com/unclebandit/reviewboost-backend/internal/repository"
)

const (
	DefaultQRName  = "QR Code"
	DefaultQRColor = "#3B82F6"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type QRService struct {
	QRRepo       repository.QRCodeRepositoryInterface
	BusinessRepo repository.BusinessRepositoryInterface
	Now          func() time.Time
}

func (s *QRService) CreateQRCode(ctx context.Context, businessID uuid.UUID, name, color string) (*model.QRCode, error) {
	b, err := s.BusinessRepo.Get(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if !PlanAllowsQRCodes(b.Plan) {
		return nil, appErrors.ErrFeatureUnavailable
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultQRName
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = DefaultQRColor
	}
	if !hexColor.MatchString(color) {
		return nil, appErrors.NewValidation("color", "must be a #RRGGBB hex color")
	}

	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		code, err := codegen.GenerateUnique(ctx, codegen.QRCodeLength, s.QRRepo.ShortCodeExists)
		if err != nil {
			return nil, err
		}
		q := &model.QRCode{
			BusinessID: businessID,
			Name:       name,
			ShortCode:  code,
			IsActive:   true,
			Color:      color,
		}
		if s.Now != nil {
			q.CreatedAt = s.Now()
		}
		err = s.QRRepo.Create(ctx, q)
		if errors.Is(err, appErrors.ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return q, nil
	}
	return nil, appErrors.ErrDuplicateCode
}

func (s *QRService) ListQRCodes(ctx context.Context, businessID uuid.UUID) ([]*model.QRCode, error) {
	return s.QRRepo.ListByBusiness(ctx, businessID)
}
