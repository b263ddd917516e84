// Package backoffice serves the admin settlement and statistics screens.
package backoffice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pmcafe/kiosk/pkg/cafeapi"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/logger"
	"github.com/pmcafe/kiosk/pkg/models"
)

const (
	dateLayout    = "2006-01-02"
	maxNotesRunes = 500
)

type backofficeAPI interface {
	ListSettlements(ctx context.Context, rng cafeapi.DateRange, confirmed *bool) ([]models.Settlement, error)
	GetSettlement(ctx context.Context, date string) (models.Settlement, error)
	ConfirmSettlement(ctx context.Context, date, notes string) (models.Settlement, error)
	DashboardStats(ctx context.Context, date string) (models.DashboardStats, error)
	MenuStats(ctx context.Context, rng cafeapi.DateRange, categoryID string) ([]models.MenuStat, error)
	DailyStats(ctx context.Context, rng cafeapi.DateRange) ([]models.DailyStat, error)
}

// Service defines the admin reporting surface. The caller's backend token
// travels in ctx.
type Service interface {
	Settlements(ctx context.Context, rng cafeapi.DateRange, confirmed *bool) ([]models.Settlement, error)
	Settlement(ctx context.Context, date string) (models.Settlement, error)
	ConfirmSettlement(ctx context.Context, admin models.AdminUser, date, notes string) (models.Settlement, error)
	Dashboard(ctx context.Context, date string) (models.DashboardStats, error)
	MenuStats(ctx context.Context, rng cafeapi.DateRange, categoryID string) ([]models.MenuStat, error)
	DailyStats(ctx context.Context, rng cafeapi.DateRange) ([]models.DailyStat, error)
}

type service struct {
	api  backofficeAPI
	logg *logger.Logger
}

func NewService(api backofficeAPI, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("backoffice api required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{api: api, logg: logg}, nil
}

func (s *service) Settlements(ctx context.Context, rng cafeapi.DateRange, confirmed *bool) ([]models.Settlement, error) {
	if err := ValidateRange(rng); err != nil {
		return nil, err
	}
	return s.api.ListSettlements(ctx, rng, confirmed)
}

func (s *service) Settlement(ctx context.Context, date string) (models.Settlement, error) {
	if err := validateDate("date", date); err != nil {
		return models.Settlement{}, err
	}
	return s.api.GetSettlement(ctx, date)
}

// ConfirmSettlement closes a day. Only SUPER admins may, and a confirmed day
// stays as it is.
func (s *service) ConfirmSettlement(ctx context.Context, admin models.AdminUser, date, notes string) (models.Settlement, error) {
	if !admin.IsSuper() {
		return models.Settlement{}, pkgerrors.New(pkgerrors.CodeForbidden, "정산 확정은 최고 관리자만 가능합니다")
	}
	if err := validateDate("date", date); err != nil {
		return models.Settlement{}, err
	}
	notes = strings.TrimSpace(notes)
	if len([]rune(notes)) > maxNotesRunes {
		return models.Settlement{}, pkgerrors.New(pkgerrors.CodeValidation, "notes too long").
			WithDetails(map[string]int{"max": maxNotesRunes})
	}

	current, err := s.api.GetSettlement(ctx, date)
	if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return models.Settlement{}, err
	}
	if err == nil && current.IsConfirmed {
		return models.Settlement{}, pkgerrors.New(pkgerrors.CodeStateConflict, "이미 확정된 정산입니다").
			WithDetails(map[string]string{"date": date})
	}

	confirmed, err := s.api.ConfirmSettlement(ctx, date, notes)
	if err != nil {
		return models.Settlement{}, err
	}
	s.logg.Info(s.logg.WithFields(s.logg.WithAdmin(ctx, admin.Username), map[string]any{
		"date":          date,
		"total_revenue": confirmed.TotalRevenue,
	}), "settlement confirmed")
	return confirmed, nil
}

func (s *service) Dashboard(ctx context.Context, date string) (models.DashboardStats, error) {
	if date != "" {
		if err := validateDate("date", date); err != nil {
			return models.DashboardStats{}, err
		}
	}
	return s.api.DashboardStats(ctx, date)
}

func (s *service) MenuStats(ctx context.Context, rng cafeapi.DateRange, categoryID string) ([]models.MenuStat, error) {
	if err := ValidateRange(rng); err != nil {
		return nil, err
	}
	return s.api.MenuStats(ctx, rng, categoryID)
}

func (s *service) DailyStats(ctx context.Context, rng cafeapi.DateRange) ([]models.DailyStat, error) {
	if err := ValidateRange(rng); err != nil {
		return nil, err
	}
	return s.api.DailyStats(ctx, rng)
}

// ValidateRange checks both bounds are YYYY-MM-DD and ordered.
func ValidateRange(rng cafeapi.DateRange) error {
	if rng.StartDate != "" {
		if err := validateDate("startDate", rng.StartDate); err != nil {
			return err
		}
	}
	if rng.EndDate != "" {
		if err := validateDate("endDate", rng.EndDate); err != nil {
			return err
		}
	}
	// same layout, so lexical order is date order
	if rng.StartDate != "" && rng.EndDate != "" && rng.StartDate > rng.EndDate {
		return pkgerrors.New(pkgerrors.CodeValidation, "startDate must not be after endDate").
			WithDetails(map[string]string{"startDate": rng.StartDate, "endDate": rng.EndDate})
	}
	return nil
}

func validateDate(field, value string) error {
	if _, err := time.Parse(dateLayout, value); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "날짜 형식이 올바르지 않습니다 (YYYY-MM-DD)").
			WithDetails(map[string]string{"field": field, "value": value})
	}
	return nil
}
