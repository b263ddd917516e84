package cafeapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/models"
)

// DateRange bounds report queries. Dates are YYYY-MM-DD; empty means open.
type DateRange struct {
	StartDate string
	EndDate   string
}

func (r DateRange) query() url.Values {
	q := url.Values{}
	if r.StartDate != "" {
		q.Set("startDate", r.StartDate)
	}
	if r.EndDate != "" {
		q.Set("endDate", r.EndDate)
	}
	return q
}

// ListSettlements returns daily closes in range. confirmed filters when non-nil.
func (c *Client) ListSettlements(ctx context.Context, rng DateRange, confirmed *bool) ([]models.Settlement, error) {
	q := rng.query()
	if confirmed != nil {
		q.Set("isConfirmed", strconv.FormatBool(*confirmed))
	}
	var out []settlementWire
	if err := c.do(ctx, request{method: http.MethodGet, path: apiPrefix + "/settlements", query: q}, &out); err != nil {
		return nil, err
	}
	settlements := make([]models.Settlement, 0, len(out))
	for _, w := range out {
		settlements = append(settlements, w.toModel())
	}
	return settlements, nil
}

// GetSettlement returns the close of a single date.
func (c *Client) GetSettlement(ctx context.Context, date string) (models.Settlement, error) {
	settlements, err := c.ListSettlements(ctx, DateRange{StartDate: date, EndDate: date}, nil)
	if err != nil {
		return models.Settlement{}, err
	}
	for _, s := range settlements {
		if s.Date == date {
			return s, nil
		}
	}
	return models.Settlement{}, pkgerrors.New(pkgerrors.CodeNotFound, "settlement not found").
		WithDetails(map[string]string{"date": date})
}

// ConfirmSettlement closes date. The backend only allows SUPER admins.
func (c *Client) ConfirmSettlement(ctx context.Context, date, notes string) (models.Settlement, error) {
	var out settlementWire
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   apiPrefix + "/settlements/" + url.PathEscape(date) + "/confirm",
		body:   map[string]string{"notes": notes},
	}, &out)
	if err != nil {
		return models.Settlement{}, err
	}
	return out.toModel(), nil
}

// DashboardStats returns the summary for date, or today when empty.
func (c *Client) DashboardStats(ctx context.Context, date string) (models.DashboardStats, error) {
	q := url.Values{}
	if date != "" {
		q.Set("date", date)
	}
	var out models.DashboardStats
	if err := c.do(ctx, request{method: http.MethodGet, path: apiPrefix + "/statistics/dashboard", query: q}, &out); err != nil {
		return models.DashboardStats{}, err
	}
	return out, nil
}

func (c *Client) MenuStats(ctx context.Context, rng DateRange, categoryID string) ([]models.MenuStat, error) {
	q := rng.query()
	if categoryID != "" {
		q.Set("categoryId", categoryID)
	}
	var out []models.MenuStat
	if err := c.do(ctx, request{method: http.MethodGet, path: apiPrefix + "/statistics/menus", query: q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DailyStats(ctx context.Context, rng DateRange) ([]models.DailyStat, error) {
	var out []models.DailyStat
	if err := c.do(ctx, request{method: http.MethodGet, path: apiPrefix + "/statistics/daily", query: rng.query()}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
