package backoffice

import (
	"context"
	"testing"

	"github.com/pmcafe/kiosk/pkg/cafeapi"
	"github.com/pmcafe/kiosk/pkg/enums"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	settlements  map[string]models.Settlement
	confirmCalls int
	lastRange    cafeapi.DateRange
}

func (f *fakeAPI) ListSettlements(_ context.Context, rng cafeapi.DateRange, _ *bool) ([]models.Settlement, error) {
	f.lastRange = rng
	out := make([]models.Settlement, 0, len(f.settlements))
	for _, s := range f.settlements {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeAPI) GetSettlement(_ context.Context, date string) (models.Settlement, error) {
	s, ok := f.settlements[date]
	if !ok {
		return models.Settlement{}, pkgerrors.New(pkgerrors.CodeNotFound, "settlement not found")
	}
	return s, nil
}

func (f *fakeAPI) ConfirmSettlement(_ context.Context, date, notes string) (models.Settlement, error) {
	f.confirmCalls++
	s := f.settlements[date]
	s.Date = date
	s.IsConfirmed = true
	s.Notes = notes
	f.settlements[date] = s
	return s, nil
}

func (f *fakeAPI) DashboardStats(_ context.Context, date string) (models.DashboardStats, error) {
	return models.DashboardStats{Date: date, TotalOrders: 3}, nil
}

func (f *fakeAPI) MenuStats(_ context.Context, rng cafeapi.DateRange, _ string) ([]models.MenuStat, error) {
	f.lastRange = rng
	return []models.MenuStat{{MenuName: "라떼", Quantity: 2}}, nil
}

func (f *fakeAPI) DailyStats(_ context.Context, rng cafeapi.DateRange) ([]models.DailyStat, error) {
	f.lastRange = rng
	return nil, nil
}

var (
	superAdmin  = models.AdminUser{Username: "boss", Role: enums.AdminRoleSuper}
	normalAdmin = models.AdminUser{Username: "staff", Role: enums.AdminRoleNormal}
)

func newService(t *testing.T) (Service, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{settlements: map[string]models.Settlement{
		"2025-03-01": {Date: "2025-03-01", TotalRevenue: 120000},
		"2025-02-28": {Date: "2025-02-28", IsConfirmed: true},
	}}
	svc, err := NewService(api, nil)
	require.NoError(t, err)
	return svc, api
}

func TestConfirmSettlement(t *testing.T) {
	svc, api := newService(t)
	ctx := context.Background()

	_, err := svc.ConfirmSettlement(ctx, normalAdmin, "2025-03-01", "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.ConfirmSettlement(ctx, superAdmin, "2025-02-28", "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "confirmed days are immutable")

	_, err = svc.ConfirmSettlement(ctx, superAdmin, "03/01/2025", "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, api.confirmCalls)

	got, err := svc.ConfirmSettlement(ctx, superAdmin, "2025-03-01", "  마감  ")
	require.NoError(t, err)
	assert.True(t, got.IsConfirmed)
	assert.Equal(t, "마감", got.Notes)
	assert.Equal(t, 1, api.confirmCalls)
}

func TestConfirmSettlementWithoutExistingRow(t *testing.T) {
	svc, api := newService(t)
	got, err := svc.ConfirmSettlement(context.Background(), superAdmin, "2025-03-02", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-02", got.Date)
	assert.Equal(t, 1, api.confirmCalls)
}

func TestRangeValidation(t *testing.T) {
	svc, api := newService(t)
	ctx := context.Background()

	_, err := svc.DailyStats(ctx, cafeapi.DateRange{StartDate: "2025-03-02", EndDate: "2025-03-01"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.MenuStats(ctx, cafeapi.DateRange{EndDate: "2025-3-1"}, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	stats, err := svc.MenuStats(ctx, cafeapi.DateRange{StartDate: "2025-03-01", EndDate: "2025-03-31"}, "2")
	require.NoError(t, err)
	assert.Len(t, stats, 1)
	assert.Equal(t, "2025-03-31", api.lastRange.EndDate)

	list, err := svc.Settlements(ctx, cafeapi.DateRange{}, nil)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestDashboard(t *testing.T) {
	svc, _ := newService(t)
	got, err := svc.Dashboard(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalOrders)

	_, err = svc.Dashboard(context.Background(), "today")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Settlement(context.Background(), "2025-04-01")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
