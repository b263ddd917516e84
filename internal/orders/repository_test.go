package orders

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/pmcafe/kiosk/pkg/enums"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	listed    []models.Order
	listErr   error
	updateErr error
	updates   []string
}

func (f *fakeGateway) Create(_ context.Context, order models.Order, _ string) (models.Order, error) {
	return order, nil
}

func (f *fakeGateway) List(context.Context, int) ([]models.Order, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return models.CloneOrders(f.listed), nil
}

func (f *fakeGateway) UpdateStatus(_ context.Context, orderID string, status enums.OrderStatus) error {
	f.updates = append(f.updates, fmt.Sprintf("%s:%s", orderID, status))
	return f.updateErr
}

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func order(id string, num int, status enums.OrderStatus, minutes int) models.Order {
	return models.Order{
		OrderID:   id,
		DailyNum:  num,
		PayType:   enums.PaymentModePersonal,
		Status:    status,
		CreatedAt: baseTime.Add(time.Duration(minutes) * time.Minute),
	}
}

func newRepo(t *testing.T, gw Gateway) *Repository {
	t.Helper()
	repo, err := NewRepository(RepositoryParams{
		Gateway: gw,
		Now:     func() time.Time { return baseTime.Add(time.Hour) },
	})
	require.NoError(t, err)
	return repo
}

func TestNewRepositoryRequiresGateway(t *testing.T) {
	_, err := NewRepository(RepositoryParams{})
	require.Error(t, err)
}

func TestRefreshReplacesListAndHint(t *testing.T) {
	gw := &fakeGateway{listed: []models.Order{
		order("b", 12, enums.OrderStatusPending, 2),
		order("x", 3, enums.OrderStatus("CANCELLED"), 1),
		order("a", 11, enums.OrderStatusCompleted, 0),
	}}
	repo := newRepo(t, gw)

	require.NoError(t, repo.Refresh(context.Background()))
	orders := repo.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, "b", orders[0].OrderID)
	assert.Equal(t, 1, repo.NextNumberHint(), "12 wraps to 1")
	assert.NoError(t, repo.LastError())
	assert.Equal(t, baseTime.Add(time.Hour), repo.LastRefreshed())
}

func TestRefreshFailureKeepsList(t *testing.T) {
	gw := &fakeGateway{listed: []models.Order{order("a", 1, enums.OrderStatusPending, 0)}}
	repo := newRepo(t, gw)
	require.NoError(t, repo.Refresh(context.Background()))

	gw.listErr = errors.New("network down")
	require.Error(t, repo.Refresh(context.Background()))
	assert.Len(t, repo.Orders(), 1)
	assert.Error(t, repo.LastError())

	gw.listErr = nil
	require.NoError(t, repo.Refresh(context.Background()))
	assert.NoError(t, repo.LastError())
}

func TestAddOrderIngestsOnce(t *testing.T) {
	repo := newRepo(t, &fakeGateway{})
	assert.True(t, repo.AddOrder(order("a", 4, enums.OrderStatusPending, 0)))
	assert.False(t, repo.AddOrder(order("a", 4, enums.OrderStatusPending, 0)))
	assert.True(t, repo.AddOrder(order("b", 5, enums.OrderStatusPending, 1)))

	orders := repo.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, "b", orders[0].OrderID, "new orders are prepended")
	assert.Equal(t, 6, repo.NextNumberHint())

	repo.ResetNumberHint()
	assert.Equal(t, 1, repo.NextNumberHint())
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	gw := &fakeGateway{}
	repo := newRepo(t, gw)
	repo.AddOrder(order("a", 1, enums.OrderStatusPending, 0))
	ctx := context.Background()

	got, err := repo.UpdateStatus(ctx, "a", enums.OrderStatusPending)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, got.Status)
	assert.Empty(t, gw.updates, "same status must not call the backend")

	got, err = repo.UpdateStatus(ctx, "a", enums.OrderStatusMaking)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusMaking, got.Status)
	assert.Nil(t, got.CompletedAt)

	_, err = repo.UpdateStatus(ctx, "a", enums.OrderStatusPending)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	got, err = repo.UpdateStatus(ctx, "a", enums.OrderStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, baseTime.Add(time.Hour), *got.CompletedAt)

	_, err = repo.UpdateStatus(ctx, "a", enums.OrderStatusMaking)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, []string{"a:MAKING", "a:COMPLETED"}, gw.updates)
}

func TestUpdateStatusGatewayFailureLeavesOrder(t *testing.T) {
	gw := &fakeGateway{updateErr: pkgerrors.New(pkgerrors.CodeDependency, "down")}
	repo := newRepo(t, gw)
	repo.AddOrder(order("a", 1, enums.OrderStatusPending, 0))

	_, err := repo.UpdateStatus(context.Background(), "a", enums.OrderStatusMaking)
	require.Error(t, err)
	got, ok := repo.Get("a")
	require.True(t, ok)
	assert.Equal(t, enums.OrderStatusPending, got.Status)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	repo := newRepo(t, &fakeGateway{})
	_, err := repo.UpdateStatus(context.Background(), "nope", enums.OrderStatusMaking)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = repo.UpdateStatus(context.Background(), "nope", enums.OrderStatus("DONE"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestAdvanceAndBoard(t *testing.T) {
	repo := newRepo(t, &fakeGateway{})
	for i := 0; i < 7; i++ {
		repo.AddOrder(order(fmt.Sprintf("done-%d", i), i+1, enums.OrderStatusCompleted, i))
	}
	repo.AddOrder(order("p", 8, enums.OrderStatusPending, 10))
	ctx := context.Background()

	got, err := repo.Advance(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusMaking, got.Status)

	board := repo.BaristaBoard()
	assert.Empty(t, board.Pending)
	require.Len(t, board.Making, 1)
	assert.Len(t, board.Completed, 5)
	assert.Equal(t, "done-6", board.Completed[0].OrderID)
	assert.Len(t, repo.ByStatus(enums.OrderStatusCompleted), 7)

	_, err = repo.Advance(ctx, "done-0")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestOrdersAreCopies(t *testing.T) {
	repo := newRepo(t, &fakeGateway{})
	repo.AddOrder(order("a", 1, enums.OrderStatusPending, 0))
	list := repo.Orders()
	list[0].Status = enums.OrderStatusCompleted
	got, _ := repo.Get("a")
	assert.Equal(t, enums.OrderStatusPending, got.Status)
}

func TestEveryStatusHasStyle(t *testing.T) {
	for _, status := range enums.OrderStatuses() {
		style, ok := StyleFor(status)
		require.True(t, ok, "missing style for %s", status)
		assert.NotEmpty(t, style.Label)
		assert.NotEmpty(t, style.Tone)
	}
	style, _ := StyleFor(enums.OrderStatusMaking)
	assert.Equal(t, "제조중", style.Label)
}

func TestLocalGateway(t *testing.T) {
	gw := NewLocalGateway()
	ctx := context.Background()

	first, err := gw.Create(ctx, models.Order{DailyNum: 1, PayType: enums.PaymentModePersonal}, "k1")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d+-[a-z0-9]{6}$`), first.OrderID)
	assert.Equal(t, enums.OrderStatusPending, first.Status)

	again, err := gw.Create(ctx, models.Order{DailyNum: 2}, "k1")
	require.NoError(t, err)
	assert.Equal(t, first.OrderID, again.OrderID, "idempotency key replays the first order")

	require.NoError(t, gw.UpdateStatus(ctx, first.OrderID, enums.OrderStatusCompleted))
	listed, err := gw.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.NotNil(t, listed[0].CompletedAt)

	err = gw.UpdateStatus(ctx, "missing", enums.OrderStatusMaking)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRefreshJob(t *testing.T) {
	_, err := NewRefreshJob(nil, nil)
	require.Error(t, err)

	gw := &fakeGateway{listed: []models.Order{order("a", 2, enums.OrderStatusPending, 0)}}
	repo := newRepo(t, gw)
	job, err := NewRefreshJob(repo, nil)
	require.NoError(t, err)
	assert.Equal(t, "order-refresh", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, repo.Orders(), 1)
}

func TestRefreshJobResetsHintOnNewDay(t *testing.T) {
	gw := &fakeGateway{}
	repo := newRepo(t, gw)
	clock := baseTime
	job, err := NewRefreshJob(repo, func() time.Time { return clock })
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	repo.AddOrder(order("a", 7, enums.OrderStatusPending, 0))
	assert.Equal(t, 8, repo.NextNumberHint())

	gw.listErr = errors.New("backend down")
	require.Error(t, job.Run(context.Background()))
	assert.Equal(t, 8, repo.NextNumberHint(), "same day keeps the hint")

	clock = clock.Add(24 * time.Hour)
	require.Error(t, job.Run(context.Background()))
	assert.Equal(t, 1, repo.NextNumberHint())
}
