package kiosk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pmcafe/kiosk/internal/checkout"
	"github.com/pmcafe/kiosk/pkg/enums"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSubmitter) Submit(_ context.Context, req checkout.Request) (checkout.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return checkout.Result{Code: pkgerrors.As(f.err).Code()}, f.err
	}
	order := models.Order{
		OrderID:     "ORD-1",
		DailyNum:    f.calls,
		PayType:     req.PayType,
		TotalAmount: req.Cart.Total(),
		Status:      enums.OrderStatusPending,
	}
	req.Cart.Clear()
	return checkout.Result{Success: true, Order: &order}, nil
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestController(t *testing.T, sub Submitter, reset time.Duration) *Controller {
	t.Helper()
	ctrl, err := NewController(ControllerParams{ID: "s1", Submitter: sub, MaxLineQuantity: 10, ResetAfter: reset})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)
	return ctrl
}

func line(id string, price int) models.CartItem {
	return models.CartItem{CartID: id, Menu: models.MenuSnapshot{ID: "1", Name: "아메리카노", Price: price}, Quantity: 1}
}

func isInvalid(err error) bool {
	return errors.Is(err, ErrInvalidTransition) && pkgerrors.IsCode(err, pkgerrors.CodeStateConflict)
}

func TestPaymentModeRouting(t *testing.T) {
	ctrl := newTestController(t, &fakeSubmitter{}, time.Hour)
	require.NoError(t, ctrl.SelectPaymentMode(enums.PaymentModeCell))
	assert.Equal(t, enums.KioskViewCellAuth, ctrl.Snapshot().View)
	assert.True(t, ctrl.InCellAuth())

	require.NoError(t, ctrl.Back(false))
	snap := ctrl.Snapshot()
	assert.Equal(t, enums.KioskViewHome, snap.View)
	assert.Empty(t, snap.PaymentMode)

	require.NoError(t, ctrl.SelectPaymentMode(enums.PaymentModePersonal))
	assert.Equal(t, enums.KioskViewMenu, ctrl.Snapshot().View)

	assert.True(t, isInvalid(ctrl.SelectPaymentMode(enums.PaymentModeCell)))
}

func TestInvalidEventsLeaveState(t *testing.T) {
	ctrl := newTestController(t, &fakeSubmitter{}, time.Hour)
	assert.True(t, isInvalid(ctrl.AuthSuccess(models.CellInfo{ID: "c"})))
	assert.True(t, isInvalid(ctrl.AddItem(line("a", 1000))))
	assert.True(t, isInvalid(ctrl.Reset()))
	assert.True(t, isInvalid(ctrl.Back(true)))
	_, err := ctrl.ConfirmPayment(context.Background(), "")
	assert.True(t, isInvalid(err))
	assert.Equal(t, enums.KioskViewHome, ctrl.Snapshot().View)
	assert.True(t, pkgerrors.IsCode(ctrl.SelectPaymentMode("CASH"), pkgerrors.CodeValidation))
}

func TestBackFromMenuNeedsDiscardConfirmation(t *testing.T) {
	ctrl := newTestController(t, &fakeSubmitter{}, time.Hour)
	require.NoError(t, ctrl.SelectPaymentMode(enums.PaymentModePersonal))
	require.NoError(t, ctrl.SelectCategory(enums.CategoryDessert))
	require.NoError(t, ctrl.AddItem(line("a", 3000)))

	err := ctrl.Back(false)
	assert.ErrorIs(t, err, ErrDiscardNotConfirmed)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDiscardNotConfirmed))
	assert.Equal(t, 1, ctrl.Snapshot().ItemCount)

	require.NoError(t, ctrl.Back(true))
	snap := ctrl.Snapshot()
	assert.Equal(t, enums.KioskViewHome, snap.View)
	assert.Zero(t, snap.ItemCount)
	assert.Equal(t, enums.CategoryAll, snap.Category)
}

func TestCartEditsInMenu(t *testing.T) {
	ctrl := newTestController(t, &fakeSubmitter{}, time.Hour)
	require.NoError(t, ctrl.SelectPaymentMode(enums.PaymentModePersonal))
	require.NoError(t, ctrl.AddItem(line("a", 2000)))
	require.NoError(t, ctrl.AddItem(line("b", 2000)))

	updated, err := ctrl.UpdateQuantity("a", 3)
	require.NoError(t, err)
	assert.Equal(t, 6000, updated.TotalPrice)
	require.NoError(t, ctrl.RemoveItem("b"))

	snap := ctrl.Snapshot()
	assert.Equal(t, 6000, snap.Total)
	assert.Equal(t, 3, snap.ItemCount)
	assert.True(t, pkgerrors.IsCode(ctrl.SelectCategory("TEA"), pkgerrors.CodeValidation))
}

func TestCellSubmitCompletesImmediately(t *testing.T) {
	sub := &fakeSubmitter{}
	ctrl := newTestController(t, sub, time.Hour)
	require.NoError(t, ctrl.SelectPaymentMode(enums.PaymentModeCell))
	require.NoError(t, ctrl.AuthSuccess(models.CellInfo{ID: "c1", Balance: 50000}))
	require.NoError(t, ctrl.AddItem(line("a", 12000)))

	order, err := ctrl.SubmitOrder(context.Background(), "k")
	require.NoError(t, err)
	require.NotNil(t, order)

	snap := ctrl.Snapshot()
	assert.Equal(t, enums.KioskViewOrderComplete, snap.View)
	assert.Equal(t, 1, snap.CompletedNumber)
	assert.NotNil(t, snap.CountdownDeadline)
	assert.Zero(t, snap.ItemCount)

	require.NoError(t, ctrl.Reset())
	snap = ctrl.Snapshot()
	assert.Equal(t, enums.KioskViewHome, snap.View)
	assert.Nil(t, snap.Cell)
	assert.Nil(t, snap.CountdownDeadline)
	assert.Zero(t, snap.CompletedNumber)
}

func TestFailedSubmitKeepsState(t *testing.T) {
	sub := &fakeSubmitter{err: pkgerrors.New(pkgerrors.CodeDependency, "down")}
	ctrl := newTestController(t, sub, time.Hour)
	require.NoError(t, ctrl.SelectPaymentMode(enums.PaymentModeCell))
	require.NoError(t, ctrl.AuthSuccess(models.CellInfo{ID: "c1", Balance: 50000}))
	require.NoError(t, ctrl.AddItem(line("a", 1000)))

	_, err := ctrl.SubmitOrder(context.Background(), "k")
	require.Error(t, err)
	snap := ctrl.Snapshot()
	assert.Equal(t, enums.KioskViewMenu, snap.View)
	assert.Equal(t, 1, snap.ItemCount)
}

func TestPersonalTwoPhase(t *testing.T) {
	sub := &fakeSubmitter{}
	ctrl := newTestController(t, sub, time.Hour)
	require.NoError(t, ctrl.SelectPaymentMode(enums.PaymentModePersonal))

	_, err := ctrl.SubmitOrder(context.Background(), "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeEmptyCart))

	require.NoError(t, ctrl.AddItem(line("a", 8000)))
	order, err := ctrl.SubmitOrder(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, order)
	assert.Zero(t, sub.count(), "nothing is committed before payment")

	snap := ctrl.Snapshot()
	assert.Equal(t, enums.KioskViewPaymentQR, snap.View)
	require.NotNil(t, snap.Pending)
	assert.Equal(t, 8000, snap.Pending.Total)

	require.NoError(t, ctrl.Back(false))
	snap = ctrl.Snapshot()
	assert.Equal(t, enums.KioskViewMenu, snap.View)
	assert.Nil(t, snap.Pending)
	assert.Equal(t, 1, snap.ItemCount, "cart kept when leaving the QR screen")

	_, err = ctrl.SubmitOrder(context.Background(), "")
	require.NoError(t, err)
	confirmed, err := ctrl.ConfirmPayment(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, 8000, confirmed.TotalAmount)

	_, err = ctrl.ConfirmPayment(context.Background(), "k")
	assert.True(t, isInvalid(err))
	assert.Equal(t, 1, sub.count())
}

func TestConcurrentConfirmCommitsOnce(t *testing.T) {
	sub := &fakeSubmitter{}
	ctrl := newTestController(t, sub, time.Hour)
	require.NoError(t, ctrl.SelectPaymentMode(enums.PaymentModePersonal))
	require.NoError(t, ctrl.AddItem(line("a", 8000)))
	_, err := ctrl.SubmitOrder(context.Background(), "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ctrl.ConfirmPayment(context.Background(), "")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, sub.count())
}

func TestCountdownResetsToHome(t *testing.T) {
	ctrl := newTestController(t, &fakeSubmitter{}, 20*time.Millisecond)
	require.NoError(t, ctrl.SelectPaymentMode(enums.PaymentModeCell))
	require.NoError(t, ctrl.AuthSuccess(models.CellInfo{ID: "c1", Balance: 50000}))
	require.NoError(t, ctrl.AddItem(line("a", 1000)))
	_, err := ctrl.SubmitOrder(context.Background(), "")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return ctrl.Snapshot().View == enums.KioskViewHome
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStaleTimerIsIgnored(t *testing.T) {
	ctrl := newTestController(t, &fakeSubmitter{}, time.Hour)
	require.NoError(t, ctrl.SelectPaymentMode(enums.PaymentModeCell))
	require.NoError(t, ctrl.AuthSuccess(models.CellInfo{ID: "c1", Balance: 50000}))
	require.NoError(t, ctrl.AddItem(line("a", 1000)))
	_, err := ctrl.SubmitOrder(context.Background(), "")
	require.NoError(t, err)

	ctrl.mu.Lock()
	stale := ctrl.generation - 1
	ctrl.mu.Unlock()
	ctrl.expire(stale)
	assert.Equal(t, enums.KioskViewOrderComplete, ctrl.Snapshot().View)

	ctrl.Close()
	ctrl.mu.Lock()
	current := ctrl.generation
	ctrl.mu.Unlock()
	ctrl.expire(current)
	assert.Equal(t, enums.KioskViewOrderComplete, ctrl.Snapshot().View, "closed sessions ignore timers")
}
