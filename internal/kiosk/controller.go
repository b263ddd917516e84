// Package kiosk drives one customer session through the self-order screens:
// payment choice, cell authentication, menu, QR payment and completion.
package kiosk

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pmcafe/kiosk/internal/cart"
	"github.com/pmcafe/kiosk/internal/checkout"
	"github.com/pmcafe/kiosk/pkg/enums"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/models"
)

// DefaultResetAfter is how long the completion screen stays up.
const DefaultResetAfter = 10 * time.Second

var (
	ErrInvalidTransition   = errors.New("invalid kiosk transition")
	ErrDiscardNotConfirmed = errors.New("cart discard not confirmed")
)

// Submitter commits a cart as an order.
type Submitter interface {
	Submit(ctx context.Context, req checkout.Request) (checkout.Result, error)
}

// PendingPayment is the personal order waiting for the customer's transfer.
type PendingPayment struct {
	Total     int       `json:"total"`
	ItemCount int       `json:"itemCount"`
	CreatedAt time.Time `json:"createdAt"`
}

type ControllerParams struct {
	ID              string
	Submitter       Submitter
	MaxLineQuantity int
	ResetAfter      time.Duration
	Now             func() time.Time
}

// Controller is one kiosk session. All methods are safe for concurrent use
// and run serialized, submissions included.
type Controller struct {
	id         string
	submitter  Submitter
	resetAfter time.Duration
	now        func() time.Time

	mu         sync.Mutex
	view       enums.KioskView
	mode       enums.PaymentMode
	cell       *models.CellInfo
	cart       *cart.Store
	category   enums.Category
	pending    *PendingPayment
	completed  *models.Order
	timer      *time.Timer
	generation uint64
	deadline   time.Time
	closed     bool

	// unix nanoseconds; read without mu so sweeps never wait on a submission
	lastActive atomic.Int64
}

func NewController(params ControllerParams) (*Controller, error) {
	if params.Submitter == nil {
		return nil, errors.New("order submitter required")
	}
	reset := params.ResetAfter
	if reset <= 0 {
		reset = DefaultResetAfter
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	ctrl := &Controller{
		id:         params.ID,
		submitter:  params.Submitter,
		resetAfter: reset,
		now:        now,
		view:       enums.KioskViewHome,
		cart:       cart.NewStore(params.MaxLineQuantity),
		category:   enums.CategoryAll,
	}
	ctrl.touch()
	return ctrl, nil
}

func (c *Controller) ID() string { return c.id }

// SelectPaymentMode leaves HOME. CELL continues to authentication, PERSONAL
// straight to the menu.
func (c *Controller) SelectPaymentMode(mode enums.PaymentMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.view != enums.KioskViewHome {
		return c.invalid("selectPaymentMode")
	}
	switch mode {
	case enums.PaymentModePersonal:
		c.view = enums.KioskViewMenu
	case enums.PaymentModeCell:
		c.view = enums.KioskViewCellAuth
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment mode").
			WithDetails(map[string]string{"payType": mode.String()})
	}
	c.mode = mode
	return nil
}

// AuthSuccess stores the authenticated cell and opens the menu.
func (c *Controller) AuthSuccess(cell models.CellInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.view != enums.KioskViewCellAuth {
		return c.invalid("authSuccess")
	}
	c.cell = &cell
	c.view = enums.KioskViewMenu
	return nil
}

// InCellAuth reports whether the session is waiting for a cell code.
func (c *Controller) InCellAuth() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view == enums.KioskViewCellAuth
}

// Back goes one screen back. Leaving a non-empty menu needs confirmDiscard.
func (c *Controller) Back(confirmDiscard bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	switch c.view {
	case enums.KioskViewCellAuth:
		c.mode = ""
		c.view = enums.KioskViewHome
	case enums.KioskViewMenu:
		if !c.cart.IsEmpty() && !confirmDiscard {
			return pkgerrors.Wrap(pkgerrors.CodeDiscardNotConfirmed, ErrDiscardNotConfirmed, "장바구니를 비우고 처음으로 돌아갈까요?").
				WithDetails(map[string]int{"itemCount": c.cart.ItemCount()})
		}
		c.resetLocked()
	case enums.KioskViewPaymentQR:
		c.pending = nil
		c.view = enums.KioskViewMenu
	default:
		return c.invalid("back")
	}
	return nil
}

func (c *Controller) SelectCategory(category enums.Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.view != enums.KioskViewMenu {
		return c.invalid("selectCategory")
	}
	if category == "" {
		category = enums.CategoryAll
	}
	if !category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid category").
			WithDetails(map[string]string{"category": category.String()})
	}
	c.category = category
	return nil
}

// MaxLineQuantity is the per-line cap of the session's cart.
func (c *Controller) MaxLineQuantity() int {
	return c.cart.MaxQuantity()
}

func (c *Controller) AddItem(item models.CartItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.view != enums.KioskViewMenu {
		return c.invalid("addItem")
	}
	return c.cart.Add(item)
}

func (c *Controller) UpdateQuantity(cartID string, quantity int) (models.CartItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.view != enums.KioskViewMenu {
		return models.CartItem{}, c.invalid("updateQuantity")
	}
	return c.cart.UpdateQuantity(cartID, quantity)
}

func (c *Controller) RemoveItem(cartID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.view != enums.KioskViewMenu {
		return c.invalid("removeItem")
	}
	c.cart.Remove(cartID)
	return nil
}

// SubmitOrder checks out the cart. A cell order is committed immediately and
// returned; a personal order is parked until ConfirmPayment and nil is returned.
func (c *Controller) SubmitOrder(ctx context.Context, idempotencyKey string) (*models.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.view != enums.KioskViewMenu {
		return nil, c.invalid("submitOrder")
	}

	if c.mode == enums.PaymentModePersonal {
		if err := checkout.Validate(c.mode, nil, c.cart.Len(), c.cart.Total()); err != nil {
			return nil, err
		}
		c.pending = &PendingPayment{
			Total:     c.cart.Total(),
			ItemCount: c.cart.ItemCount(),
			CreatedAt: c.now(),
		}
		c.view = enums.KioskViewPaymentQR
		return nil, nil
	}

	order, err := c.submitLocked(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ConfirmPayment commits the parked personal order. It succeeds at most once.
func (c *Controller) ConfirmPayment(ctx context.Context, idempotencyKey string) (models.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.view != enums.KioskViewPaymentQR || c.pending == nil {
		return models.Order{}, c.invalid("paymentConfirmed")
	}
	order, err := c.submitLocked(ctx, idempotencyKey)
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (c *Controller) submitLocked(ctx context.Context, idempotencyKey string) (models.Order, error) {
	res, err := c.submitter.Submit(ctx, checkout.Request{
		PayType:        c.mode,
		Cell:           c.cell,
		Cart:           c.cart,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return models.Order{}, err
	}
	if res.Order == nil {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeInternal, "submission returned no order")
	}
	order := res.Order.Clone()
	c.pending = nil
	c.completed = &order
	c.view = enums.KioskViewOrderComplete
	c.startCountdownLocked()
	return order.Clone(), nil
}

// Reset leaves the completion screen early.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.view != enums.KioskViewOrderComplete {
		return c.invalid("reset")
	}
	c.resetLocked()
	return nil
}

// Close stops the countdown. The session accepts no further timer resets.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopCountdownLocked()
}

// LastActive is the time of the latest call on the session. It does not
// block while the session is busy.
func (c *Controller) LastActive() time.Time {
	return time.Unix(0, c.lastActive.Load())
}

func (c *Controller) startCountdownLocked() {
	c.stopCountdownLocked()
	if c.closed {
		return
	}
	gen := c.generation
	c.deadline = c.now().Add(c.resetAfter)
	c.timer = time.AfterFunc(c.resetAfter, func() { c.expire(gen) })
}

func (c *Controller) stopCountdownLocked() {
	c.generation++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.deadline = time.Time{}
}

func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.generation || c.view != enums.KioskViewOrderComplete {
		return
	}
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.stopCountdownLocked()
	c.view = enums.KioskViewHome
	c.mode = ""
	c.cell = nil
	c.cart.Clear()
	c.category = enums.CategoryAll
	c.pending = nil
	c.completed = nil
}

func (c *Controller) touch() {
	c.lastActive.Store(c.now().UnixNano())
}

func (c *Controller) invalid(event string) error {
	return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrInvalidTransition, "이 화면에서는 할 수 없는 동작입니다").
		WithDetails(map[string]string{"view": c.view.String(), "event": event})
}

// Snapshot is the render state of a session.
type Snapshot struct {
	SessionID         string            `json:"sessionId"`
	View              enums.KioskView   `json:"view"`
	PaymentMode       enums.PaymentMode `json:"paymentMode,omitempty"`
	Cell              *models.CellInfo  `json:"cell,omitempty"`
	Items             []models.CartItem `json:"items"`
	Total             int               `json:"total"`
	ItemCount         int               `json:"itemCount"`
	Category          enums.Category    `json:"category"`
	Pending           *PendingPayment   `json:"pendingPayment,omitempty"`
	CompletedOrder    *models.Order     `json:"completedOrder,omitempty"`
	CompletedNumber   int               `json:"completedNumber,omitempty"`
	CountdownDeadline *time.Time        `json:"countdownDeadline,omitempty"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		SessionID:   c.id,
		View:        c.view,
		PaymentMode: c.mode,
		Items:       c.cart.Items(),
		Total:       c.cart.Total(),
		ItemCount:   c.cart.ItemCount(),
		Category:    c.category,
	}
	if snap.Items == nil {
		snap.Items = []models.CartItem{}
	}
	if c.cell != nil {
		cell := *c.cell
		snap.Cell = &cell
	}
	if c.pending != nil {
		pending := *c.pending
		snap.Pending = &pending
	}
	if c.completed != nil {
		order := c.completed.Clone()
		snap.CompletedOrder = &order
		snap.CompletedNumber = order.DailyNum
	}
	if !c.deadline.IsZero() {
		deadline := c.deadline
		snap.CountdownDeadline = &deadline
	}
	return snap
}
