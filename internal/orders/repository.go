// Package orders holds the shared order list read by the kiosk, the barista
// console and the admin dashboard, and pushes status changes to the backend.
package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pmcafe/kiosk/internal/ordernum"
	"github.com/pmcafe/kiosk/pkg/enums"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/logger"
	"github.com/pmcafe/kiosk/pkg/metrics"
	"github.com/pmcafe/kiosk/pkg/models"
)

const (
	defaultFetchLimit = 100
	boardCompleted    = 5
)

type RepositoryParams struct {
	Gateway    Gateway
	Logger     *logger.Logger
	Metrics    *metrics.OrderMetrics
	FetchLimit int
	Now        func() time.Time
}

// Repository is the process-wide order cache. A refresh racing a status
// update is last-writer-wins.
type Repository struct {
	gateway    Gateway
	logg       *logger.Logger
	metrics    *metrics.OrderMetrics
	fetchLimit int
	now        func() time.Time

	mu            sync.RWMutex
	orders        []models.Order
	hint          int
	lastErr       error
	lastRefreshed time.Time
}

func NewRepository(params RepositoryParams) (*Repository, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("order gateway required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	limit := params.FetchLimit
	if limit <= 0 {
		limit = defaultFetchLimit
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Repository{
		gateway:    params.Gateway,
		logg:       logg,
		metrics:    params.Metrics,
		fetchLimit: limit,
		now:        now,
		hint:       1,
	}, nil
}

// Gateway exposes the commit path used by checkout.
func (r *Repository) Gateway() Gateway {
	return r.gateway
}

// Refresh replaces the list with the gateway's. On failure the current list
// is kept and LastError reports the cause until the next success.
func (r *Repository) Refresh(ctx context.Context) error {
	fetched, err := r.gateway.List(ctx, r.fetchLimit)
	if err != nil {
		r.mu.Lock()
		r.lastErr = err
		r.mu.Unlock()
		r.logg.Error(ctx, "order refresh failed", err)
		return err
	}

	list := make([]models.Order, 0, len(fetched))
	for _, o := range fetched {
		// the backend also knows CANCELLED; those never reach the board
		if !o.Status.IsValid() {
			continue
		}
		list = append(list, o.Clone())
	}

	now := r.now()
	r.mu.Lock()
	r.orders = list
	r.hint = ordernum.Simple{}.Next(list).Number
	r.lastErr = nil
	r.lastRefreshed = now
	r.mu.Unlock()

	r.metrics.MarkRefreshed(now)
	return nil
}

// AddOrder prepends a committed order. An id already present is ignored.
func (r *Repository) AddOrder(order models.Order) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderID == order.OrderID {
			return false
		}
	}
	r.orders = append([]models.Order{order.Clone()}, r.orders...)
	r.hint = ordernum.Wrap(order.DailyNum)
	return true
}

// UpdateStatus moves an order forward. The gateway is called first and the
// local copy only changes when it succeeds.
func (r *Repository) UpdateStatus(ctx context.Context, orderID string, status enums.OrderStatus) (models.Order, error) {
	if !status.IsValid() {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]string{"status": status.String()})
	}
	current, ok := r.Get(orderID)
	if !ok {
		return models.Order{}, notFound(orderID)
	}
	if current.Status == status {
		return current, nil
	}
	if !current.Status.CanTransitionTo(status) {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeStateConflict, "order status cannot move backwards").
			WithDetails(map[string]string{"from": current.Status.String(), "to": status.String()})
	}

	ctx = r.logg.WithOrderID(ctx, orderID)
	if err := r.gateway.UpdateStatus(ctx, orderID, status); err != nil {
		r.logg.Error(ctx, "order status update failed", err)
		return models.Order{}, err
	}

	r.mu.Lock()
	updated := current
	for i := range r.orders {
		if r.orders[i].OrderID != orderID {
			continue
		}
		r.applyStatus(&r.orders[i], status)
		updated = r.orders[i].Clone()
		break
	}
	if updated.Status != status {
		r.applyStatus(&updated, status)
	}
	r.mu.Unlock()

	r.metrics.IncTransition(status.String())
	r.logg.Info(r.logg.WithField(ctx, "status", status.String()), "order status updated")
	return updated, nil
}

func (r *Repository) applyStatus(o *models.Order, status enums.OrderStatus) {
	o.Status = status
	if status == enums.OrderStatusCompleted && o.CompletedAt == nil {
		ts := r.now().UTC()
		o.CompletedAt = &ts
	}
}

// Advance moves an order to its next status.
func (r *Repository) Advance(ctx context.Context, orderID string) (models.Order, error) {
	current, ok := r.Get(orderID)
	if !ok {
		return models.Order{}, notFound(orderID)
	}
	next, ok := current.Status.Next()
	if !ok {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeStateConflict, "order already completed").
			WithDetails(map[string]string{"orderId": orderID})
	}
	return r.UpdateStatus(ctx, orderID, next)
}

func (r *Repository) Get(orderID string) (models.Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.OrderID == orderID {
			return o.Clone(), true
		}
	}
	return models.Order{}, false
}

// Orders returns a copy of the list, newest first.
func (r *Repository) Orders() []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return models.CloneOrders(r.orders)
}

func (r *Repository) ByStatus(status enums.OrderStatus) []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Order, 0)
	for _, o := range r.orders {
		if o.Status == status {
			out = append(out, o.Clone())
		}
	}
	return out
}

// Board is the barista console view.
type Board struct {
	Pending   []models.Order `json:"pending"`
	Making    []models.Order `json:"making"`
	Completed []models.Order `json:"completed"`
}

// BaristaBoard splits the list by status, keeping only the latest completed orders.
func (r *Repository) BaristaBoard() Board {
	r.mu.RLock()
	defer r.mu.RUnlock()
	board := Board{
		Pending:   []models.Order{},
		Making:    []models.Order{},
		Completed: []models.Order{},
	}
	for _, o := range r.orders {
		switch o.Status {
		case enums.OrderStatusPending:
			board.Pending = append(board.Pending, o.Clone())
		case enums.OrderStatusMaking:
			board.Making = append(board.Making, o.Clone())
		case enums.OrderStatusCompleted:
			if len(board.Completed) < boardCompleted {
				board.Completed = append(board.Completed, o.Clone())
			}
		}
	}
	return board
}

// NextNumberHint is the number the simple cycle would hand out next.
func (r *Repository) NextNumberHint() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hint
}

func (r *Repository) ResetNumberHint() {
	r.mu.Lock()
	r.hint = 1
	r.mu.Unlock()
}

// LastError is the cause of the latest failed refresh, nil after a success.
func (r *Repository) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

func (r *Repository) LastRefreshed() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastRefreshed
}

func notFound(orderID string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
		WithDetails(map[string]string{"orderId": orderID})
}
