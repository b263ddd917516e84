// Package checkout turns a validated cart into a committed order.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pmcafe/kiosk/internal/ordernum"
	"github.com/pmcafe/kiosk/internal/orders"
	"github.com/pmcafe/kiosk/pkg/enums"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/logger"
	"github.com/pmcafe/kiosk/pkg/metrics"
	"github.com/pmcafe/kiosk/pkg/models"
)

// Cart is the part of a cart the submission reads and clears.
type Cart interface {
	Items() []models.CartItem
	Total() int
	IsEmpty() bool
	Clear()
}

type orderRepository interface {
	Orders() []models.Order
	AddOrder(order models.Order) bool
}

type Request struct {
	PayType        enums.PaymentMode
	Cell           *models.CellInfo
	Cart           Cart
	IdempotencyKey string
}

// Result mirrors the outcome for display code that does not inspect errors.
type Result struct {
	Success bool           `json:"success"`
	Order   *models.Order  `json:"order,omitempty"`
	Code    pkgerrors.Code `json:"code,omitempty"`
	Message string         `json:"message,omitempty"`
}

// Service submits orders.
type Service interface {
	Submit(ctx context.Context, req Request) (Result, error)
}

type ServiceParams struct {
	Repository orderRepository
	Gateway    orders.Gateway
	Allocator  ordernum.Allocator
	Logger     *logger.Logger
	Metrics    *metrics.OrderMetrics
	Now        func() time.Time
}

type service struct {
	repo      orderRepository
	gateway   orders.Gateway
	allocator ordernum.Allocator
	logg      *logger.Logger
	metrics   *metrics.OrderMetrics
	now       func() time.Time

	// held from number allocation until the created order is in the repository
	mu sync.Mutex
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("order gateway required")
	}
	allocator := params.Allocator
	if allocator == nil {
		allocator = ordernum.CollisionAware{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repository,
		gateway:   params.Gateway,
		allocator: allocator,
		logg:      logg,
		metrics:   params.Metrics,
		now:       now,
	}, nil
}

// Submit validates, allocates a daily number and commits through the gateway.
// The repository and the cart only change after the commit succeeds.
// Submissions from different sessions are serialized so no two active orders
// share a number.
func (s *service) Submit(ctx context.Context, req Request) (Result, error) {
	if req.Cart == nil {
		return s.fail(ctx, req, pkgerrors.New(pkgerrors.CodeEmptyCart, "장바구니가 비어있습니다"))
	}
	items := req.Cart.Items()
	total := req.Cart.Total()
	if err := Validate(req.PayType, req.Cell, len(items), total); err != nil {
		return s.fail(ctx, req, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	alloc := s.allocator.Next(s.repo.Orders())
	if alloc.ForcedReuse {
		s.metrics.IncAllocation(metrics.AllocationForcedReuse)
		s.logg.Warn(s.logg.WithField(ctx, "daily_num", alloc.Number), "all daily numbers in use; reusing oldest")
	} else {
		s.metrics.IncAllocation(metrics.AllocationFresh)
	}

	now := s.now().UTC()
	draft := models.Order{
		OrderID:     orders.NewOrderID(now),
		DailyNum:    alloc.Number,
		PayType:     req.PayType,
		Items:       models.CloneCartItems(items),
		TotalAmount: total,
		Status:      enums.OrderStatusPending,
		CreatedAt:   now,
	}
	if req.PayType == enums.PaymentModeCell && req.Cell != nil {
		cell := *req.Cell
		draft.CellInfo = &cell
	}

	created, err := s.gateway.Create(ctx, draft, req.IdempotencyKey)
	if err != nil {
		return s.fail(ctx, req, err)
	}

	s.repo.AddOrder(created)
	req.Cart.Clear()
	s.metrics.IncSubmission(req.PayType.String(), metrics.OutcomeSuccess)

	ctx = s.logg.WithOrderID(ctx, created.OrderID)
	s.logg.Info(s.logg.WithField(ctx, "daily_num", created.DailyNum), "order submitted")
	return Result{Success: true, Order: &created}, nil
}

func (s *service) fail(ctx context.Context, req Request, err error) (Result, error) {
	res := Result{Code: pkgerrors.CodeInternal, Message: err.Error()}
	outcome := metrics.OutcomeFailed
	if typed := pkgerrors.As(err); typed != nil {
		res.Code = typed.Code()
		res.Message = typed.Message()
		if !pkgerrors.MetadataFor(typed.Code()).Retryable {
			outcome = metrics.OutcomeRejected
		}
	}
	s.metrics.IncSubmission(req.PayType.String(), outcome)
	if outcome == metrics.OutcomeFailed {
		s.logg.Error(ctx, "order submission failed", err)
	} else {
		s.logg.Info(s.logg.WithField(ctx, "code", string(res.Code)), "order submission rejected")
	}
	return res, err
}
