package orders

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/pmcafe/kiosk/pkg/cafeapi"
	"github.com/pmcafe/kiosk/pkg/enums"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/models"
	"github.com/pmcafe/kiosk/pkg/types"
)

// Gateway is where orders are committed and read back from.
type Gateway interface {
	Create(ctx context.Context, order models.Order, idempotencyKey string) (models.Order, error)
	List(ctx context.Context, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status enums.OrderStatus) error
}

type ordersAPI interface {
	CreateOrder(ctx context.Context, order models.Order, idempotencyKey string) (models.Order, error)
	ListOrders(ctx context.Context, params cafeapi.ListOrdersParams) (types.Page[models.Order], error)
	UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus) (cafeapi.StatusUpdate, error)
}

// RemoteGateway commits orders to the café backend, which assigns the
// canonical order id and daily number.
type RemoteGateway struct {
	api ordersAPI
}

func NewRemoteGateway(api ordersAPI) (*RemoteGateway, error) {
	if api == nil {
		return nil, fmt.Errorf("cafe api client required")
	}
	return &RemoteGateway{api: api}, nil
}

func (g *RemoteGateway) Create(ctx context.Context, order models.Order, idempotencyKey string) (models.Order, error) {
	created, err := g.api.CreateOrder(ctx, order, idempotencyKey)
	if err != nil {
		return models.Order{}, err
	}
	if created.OrderID == "" {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeDependency, "backend returned an order without id")
	}
	if created.CellInfo == nil && order.CellInfo != nil {
		cell := *order.CellInfo
		created.CellInfo = &cell
	}
	if len(created.Items) == 0 {
		created.Items = models.CloneCartItems(order.Items)
	}
	return created, nil
}

func (g *RemoteGateway) List(ctx context.Context, limit int) ([]models.Order, error) {
	page, err := g.api.ListOrders(ctx, cafeapi.ListOrdersParams{Limit: limit})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (g *RemoteGateway) UpdateStatus(ctx context.Context, orderID string, status enums.OrderStatus) error {
	_, err := g.api.UpdateOrderStatus(ctx, orderID, status)
	return err
}

// LocalGateway keeps orders in process. It backs kiosks running without a
// backend and the tests.
type LocalGateway struct {
	mu     sync.Mutex
	orders []models.Order
	keys   map[string]string
	now    func() time.Time
}

func NewLocalGateway() *LocalGateway {
	return &LocalGateway{keys: make(map[string]string), now: time.Now}
}

// Create stores the draft as is. A repeated idempotency key returns the order
// stored the first time.
func (g *LocalGateway) Create(_ context.Context, order models.Order, idempotencyKey string) (models.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if idempotencyKey != "" {
		if id, ok := g.keys[idempotencyKey]; ok {
			for _, o := range g.orders {
				if o.OrderID == id {
					return o.Clone(), nil
				}
			}
		}
	}
	stored := order.Clone()
	if stored.OrderID == "" {
		stored.OrderID = NewOrderID(g.now())
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = g.now().UTC()
	}
	if stored.Status == "" {
		stored.Status = enums.OrderStatusPending
	}
	g.orders = append(g.orders, stored)
	if idempotencyKey != "" {
		g.keys[idempotencyKey] = stored.OrderID
	}
	return stored.Clone(), nil
}

// List returns the newest limit orders, newest first.
func (g *LocalGateway) List(_ context.Context, limit int) ([]models.Order, error) {
	g.mu.Lock()
	out := models.CloneOrders(g.orders)
	g.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (g *LocalGateway) UpdateStatus(_ context.Context, orderID string, status enums.OrderStatus) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.orders {
		if g.orders[i].OrderID != orderID {
			continue
		}
		g.orders[i].Status = status
		if status == enums.OrderStatusCompleted && g.orders[i].CompletedAt == nil {
			ts := g.now().UTC()
			g.orders[i].CompletedAt = &ts
		}
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
		WithDetails(map[string]string{"orderId": orderID})
}

const orderIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewOrderID builds an id of the form ORD-<unix ms>-<6 lowercase alnum>.
func NewOrderID(now time.Time) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = orderIDAlphabet[rand.IntN(len(orderIDAlphabet))]
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}
