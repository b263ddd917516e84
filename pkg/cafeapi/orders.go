package cafeapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pmcafe/kiosk/pkg/enums"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/models"
	"github.com/pmcafe/kiosk/pkg/types"
)

const apiPrefix = "/api/v1"

// ListOrdersParams filters the backend order list. Zero values are omitted.
type ListOrdersParams struct {
	Status  enums.OrderStatus
	PayType enums.PaymentMode
	Limit   int
	Offset  int
}

func (p ListOrdersParams) query() url.Values {
	q := url.Values{}
	if p.Status != "" {
		q.Set("status", p.Status.String())
	}
	if p.PayType != "" {
		q.Set("payType", p.PayType.String())
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	return q
}

// CreateOrder submits order and returns the backend's canonical copy,
// including the daily number it assigned.
func (c *Client) CreateOrder(ctx context.Context, order models.Order, idempotencyKey string) (models.Order, error) {
	body, err := newCreateOrderWire(order)
	if err != nil {
		return models.Order{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "order cannot be sent to the backend")
	}
	var out orderWire
	err = c.do(ctx, request{
		method:  http.MethodPost,
		path:    apiPrefix + "/orders",
		body:    body,
		headers: map[string]string{IdempotencyHeader: idempotencyKey},
	}, &out)
	if err != nil {
		return models.Order{}, err
	}
	return out.toModel(), nil
}

// ListOrders returns one page of orders, newest first.
func (c *Client) ListOrders(ctx context.Context, params ListOrdersParams) (types.Page[models.Order], error) {
	var out struct {
		Orders []orderWire `json:"orders"`
		Total  int         `json:"total"`
		Limit  int         `json:"limit"`
		Offset int         `json:"offset"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: apiPrefix + "/orders", query: params.query()}, &out); err != nil {
		return types.Page[models.Order]{}, err
	}
	page := types.Page[models.Order]{
		Items:  make([]models.Order, 0, len(out.Orders)),
		Total:  out.Total,
		Limit:  out.Limit,
		Offset: out.Offset,
	}
	for _, o := range out.Orders {
		page.Items = append(page.Items, o.toModel())
	}
	return page, nil
}

// StatusUpdate is the backend acknowledgement of a status change.
type StatusUpdate struct {
	OrderID   string
	Status    enums.OrderStatus
	UpdatedAt time.Time
}

// UpdateOrderStatus moves orderID to status.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus) (StatusUpdate, error) {
	var out struct {
		OrderID   string          `json:"orderId"`
		Status    string          `json:"status"`
		UpdatedAt types.Timestamp `json:"updatedAt"`
	}
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   apiPrefix + "/orders/" + url.PathEscape(orderID) + "/status",
		body:   map[string]string{"status": status.String()},
	}, &out)
	if err != nil {
		return StatusUpdate{}, err
	}
	return StatusUpdate{OrderID: out.OrderID, Status: enums.OrderStatus(out.Status), UpdatedAt: out.UpdatedAt.Time}, nil
}
