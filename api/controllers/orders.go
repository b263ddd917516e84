package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pmcafe/kiosk/api/responses"
	"github.com/pmcafe/kiosk/api/validators"
	"github.com/pmcafe/kiosk/internal/orders"
	"github.com/pmcafe/kiosk/pkg/enums"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/logger"
	"github.com/pmcafe/kiosk/pkg/models"
)

// OrderBoard is the order cache surface read and driven by the barista screens.
type OrderBoard interface {
	Refresh(ctx context.Context) error
	UpdateStatus(ctx context.Context, orderID string, status enums.OrderStatus) (models.Order, error)
	Advance(ctx context.Context, orderID string) (models.Order, error)
	Orders() []models.Order
	ByStatus(status enums.OrderStatus) []models.Order
	BaristaBoard() orders.Board
	LastError() error
	LastRefreshed() time.Time
}

type orderView struct {
	models.Order
	Style orders.StatusStyle `json:"style"`
}

type orderListResponse struct {
	Orders        []orderView `json:"orders"`
	LastRefreshed *time.Time  `json:"lastRefreshed,omitempty"`
	Stale         bool        `json:"stale"`
}

func newOrderView(o models.Order) orderView {
	style, _ := orders.StyleFor(o.Status)
	return orderView{Order: o, Style: style}
}

func newOrderList(repo OrderBoard, list []models.Order) orderListResponse {
	views := make([]orderView, 0, len(list))
	for _, o := range list {
		views = append(views, newOrderView(o))
	}
	resp := orderListResponse{Orders: views, Stale: repo.LastError() != nil}
	if at := repo.LastRefreshed(); !at.IsZero() {
		resp.LastRefreshed = &at
	}
	return resp
}

// OrderList returns the cached orders, newest first, filtered by ?status=.
func OrderList(repo OrderBoard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order repository unavailable"))
			return
		}
		list := repo.Orders()
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(strings.ToUpper(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").
					WithDetails(map[string]string{"status": raw}))
				return
			}
			list = repo.ByStatus(status)
		}
		responses.WriteSuccess(w, newOrderList(repo, list))
	}
}

// OrderRefresh pulls the backend list now instead of waiting for the poller.
func OrderRefresh(repo OrderBoard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order repository unavailable"))
			return
		}
		if err := repo.Refresh(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderList(repo, repo.Orders()))
	}
}

type updateStatusRequest struct {
	Status enums.OrderStatus `json:"status" validate:"required,oneof=PENDING MAKING COMPLETED"`
}

func OrderUpdateStatus(repo OrderBoard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order repository unavailable"))
			return
		}
		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID := chi.URLParam(r, "orderId")
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID)
		}
		order, err := repo.UpdateStatus(ctx, orderID, payload.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

// BaristaBoard returns the three-column console view.
func BaristaBoard(repo OrderBoard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order repository unavailable"))
			return
		}
		responses.WriteSuccess(w, repo.BaristaBoard())
	}
}

// BaristaAdvance moves an order one step: PENDING to MAKING, MAKING to COMPLETED.
func BaristaAdvance(repo OrderBoard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order repository unavailable"))
			return
		}
		orderID := chi.URLParam(r, "orderId")
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID)
		}
		order, err := repo.Advance(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}
