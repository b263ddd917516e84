package models

import (
	"time"

	"github.com/pmcafe/kiosk/pkg/enums"
)

// Order is a submitted customer order.
type Order struct {
	OrderID     string            `json:"orderId"`
	DailyNum    int               `json:"dailyNum"`
	PayType     enums.PaymentMode `json:"payType"`
	CellInfo    *CellInfo         `json:"cellInfo,omitempty"`
	Items       []CartItem        `json:"items"`
	TotalAmount int               `json:"totalAmount"`
	Status      enums.OrderStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}

// Clone returns a deep copy so callers can hand orders out of locked state.
func (o Order) Clone() Order {
	out := o
	out.Items = CloneCartItems(o.Items)
	if o.CellInfo != nil {
		cell := *o.CellInfo
		out.CellInfo = &cell
	}
	if o.CompletedAt != nil {
		ts := *o.CompletedAt
		out.CompletedAt = &ts
	}
	return out
}

// IsActive reports whether the order still holds its daily number.
func (o Order) IsActive() bool {
	return o.Status != enums.OrderStatusCompleted
}

// CloneOrders deep copies an order slice.
func CloneOrders(orders []Order) []Order {
	if orders == nil {
		return nil
	}
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = o.Clone()
	}
	return out
}
