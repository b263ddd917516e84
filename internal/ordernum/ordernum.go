// Package ordernum hands out the daily order number shown to customers.
// Numbers cycle through 1..Max and are reused once their order completes.
package ordernum

import (
	"fmt"
	"strings"

	"github.com/pmcafe/kiosk/pkg/models"
)

// Max is the highest daily number before the cycle wraps to 1.
const Max = 12

// Allocation describes how the number was chosen.
type Allocation struct {
	Number int
	// ForcedReuse is set when every number was held by an active order.
	ForcedReuse bool
}

// Allocator picks the number for the next order. Implementations never fail.
type Allocator interface {
	Next(orders []models.Order) Allocation
}

// Wrap returns the successor of n in the 1..Max cycle.
func Wrap(n int) int {
	if n < 1 || n >= Max {
		return 1
	}
	return n + 1
}

// Simple continues the cycle from the most recently created order and ignores collisions.
type Simple struct{}

func (Simple) Next(orders []models.Order) Allocation {
	latest, ok := latestOrder(orders)
	if !ok {
		return Allocation{Number: 1}
	}
	return Allocation{Number: Wrap(latest.DailyNum)}
}

// CollisionAware returns the smallest number not held by an active order.
// With every number held it reuses the number of the oldest active order.
type CollisionAware struct{}

func (CollisionAware) Next(orders []models.Order) Allocation {
	var used [Max + 1]bool
	var oldest *models.Order
	for i := range orders {
		o := &orders[i]
		if !o.IsActive() {
			continue
		}
		if o.DailyNum >= 1 && o.DailyNum <= Max {
			used[o.DailyNum] = true
		}
		if oldest == nil || o.CreatedAt.Before(oldest.CreatedAt) {
			oldest = o
		}
	}
	for n := 1; n <= Max; n++ {
		if !used[n] {
			return Allocation{Number: n}
		}
	}
	if oldest == nil || oldest.DailyNum < 1 || oldest.DailyNum > Max {
		return Allocation{Number: 1, ForcedReuse: true}
	}
	return Allocation{Number: oldest.DailyNum, ForcedReuse: true}
}

// ParseStrategy maps a configured strategy name onto an Allocator.
func ParseStrategy(name string) (Allocator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "simple":
		return Simple{}, nil
	case "collision_aware", "":
		return CollisionAware{}, nil
	default:
		return nil, fmt.Errorf("unknown allocator strategy %q", name)
	}
}

// latestOrder returns the order with the greatest CreatedAt. Ties keep the
// earlier list position, so a newest-first list resolves to its head.
func latestOrder(orders []models.Order) (models.Order, bool) {
	if len(orders) == 0 {
		return models.Order{}, false
	}
	latest := orders[0]
	for _, o := range orders[1:] {
		if o.CreatedAt.After(latest.CreatedAt) {
			latest = o
		}
	}
	return latest, true
}
