package ordernum

import (
	"fmt"
	"testing"
	"time"

	"github.com/pmcafe/kiosk/pkg/enums"
	"github.com/pmcafe/kiosk/pkg/models"
)

var base = time.Date(2025, 5, 4, 9, 0, 0, 0, time.UTC)

func order(num int, status enums.OrderStatus, minute int) models.Order {
	return models.Order{
		OrderID:   fmt.Sprintf("ORD-%d-%d", num, minute),
		DailyNum:  num,
		Status:    status,
		CreatedAt: base.Add(time.Duration(minute) * time.Minute),
	}
}

func TestWrap(t *testing.T) {
	cases := map[int]int{1: 2, 11: 12, 12: 1, 0: 1, 13: 1}
	for in, want := range cases {
		if got := Wrap(in); got != want {
			t.Fatalf("Wrap(%d) = %d want %d", in, got, want)
		}
	}
}

func TestSimpleCyclesThroughTwelve(t *testing.T) {
	var orders []models.Order
	alloc := Simple{}
	want := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 1, 2}
	for i, w := range want {
		got := alloc.Next(orders).Number
		if got != w {
			t.Fatalf("step %d: expected %d got %d", i, w, got)
		}
		orders = append([]models.Order{order(got, enums.OrderStatusPending, i)}, orders...)
	}
}

func TestSimpleUsesLatestCreatedRegardlessOfPosition(t *testing.T) {
	orders := []models.Order{
		order(3, enums.OrderStatusPending, 1),
		order(7, enums.OrderStatusPending, 5),
		order(5, enums.OrderStatusCompleted, 2),
	}
	if got := (Simple{}).Next(orders).Number; got != 8 {
		t.Fatalf("expected 8 from latest order, got %d", got)
	}
}

func TestSimpleTieBreaksOnListHead(t *testing.T) {
	orders := []models.Order{
		order(4, enums.OrderStatusPending, 1),
		order(9, enums.OrderStatusPending, 1),
	}
	if got := (Simple{}).Next(orders).Number; got != 5 {
		t.Fatalf("expected head of list to win ties, got %d", got)
	}
}

func TestSimpleIgnoresCollisions(t *testing.T) {
	orders := []models.Order{
		order(1, enums.OrderStatusPending, 0),
		order(12, enums.OrderStatusPending, 1),
	}
	if got := (Simple{}).Next(orders).Number; got != 1 {
		t.Fatalf("simple allocator should wrap to 1 even when held, got %d", got)
	}
}

func TestCollisionAwarePicksSmallestFree(t *testing.T) {
	orders := []models.Order{
		order(1, enums.OrderStatusPending, 0),
		order(2, enums.OrderStatusMaking, 1),
		order(3, enums.OrderStatusCompleted, 2),
		order(4, enums.OrderStatusPending, 3),
	}
	alloc := (CollisionAware{}).Next(orders)
	if alloc.Number != 3 || alloc.ForcedReuse {
		t.Fatalf("expected fresh 3, got %+v", alloc)
	}
	if got := (CollisionAware{}).Next(nil).Number; got != 1 {
		t.Fatalf("empty list should yield 1, got %d", got)
	}
}

func TestCollisionAwareNeverReturnsActiveNumber(t *testing.T) {
	var orders []models.Order
	alloc := CollisionAware{}
	for i := 0; i < Max; i++ {
		got := alloc.Next(orders)
		for _, o := range orders {
			if o.IsActive() && o.DailyNum == got.Number {
				t.Fatalf("allocated active number %d", got.Number)
			}
		}
		if got.ForcedReuse {
			t.Fatalf("unexpected forced reuse with %d active orders", len(orders))
		}
		orders = append(orders, order(got.Number, enums.OrderStatusPending, i))
	}
}

func TestCollisionAwareForcedReuseTakesOldest(t *testing.T) {
	var orders []models.Order
	for n := 1; n <= Max; n++ {
		// number 7 is the oldest active order
		minute := n + 10
		if n == 7 {
			minute = 0
		}
		orders = append(orders, order(n, enums.OrderStatusPending, minute))
	}
	alloc := (CollisionAware{}).Next(orders)
	if alloc.Number != 7 || !alloc.ForcedReuse {
		t.Fatalf("expected forced reuse of 7, got %+v", alloc)
	}
}

func TestParseStrategy(t *testing.T) {
	if a, err := ParseStrategy("simple"); err != nil {
		t.Fatalf("unexpected error %v", err)
	} else if _, ok := a.(Simple); !ok {
		t.Fatalf("expected Simple, got %T", a)
	}
	if a, err := ParseStrategy("Collision_Aware"); err != nil {
		t.Fatalf("unexpected error %v", err)
	} else if _, ok := a.(CollisionAware); !ok {
		t.Fatalf("expected CollisionAware, got %T", a)
	}
	if _, err := ParseStrategy("random"); err == nil {
		t.Fatalf("expected unknown strategy error")
	}
}
