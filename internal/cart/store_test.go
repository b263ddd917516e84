package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/models"
)

func line(id string, price, qty int, options ...int) models.CartItem {
	var items []models.OptionItem
	for i, p := range options {
		items = append(items, models.OptionItem{ID: string(rune('a' + i)), Price: p})
	}
	var selected []models.SelectedOption
	if len(items) > 0 {
		selected = []models.SelectedOption{{GroupID: "g", GroupName: "옵션", Items: items}}
	}
	return models.CartItem{
		CartID:          id,
		Menu:            models.MenuSnapshot{ID: "menu-" + id, Name: "메뉴", Price: price},
		Quantity:        qty,
		SelectedOptions: selected,
	}
}

func assertTotalInvariant(t *testing.T, s *Store) {
	t.Helper()
	sum := 0
	for _, item := range s.Items() {
		unit := item.Menu.Price
		for _, g := range item.SelectedOptions {
			for _, o := range g.Items {
				unit += o.Price
			}
		}
		require.Equal(t, unit*item.Quantity, item.TotalPrice, "line %s total", item.CartID)
		sum += item.TotalPrice
	}
	require.Equal(t, sum, s.Total())
}

func TestAddComputesTotalsAndKeepsOrder(t *testing.T) {
	s := NewStore(10)
	require.NoError(t, s.Add(line("a", 3000, 2, 500)))
	require.NoError(t, s.Add(line("b", 2000, 1)))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].CartID)
	assert.Equal(t, "b", items[1].CartID)
	assert.Equal(t, 7000, items[0].TotalPrice)
	assert.Equal(t, 9000, s.Total())
	assert.Equal(t, 3, s.ItemCount())
	assert.False(t, s.IsEmpty())
	assertTotalInvariant(t, s)
}

func TestAddClampsQuantityAndIgnoresCallerTotal(t *testing.T) {
	s := NewStore(10)
	item := line("a", 1000, 25)
	item.TotalPrice = 1
	require.NoError(t, s.Add(item))
	got := s.Items()[0]
	assert.Equal(t, 10, got.Quantity)
	assert.Equal(t, 10000, got.TotalPrice)
}

func TestAddRejectsReusedIDs(t *testing.T) {
	s := NewStore(10)
	require.NoError(t, s.Add(line("a", 1000, 1)))
	err := s.Add(line("a", 1000, 1))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	s.Remove("a")
	s.Clear()
	err = s.Add(line("a", 1000, 1))
	require.Error(t, err, "ids must not be reused after removal")

	require.Error(t, s.Add(line("", 1000, 1)))
}

func TestIdenticalConfigurationsStaySeparateLines(t *testing.T) {
	s := NewStore(10)
	require.NoError(t, s.Add(line("a", 2000, 1, 500)))
	require.NoError(t, s.Add(line("b", 2000, 1, 500)))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 5000, s.Total())
}

func TestRemove(t *testing.T) {
	s := NewStore(10)
	require.NoError(t, s.Add(line("a", 1000, 1)))
	require.NoError(t, s.Add(line("b", 2000, 1)))
	require.NoError(t, s.Add(line("c", 3000, 1)))

	s.Remove("b")
	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].CartID)
	assert.Equal(t, "c", items[1].CartID)

	s.Remove("missing")
	assert.Equal(t, 2, s.Len())
	assertTotalInvariant(t, s)
}

func TestUpdateQuantityClampsAndRepricesOnlyThatLine(t *testing.T) {
	s := NewStore(10)
	require.NoError(t, s.Add(line("a", 1000, 1, 200)))
	require.NoError(t, s.Add(line("b", 2000, 3)))

	updated, err := s.UpdateQuantity("a", 4)
	require.NoError(t, err)
	assert.Equal(t, 4800, updated.TotalPrice)

	updated, err = s.UpdateQuantity("a", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantity)

	updated, err = s.UpdateQuantity("a", 99)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Quantity)
	assert.Equal(t, 12000, updated.TotalPrice)

	assert.Equal(t, 6000, s.Items()[1].TotalPrice)
	assertTotalInvariant(t, s)

	_, err = s.UpdateQuantity("missing", 2)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestItemsReturnsCopy(t *testing.T) {
	s := NewStore(10)
	require.NoError(t, s.Add(line("a", 1000, 1, 300)))
	items := s.Items()
	items[0].Quantity = 9
	items[0].SelectedOptions[0].Items[0].Price = 0
	assert.Equal(t, 1, s.Items()[0].Quantity)
	assert.Equal(t, 1300, s.Total())
}

func TestClear(t *testing.T) {
	s := NewStore(0)
	assert.Equal(t, DefaultMaxQuantity, s.MaxQuantity())
	require.NoError(t, s.Add(line("a", 1000, 1)))
	s.Clear()
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.Total())
	assert.Equal(t, 0, s.ItemCount())
}
