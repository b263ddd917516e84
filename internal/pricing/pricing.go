// Package pricing derives line and cart totals. All amounts are whole won.
package pricing

import "github.com/pmcafe/kiosk/pkg/models"

// OptionsPrice sums every selected option item across groups.
func OptionsPrice(selected []models.SelectedOption) int {
	sum := 0
	for _, group := range selected {
		for _, item := range group.Items {
			sum += item.Price
		}
	}
	return sum
}

// UnitPrice is the menu price plus the selected option prices.
func UnitPrice(menuPrice int, selected []models.SelectedOption) int {
	return menuPrice + OptionsPrice(selected)
}

// LineTotal is (menuPrice + Σ options) × quantity.
func LineTotal(menuPrice int, selected []models.SelectedOption, quantity int) int {
	return UnitPrice(menuPrice, selected) * quantity
}

// Reprice recomputes an item's TotalPrice from its snapshot.
func Reprice(item models.CartItem) models.CartItem {
	item.TotalPrice = LineTotal(item.Menu.Price, item.SelectedOptions, item.Quantity)
	return item
}

// CartTotal sums the line totals.
func CartTotal(items []models.CartItem) int {
	sum := 0
	for _, item := range items {
		sum += item.TotalPrice
	}
	return sum
}

// CartQuantity sums the line quantities.
func CartQuantity(items []models.CartItem) int {
	sum := 0
	for _, item := range items {
		sum += item.Quantity
	}
	return sum
}

// ClampQuantity bounds q to [1, max].
func ClampQuantity(q, max int) int {
	if max < 1 {
		max = 1
	}
	if q < 1 {
		return 1
	}
	if q > max {
		return max
	}
	return q
}
