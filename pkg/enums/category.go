package enums

import "fmt"

// Category groups menu items on the kiosk.
type Category string

const (
	// CategoryAll is a browse filter only; no item carries it.
	CategoryAll       Category = "ALL"
	CategoryCoffee    Category = "COFFEE"
	CategoryNonCoffee Category = "NON_COFFEE"
	CategoryDessert   Category = "DESSERT"
	CategorySeasonal  Category = "SEASONAL"
)

var validCategories = []Category{
	CategoryAll,
	CategoryCoffee,
	CategoryNonCoffee,
	CategoryDessert,
	CategorySeasonal,
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Category, ALL included.
func (c Category) IsValid() bool {
	for _, candidate := range validCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsItemCategory reports whether a menu item may carry the category.
func (c Category) IsItemCategory() bool {
	return c != CategoryAll && c.IsValid()
}

// Matches reports whether an item in category item passes the filter c.
func (c Category) Matches(item Category) bool {
	return c == CategoryAll || c == "" || c == item
}

// ParseCategory converts raw input into a Category.
func ParseCategory(value string) (Category, error) {
	for _, candidate := range validCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid category %q", value)
}
