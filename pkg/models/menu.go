package models

import "github.com/pmcafe/kiosk/pkg/enums"

// OptionItem is one selectable choice inside an option group.
type OptionItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int    `json:"price"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

// OptionGroup is an ordered set of choices shown for a menu item.
type OptionGroup struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Icon       string                `json:"icon,omitempty"`
	Type       enums.OptionGroupType `json:"type"`
	IsRequired bool                  `json:"isRequired"`
	Items      []OptionItem          `json:"items"`
}

// FindItem returns the group item with id.
func (g OptionGroup) FindItem(id string) (OptionItem, bool) {
	for _, item := range g.Items {
		if item.ID == id {
			return item, true
		}
	}
	return OptionItem{}, false
}

// MenuItem is a sellable product. Prices are whole won.
type MenuItem struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	EngName      string         `json:"engName,omitempty"`
	Price        int            `json:"price"`
	Category     enums.Category `json:"category"`
	Description  string         `json:"description,omitempty"`
	ImageURL     string         `json:"imageUrl,omitempty"`
	IsSoldOut    bool           `json:"isSoldOut"`
	DisplayOrder int            `json:"displayOrder,omitempty"`
	OptionGroups []OptionGroup  `json:"optionGroups,omitempty"`
}

// FindGroup returns the option group with id.
func (m MenuItem) FindGroup(id string) (OptionGroup, bool) {
	for _, group := range m.OptionGroups {
		if group.ID == id {
			return group, true
		}
	}
	return OptionGroup{}, false
}

// Snapshot freezes the fields a cart line keeps after the menu changes.
func (m MenuItem) Snapshot() MenuSnapshot {
	return MenuSnapshot{
		ID:       m.ID,
		Name:     m.Name,
		EngName:  m.EngName,
		Category: m.Category,
		Price:    m.Price,
	}
}

// MenuSnapshot is the immutable copy of a menu item embedded in a cart line.
type MenuSnapshot struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	EngName  string         `json:"engName,omitempty"`
	Category enums.Category `json:"category"`
	Price    int            `json:"price"`
}

// MenuCategory is a backend category row.
type MenuCategory struct {
	ID           string         `json:"id"`
	Code         enums.Category `json:"code"`
	Name         string         `json:"name"`
	DisplayOrder int            `json:"displayOrder"`
}
