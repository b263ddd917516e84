// Package options configures a menu item before it enters the cart.
package options

import (
	"github.com/google/uuid"

	"github.com/pmcafe/kiosk/internal/pricing"
	"github.com/pmcafe/kiosk/pkg/enums"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/models"
)

// MaxQuantity is the default upper bound of the quantity stepper.
const MaxQuantity = 10

// IDFunc generates cart line ids.
type IDFunc func() string

// NewID is the default IDFunc.
func NewID() string {
	return uuid.NewString()
}

// Selection is the in-progress configuration of one menu item.
type Selection struct {
	menu     models.MenuItem
	chosen   map[string][]models.OptionItem
	quantity int
	maxQty   int
}

// NewSelection seeds SINGLE groups with their default item (or the first
// item) and leaves MULTIPLE groups empty.
func NewSelection(menu models.MenuItem, maxQty int) (*Selection, error) {
	if menu.IsSoldOut {
		return nil, pkgerrors.New(pkgerrors.CodeSoldOut, "menu item is sold out").WithDetails(map[string]any{"menuId": menu.ID})
	}
	if maxQty < 1 {
		maxQty = MaxQuantity
	}
	s := &Selection{
		menu:     menu,
		chosen:   make(map[string][]models.OptionItem, len(menu.OptionGroups)),
		quantity: 1,
		maxQty:   maxQty,
	}
	for _, group := range menu.OptionGroups {
		if group.Type != enums.OptionGroupTypeSingle || len(group.Items) == 0 {
			continue
		}
		pick := group.Items[0]
		for _, item := range group.Items {
			if item.IsDefault {
				pick = item
				break
			}
		}
		s.chosen[group.ID] = []models.OptionItem{pick}
	}
	return s, nil
}

// Toggle applies a tap on an option item: SINGLE replaces, MULTIPLE flips membership.
func (s *Selection) Toggle(groupID, itemID string) error {
	group, ok := s.menu.FindGroup(groupID)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown option group").WithDetails(map[string]any{"groupId": groupID})
	}
	item, ok := group.FindItem(itemID)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown option item").WithDetails(map[string]any{"groupId": groupID, "itemId": itemID})
	}

	if group.Type == enums.OptionGroupTypeSingle {
		s.chosen[groupID] = []models.OptionItem{item}
		return nil
	}

	current := s.chosen[groupID]
	for i, existing := range current {
		if existing.ID == itemID {
			s.chosen[groupID] = append(current[:i:i], current[i+1:]...)
			return nil
		}
	}
	s.chosen[groupID] = append(current, item)
	return nil
}

// Chosen returns the items picked in a group.
func (s *Selection) Chosen(groupID string) []models.OptionItem {
	return append([]models.OptionItem(nil), s.chosen[groupID]...)
}

func (s *Selection) Quantity() int {
	return s.quantity
}

// SetQuantity clamps q to [1, max].
func (s *Selection) SetQuantity(q int) {
	s.quantity = pricing.ClampQuantity(q, s.maxQty)
}

func (s *Selection) Increment() {
	s.SetQuantity(s.quantity + 1)
}

func (s *Selection) Decrement() {
	s.SetQuantity(s.quantity - 1)
}

// MissingRequired lists required groups with nothing selected, in menu order.
func (s *Selection) MissingRequired() []string {
	var missing []string
	for _, group := range s.menu.OptionGroups {
		if group.IsRequired && len(s.chosen[group.ID]) == 0 {
			missing = append(missing, group.Name)
		}
	}
	return missing
}

// Valid reports whether every required group has a selection.
func (s *Selection) Valid() bool {
	return len(s.MissingRequired()) == 0
}

// Total is the live price of the configuration.
func (s *Selection) Total() int {
	return pricing.LineTotal(s.menu.Price, s.selected(), s.quantity)
}

// Build produces the cart line. It fails when a required group is empty.
func (s *Selection) Build(newID IDFunc) (models.CartItem, error) {
	if missing := s.MissingRequired(); len(missing) > 0 {
		return models.CartItem{}, pkgerrors.New(pkgerrors.CodeRequiredOptionMissing, "required option not selected").WithDetails(map[string]any{"groups": missing})
	}
	if newID == nil {
		newID = NewID
	}
	item := models.CartItem{
		CartID:          newID(),
		Menu:            s.menu.Snapshot(),
		Quantity:        s.quantity,
		SelectedOptions: s.selected(),
	}
	return pricing.Reprice(item), nil
}

// selected returns non-empty groups in menu order.
func (s *Selection) selected() []models.SelectedOption {
	var out []models.SelectedOption
	for _, group := range s.menu.OptionGroups {
		items := s.chosen[group.ID]
		if len(items) == 0 {
			continue
		}
		out = append(out, models.SelectedOption{
			GroupID:   group.ID,
			GroupName: group.Name,
			Items:     append([]models.OptionItem(nil), items...),
		})
	}
	return out
}

// Pick is an explicit choice for one group sent by the display.
type Pick struct {
	GroupID string
	ItemIDs []string
}

// FromPicks builds a Selection where every pick overrides the seeded defaults of its group.
func FromPicks(menu models.MenuItem, picks []Pick, quantity, maxQty int) (*Selection, error) {
	s, err := NewSelection(menu, maxQty)
	if err != nil {
		return nil, err
	}
	for _, pick := range picks {
		group, ok := menu.FindGroup(pick.GroupID)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown option group").WithDetails(map[string]any{"groupId": pick.GroupID})
		}
		if group.Type == enums.OptionGroupTypeSingle && len(pick.ItemIDs) > 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "single choice group accepts one item").WithDetails(map[string]any{"groupId": pick.GroupID})
		}
		s.chosen[group.ID] = nil
		for _, itemID := range pick.ItemIDs {
			if group.Type == enums.OptionGroupTypeMultiple && contains(s.chosen[group.ID], itemID) {
				continue
			}
			if err := s.Toggle(group.ID, itemID); err != nil {
				return nil, err
			}
		}
	}
	s.SetQuantity(quantity)
	return s, nil
}

func contains(items []models.OptionItem, id string) bool {
	for _, item := range items {
		if item.ID == id {
			return true
		}
	}
	return false
}
