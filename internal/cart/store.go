// Package cart holds the lines a kiosk customer has configured so far.
package cart

import (
	"strings"

	"github.com/pmcafe/kiosk/internal/pricing"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/models"
)

// DefaultMaxQuantity bounds a single line.
const DefaultMaxQuantity = 10

// Store is an in-memory cart. Line totals are recomputed on every mutation.
// It is not safe for concurrent use; the owning kiosk session serializes access.
type Store struct {
	items  []models.CartItem
	issued map[string]struct{}
	maxQty int
}

// NewStore builds an empty cart with the given per-line quantity cap.
func NewStore(maxQty int) *Store {
	if maxQty < 1 {
		maxQty = DefaultMaxQuantity
	}
	return &Store{
		issued: make(map[string]struct{}),
		maxQty: maxQty,
	}
}

// MaxQuantity returns the per-line cap.
func (s *Store) MaxQuantity() int {
	return s.maxQty
}

// Add appends a line. Line ids are unique for the cart's lifetime, removed lines included.
func (s *Store) Add(item models.CartItem) error {
	id := strings.TrimSpace(item.CartID)
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}
	if _, dup := s.issued[id]; dup {
		return pkgerrors.New(pkgerrors.CodeConflict, "cart item id already used").WithDetails(map[string]any{"cartId": id})
	}
	if item.Menu.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart item menu is required")
	}
	line := item.Clone()
	line.CartID = id
	line.Quantity = pricing.ClampQuantity(line.Quantity, s.maxQty)
	line = pricing.Reprice(line)

	s.issued[id] = struct{}{}
	s.items = append(s.items, line)
	return nil
}

// Remove drops the line with id. Unknown ids are ignored.
func (s *Store) Remove(id string) {
	for i, item := range s.items {
		if item.CartID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// UpdateQuantity clamps q to [1, max] and reprices only that line.
func (s *Store) UpdateQuantity(id string, q int) (models.CartItem, error) {
	for i := range s.items {
		if s.items[i].CartID != id {
			continue
		}
		s.items[i].Quantity = pricing.ClampQuantity(q, s.maxQty)
		s.items[i] = pricing.Reprice(s.items[i])
		return s.items[i].Clone(), nil
	}
	return models.CartItem{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found").WithDetails(map[string]any{"cartId": id})
}

// Clear empties the cart. Issued ids stay reserved.
func (s *Store) Clear() {
	s.items = nil
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []models.CartItem {
	return models.CloneCartItems(s.items)
}

func (s *Store) Total() int {
	return pricing.CartTotal(s.items)
}

func (s *Store) ItemCount() int {
	return pricing.CartQuantity(s.items)
}

func (s *Store) IsEmpty() bool {
	return len(s.items) == 0
}

func (s *Store) Len() int {
	return len(s.items)
}
