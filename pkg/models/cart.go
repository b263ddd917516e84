package models

// SelectedOption holds the chosen items of one option group.
type SelectedOption struct {
	GroupID   string       `json:"groupId"`
	GroupName string       `json:"groupName"`
	Items     []OptionItem `json:"items"`
}

// CartItem is one configured line in a cart or order.
type CartItem struct {
	CartID          string           `json:"cartId"`
	Menu            MenuSnapshot     `json:"menu"`
	Quantity        int              `json:"quantity"`
	SelectedOptions []SelectedOption `json:"selectedOptions"`
	TotalPrice      int              `json:"totalPrice"`
}

// Clone returns a deep copy of the line.
func (c CartItem) Clone() CartItem {
	out := c
	if c.SelectedOptions != nil {
		out.SelectedOptions = make([]SelectedOption, len(c.SelectedOptions))
		for i, group := range c.SelectedOptions {
			g := group
			g.Items = append([]OptionItem(nil), group.Items...)
			out.SelectedOptions[i] = g
		}
	}
	return out
}

// CloneCartItems deep copies a line slice.
func CloneCartItems(items []CartItem) []CartItem {
	if items == nil {
		return nil
	}
	out := make([]CartItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
