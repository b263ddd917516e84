package cafeapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pmcafe/kiosk/pkg/enums"
	"github.com/pmcafe/kiosk/pkg/models"
)

// ListMenus returns active menu items without option groups. categoryID may be empty.
func (c *Client) ListMenus(ctx context.Context, categoryID string) ([]models.MenuItem, error) {
	q := url.Values{}
	if categoryID != "" {
		q.Set("category_id", categoryID)
	}
	var out []menuWire
	if err := c.do(ctx, request{method: http.MethodGet, path: apiPrefix + "/menus", query: q}, &out); err != nil {
		return nil, err
	}
	items := make([]models.MenuItem, 0, len(out))
	for _, w := range out {
		if w.IsActive != nil && !*w.IsActive {
			continue
		}
		items = append(items, w.toModel())
	}
	return items, nil
}

// GetMenu returns one menu item with its option groups.
func (c *Client) GetMenu(ctx context.Context, menuID string) (models.MenuItem, error) {
	var out menuWire
	if err := c.do(ctx, request{method: http.MethodGet, path: apiPrefix + "/menus/" + url.PathEscape(menuID)}, &out); err != nil {
		return models.MenuItem{}, err
	}
	return out.toModel(), nil
}

func (c *Client) ListCategories(ctx context.Context) ([]models.MenuCategory, error) {
	var out []categoryWire
	if err := c.do(ctx, request{method: http.MethodGet, path: apiPrefix + "/categories"}, &out); err != nil {
		return nil, err
	}
	categories := make([]models.MenuCategory, 0, len(out))
	for _, w := range out {
		categories = append(categories, models.MenuCategory{
			ID:           string(w.ID),
			Code:         enums.Category(w.Code),
			Name:         w.Name,
			DisplayOrder: w.DisplayOrder,
		})
	}
	return categories, nil
}
