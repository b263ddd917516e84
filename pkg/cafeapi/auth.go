package cafeapi

import (
	"context"
	"net/http"

	"github.com/pmcafe/kiosk/pkg/models"
)

// LoginResult carries the backend-issued token and the signed-in admin.
type LoginResult struct {
	AccessToken string
	TokenType   string
	User        models.AdminUser
}

func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out struct {
		AccessToken string   `json:"access_token"`
		TokenType   string   `json:"token_type"`
		User        userWire `json:"user"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   apiPrefix + "/auth/login",
		body:   map[string]string{"username": username, "password": password},
	}, &out)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{AccessToken: out.AccessToken, TokenType: out.TokenType, User: out.User.toModel()}, nil
}

// Verify returns the admin owning the token attached to ctx.
func (c *Client) Verify(ctx context.Context) (models.AdminUser, error) {
	var out userWire
	if err := c.do(ctx, request{method: http.MethodGet, path: apiPrefix + "/auth/verify"}, &out); err != nil {
		return models.AdminUser{}, err
	}
	return out.toModel(), nil
}
