package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/luongnguyenminhan/enterviu-go/internal/models"
)

// GoogleLoginURL builds the browser URL that starts the Google OAuth flow.
// redirectURI is where the backend's callback page delivers the handshake
// result (the CLI's loopback listener).
func (c *Client) GoogleLoginURL(redirectURI string) string {
	query := url.Values{}
	if redirectURI != "" {
		query.Set("redirect_uri", redirectURI)
	}
	u := c.baseURL + "/auth/google/login"
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// directLoginRequest exchanges a provider authorization code for tokens.
type directLoginRequest struct {
	Code string `json:"code"`
}

// DirectLogin exchanges a Google authorization code for a token pair without
// the browser handshake. Used when the user pastes a code manually.
func (c *Client) DirectLogin(ctx context.Context, code string) (models.TokenPair, error) {
	if code == "" {
		return models.TokenPair{}, fmt.Errorf("authorization code is required")
	}
	return call[models.TokenPair](ctx, c, "auth.direct_login", http.MethodPost, "/auth/google/direct-login", nil, directLoginRequest{Code: code})
}

// refreshRequest is the input for refreshing an access token.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken exchanges a refresh token for a fresh token pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	if refreshToken == "" {
		return models.TokenPair{}, fmt.Errorf("refresh token is required")
	}
	return call[models.TokenPair](ctx, c, "auth.refresh", http.MethodPost, "/auth/refresh", nil, refreshRequest{RefreshToken: refreshToken})
}

// Revoke invalidates the current session's tokens on the backend. The call
// is bearer-authenticated through the client's token source.
func (c *Client) Revoke(ctx context.Context) error {
	_, err := c.do(ctx, "auth.revoke", http.MethodPost, "/auth/google/revoke", nil, nil)
	return err
}

// GetMe fetches the authenticated user's profile.
func (c *Client) GetMe(ctx context.Context) (models.User, error) {
	return call[models.User](ctx, c, "users.me", http.MethodGet, "/users/me", nil, nil)
}
