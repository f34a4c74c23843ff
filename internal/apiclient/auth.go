package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"webomat/internal/models"
)

// Login exchanges credentials for a token, persists it and the profile in the
// active store and returns the profile.
func (c *Client) Login(ctx context.Context, username, password string) (*models.User, error) {
	tok, err := c.RequestToken(ctx, username, password)
	if err != nil {
		return nil, err
	}

	store := c.Store()
	if err := store.SetToken(ctx, tok.AccessToken); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	user, err := c.Me(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.SetUser(ctx, user); err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}
	return user, nil
}

// RequestToken exchanges credentials for a token without touching the store.
func (c *Client) RequestToken(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	var tok models.TokenResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/token",
		form:   map[string]string{"username": username, "password": password},
		out:    &tok,
	})
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, errors.New("login: backend returned no access token")
	}
	return &tok, nil
}

// Logout forgets the stored credentials. The backend keeps no session.
func (c *Client) Logout(ctx context.Context) error {
	return c.Store().Clear(ctx)
}

// AccessToken returns the token the next call will carry.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	return c.Store().Token(ctx)
}

// Me fetches the profile of the authenticated user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.get(ctx, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
