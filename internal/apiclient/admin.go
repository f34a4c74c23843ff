package apiclient

import (
	"context"

	"webomat/internal/models"
)

func (c *Client) AdminUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := c.get(ctx, "/admin/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAdminUser(ctx context.Context, in models.AdminUserCreate) (*models.User, error) {
	var out models.User
	if err := c.post(ctx, "/admin/users", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAdminUser(ctx context.Context, id string, in models.AdminUserUpdate) (*models.User, error) {
	var out models.User
	if err := c.put(ctx, "/admin/users/"+seg(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
