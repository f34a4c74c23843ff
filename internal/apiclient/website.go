package apiclient

import (
	"context"
	"strings"

	"webomat/internal/models"
)

func (c *Client) GenerateWebsite(ctx context.Context, req models.WebsiteGenerateRequest) (*models.WebsiteGenerateResponse, error) {
	var out models.WebsiteGenerateResponse
	if err := c.post(ctx, "/website/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) WebsiteProject(ctx context.Context, id string) (*models.WebsiteProject, error) {
	var out models.WebsiteProject
	if err := c.get(ctx, "/website/projects/"+seg(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AresLookup resolves a Czech company identification number.
func (c *Client) AresLookup(ctx context.Context, ico string) (*models.AresCompany, error) {
	var out models.AresCompany
	if err := c.get(ctx, "/ares/"+seg(strings.TrimSpace(ico)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
