package apiclient

import (
	"context"
	"net/http"

	"webomat/internal/models"
)

// The preview endpoints are token-addressed and public; a stored bearer token
// is still attached when present and the backend ignores it.

func (c *Client) PreviewInfo(ctx context.Context, token string) (*models.PreviewInfo, error) {
	var out models.PreviewInfo
	if err := c.get(ctx, "/public/preview/"+seg(token), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PreviewHTML(ctx context.Context, token string) (string, error) {
	var body []byte
	err := c.do(ctx, call{method: http.MethodGet, path: "/public/preview/" + seg(token) + "/html", raw: &body})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) PreviewComments(ctx context.Context, token string) ([]models.PreviewComment, error) {
	var out []models.PreviewComment
	if err := c.get(ctx, "/public/preview/"+seg(token)+"/comments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddPreviewComment(ctx context.Context, token string, in models.PreviewCommentCreate) (*models.PreviewComment, error) {
	var out models.PreviewComment
	if err := c.post(ctx, "/public/preview/"+seg(token)+"/comments", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
