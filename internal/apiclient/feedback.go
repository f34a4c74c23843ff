package apiclient

import (
	"context"

	"webomat/internal/models"
)

func (c *Client) SubmitFeedback(ctx context.Context, in models.FeedbackCreate) (*models.Feedback, error) {
	var out models.Feedback
	if err := c.post(ctx, "/feedback", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminFeedback(ctx context.Context, f models.FeedbackFilter) ([]models.Feedback, error) {
	q := map[string]string{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	var out []models.Feedback
	if err := c.get(ctx, "/admin/feedback", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateFeedback(ctx context.Context, id string, upd models.FeedbackUpdate) (*models.Feedback, error) {
	var out models.Feedback
	if err := c.put(ctx, "/admin/feedback/"+seg(id), upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
