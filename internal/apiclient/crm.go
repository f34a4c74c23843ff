package apiclient

import (
	"context"
	"strconv"

	"webomat/internal/models"
)

func (c *Client) Sellers(ctx context.Context) ([]models.Seller, error) {
	var out []models.Seller
	if err := c.get(ctx, "/crm/sellers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Seller(ctx context.Context, id string) (*models.Seller, error) {
	var out models.Seller
	if err := c.get(ctx, "/crm/sellers/"+seg(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Businesses(ctx context.Context, f models.BusinessFilter) ([]models.Business, error) {
	q := map[string]string{}
	if f.Search != "" {
		q["search"] = f.Search
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Limit > 0 {
		q["limit"] = strconv.Itoa(f.Limit)
	}
	if f.Offset > 0 {
		q["offset"] = strconv.Itoa(f.Offset)
	}
	var out []models.Business
	if err := c.get(ctx, "/crm/businesses", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Business(ctx context.Context, id string) (*models.Business, error) {
	var out models.Business
	if err := c.get(ctx, "/crm/businesses/"+seg(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateBusiness(ctx context.Context, in models.BusinessInput) (*models.Business, error) {
	var out models.Business
	if err := c.post(ctx, "/crm/businesses", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateBusiness(ctx context.Context, id string, in models.BusinessInput) (*models.Business, error) {
	var out models.Business
	if err := c.put(ctx, "/crm/businesses/"+seg(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BusinessActivities(ctx context.Context, businessID string) ([]models.Activity, error) {
	var out []models.Activity
	if err := c.get(ctx, "/crm/businesses/"+seg(businessID)+"/activities", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateActivity(ctx context.Context, businessID string, in models.ActivityInput) (*models.Activity, error) {
	var out models.Activity
	if err := c.post(ctx, "/crm/businesses/"+seg(businessID)+"/activities", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BusinessProjects(ctx context.Context, businessID string) ([]models.Project, error) {
	var out []models.Project
	if err := c.get(ctx, "/crm/businesses/"+seg(businessID)+"/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProject(ctx context.Context, businessID string, in models.ProjectInput) (*models.Project, error) {
	var out models.Project
	if err := c.post(ctx, "/crm/businesses/"+seg(businessID)+"/projects", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProject(ctx context.Context, projectID string, in models.ProjectInput) (*models.Project, error) {
	var out models.Project
	if err := c.put(ctx, "/crm/projects/"+seg(projectID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DashboardToday(ctx context.Context) (*models.TodayDashboard, error) {
	var out models.TodayDashboard
	if err := c.get(ctx, "/crm/dashboard/today", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var out models.DashboardStats
	if err := c.get(ctx, "/crm/dashboard/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SellerDashboard(ctx context.Context) (*models.SellerDashboard, error) {
	var out models.SellerDashboard
	if err := c.get(ctx, "/crm/seller/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FinancialSummary returns invoice totals; period is "month", "quarter" or
// "year", empty means the backend default.
func (c *Client) FinancialSummary(ctx context.Context, period string) (*models.FinancialSummary, error) {
	var q map[string]string
	if period != "" {
		q = map[string]string{"period": period}
	}
	var out models.FinancialSummary
	if err := c.get(ctx, "/crm/financial/summary", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
