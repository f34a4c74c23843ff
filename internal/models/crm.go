package models

import (
	"encoding/json"
	"time"
)

// Seller is a sales person working the pipeline.
type Seller struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Business is a lead or customer in the CRM.
type Business struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	ICO         string     `json:"ico,omitempty"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Website     string     `json:"website,omitempty"`
	Address     string     `json:"address,omitempty"`
	Status      string     `json:"status"`
	OwnerID     *string    `json:"owner_seller_id"`
	NextFollow  *string    `json:"next_follow_up_at"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// BusinessFilter narrows the business list.
type BusinessFilter struct {
	Search string
	Status string
	Limit  int
	Offset int
}

// BusinessInput creates or updates a business.
type BusinessInput struct {
	Name       string  `json:"name"`
	ICO        string  `json:"ico,omitempty"`
	Email      string  `json:"email,omitempty"`
	Phone      string  `json:"phone,omitempty"`
	Website    string  `json:"website,omitempty"`
	Address    string  `json:"address,omitempty"`
	Status     string  `json:"status,omitempty"`
	NextFollow *string `json:"next_follow_up_at,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// Activity is a logged touchpoint with a business.
type Activity struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"business_id"`
	SellerID    string    `json:"seller_id"`
	Type        string    `json:"activity_type"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// ActivityInput logs a new activity.
type ActivityInput struct {
	Type        string  `json:"activity_type"`
	Description string  `json:"description"`
	OccurredAt  *string `json:"occurred_at,omitempty"`
	NewStatus   string  `json:"new_status,omitempty"`
}

// Project is a website project sold to a business.
type Project struct {
	ID          string     `json:"id"`
	BusinessID  string     `json:"business_id"`
	PackageName string     `json:"package"`
	Status      string     `json:"status"`
	PriceSetup  *float64   `json:"price_setup"`
	PriceMonth  *float64   `json:"price_monthly"`
	Domain      string     `json:"domain,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// ProjectInput creates or updates a project.
type ProjectInput struct {
	PackageName string   `json:"package"`
	Status      string   `json:"status,omitempty"`
	PriceSetup  *float64 `json:"price_setup,omitempty"`
	PriceMonth  *float64 `json:"price_monthly,omitempty"`
	Domain      string   `json:"domain,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// TodayDashboard lists the follow-ups due today.
type TodayDashboard struct {
	Date      string     `json:"date"`
	FollowUps []Business `json:"follow_ups"`
	Overdue   []Business `json:"overdue"`
}

// DashboardStats aggregates the pipeline.
type DashboardStats struct {
	TotalBusinesses int            `json:"total_businesses"`
	ByStatus        map[string]int `json:"by_status"`
	WonThisMonth    int            `json:"won_this_month"`
}

// SellerDashboard is the per-seller overview.
type SellerDashboard struct {
	SellerID        string    `json:"seller_id"`
	AvailableAmount float64   `json:"available_balance"`
	PendingAmount   float64   `json:"pending_balance"`
	Businesses      int       `json:"businesses_count"`
	Projects        int       `json:"projects_count"`
	RecentInvoices  []Invoice `json:"recent_invoices"`
}

// FinancialSummary aggregates invoice amounts.
type FinancialSummary struct {
	Period      string  `json:"period"`
	Issued      float64 `json:"issued_total"`
	Paid        float64 `json:"paid_total"`
	Overdue     float64 `json:"overdue_total"`
	Outstanding float64 `json:"outstanding_total"`
	Currency    string  `json:"currency"`
}

// AresCompany is a company record from the Czech ARES registry.
type AresCompany struct {
	ICO     string `json:"ico"`
	DIC     string `json:"dic,omitempty"`
	Name    string `json:"name"`
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

// WebsiteGenerateRequest asks the backend to render a website draft.
type WebsiteGenerateRequest struct {
	BusinessID string          `json:"business_id"`
	ProjectID  string          `json:"project_id,omitempty"`
	Prompt     string          `json:"prompt,omitempty"`
	Options    json.RawMessage `json:"options,omitempty"`
}

// WebsiteGenerateResponse reports a generation job.
type WebsiteGenerateResponse struct {
	ProjectID  string `json:"project_id"`
	VersionID  string `json:"version_id"`
	Status     string `json:"status"`
	PreviewURL string `json:"preview_url,omitempty"`
}

// WebsiteProject is a website being built for a business.
type WebsiteProject struct {
	ID            string     `json:"id"`
	BusinessID    string     `json:"business_id"`
	SellerID      *string    `json:"seller_id"`
	Status        string     `json:"status"`
	Domain        *string    `json:"domain"`
	PreviewToken  *string    `json:"preview_token"`
	ScreenshotKey *string    `json:"screenshot_key,omitempty"`
	ScreenshotURL string     `json:"screenshot_url,omitempty"`
	LatestVersion int        `json:"latest_version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// WebsiteProjectFilter narrows direct website project reads.
type WebsiteProjectFilter struct {
	BusinessID string
	SellerID   string
	Status     string
	Limit      int
	Offset     int
}
