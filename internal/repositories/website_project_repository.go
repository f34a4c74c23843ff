package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"webomat/internal/models"
)

const (
	defaultProjectLimit = 50
	maxProjectLimit     = 200
)

// WebsiteProjectRepository reads website projects straight from the
// Supabase database. Writes always go through the API.
type WebsiteProjectRepository struct {
	DB *sql.DB
}

func websiteProjectsQuery(f models.WebsiteProjectFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.BusinessID != "" {
		add("wp.business_id = $%d", f.BusinessID)
	}
	if f.SellerID != "" {
		add("wp.seller_id = $%d", f.SellerID)
	}
	if f.Status != "" {
		add("wp.status = $%d", f.Status)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultProjectLimit
	}
	if limit > maxProjectLimit {
		limit = maxProjectLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var b strings.Builder
	b.WriteString(`
SELECT wp.id, wp.business_id, wp.seller_id, wp.status, wp.domain, wp.preview_token,
       wp.screenshot_key, COALESCE(v.version_number, 0), wp.created_at, wp.updated_at
FROM website_projects wp
LEFT JOIN LATERAL (
    SELECT version_number FROM website_versions
    WHERE project_id = wp.id
    ORDER BY version_number DESC
    LIMIT 1
) v ON TRUE`)
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	args = append(args, limit, offset)
	fmt.Fprintf(&b, "\nORDER BY wp.created_at DESC\nLIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return b.String(), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWebsiteProject(row rowScanner) (models.WebsiteProject, error) {
	var (
		p         models.WebsiteProject
		updatedAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.BusinessID, &p.SellerID, &p.Status, &p.Domain, &p.PreviewToken,
		&p.ScreenshotKey, &p.LatestVersion, &p.CreatedAt, &updatedAt)
	if err != nil {
		return models.WebsiteProject{}, err
	}
	if updatedAt.Valid {
		p.UpdatedAt = &updatedAt.Time
	}
	if p.ScreenshotKey != nil && *p.ScreenshotKey == "" {
		p.ScreenshotKey = nil
	}
	return p, nil
}

func (r *WebsiteProjectRepository) ListWebsiteProjects(ctx context.Context, f models.WebsiteProjectFilter) ([]models.WebsiteProject, error) {
	query, args := websiteProjectsQuery(f)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.WebsiteProject{}
	for rows.Next() {
		p, err := scanWebsiteProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *WebsiteProjectRepository) GetWebsiteProject(ctx context.Context, id string) (models.WebsiteProject, error) {
	query := `
SELECT wp.id, wp.business_id, wp.seller_id, wp.status, wp.domain, wp.preview_token,
       wp.screenshot_key, COALESCE(MAX(v.version_number), 0), wp.created_at, wp.updated_at
FROM website_projects wp
LEFT JOIN website_versions v ON v.project_id = wp.id
WHERE wp.id = $1
GROUP BY wp.id`
	p, err := scanWebsiteProject(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.WebsiteProject{}, models.ErrNoRecord
	}
	return p, err
}
