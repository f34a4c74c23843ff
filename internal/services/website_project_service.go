package services

import (
	"context"
	"errors"
	"time"

	"webomat/internal/models"
)

var ErrDirectReadsDisabled = errors.New("website projects: database is not configured")

type WebsiteProjectReader interface {
	ListWebsiteProjects(ctx context.Context, f models.WebsiteProjectFilter) ([]models.WebsiteProject, error)
	GetWebsiteProject(ctx context.Context, id string) (models.WebsiteProject, error)
}

type WebsiteProjectAPI interface {
	WebsiteProject(ctx context.Context, id string) (*models.WebsiteProject, error)
	GenerateWebsite(ctx context.Context, req models.WebsiteGenerateRequest) (*models.WebsiteGenerateResponse, error)
}

// ScreenshotSigner issues time-limited screenshot URLs.
type ScreenshotSigner interface {
	PresignGet(key string, ttl time.Duration) (string, error)
}

// WebsiteProjectService lists projects from the database when it is
// configured and falls back to the API for single reads.
type WebsiteProjectService struct {
	Repo        WebsiteProjectReader
	API         WebsiteProjectAPI
	Screenshots ScreenshotSigner
	URLTTL      time.Duration
}

func (s *WebsiteProjectService) ListWebsiteProjects(ctx context.Context, f models.WebsiteProjectFilter) ([]models.WebsiteProject, error) {
	if s.Repo == nil {
		return nil, ErrDirectReadsDisabled
	}
	projects, err := s.Repo.ListWebsiteProjects(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		s.sign(&projects[i])
	}
	return projects, nil
}

func (s *WebsiteProjectService) GetWebsiteProject(ctx context.Context, id string) (models.WebsiteProject, error) {
	var p models.WebsiteProject
	if s.Repo != nil {
		var err error
		if p, err = s.Repo.GetWebsiteProject(ctx, id); err != nil {
			return models.WebsiteProject{}, err
		}
	} else {
		fetched, err := s.API.WebsiteProject(ctx, id)
		if err != nil {
			return models.WebsiteProject{}, err
		}
		p = *fetched
	}
	s.sign(&p)
	return p, nil
}

func (s *WebsiteProjectService) GenerateWebsite(ctx context.Context, req models.WebsiteGenerateRequest) (*models.WebsiteGenerateResponse, error) {
	return s.API.GenerateWebsite(ctx, req)
}

// sign fills ScreenshotURL; a signing failure leaves it empty.
func (s *WebsiteProjectService) sign(p *models.WebsiteProject) {
	if s.Screenshots == nil || p.ScreenshotKey == nil || p.ScreenshotURL != "" {
		return
	}
	ttl := s.URLTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	if u, err := s.Screenshots.PresignGet(*p.ScreenshotKey, ttl); err == nil {
		p.ScreenshotURL = u
	}
}
