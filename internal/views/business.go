package views

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"webomat/internal/models"
)

// BusinessAPI is the part of the API client the business screen needs.
type BusinessAPI interface {
	Business(ctx context.Context, id string) (*models.Business, error)
	BusinessActivities(ctx context.Context, businessID string) ([]models.Activity, error)
	BusinessProjects(ctx context.Context, businessID string) ([]models.Project, error)
	CreateProject(ctx context.Context, businessID string, in models.ProjectInput) (*models.Project, error)
	UpdateProject(ctx context.Context, projectID string, in models.ProjectInput) (*models.Project, error)
	CreateActivity(ctx context.Context, businessID string, in models.ActivityInput) (*models.Activity, error)
}

// ProjectModal is the state of the create/edit project dialog.
type ProjectModal struct {
	Open bool
	// Editing is nil when creating.
	Editing *models.Project
}

// BusinessState is a consistent copy of the screen state.
type BusinessState struct {
	Business   *models.Business
	Activities []models.Activity
	Projects   []models.Project
	Modal      ProjectModal
	// LoadError blocks the whole screen; Error is shown inline.
	LoadError string
	Error     string
}

// BusinessDetail is the business detail screen.
type BusinessDetail struct {
	api BusinessAPI
	id  string
	mut mutator

	mu         sync.RWMutex
	business   *models.Business
	activities []models.Activity
	projects   []models.Project
	modal      ProjectModal
	loadErr    string
	err        string
}

// NewBusinessDetail constructs the screen for business id. A nil notifier
// drops toasts.
func NewBusinessDetail(api BusinessAPI, id string, logger Logger, notifier Notifier) *BusinessDetail {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &BusinessDetail{
		api: api,
		id:  id,
		mut: mutator{logger: logger, notifier: notifier},
	}
}

// Load fetches the business with its activities and projects. Any failure
// is a blocking error.
func (v *BusinessDetail) Load(ctx context.Context) error {
	var (
		business   *models.Business
		activities []models.Activity
		projects   []models.Project
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := v.api.Business(gctx, v.id)
		business = b
		return err
	})
	g.Go(func() error {
		a, err := v.api.BusinessActivities(gctx, v.id)
		activities = a
		return err
	})
	g.Go(func() error {
		p, err := v.api.BusinessProjects(gctx, v.id)
		projects = p
		return err
	})
	if err := g.Wait(); err != nil {
		v.mu.Lock()
		v.loadErr = Message(err)
		v.mu.Unlock()
		return fmt.Errorf("load business %s: %w", v.id, err)
	}

	v.mu.Lock()
	v.business = business
	v.activities = activities
	v.projects = projects
	v.loadErr = ""
	v.mu.Unlock()
	return nil
}

// State returns a copy of the current state.
func (v *BusinessDetail) State() BusinessState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	st := BusinessState{
		Activities: append([]models.Activity(nil), v.activities...),
		Projects:   append([]models.Project(nil), v.projects...),
		Modal:      v.modal,
		LoadError:  v.loadErr,
		Error:      v.err,
	}
	if v.business != nil {
		b := *v.business
		st.Business = &b
	}
	return st
}

// Error returns the inline error message, empty when none.
func (v *BusinessDetail) Error() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

// OpenProjectModal opens the dialog, for editing when p is non-nil.
func (v *BusinessDetail) OpenProjectModal(p *models.Project) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.modal = ProjectModal{Open: true}
	if p != nil {
		cp := *p
		v.modal.Editing = &cp
	}
	v.err = ""
}

// CloseProjectModal closes the dialog and clears its error.
func (v *BusinessDetail) CloseProjectModal() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.modal = ProjectModal{}
	v.err = ""
}

// CreateProject creates a project and reloads the projects and the business.
func (v *BusinessDetail) CreateProject(ctx context.Context, in models.ProjectInput) error {
	return v.mut.run(ctx, "create project", "Project created",
		func(ctx context.Context) error {
			_, err := v.api.CreateProject(ctx, v.id, in)
			return err
		},
		v.fail, v.succeeded,
		v.refreshProjects(), v.refreshBusiness(),
	)
}

// UpdateProject saves changes to an existing project.
func (v *BusinessDetail) UpdateProject(ctx context.Context, projectID string, in models.ProjectInput) error {
	return v.mut.run(ctx, "update project", "Project updated",
		func(ctx context.Context) error {
			_, err := v.api.UpdateProject(ctx, projectID, in)
			return err
		},
		v.fail, v.succeeded,
		v.refreshProjects(), v.refreshBusiness(),
	)
}

// AddActivity records an activity, which may also move the business status.
func (v *BusinessDetail) AddActivity(ctx context.Context, in models.ActivityInput) error {
	return v.mut.run(ctx, "add activity", "Activity saved",
		func(ctx context.Context) error {
			_, err := v.api.CreateActivity(ctx, v.id, in)
			return err
		},
		v.fail, v.succeeded,
		v.refreshActivities(), v.refreshBusiness(),
	)
}

func (v *BusinessDetail) fail(msg string) {
	v.mu.Lock()
	v.err = msg
	v.mu.Unlock()
}

func (v *BusinessDetail) succeeded() {
	v.mu.Lock()
	v.modal = ProjectModal{}
	v.err = ""
	v.mu.Unlock()
}

func (v *BusinessDetail) refreshBusiness() refresher {
	return refresher{name: "business", fn: func(ctx context.Context) error {
		b, err := v.api.Business(ctx, v.id)
		if err != nil {
			return err
		}
		v.mu.Lock()
		v.business = b
		v.mu.Unlock()
		return nil
	}}
}

func (v *BusinessDetail) refreshProjects() refresher {
	return refresher{name: "projects", fn: func(ctx context.Context) error {
		p, err := v.api.BusinessProjects(ctx, v.id)
		if err != nil {
			return err
		}
		v.mu.Lock()
		v.projects = p
		v.mu.Unlock()
		return nil
	}}
}

func (v *BusinessDetail) refreshActivities() refresher {
	return refresher{name: "activities", fn: func(ctx context.Context) error {
		a, err := v.api.BusinessActivities(ctx, v.id)
		if err != nil {
			return err
		}
		v.mu.Lock()
		v.activities = a
		v.mu.Unlock()
		return nil
	}}
}
