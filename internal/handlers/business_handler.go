package handlers

import (
	"context"
	"net/http"

	"webomat/internal/models"
	"webomat/internal/views"
)

type BusinessHandler struct {
	Base
	API views.BusinessAPI
}

type businessResponse struct {
	Business   *models.Business  `json:"business"`
	Activities []models.Activity `json:"activities"`
	Projects   []models.Project  `json:"projects"`
}

func stateResponse(st views.BusinessState) businessResponse {
	return businessResponse{Business: st.Business, Activities: st.Activities, Projects: st.Projects}
}

func (h *BusinessHandler) load(w http.ResponseWriter, r *http.Request, op string) (*views.BusinessDetail, bool) {
	v := views.NewBusinessDetail(h.API, getParam(r, "id"), h.Logger, h.notifier(r))
	if err := v.Load(r.Context()); err != nil {
		h.fail(w, r, op, err)
		return nil, false
	}
	return v, true
}

// Get returns the business with its activities and projects.
func (h *BusinessHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, ok := h.load(w, r, "get business")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(v.State()))
}

func (h *BusinessHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var in models.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid request body"})
		return
	}
	h.mutate(w, r, "create project", http.StatusCreated, func(ctx context.Context, v *views.BusinessDetail) error {
		return v.CreateProject(ctx, in)
	})
}

func (h *BusinessHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var in models.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid request body"})
		return
	}
	projectID := getParam(r, "project")
	h.mutate(w, r, "update project", http.StatusOK, func(ctx context.Context, v *views.BusinessDetail) error {
		return v.UpdateProject(ctx, projectID, in)
	})
}

func (h *BusinessHandler) AddActivity(w http.ResponseWriter, r *http.Request) {
	var in models.ActivityInput
	if err := decodeJSON(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid request body"})
		return
	}
	h.mutate(w, r, "add activity", http.StatusCreated, func(ctx context.Context, v *views.BusinessDetail) error {
		return v.AddActivity(ctx, in)
	})
}

// mutate loads the screen, runs fn and answers with the refreshed state.
func (h *BusinessHandler) mutate(w http.ResponseWriter, r *http.Request, op string, status int, fn func(context.Context, *views.BusinessDetail) error) {
	v, ok := h.load(w, r, op)
	if !ok {
		return
	}
	if err := fn(r.Context(), v); err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, status, stateResponse(v.State()))
}
