package handlers

import (
	"context"
	"net/http"
	"strings"

	"webomat/internal/models"
)

// WebsiteProjects is satisfied by *services.WebsiteProjectService.
type WebsiteProjects interface {
	ListWebsiteProjects(ctx context.Context, f models.WebsiteProjectFilter) ([]models.WebsiteProject, error)
	GetWebsiteProject(ctx context.Context, id string) (models.WebsiteProject, error)
	GenerateWebsite(ctx context.Context, req models.WebsiteGenerateRequest) (*models.WebsiteGenerateResponse, error)
}

type WebsiteHandler struct {
	Base
	Service WebsiteProjects
}

func (h *WebsiteHandler) List(w http.ResponseWriter, r *http.Request) {
	f := models.WebsiteProjectFilter{
		BusinessID: getParam(r, "business_id"),
		SellerID:   getParam(r, "seller_id"),
		Status:     getParam(r, "status"),
		Limit:      queryInt(r, "limit", 0),
		Offset:     queryInt(r, "offset", 0),
	}
	// Sales users only see their own projects.
	if id := identity(r); !id.IsAdmin() && id.SellerID != "" {
		f.SellerID = id.SellerID
	}
	projects, err := h.Service.ListWebsiteProjects(r.Context(), f)
	if err != nil {
		h.fail(w, r, "list website projects", err)
		return
	}
	if projects == nil {
		projects = []models.WebsiteProject{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *WebsiteHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetWebsiteProject(r.Context(), getParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get website project", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *WebsiteHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.WebsiteGenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid request body"})
		return
	}
	req.BusinessID = strings.TrimSpace(req.BusinessID)
	if req.BusinessID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "business_id is required"})
		return
	}
	res, err := h.Service.GenerateWebsite(r.Context(), req)
	if err != nil {
		h.fail(w, r, "generate website", err)
		return
	}
	if n := h.notifier(r); n != nil {
		n.Success("Website generation started")
	}
	writeJSON(w, http.StatusAccepted, res)
}
