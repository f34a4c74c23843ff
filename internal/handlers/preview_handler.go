package handlers

import (
	"context"
	"net/http"
	"strings"

	"webomat/internal/models"
	"webomat/internal/preview"
)

// PreviewService is satisfied by *preview.Service.
type PreviewService interface {
	Info(ctx context.Context, token string) (*models.PreviewInfo, error)
	HTML(ctx context.Context, token string) (string, error)
	Comments(ctx context.Context, token string) ([]models.PreviewComment, error)
	AddComment(ctx context.Context, token string, form preview.CommentForm) (preview.Result, error)
}

// PreviewHandler serves the public, unauthenticated preview pages.
type PreviewHandler struct {
	Base
	Service PreviewService
}

type commentRequest struct {
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Content     string `json:"content"`
	Website     string `json:"website"`
}

func (h *PreviewHandler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.Service.Info(r.Context(), getParam(r, "token"))
	if err != nil {
		h.fail(w, r, "preview info", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *PreviewHandler) HTML(w http.ResponseWriter, r *http.Request) {
	html, err := h.Service.HTML(r.Context(), getParam(r, "token"))
	if err != nil {
		h.fail(w, r, "preview html", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (h *PreviewHandler) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.Service.Comments(r.Context(), getParam(r, "token"))
	if err != nil {
		h.fail(w, r, "preview comments", err)
		return
	}
	if comments == nil {
		comments = []models.PreviewComment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

// AddComment takes JSON or a form post. The "website" field is a honeypot.
func (h *PreviewHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid request body"})
			return
		}
	} else {
		req = commentRequest{
			AuthorName:  r.FormValue("author_name"),
			AuthorEmail: r.FormValue("author_email"),
			Content:     r.FormValue("content"),
			Website:     r.FormValue("website"),
		}
	}

	res, err := h.Service.AddComment(r.Context(), getParam(r, "token"), preview.CommentForm{
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		Content:     req.Content,
		Honeypot:    req.Website,
	})
	if err != nil {
		h.fail(w, r, "preview comment", err)
		return
	}
	if res.Discarded {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusCreated, res.Comment)
}
