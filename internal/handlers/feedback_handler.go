package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"webomat/internal/feedback"
	"webomat/internal/models"
	"webomat/internal/views"
)

// FeedbackSubmitter is satisfied by *feedback.Service.
type FeedbackSubmitter interface {
	Submit(ctx context.Context, in feedback.Input) (*models.Feedback, error)
}

type FeedbackHandler struct {
	Base
	Service FeedbackSubmitter
	Admin   views.FeedbackAPI
}

type feedbackRequest struct {
	Content  string `json:"content"`
	Category string `json:"category"`
	Priority string `json:"priority"`
	PageURL  string `json:"page_url"`
}

type feedbackUpdateRequest struct {
	Status    string `json:"status"`
	AdminNote string `json:"admin_note"`
}

// Submit accepts JSON, or a multipart form with an optional "screenshot" file.
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in feedback.Input
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(feedback.MaxScreenshot + 1<<20); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid form"})
			return
		}
		in = feedback.Input{
			Content:  r.FormValue("content"),
			Category: r.FormValue("category"),
			Priority: r.FormValue("priority"),
			PageURL:  r.FormValue("page_url"),
		}
		shot, err := readScreenshot(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid screenshot"})
			return
		}
		in.Screenshot = shot
	} else {
		var req feedbackRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid request body"})
			return
		}
		in = feedback.Input{Content: req.Content, Category: req.Category, Priority: req.Priority, PageURL: req.PageURL}
	}

	fb, err := h.Service.Submit(r.Context(), in)
	if err != nil {
		h.fail(w, r, "submit feedback", err)
		return
	}
	if n := h.notifier(r); n != nil {
		n.Success("Thank you for your feedback")
	}
	writeJSON(w, http.StatusCreated, fb)
}

func readScreenshot(r *http.Request) (*feedback.Screenshot, error) {
	file, header, err := r.FormFile("screenshot")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// One byte past the limit is enough for validation to reject it.
	data, err := io.ReadAll(io.LimitReader(file, feedback.MaxScreenshot+1))
	if err != nil {
		return nil, err
	}
	ct := header.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return &feedback.Screenshot{ContentType: ct, Data: data}, nil
}

// List is the admin inbox.
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	v := views.NewFeedbackAdmin(h.Admin, h.Logger, h.notifier(r))
	f := models.FeedbackFilter{Status: getParam(r, "status"), Category: getParam(r, "category")}
	if err := v.Load(r.Context(), f); err != nil {
		h.fail(w, r, "list feedback", err)
		return
	}
	writeJSON(w, http.StatusOK, v.Items())
}

// Update sets the status of one item and answers with the refreshed inbox.
func (h *FeedbackHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req feedbackUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid request body"})
		return
	}
	v := views.NewFeedbackAdmin(h.Admin, h.Logger, h.notifier(r))
	f := models.FeedbackFilter{Status: getParam(r, "status"), Category: getParam(r, "category")}
	if err := v.Load(r.Context(), f); err != nil {
		h.fail(w, r, "update feedback", err)
		return
	}
	if err := v.UpdateStatus(r.Context(), getParam(r, "id"), req.Status, req.AdminNote); err != nil {
		h.fail(w, r, "update feedback", err)
		return
	}
	writeJSON(w, http.StatusOK, v.Items())
}
