package handlers

import (
	"errors"
	"net/http"

	gojson "github.com/goccy/go-json"

	"webomat/internal/apiclient"
	"webomat/internal/feedback"
	"webomat/internal/invoice/lifecycle"
	"webomat/internal/models"
	"webomat/internal/preview"
	"webomat/internal/services"
	"webomat/internal/session"
	"webomat/internal/views"
)

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = gojson.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v interface{}) error {
	return gojson.NewDecoder(r.Body).Decode(v)
}

// errorStatus maps errors to gateway status codes. Backend 4xx responses
// pass through; anything else from upstream is a bad gateway.
func errorStatus(err error) int {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode
		}
		return http.StatusBadGateway
	case apiclient.IsTransport(err):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrNoRecord):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNoToken), errors.Is(err, session.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, lifecycle.ErrInFlight), errors.Is(err, lifecycle.ErrInvalidTransition), errors.Is(err, views.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, services.ErrDirectReadsDisabled), errors.Is(err, feedback.ErrNoUploader):
		return http.StatusServiceUnavailable
	case errors.Is(err, lifecycle.ErrReasonRequired),
		errors.Is(err, lifecycle.ErrInvalidPaidDate),
		errors.Is(err, lifecycle.ErrUnknownAction),
		errors.Is(err, feedback.ErrContentTooShort),
		errors.Is(err, feedback.ErrContentTooLong),
		errors.Is(err, feedback.ErrInvalidCategory),
		errors.Is(err, feedback.ErrInvalidPriority),
		errors.Is(err, feedback.ErrScreenshotType),
		errors.Is(err, feedback.ErrScreenshotTooLarge),
		errors.Is(err, preview.ErrAuthorRequired),
		errors.Is(err, preview.ErrAuthorTooLong),
		errors.Is(err, preview.ErrContentRequired),
		errors.Is(err, preview.ErrContentTooLong),
		errors.Is(err, preview.ErrInvalidEmail),
		errors.Is(err, preview.ErrTokenRequired),
		errors.Is(err, views.ErrInvalidFeedbackStatus):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// errorDetail is the message sent to the dashboard.
func errorDetail(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if errorStatus(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	return views.Message(err)
}

func (h *Base) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Errorf("%s: %v", op, err)
	}
	writeJSON(w, status, errorBody{Detail: errorDetail(err)})
}
