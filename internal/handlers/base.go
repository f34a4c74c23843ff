package handlers

import (
	"net/http"

	"webomat/internal/session"
	"webomat/internal/toast"
	"webomat/internal/views"
)

// Logger is the logging surface used by handlers.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Base carries what every handler needs.
type Base struct {
	Logger Logger
	Toasts *toast.Hub
}

func identity(r *http.Request) session.Identity {
	id, _ := session.FromContext(r.Context())
	return id
}

// notifier returns the caller's toast center, nil when there is none.
func (h *Base) notifier(r *http.Request) views.Notifier {
	if h.Toasts == nil {
		return nil
	}
	id := identity(r)
	if id.UserID == "" {
		return nil
	}
	return h.Toasts.Center(id.UserID)
}
