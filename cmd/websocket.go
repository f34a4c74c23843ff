package main

import (
	"errors"
	"net/http"
	"strings"

	gojson "github.com/goccy/go-json"

	"webomat/internal/credentials"
)

// toastUser resolves the owner of a toast stream. Browsers cannot set
// headers on a websocket handshake, so the token may come in the query.
// The stream makes no backend call of its own, so the token is verified
// against /users/me before the upgrade.
func (app *application) toastUser(r *http.Request) (string, error) {
	token := bearerToken(r)
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if token == "" {
		return "", errors.New("missing token")
	}
	id, err := app.resolver.Verify(credentials.WithToken(r.Context(), token), token)
	if err != nil {
		return "", err
	}
	if id.UserID == "" {
		return "", errors.New("token carries no user")
	}
	return id.UserID, nil
}

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Connections int    `json:"toast_connections"`
}

func (app *application) healthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "disabled", Connections: app.toasts.Connections()}
	status := http.StatusOK
	if app.db != nil {
		if err := app.db.PingContext(r.Context()); err != nil {
			app.errorLog.Printf("healthz: %v", err)
			resp.Status, resp.Database = "degraded", "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}
	w.WriteHeader(status)
	_ = gojson.NewEncoder(w).Encode(resp)
}
