package main

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/getsentry/sentry-go"
	gojson "github.com/goccy/go-json"

	"webomat/internal/apiclient"
	"webomat/internal/credentials"
	"webomat/internal/models"
	"webomat/internal/session"
)

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

func makeResponseJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.infoLog.Printf("%s - %s %s %s", r.RemoteAddr, r.Proto, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// recoverPanic sits outside the sentry handler, which reports and re-panics.
func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, fmt.Errorf("%s", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (app *application) serverError(w http.ResponseWriter, err error) {
	trace := fmt.Sprintf("%s\n%s", err.Error(), debug.Stack())
	app.errorLog.Output(2, trace)
	app.errorJSON(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func (app *application) errorJSON(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = gojson.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// authenticate forwards the caller's token to the backend and stores the
// decoded identity in the context. requiredRole gates admin-only pages.
func (app *application) authenticate(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				app.errorJSON(w, http.StatusUnauthorized, "Authorization header missing or invalid")
				return
			}

			ctx := credentials.WithToken(r.Context(), token)
			id, err := app.resolver.Resolve(ctx, token)
			if err != nil {
				status, detail := authFailure(err)
				if status >= http.StatusInternalServerError {
					app.errorLog.Printf("resolve session: %v", err)
				}
				app.errorJSON(w, status, detail)
				return
			}
			if requiredRole == models.RoleAdmin && !id.IsAdmin() {
				app.errorJSON(w, http.StatusForbidden, "Forbidden: only admins allowed")
				return
			}

			if hub := sentry.GetHubFromContext(ctx); hub != nil {
				hub.Scope().SetUser(sentry.User{ID: id.UserID, Email: id.Email})
			}
			next.ServeHTTP(w, r.WithContext(session.WithIdentity(ctx, id)))
		})
	}
}

func authFailure(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrTokenExpired):
		return http.StatusUnauthorized, "Session expired"
	case apiclient.IsTransport(err):
		return http.StatusBadGateway, "Cannot connect to server"
	case apiclient.StatusCode(err) >= http.StatusInternalServerError:
		return http.StatusBadGateway, "Server error"
	}
	return http.StatusUnauthorized, "Invalid token"
}
