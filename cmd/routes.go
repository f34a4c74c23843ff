package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"webomat/internal/models"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.sentry.Handle, app.logRequest, secureHeaders)
	jsonMiddleware := standardMiddleware.Append(makeResponseJSON)
	authMiddleware := jsonMiddleware.Append(app.authenticate(""))
	adminAuthMiddleware := jsonMiddleware.Append(app.authenticate(models.RoleAdmin))
	wsMiddleware := alice.New(app.recoverPanic, app.logRequest)

	mux := pat.New()

	mux.Get("/healthz", jsonMiddleware.ThenFunc(app.healthz))

	// Auth
	mux.Post("/api/auth/login", jsonMiddleware.ThenFunc(app.authHandler.Login))
	mux.Post("/api/auth/logout", authMiddleware.ThenFunc(app.authHandler.Logout))
	mux.Get("/api/auth/me", authMiddleware.ThenFunc(app.authHandler.Me))

	// Invoices
	mux.Get("/api/invoices", authMiddleware.ThenFunc(app.invoiceHandler.List))
	mux.Get("/api/invoices/:id", authMiddleware.ThenFunc(app.invoiceHandler.Get))
	mux.Post("/api/invoices/:id/actions/:action", authMiddleware.ThenFunc(app.invoiceHandler.Transition))
	mux.Post("/api/invoices/:id/pdf", authMiddleware.ThenFunc(app.invoiceHandler.GeneratePDF))

	// CRM
	mux.Get("/api/businesses/:id", authMiddleware.ThenFunc(app.businessHandler.Get))
	mux.Post("/api/businesses/:id/projects", authMiddleware.ThenFunc(app.businessHandler.CreateProject))
	mux.Put("/api/businesses/:id/projects/:project", authMiddleware.ThenFunc(app.businessHandler.UpdateProject))
	mux.Post("/api/businesses/:id/activities", authMiddleware.ThenFunc(app.businessHandler.AddActivity))

	// Feedback
	mux.Post("/api/feedback", authMiddleware.ThenFunc(app.feedbackHandler.Submit))
	mux.Get("/api/admin/feedback", adminAuthMiddleware.ThenFunc(app.feedbackHandler.List))
	mux.Put("/api/admin/feedback/:id", adminAuthMiddleware.ThenFunc(app.feedbackHandler.Update))

	// Websites
	mux.Get("/api/website/projects", authMiddleware.ThenFunc(app.websiteHandler.List))
	mux.Get("/api/website/projects/:id", authMiddleware.ThenFunc(app.websiteHandler.Get))
	mux.Post("/api/website/generate", authMiddleware.ThenFunc(app.websiteHandler.Generate))

	// Public preview
	mux.Get("/preview/:token", jsonMiddleware.ThenFunc(app.previewHandler.Info))
	mux.Get("/preview/:token/html", standardMiddleware.ThenFunc(app.previewHandler.HTML))
	mux.Get("/preview/:token/comments", jsonMiddleware.ThenFunc(app.previewHandler.Comments))
	mux.Post("/preview/:token/comments", jsonMiddleware.ThenFunc(app.previewHandler.AddComment))

	// Toasts
	mux.Get("/ws/toasts", wsMiddleware.ThenFunc(app.toasts.ServeWS))

	return mux
}
