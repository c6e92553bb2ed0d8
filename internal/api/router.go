// Package api wires the HTTP routes of the insights service.
package api

import (
	"net/http"
	"time"

	"github.com/dvloznov/finance-insights/internal/api/handlers"
	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the routes need. Publisher, Jobs and Reports
// may be nil, which disables the report endpoints.
type Deps struct {
	Advisor   handlers.Advisor
	Gateway   handlers.Gateway
	Publisher jobs.Publisher
	Jobs      jobs.JobStore
	Reports   handlers.ReportFetcher
	Auth      func(http.Handler) http.Handler
	Log       zerolog.Logger
}

// NewRouter builds the HTTP handler. Everything under /api requires auth;
// /health does not.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	insightsHandler := handlers.NewInsightsHandler(d.Advisor, d.Log)
	chatHandler := handlers.NewChatHandler(d.Gateway, d.Log)

	r.Route("/api", func(r chi.Router) {
		auth := d.Auth
		if auth == nil {
			auth = middleware.HeaderAuth
		}
		r.Use(auth)

		r.Get("/insights", insightsHandler.GetInsights)
		r.Get("/projection", insightsHandler.GetProjection)
		r.Post("/chat", chatHandler.PostChat)

		if d.Publisher != nil && d.Jobs != nil && d.Reports != nil {
			reportsHandler := handlers.NewReportsHandler(d.Publisher, d.Jobs, d.Reports, d.Log)
			r.Post("/reports", reportsHandler.CreateReport)
			r.Get("/reports", reportsHandler.ListReports)
			r.Get("/reports/{id}", reportsHandler.GetReport)
			r.Get("/reports/{id}/content", reportsHandler.GetReportContent)
		}
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})

	return r
}
