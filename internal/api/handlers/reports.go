package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ReportFetcher reads a stored report back.
type ReportFetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// ReportsHandler handles report export endpoints.
type ReportsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	reports   ReportFetcher
	log       zerolog.Logger
	now       func() time.Time
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(publisher jobs.Publisher, store jobs.JobStore, reports ReportFetcher, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{
		publisher: publisher,
		store:     store,
		reports:   reports,
		log:       log,
		now:       time.Now,
	}
}

// CreateReport handles POST /api/reports
func (h *ReportsHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	period, err := ParsePeriod(r.URL.Query(), h.now())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := &jobs.ExportReportJob{
		UserID: userID,
		From:   period.From,
		To:     period.To,
	}
	if err := h.publisher.PublishExportReport(ctx, job); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to enqueue report export")
		middleware.WriteError(w, middleware.StatusFor(err), "Failed to enqueue report export")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, job)
}

// ListReports handles GET /api/reports
func (h *ReportsHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: middleware.GetUserID(ctx),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	list, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list report jobs")
		middleware.WriteError(w, middleware.StatusFor(err), "Failed to list reports")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reports": list,
		"count":   len(list),
	})
}

// GetReport handles GET /api/reports/{id}
func (h *ReportsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookup(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// GetReportContent handles GET /api/reports/{id}/content
func (h *ReportsHandler) GetReportContent(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if job.Status != jobs.JobStatusCompleted || job.ReportURI == "" {
		middleware.WriteError(w, http.StatusConflict, "Report is not ready")
		return
	}

	data, err := h.reports.Fetch(r.Context(), job.ReportURI)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to fetch report")
		middleware.WriteError(w, middleware.StatusFor(err), "Failed to fetch report")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, json.RawMessage(data))
}

func (h *ReportsHandler) lookup(w http.ResponseWriter, r *http.Request) (*jobs.ExportReportJob, bool) {
	jobID := chi.URLParam(r, "id")
	if jobID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Report ID is required")
		return nil, false
	}

	job, err := h.store.GetJob(r.Context(), middleware.GetUserID(r.Context()), jobID)
	if err != nil {
		status := middleware.StatusFor(err)
		if status == http.StatusNotFound {
			middleware.WriteError(w, status, "Report not found")
		} else {
			middleware.WriteError(w, status, err.Error())
		}
		return nil, false
	}
	return job, true
}
