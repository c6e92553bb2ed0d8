package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dvloznov/finance-insights/internal/advisor"
	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/rs/zerolog"
)

// Advisor computes insights and projections for a user and period.
type Advisor interface {
	Insights(ctx context.Context, userID string, period domain.Period) advisor.InsightsResult
	Project(ctx context.Context, userID string, period domain.Period) advisor.ProjectionResult
}

// InsightsHandler handles the insight and projection endpoints.
type InsightsHandler struct {
	advisor Advisor
	log     zerolog.Logger
	now     func() time.Time
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(a Advisor, log zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{
		advisor: a,
		log:     log,
		now:     time.Now,
	}
}

// GetInsights handles GET /api/insights
func (h *InsightsHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(r.URL.Query(), h.now())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := h.advisor.Insights(r.Context(), middleware.GetUserID(r.Context()), period)
	if !res.OK {
		middleware.WriteJSON(w, middleware.StatusFor(res.Err), res)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res)
}

// GetProjection handles GET /api/projection
func (h *InsightsHandler) GetProjection(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(r.URL.Query(), h.now())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := h.advisor.Project(r.Context(), middleware.GetUserID(r.Context()), period)
	if !res.OK {
		middleware.WriteJSON(w, middleware.StatusFor(res.Err), res)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res.Projection)
}
