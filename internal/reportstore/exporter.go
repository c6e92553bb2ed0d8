package reportstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dvloznov/finance-insights/internal/advisor"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/logger"
)

// Reporter builds the report for one user and period.
type Reporter interface {
	Report(ctx context.Context, userID string, period domain.Period) (*advisor.Report, error)
}

// Exporter processes export jobs.
type Exporter struct {
	reporter Reporter
	store    ObjectStore
}

// NewExporter creates an Exporter writing to store.
func NewExporter(reporter Reporter, store ObjectStore) *Exporter {
	return &Exporter{reporter: reporter, store: store}
}

// Handle implements jobs.JobHandler. On success the job's ReportURI is set.
func (e *Exporter) Handle(ctx context.Context, job jobs.Job) error {
	export, ok := job.(*jobs.ExportReportJob)
	if !ok {
		return fmt.Errorf("unexpected job type: %T", job)
	}

	log := logger.FromContext(ctx).With().
		Str("job_id", export.JobID).
		Str("user_id", export.UserID).
		Logger()

	period := domain.Period{From: export.From, To: export.To}
	report, err := e.reporter.Report(ctx, export.UserID, period)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build report")
		return fmt.Errorf("build report: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	uri, err := e.store.Put(ctx, ObjectName(export.UserID, export.JobID), data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to store report")
		return fmt.Errorf("store report: %w", err)
	}

	export.ReportURI = uri
	log.Info().Str("report_uri", uri).Msg("Report exported")
	return nil
}
