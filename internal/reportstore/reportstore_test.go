package reportstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/finance-insights/internal/advisor"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReporter struct {
	report *advisor.Report
	err    error
	got    domain.Period
}

func (s *stubReporter) Report(_ context.Context, userID string, period domain.Period) (*advisor.Report, error) {
	s.got = period
	if s.err != nil {
		return nil, s.err
	}
	r := *s.report
	r.UserID = userID
	return &r, nil
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "reports/alice/j1.json", ObjectName("alice", "j1"))
	assert.Equal(t, "reports/..%2Fbob/j1.json", ObjectName("../bob", "j1"))
}

func TestParseURI(t *testing.T) {
	bucket, object, err := ParseURI("gs://my-bucket/reports/alice/j1.json")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "reports/alice/j1.json", object)

	for _, bad := range []string{"s3://b/x", "gs://bucket", "gs:///x", "gs://bucket/"} {
		_, _, err := ParseURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestExporter_Handle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("reports-bucket")
	reporter := &stubReporter{report: &advisor.Report{
		Insights: []domain.Insight{{ID: "on-track", Severity: domain.SeverityLow}},
	}}

	job := &jobs.ExportReportJob{
		JobID:  "j1",
		UserID: "alice",
		From:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2026, 10, 31, 23, 59, 59, 0, time.UTC),
	}

	require.NoError(t, NewExporter(reporter, store).Handle(ctx, job))
	assert.Equal(t, "gs://reports-bucket/reports/alice/j1.json", job.ReportURI)
	assert.True(t, reporter.got.From.Equal(job.From))

	data, err := store.Fetch(ctx, job.ReportURI)
	require.NoError(t, err)

	var got advisor.Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "alice", got.UserID)
	require.Len(t, got.Insights, 1)
	assert.Equal(t, "on-track", got.Insights[0].ID)
}

func TestExporter_Errors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("b")

	err := NewExporter(&stubReporter{err: errors.New("db down")}, store).Handle(ctx, &jobs.ExportReportJob{JobID: "j", UserID: "u"})
	assert.Error(t, err)

	_, err = store.Fetch(ctx, "gs://b/reports/u/j.json")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = store.Fetch(ctx, "gs://other/reports/u/j.json")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
