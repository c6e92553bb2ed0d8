package inmemory

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/jobs"
)

func TestStore_UserScoped(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if err := s.SaveJob(ctx, &jobs.ExportReportJob{JobID: "j1", UserID: "alice"}); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}
	if err := s.SaveJob(ctx, &jobs.ExportReportJob{JobID: "j2"}); !errors.Is(err, domain.ErrAuthorization) {
		t.Errorf("SaveJob() without owner error = %v", err)
	}

	if _, err := s.GetJob(ctx, "alice", "j1"); err != nil {
		t.Errorf("GetJob(owner) error = %v", err)
	}
	if _, err := s.GetJob(ctx, "bob", "j1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetJob(other user) error = %v, want not found", err)
	}
	if _, err := s.GetJob(ctx, "alice", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetJob(missing) error = %v, want not found", err)
	}
	if _, err := s.GetJob(ctx, "", "j1"); !errors.Is(err, domain.ErrAuthorization) {
		t.Errorf("GetJob(no user) error = %v, want authorization", err)
	}
}

func TestStore_ListJobs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		_ = s.SaveJob(ctx, &jobs.ExportReportJob{
			JobID:     id,
			UserID:    "alice",
			Status:    jobs.JobStatusCompleted,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	_ = s.SaveJob(ctx, &jobs.ExportReportJob{JobID: "z", UserID: "bob", CreatedAt: base})

	got, err := s.ListJobs(ctx, jobs.JobFilter{UserID: "alice"})
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(got) != 3 || got[0].JobID != "c" || got[2].JobID != "a" {
		t.Errorf("ListJobs() order wrong: %v", jobIDs(got))
	}

	got, _ = s.ListJobs(ctx, jobs.JobFilter{UserID: "alice", Limit: 1, Offset: 1})
	if len(got) != 1 || got[0].JobID != "b" {
		t.Errorf("ListJobs(page) = %v", jobIDs(got))
	}

	got, _ = s.ListJobs(ctx, jobs.JobFilter{UserID: "alice", Status: jobs.JobStatusFailed})
	if len(got) != 0 {
		t.Errorf("ListJobs(status) = %v", jobIDs(got))
	}

	if _, err := s.ListJobs(ctx, jobs.JobFilter{}); !errors.Is(err, domain.ErrAuthorization) {
		t.Errorf("ListJobs(no user) error = %v", err)
	}
}

func jobIDs(in []*jobs.ExportReportJob) []string {
	out := make([]string, len(in))
	for i, j := range in {
		out[i] = j.JobID
	}
	return out
}

func waitForStatus(t *testing.T, s *Store, userID, jobID string, want jobs.JobStatus) *jobs.ExportReportJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := s.GetJob(context.Background(), userID, jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", jobID, want)
	return nil
}

func TestQueue_ProcessesJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore()
	q := NewQueue(10, store)

	handled := make(chan string, 1)
	if err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		export := job.(*jobs.ExportReportJob)
		export.ReportURI = "gs://bucket/reports/alice/" + export.JobID + ".json"
		handled <- export.JobID
		return nil
	}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	job := &jobs.ExportReportJob{UserID: "alice"}
	if err := q.PublishExportReport(ctx, job); err != nil {
		t.Fatalf("PublishExportReport() error = %v", err)
	}
	if job.JobID == "" || job.Status != jobs.JobStatusPending || job.CreatedAt.IsZero() {
		t.Errorf("publish did not initialize job: %+v", job)
	}

	select {
	case id := <-handled:
		if id != job.JobID {
			t.Errorf("handled %s, want %s", id, job.JobID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	done := waitForStatus(t, store, "alice", job.JobID, jobs.JobStatusCompleted)
	if done.ReportURI == "" || done.CompletedAt == nil {
		t.Errorf("completed job = %+v", done)
	}

	if err := q.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := q.PublishExportReport(ctx, &jobs.ExportReportJob{UserID: "alice"}); err == nil {
		t.Error("PublishExportReport() after Stop should fail")
	}
}

func TestQueue_RetriesThenFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore()
	q := NewQueue(10, store)
	q.backoff = time.Millisecond

	var attempts int32
	_ = q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("bucket unavailable")
	})

	job := &jobs.ExportReportJob{UserID: "alice", MaxRetries: 2}
	if err := q.PublishExportReport(ctx, job); err != nil {
		t.Fatalf("PublishExportReport() error = %v", err)
	}

	failed := waitForStatus(t, store, "alice", job.JobID, jobs.JobStatusFailed)
	if failed.RetryCount != 2 || failed.Error != "bucket unavailable" {
		t.Errorf("failed job = %+v", failed)
	}
	if n := atomic.LoadInt32(&attempts); n != 3 {
		t.Errorf("handler ran %d times, want 3", n)
	}
	_ = q.Close()
}

func TestQueue_RequeueAfterStopFailsJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore()
	q := NewQueue(10, store)
	q.backoff = 50 * time.Millisecond

	attempted := make(chan struct{}, 1)
	_ = q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		attempted <- struct{}{}
		return errors.New("bucket unavailable")
	})

	job := &jobs.ExportReportJob{UserID: "alice", MaxRetries: 3}
	if err := q.PublishExportReport(ctx, job); err != nil {
		t.Fatalf("PublishExportReport() error = %v", err)
	}

	select {
	case <-attempted:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
	if err := q.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	failed := waitForStatus(t, store, "alice", job.JobID, jobs.JobStatusFailed)
	if !strings.HasPrefix(failed.Error, "requeue:") || failed.RetryCount != 1 {
		t.Errorf("failed job = %+v", failed)
	}
}

func TestQueue_StopDrainsInFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore()
	q := NewQueue(10, store)

	started := make(chan struct{})
	release := make(chan struct{})
	_ = q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		close(started)
		<-release
		return ctx.Err()
	})

	job := &jobs.ExportReportJob{UserID: "alice"}
	if err := q.PublishExportReport(ctx, job); err != nil {
		t.Fatalf("PublishExportReport() error = %v", err)
	}
	<-started

	stopped := make(chan error, 1)
	go func() { stopped <- q.Stop(context.Background()) }()

	select {
	case <-stopped:
		t.Fatal("Stop() returned before the running job finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	if err := <-stopped; err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	waitForStatus(t, store, "alice", job.JobID, jobs.JobStatusCompleted)
}
