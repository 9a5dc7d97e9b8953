package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
	"github.com/raysh454/sitelens/internal/testutil"
	"github.com/raysh454/sitelens/internal/tracker"
)

// newTestOrchestrator wires an Orchestrator over dummy components and an
// in-memory tracker.
func newTestOrchestrator(t *testing.T, comps *Components) (*Orchestrator, tracker.Tracker) {
	t.Helper()

	cfg := testConfig()
	cfg.Server.JobRetention = 5 * time.Second

	logger := &testutil.DummyLogger{}
	tr, err := tracker.NewInMemoryTracker(&cfg.Storage, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	s, err := NewScanner(cfg, comps, logger)
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}

	orch := NewOrchestrator(cfg, s, tr, logger)
	t.Cleanup(func() { orch.Close() })
	return orch, tr
}

// waitForJob polls until the job leaves pending/running or the deadline passes.
func waitForJob(t *testing.T, o *Orchestrator, jobID string) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j := o.GetJob(jobID)
		if j != nil && !j.EndedAt.IsZero() {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish in time", jobID)
	return nil
}

func drainEvents(ch <-chan JobEvent) []JobEvent {
	var out []JobEvent
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

// ─── Synchronous scans ─────────────────────────────────────────────────

func TestOrchestrator_ScanPersists(t *testing.T) {
	t.Parallel()
	o, tr := newTestOrchestrator(t, shopComponents(shopClient()))
	ctx := context.Background()

	res, err := o.Scan(ctx, model.ScanRequest{URL: "http://shop.test/"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.ID == "" {
		t.Fatal("result was not assigned an ID")
	}
	stored, err := tr.Get(ctx, res.ID)
	if err != nil {
		t.Fatalf("tracker Get: %v", err)
	}
	if stored.URL != "http://shop.test/" {
		t.Errorf("stored URL = %q", stored.URL)
	}

	list, err := o.ListScans(ctx, tracker.ListOptions{Site: "shop.test"})
	if err != nil || len(list) != 1 || list[0].Title != "Test Shop" {
		t.Errorf("ListScans = %+v, %v", list, err)
	}
}

func TestOrchestrator_FailedScanIsNotPersisted(t *testing.T) {
	t.Parallel()
	wc := &testutil.DummyWebClient{Pages: map[string]testutil.DummyPage{"http://gone.test/": {Status: 404}}}
	o, _ := newTestOrchestrator(t, &Components{WebClient: wc})
	ctx := context.Background()

	if _, err := o.Scan(ctx, model.ScanRequest{URL: "http://gone.test/"}); err == nil {
		t.Fatal("expected error")
	}
	list, _ := o.ListScans(ctx, tracker.ListOptions{})
	if len(list) != 0 {
		t.Errorf("failed scan was stored: %+v", list)
	}
}

func TestOrchestrator_DiffScans(t *testing.T) {
	t.Parallel()
	wc := shopClient()
	o, _ := newTestOrchestrator(t, shopComponents(wc))
	ctx := context.Background()

	first, err := o.Scan(ctx, model.ScanRequest{URL: "http://shop.test/", SkipWhois: true})
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	second, err := o.Scan(ctx, model.ScanRequest{URL: "http://shop.test/"})
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}

	d, err := o.DiffScans(ctx, first.ID, second.ID)
	if err != nil {
		t.Fatalf("DiffScans: %v", err)
	}
	if !containsString(d.ChangedCategories, "whoisData") {
		t.Errorf("ChangedCategories = %v, want whoisData", d.ChangedCategories)
	}
}

func TestOrchestrator_NoTracker(t *testing.T) {
	t.Parallel()
	s, err := NewScanner(testConfig(), shopComponents(shopClient()), &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	o := NewOrchestrator(nil, s, nil, &testutil.DummyLogger{})
	if _, err := o.Scan(context.Background(), model.ScanRequest{URL: "http://shop.test/"}); err != nil {
		t.Fatalf("Scan without tracker: %v", err)
	}
	if _, err := o.ListScans(context.Background(), tracker.ListOptions{}); err == nil {
		t.Error("expected error when history is disabled")
	}
}

// ─── Jobs ──────────────────────────────────────────────────────────────

func TestOrchestrator_ScanJobLifecycle(t *testing.T) {
	t.Parallel()
	o, _ := newTestOrchestrator(t, shopComponents(shopClient()))

	job, err := o.StartScanJob(context.Background(), model.ScanRequest{URL: "http://shop.test/"})
	if err != nil {
		t.Fatalf("StartScanJob: %v", err)
	}
	if job.ID == "" || job.Type != "scan" || job.Mode != model.ModeBasic {
		t.Fatalf("job = %+v", job)
	}

	events := drainEvents(job.Events)
	done := waitForJob(t, o, job.ID)
	if done.Status != JobDone || done.Stage != StageComplete {
		t.Fatalf("job finished as %s/%s: %s", done.Status, done.Stage, done.Error)
	}
	if done.Result == nil || done.Result.ID == "" {
		t.Fatal("job result missing or unsaved")
	}

	var sawProgress, sawResult bool
	for _, ev := range events {
		sawProgress = sawProgress || (ev.Type == JobEventProgress && ev.Stage == StageAnalyzing)
		sawResult = sawResult || (ev.Type == JobEventResult && ev.ScanID == done.Result.ID)
	}
	if !sawProgress || !sawResult {
		t.Errorf("events = %+v", events)
	}
	last := events[len(events)-1]
	if last.Type != JobEventStatus || last.Status != JobDone {
		t.Errorf("last event = %+v", last)
	}

	jobs := o.ListJobs()
	if len(jobs) != 1 || jobs[0].Result != nil {
		t.Errorf("ListJobs = %+v", jobs)
	}
}

func TestOrchestrator_ScanJobFailure(t *testing.T) {
	t.Parallel()
	wc := &testutil.DummyWebClient{Pages: map[string]testutil.DummyPage{"http://blocked.test/": {Status: 403}}}
	o, _ := newTestOrchestrator(t, &Components{WebClient: wc})

	job, err := o.StartScanJob(context.Background(), model.ScanRequest{URL: "http://blocked.test/"})
	if err != nil {
		t.Fatalf("StartScanJob: %v", err)
	}
	drainEvents(job.Events)
	done := waitForJob(t, o, job.ID)
	if done.Status != JobFailed || done.ErrorStatus != 403 {
		t.Fatalf("job = %+v", done)
	}
	if done.Error == "" || done.Result != nil {
		t.Errorf("failed job should carry a message and no result: %+v", done)
	}
}

func TestOrchestrator_CancelJob(t *testing.T) {
	t.Parallel()
	wc := &testutil.DummyWebClient{ResponseDelay: 5 * time.Second}
	o, _ := newTestOrchestrator(t, &Components{WebClient: wc})

	job, err := o.StartScanJob(context.Background(), model.ScanRequest{URL: "http://slow.test/"})
	if err != nil {
		t.Fatalf("StartScanJob: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	o.CancelJob(job.ID)

	drainEvents(job.Events)
	done := waitForJob(t, o, job.ID)
	if done.Status != JobCanceled {
		t.Fatalf("status = %s (%s)", done.Status, done.Error)
	}
}

func TestOrchestrator_UnknownJob(t *testing.T) {
	t.Parallel()
	o, _ := newTestOrchestrator(t, shopComponents(shopClient()))
	if o.GetJob("missing") != nil {
		t.Error("expected nil for unknown job")
	}
	o.CancelJob("missing")
}

func TestOrchestrator_PrunesFinishedJobs(t *testing.T) {
	t.Parallel()
	o, _ := newTestOrchestrator(t, shopComponents(shopClient()))
	o.cfg.Server.JobRetention = time.Millisecond

	job, err := o.StartScanJob(context.Background(), model.ScanRequest{URL: "http://shop.test/"})
	if err != nil {
		t.Fatalf("StartScanJob: %v", err)
	}
	drainEvents(job.Events)
	waitForJob(t, o, job.ID)
	time.Sleep(5 * time.Millisecond)

	if jobs := o.ListJobs(); len(jobs) != 0 {
		t.Errorf("finished job was retained: %+v", jobs)
	}
}

func TestOrchestrator_CloseRejectsNewJobs(t *testing.T) {
	t.Parallel()
	o, _ := newTestOrchestrator(t, shopComponents(shopClient()))
	o.Close()
	_, err := o.StartScanJob(context.Background(), model.ScanRequest{URL: "http://shop.test/"})
	if err == nil {
		t.Fatal("expected error after Close")
	}
	if errors.Is(err, context.Canceled) {
		t.Errorf("unexpected cancellation error: %v", err)
	}
}
