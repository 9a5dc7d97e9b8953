package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
	"github.com/raysh454/sitelens/internal/tracker"
)

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// For progress
	Stage ScanStage `json:"stage,omitempty"`

	// For results
	ScanID string `json:"scan_id,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

type Job struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"` // "scan"
	URL       string         `json:"url"`
	Mode      model.ScanMode `json:"mode"`
	Status    JobStatus      `json:"status"`
	Stage     ScanStage      `json:"stage"`
	Error     string         `json:"error,omitempty"`
	// ErrorStatus is the HTTP status of a failed scan.
	ErrorStatus int           `json:"error_status,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	EndedAt     time.Time     `json:"ended_at"`
	Events      chan JobEvent `json:"-"`

	Result *model.ScanResult `json:"result,omitempty"`
}

// Orchestrator runs scans synchronously or as background jobs and records
// every completed scan in the tracker.
type Orchestrator struct {
	cfg     *Config
	scanner *Scanner
	tracker tracker.Tracker
	logger  logging.Logger

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
	closed     bool
}

// NewOrchestrator ties together config, scanner, tracker and logger. tr may
// be nil, in which case results are not persisted.
func NewOrchestrator(cfg *Config, scanner *Scanner, tr tracker.Tracker, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Orchestrator{
		cfg:        cfg,
		scanner:    scanner,
		tracker:    tr,
		logger:     logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
		jobs:       make(map[string]*Job),
		jobCancels: make(map[string]context.CancelFunc),
	}
}

// Scan runs one scan to completion and stores the result.
func (o *Orchestrator) Scan(ctx context.Context, req model.ScanRequest) (*model.ScanResult, error) {
	return o.scan(ctx, req, nil)
}

func (o *Orchestrator) scan(ctx context.Context, req model.ScanRequest, progress ProgressFunc) (*model.ScanResult, error) {
	result, err := o.scanner.Scan(ctx, req, progress)
	if err != nil {
		return nil, err
	}
	if o.tracker != nil {
		if _, err := o.tracker.Save(ctx, result); err != nil {
			// The scan itself succeeded; history is best effort.
			o.logger.Warn("Failed to save scan",
				logging.Field{Key: "url", Value: result.URL},
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
	return result, nil
}

// ─── Jobs ───

func (o *Orchestrator) emitJobEvent(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) updateJob(jobID string, fn func(j *Job)) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if j, ok := o.jobs[jobID]; ok {
		fn(j)
	}
}

func (o *Orchestrator) setStatus(jobID string, status JobStatus, errMsg string) {
	o.updateJob(jobID, func(j *Job) {
		j.Status = status
		j.Error = errMsg
	})
	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: status, Error: errMsg})
}

// StartScanJob runs req in the background. ctx bounds the job; pass a
// long-lived context, not a request-scoped one.
func (o *Orchestrator) StartScanJob(ctx context.Context, req model.ScanRequest) (*Job, error) {
	o.pruneJobs()

	jobID := uuid.New().String()
	mode := req.Mode
	if mode == "" {
		mode = model.ModeBasic
	}
	job := &Job{
		ID:        jobID,
		Type:      "scan",
		URL:       req.URL,
		Mode:      mode,
		Status:    JobPending,
		Stage:     StagePending,
		StartedAt: time.Now().UTC(),
		Events:    make(chan JobEvent, 32),
	}

	jobCtx, cancel := context.WithCancel(ctx)

	o.jobsMu.Lock()
	if o.closed {
		o.jobsMu.Unlock()
		cancel()
		return nil, errors.New("orchestrator closed")
	}
	o.jobs[jobID] = job
	o.jobCancels[jobID] = cancel
	o.jobsMu.Unlock()

	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobPending})

	go func() {
		defer func() {
			cancel()
			o.jobsMu.Lock()
			delete(o.jobCancels, jobID)
			j := o.jobs[jobID]
			if j != nil {
				j.EndedAt = time.Now().UTC()
			}
			o.jobsMu.Unlock()

			// Close events channel so websocket loop can terminate cleanly
			if j != nil && j.Events != nil {
				close(j.Events)
			}
		}()

		o.setStatus(jobID, JobRunning, "")

		progress := func(st ScanStage) {
			o.updateJob(jobID, func(j *Job) { j.Stage = st })
			o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventProgress, Stage: st})
		}

		result, err := o.scan(jobCtx, req, progress)
		if err != nil {
			if errors.Is(jobCtx.Err(), context.Canceled) {
				o.setStatus(jobID, JobCanceled, context.Canceled.Error())
				return
			}
			var se *ScanError
			if errors.As(err, &se) {
				o.updateJob(jobID, func(j *Job) { j.ErrorStatus = se.Status })
				o.setStatus(jobID, JobFailed, se.Message)
				return
			}
			o.setStatus(jobID, JobFailed, err.Error())
			return
		}

		o.updateJob(jobID, func(j *Job) { j.Result = result })
		o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventResult, ScanID: result.ID})
		o.setStatus(jobID, JobDone, "")
	}()

	return o.GetJob(jobID), nil
}

// CancelJob stops a running job. Unknown or finished jobs are ignored.
func (o *Orchestrator) CancelJob(jobID string) {
	o.jobsMu.Lock()
	cancel := o.jobCancels[jobID]
	o.jobsMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// GetJob returns a snapshot of the job, or nil if unknown. The Events
// channel is shared with the live job.
func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	j, ok := o.jobs[jobID]
	if !ok {
		return nil
	}
	cp := *j
	return &cp
}

// ListJobs returns snapshots of all retained jobs, newest first.
func (o *Orchestrator) ListJobs() []*Job {
	o.pruneJobs()

	o.jobsMu.Lock()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		cp := *j
		cp.Result = nil
		out = append(out, &cp)
	}
	o.jobsMu.Unlock()

	sort.Slice(out, func(i, k int) bool { return out[i].StartedAt.After(out[k].StartedAt) })
	return out
}

// pruneJobs forgets finished jobs older than the retention window.
func (o *Orchestrator) pruneJobs() {
	retention := o.cfg.Server.JobRetention
	if retention <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-retention)

	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	for id, j := range o.jobs {
		if !j.EndedAt.IsZero() && j.EndedAt.Before(cutoff) {
			delete(o.jobs, id)
		}
	}
}

// Close cancels every running job. Further StartScanJob calls fail.
func (o *Orchestrator) Close() {
	o.jobsMu.Lock()
	o.closed = true
	cancels := make([]context.CancelFunc, 0, len(o.jobCancels))
	for _, c := range o.jobCancels {
		cancels = append(cancels, c)
	}
	o.jobsMu.Unlock()

	for _, c := range cancels {
		c()
	}
}

// ─── History ───

var errNoHistory = errors.New("scan history is disabled")

func (o *Orchestrator) ListScans(ctx context.Context, opts tracker.ListOptions) ([]tracker.ScanSummary, error) {
	if o.tracker == nil {
		return nil, errNoHistory
	}
	return o.tracker.List(ctx, opts)
}

func (o *Orchestrator) GetScan(ctx context.Context, id string) (*model.ScanResult, error) {
	if o.tracker == nil {
		return nil, errNoHistory
	}
	return o.tracker.Get(ctx, id)
}

func (o *Orchestrator) DiffScans(ctx context.Context, baseID, headID string) (*tracker.ScanDiff, error) {
	if o.tracker == nil {
		return nil, errNoHistory
	}
	return o.tracker.Diff(ctx, baseID, headID)
}
