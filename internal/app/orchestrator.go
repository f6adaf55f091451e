package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/scan"
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
	Processed int     `json:"processed,omitempty"`
	Total     int     `json:"total,omitempty"`
	URL       string  `json:"url,omitempty"`
	Score     float64 `json:"score,omitempty"`

	// For results
	Message       string `json:"message,omitempty"`
	ScanRequestID string `json:"scan_request_id,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

const (
	JobTypeCreate = "create"
	JobTypeRun    = "run"
)

type Job struct {
	ID            string        `json:"id"`
	Type          string        `json:"type"` // "create" | "run"
	ScanRequestID string        `json:"scan_request_id,omitempty"`
	Status        JobStatus     `json:"status"`
	Error         string        `json:"error,omitempty"`
	Message       string        `json:"message,omitempty"`
	Processed     int           `json:"processed"`
	Total         int           `json:"total"`
	StartedAt     time.Time     `json:"started_at"`
	EndedAt       time.Time     `json:"ended_at"`
	Events        chan JobEvent `json:"-"`
}

// ErrOrchestratorClosed is returned when a job is started after Close.
var ErrOrchestratorClosed = errors.New("orchestrator is closed")

// ScanRunner is the part of scan.Runner the orchestrator drives.
type ScanRunner interface {
	CreateScan(ctx context.Context, in scan.CreateScanInput) (string, error)
	RunScan(ctx context.Context, id string, opts scan.RunOptions) (string, error)
}

// Orchestrator runs scan work as background jobs whose progress can be
// followed over the Events channel.
type Orchestrator struct {
	cfg    *Config
	runner ScanRunner
	logger logging.Logger

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
	closed     bool
	wg         sync.WaitGroup
}

func NewOrchestrator(cfg *Config, runner ScanRunner, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Orchestrator{
		cfg:    cfg,
		runner: runner,
		logger: logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
	}
}

func (o *Orchestrator) ensureJobMaps() {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if o.jobs == nil {
		o.jobs = make(map[string]*Job)
	}
	if o.jobCancels == nil {
		o.jobCancels = make(map[string]context.CancelFunc)
	}
}

func (o *Orchestrator) newJob(jobType, scanRequestID string) *Job {
	return &Job{
		ID:            uuid.New().String(),
		Type:          jobType,
		ScanRequestID: scanRequestID,
		Status:        JobPending,
		StartedAt:     time.Now().UTC(),
		Events:        make(chan JobEvent, 16),
	}
}

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

func (o *Orchestrator) setJob(job *Job) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if o.jobs == nil {
		o.jobs = make(map[string]*Job)
	}
	o.jobs[job.ID] = job
}

func (o *Orchestrator) updateJob(jobID string, fn func(j *Job)) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if j, ok := o.jobs[jobID]; ok {
		fn(j)
	}
}

func (o *Orchestrator) setCancel(jobID string, cancel context.CancelFunc) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if o.jobCancels == nil {
		o.jobCancels = make(map[string]context.CancelFunc)
	}
	o.jobCancels[jobID] = cancel
}

func (o *Orchestrator) deleteCancel(jobID string) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	delete(o.jobCancels, jobID)
}

func (o *Orchestrator) getCancel(jobID string) context.CancelFunc {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	return o.jobCancels[jobID]
}

// progressCallback turns runner progress into job state and events.
func (o *Orchestrator) progressCallback(jobID string) func(scan.Progress) {
	return func(p scan.Progress) {
		o.updateJob(jobID, func(j *Job) {
			j.Processed = p.Processed
			j.Total = p.Total
		})
		o.emitJobEvent(jobID, JobEvent{
			JobID:     jobID,
			Type:      JobEventProgress,
			Processed: p.Processed,
			Total:     p.Total,
			URL:       p.URL,
			Score:     p.Score,
		})
	}
}

type jobFunc func(ctx context.Context, jobID string) (message, scanRequestID string, err error)

// startJob registers job and runs fn in the background. The job's Events
// channel is closed once fn returns.
func (o *Orchestrator) startJob(ctx context.Context, job *Job, fn jobFunc) (*Job, error) {
	o.ensureJobMaps()

	o.jobsMu.Lock()
	if o.closed {
		o.jobsMu.Unlock()
		return nil, ErrOrchestratorClosed
	}
	o.wg.Add(1)
	o.jobsMu.Unlock()

	o.setJob(job)
	jobID := job.ID
	snapshot := *job

	jobCtx, cancel := context.WithCancel(ctx)
	o.setCancel(jobID, cancel)

	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobPending})

	go func() {
		defer o.wg.Done()
		defer func() {
			cancel()
			o.updateJob(jobID, func(j *Job) { j.EndedAt = time.Now().UTC() })
			o.deleteCancel(jobID)

			// Close events channel so websocket loop can terminate cleanly
			if job.Events != nil {
				close(job.Events)
			}
			o.scheduleEviction(jobID)
		}()

		o.updateJob(jobID, func(j *Job) { j.Status = JobRunning })
		o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobRunning})

		msg, reqID, err := fn(jobCtx, jobID)
		switch {
		case jobCtx.Err() != nil:
			cause := jobCtx.Err().Error()
			o.updateJob(jobID, func(j *Job) {
				j.Status = JobCanceled
				j.Error = cause
			})
			o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobCanceled, Error: cause})
		case err != nil:
			o.logger.Warn("job failed",
				logging.Field{Key: "job_id", Value: jobID},
				logging.Field{Key: "type", Value: job.Type},
				logging.Field{Key: "error", Value: err})
			o.updateJob(jobID, func(j *Job) {
				j.Status = JobFailed
				j.Error = err.Error()
			})
			o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobFailed, Error: err.Error()})
		default:
			o.updateJob(jobID, func(j *Job) {
				j.Status = JobDone
				j.Message = msg
				j.ScanRequestID = reqID
			})
			o.emitJobEvent(jobID, JobEvent{
				JobID:         jobID,
				Type:          JobEventResult,
				Status:        JobDone,
				Message:       msg,
				ScanRequestID: reqID,
			})
		}
	}()

	return &snapshot, nil
}

func (o *Orchestrator) scheduleEviction(jobID string) {
	if o.cfg.JobRetentionTime <= 0 {
		return
	}
	time.AfterFunc(o.cfg.JobRetentionTime, func() {
		o.jobsMu.Lock()
		defer o.jobsMu.Unlock()
		delete(o.jobs, jobID)
	})
}

// StartRunJob runs scan request id in the background.
func (o *Orchestrator) StartRunJob(ctx context.Context, id string, opts scan.RunOptions) (*Job, error) {
	if o.runner == nil {
		return nil, errors.New("orchestrator has no scan runner")
	}
	job := o.newJob(JobTypeRun, id)
	return o.startJob(ctx, job, func(ctx context.Context, jobID string) (string, string, error) {
		user := opts.Progress
		progress := o.progressCallback(jobID)
		opts.Progress = func(p scan.Progress) {
			progress(p)
			if user != nil {
				user(p)
			}
		}
		msg, err := o.runner.RunScan(ctx, id, opts)
		return msg, id, err
	})
}

// StartCreateJob crawls and registers a new scan request in the background.
// The result event carries the new request id.
func (o *Orchestrator) StartCreateJob(ctx context.Context, in scan.CreateScanInput) (*Job, error) {
	if o.runner == nil {
		return nil, errors.New("orchestrator has no scan runner")
	}
	job := o.newJob(JobTypeCreate, "")
	return o.startJob(ctx, job, func(ctx context.Context, _ string) (string, string, error) {
		id, err := o.runner.CreateScan(ctx, in)
		if err != nil {
			return "", "", err
		}
		return "scan request " + id + " created", id, nil
	})
}

func (o *Orchestrator) CancelJob(jobID string) {
	cancel := o.getCancel(jobID)
	if cancel != nil {
		cancel()
	}
}

// GetJob returns a snapshot of the job, or nil when unknown.
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

// ListJobs returns snapshots of the retained jobs, oldest first.
func (o *Orchestrator) ListJobs() []Job {
	o.jobsMu.Lock()
	out := make([]Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, *j)
	}
	o.jobsMu.Unlock()
	sort.Slice(out, func(i, k int) bool { return out[i].StartedAt.Before(out[k].StartedAt) })
	return out
}

// Close cancels running jobs and waits for them to stop. New jobs are
// rejected afterwards.
func (o *Orchestrator) Close() {
	o.jobsMu.Lock()
	if o.closed {
		o.jobsMu.Unlock()
		return
	}
	o.closed = true
	cancels := make([]context.CancelFunc, 0, len(o.jobCancels))
	for _, c := range o.jobCancels {
		cancels = append(cancels, c)
	}
	o.jobsMu.Unlock()

	for _, c := range cancels {
		c()
	}
	o.wg.Wait()
}
