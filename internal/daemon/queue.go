package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/relbuilder/internal/logfields"
	"git.home.luguber.info/inful/relbuilder/internal/metrics"
	"git.home.luguber.info/inful/relbuilder/internal/pipeline"
)

// JobStatus represents the current status of a queued run.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job represents a single pipeline run in the queue.
type Job struct {
	ID          string           `json:"id"`
	Pipeline    string           `json:"pipeline"`
	Trigger     string           `json:"trigger"`
	Status      JobStatus        `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Duration    time.Duration    `json:"duration,omitempty"`
	Error       string           `json:"error,omitempty"`
	Report      *pipeline.Report `json:"report,omitempty"`

	cancel context.CancelFunc
}

// RunExecutor executes one pipeline run; satisfied by *pipeline.Runner.
type RunExecutor interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Report, error)
}

// RunQueue manages queued pipeline runs and the workers draining them.
type RunQueue struct {
	jobs        chan *Job
	workers     int
	maxSize     int
	mu          sync.RWMutex
	active      map[string]*Job
	history     []*Job
	historySize int
	stopChan    chan struct{}
	wg          sync.WaitGroup
	executor    RunExecutor
	recorder    metrics.Recorder
}

// NewRunQueue creates a run queue with the specified size and worker count.
func NewRunQueue(maxSize, workers, historySize int, executor RunExecutor, recorder metrics.Recorder) *RunQueue {
	if maxSize <= 0 {
		maxSize = 32
	}
	if workers <= 0 {
		workers = 1
	}
	if historySize <= 0 {
		historySize = 50
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	return &RunQueue{
		jobs:        make(chan *Job, maxSize),
		workers:     workers,
		maxSize:     maxSize,
		active:      make(map[string]*Job),
		history:     make([]*Job, 0),
		historySize: historySize,
		stopChan:    make(chan struct{}),
		executor:    executor,
		recorder:    recorder,
	}
}

// Start begins processing jobs with the configured number of workers.
func (q *RunQueue) Start(ctx context.Context) {
	slog.Info("Starting run queue", slog.Int("workers", q.workers), slog.Int("max_size", q.maxSize))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, fmt.Sprintf("worker-%d", i))
	}
}

// Stop cancels active runs and waits for workers to drain.
func (q *RunQueue) Stop(ctx context.Context) {
	slog.Info("Stopping run queue")

	close(q.stopChan)

	q.mu.Lock()
	for _, job := range q.active {
		if job.cancel != nil {
			job.cancel()
		}
	}
	q.mu.Unlock()

	q.wg.Wait()
	slog.Info("Run queue stopped")
}

// Enqueue adds a run to the queue; a full queue is an error.
func (q *RunQueue) Enqueue(job *Job) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}
	if job.ID == "" {
		return fmt.Errorf("job ID is required")
	}

	job.Status = JobStatusQueued
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	select {
	case q.jobs <- job:
		q.recorder.SetQueueDepth(len(q.jobs))
		slog.Info("Run enqueued",
			logfields.RunID(job.ID),
			logfields.Pipeline(job.Pipeline),
			logfields.Trigger(job.Trigger))
		return nil
	default:
		return fmt.Errorf("run queue is full")
	}
}

// Length returns the current queue length.
func (q *RunQueue) Length() int {
	return len(q.jobs)
}

// ActiveJobs returns a copy of the currently running jobs.
func (q *RunQueue) ActiveJobs() []*Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	active := make([]*Job, 0, len(q.active))
	for _, job := range q.active {
		active = append(active, job)
	}
	return active
}

// History returns recent completed jobs, oldest first.
func (q *RunQueue) History() []*Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	history := make([]*Job, len(q.history))
	copy(history, q.history)
	return history
}

func (q *RunQueue) worker(ctx context.Context, workerID string) {
	defer q.wg.Done()

	slog.Debug("Run worker started", logfields.Worker(workerID))

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Run worker stopped by context", logfields.Worker(workerID))
			return
		case <-q.stopChan:
			slog.Debug("Run worker stopped by stop signal", logfields.Worker(workerID))
			return
		case job := <-q.jobs:
			if job != nil {
				q.recorder.SetQueueDepth(len(q.jobs))
				q.processJob(ctx, job, workerID)
			}
		}
	}
}

// processJob executes a single run.
func (q *RunQueue) processJob(ctx context.Context, job *Job, workerID string) {
	jobCtx, cancel := context.WithCancel(ctx)
	job.cancel = cancel
	defer cancel()

	startTime := time.Now()
	job.StartedAt = &startTime
	job.Status = JobStatusRunning

	q.mu.Lock()
	q.active[job.ID] = job
	q.mu.Unlock()

	slog.Info("Run started",
		logfields.RunID(job.ID),
		logfields.Pipeline(job.Pipeline),
		logfields.Worker(workerID))

	report, err := q.executor.Run(jobCtx, pipeline.Request{
		RunID:    job.ID,
		Pipeline: job.Pipeline,
		Trigger:  job.Trigger,
	})
	job.Report = report

	endTime := time.Now()
	job.CompletedAt = &endTime
	job.Duration = endTime.Sub(startTime)

	q.mu.Lock()
	delete(q.active, job.ID)
	q.addToHistory(job)
	q.mu.Unlock()

	switch {
	case err == nil:
		job.Status = JobStatusCompleted
		slog.Info("Run completed",
			logfields.RunID(job.ID),
			logfields.Pipeline(job.Pipeline),
			logfields.DurationMS(float64(job.Duration.Milliseconds())))
	case jobCtx.Err() != nil:
		job.Status = JobStatusCancelled
		job.Error = jobCtx.Err().Error()
		slog.Warn("Run cancelled", logfields.RunID(job.ID), logfields.Pipeline(job.Pipeline))
	default:
		job.Status = JobStatusFailed
		job.Error = err.Error()
		slog.Error("Run failed",
			logfields.RunID(job.ID),
			logfields.Pipeline(job.Pipeline),
			logfields.DurationMS(float64(job.Duration.Milliseconds())),
			logfields.Error(err))
	}
}

// addToHistory appends a completed job, maintaining the size limit.
// Caller holds q.mu.
func (q *RunQueue) addToHistory(job *Job) {
	q.history = append(q.history, job)
	if len(q.history) > q.historySize {
		copy(q.history, q.history[len(q.history)-q.historySize:])
		q.history = q.history[:q.historySize]
	}
}
