// Package history persists run outcomes and per-run events in SQLite so
// the CLI and daemon can answer "what ran, when, and how did it end".
package history

import (
	"context"
	"time"
)

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID          string
	Pipeline    string
	Trigger     string
	Status      string
	StartedAt   time.Time
	CompletedAt time.Time // zero while running
	Error       string
}

// Event is one appended run event.
type Event struct {
	ID        int64
	RunID     string
	Type      string
	Timestamp time.Time
	Payload   []byte
}

// Run event types.
const (
	EventRunQueued    = "run.queued"
	EventRunStarted   = "run.started"
	EventStepFinished = "step.finished"
	EventRunCompleted = "run.completed"
	EventRunFailed    = "run.failed"
)

// Store defines the persistence interface for run history.
type Store interface {
	// RecordRunStart inserts a run row in "running" state.
	RecordRunStart(ctx context.Context, run RunSummary) error

	// RecordRunEnd finalizes a run row.
	RecordRunEnd(ctx context.Context, runID, status, errMsg string, completedAt time.Time) error

	// AppendEvent adds an event to a run's timeline.
	AppendEvent(ctx context.Context, runID, eventType string, payload []byte) error

	// EventsByRun retrieves all events for a run in append order.
	EventsByRun(ctx context.Context, runID string) ([]Event, error)

	// RecentRuns returns the most recently started runs, newest first.
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)

	// RunsSince returns runs started at or after the given time, newest first.
	RunsSince(ctx context.Context, since time.Time, limit int) ([]RunSummary, error)

	// Close closes the store and releases resources.
	Close() error
}

// NoopStore satisfies Store while history is disabled.
type NoopStore struct{}

func (NoopStore) RecordRunStart(context.Context, RunSummary) error { return nil }
func (NoopStore) RecordRunEnd(context.Context, string, string, string, time.Time) error {
	return nil
}
func (NoopStore) AppendEvent(context.Context, string, string, []byte) error { return nil }
func (NoopStore) EventsByRun(context.Context, string) ([]Event, error)      { return nil, nil }
func (NoopStore) RecentRuns(context.Context, int) ([]RunSummary, error)     { return nil, nil }
func (NoopStore) RunsSince(context.Context, time.Time, int) ([]RunSummary, error) {
	return nil, nil
}
func (NoopStore) Close() error                                              { return nil }
