// Package pipeline orchestrates a single release run: workspace setup,
// repository checkout, sequential step execution, artifact bundling,
// and smoke tests, with history, metrics, and event emission throughout.
package pipeline

import (
	"time"

	"git.home.luguber.info/inful/relbuilder/internal/artifacts"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

// Step statuses.
const (
	StepSuccess  = "success"
	StepFailed   = "failed"
	StepSkipped  = "skipped"
	StepCanceled = "canceled"
)

// StepResult records the outcome of one executed step.
type StepResult struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	ExitCode int           `json:"exit_code"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Report is the full account of one pipeline run.
type Report struct {
	RunID       string             `json:"run_id"`
	Pipeline    string             `json:"pipeline"`
	Trigger     string             `json:"trigger"`
	Status      string             `json:"status"`
	Steps       []StepResult       `json:"steps"`
	Bundles     []artifacts.Built  `json:"bundles,omitempty"`
	Published   []artifacts.Record `json:"published,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt time.Time          `json:"completed_at"`
	Error       string             `json:"error,omitempty"`
}

// Duration returns the total run duration.
func (r *Report) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
