// Package metrics defines observability hooks for run and step metrics.
package metrics

import "time"

// ResultLabel enumerates step result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultSkipped  ResultLabel = "skipped"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for run and step metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All
// methods must be safe on the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveStepDuration(pipeline, step string, d time.Duration)
	ObserveRunDuration(pipeline string, d time.Duration)
	IncStepResult(pipeline, step string, result ResultLabel)
	IncRunOutcome(pipeline, outcome string) // outcome: completed|failed|canceled
	IncTrigger(pipeline, trigger string)
	SetQueueDepth(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(string, string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(string, time.Duration)          {}
func (NoopRecorder) IncStepResult(string, string, ResultLabel)         {}
func (NoopRecorder) IncRunOutcome(string, string)                      {}
func (NoopRecorder) IncTrigger(string, string)                         {}
func (NoopRecorder) SetQueueDepth(int)                                 {}
