package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/relbuilder/internal/artifacts"
	"git.home.luguber.info/inful/relbuilder/internal/config"
	rberrors "git.home.luguber.info/inful/relbuilder/internal/errors"
	"git.home.luguber.info/inful/relbuilder/internal/events"
	"git.home.luguber.info/inful/relbuilder/internal/executor"
	"git.home.luguber.info/inful/relbuilder/internal/git"
	"git.home.luguber.info/inful/relbuilder/internal/history"
	"git.home.luguber.info/inful/relbuilder/internal/logfields"
	"git.home.luguber.info/inful/relbuilder/internal/metrics"
	"git.home.luguber.info/inful/relbuilder/internal/retry"
	"git.home.luguber.info/inful/relbuilder/internal/secrets"
	"git.home.luguber.info/inful/relbuilder/internal/smoketest"
	"git.home.luguber.info/inful/relbuilder/internal/workspace"
)

// Request identifies one run to execute.
type Request struct {
	RunID    string
	Pipeline string
	Trigger  string // manual|cron|push
}

// Deps are the optional collaborators of a Runner; nil fields get noop
// implementations.
type Deps struct {
	Recorder metrics.Recorder
	History  history.Store
	Events   events.Publisher
	Store    *artifacts.Store // nil disables publishing
}

// Runner executes pipeline runs.
type Runner struct {
	cfg      *config.Config
	exec     executor.Runner
	smoke    *smoketest.Runner
	recorder metrics.Recorder
	history  history.Store
	events   events.Publisher
	store    *artifacts.Store
}

// NewRunner creates a pipeline runner.
func NewRunner(cfg *config.Config, deps Deps) *Runner {
	if deps.Recorder == nil {
		deps.Recorder = metrics.NoopRecorder{}
	}
	if deps.History == nil {
		deps.History = history.NoopStore{}
	}
	if deps.Events == nil {
		deps.Events = events.NoopPublisher{}
	}
	return &Runner{
		cfg:      cfg,
		smoke:    smoketest.NewRunner(),
		recorder: deps.Recorder,
		history:  deps.History,
		events:   deps.Events,
		store:    deps.Store,
	}
}

// Run executes the requested pipeline end to end. The returned Report is
// non-nil whenever the run got past lookup, including on failure.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	p := r.cfg.PipelineByName(req.Pipeline)
	if p == nil {
		return nil, rberrors.ValidationFailed("pipeline", fmt.Sprintf("unknown pipeline %q", req.Pipeline))
	}

	report := &Report{
		RunID:     req.RunID,
		Pipeline:  req.Pipeline,
		Trigger:   req.Trigger,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}

	slog.Info("Run started",
		logfields.RunID(req.RunID),
		logfields.Pipeline(req.Pipeline),
		logfields.Trigger(req.Trigger))

	r.recorder.IncTrigger(req.Pipeline, req.Trigger)
	if err := r.history.RecordRunStart(ctx, history.RunSummary{
		ID:        req.RunID,
		Pipeline:  req.Pipeline,
		Trigger:   req.Trigger,
		Status:    StatusRunning,
		StartedAt: report.StartedAt,
	}); err != nil {
		slog.Warn("Failed to record run start", logfields.Error(err))
	}
	r.emit(ctx, events.RunEvent{Type: events.TypeRunStarted, RunID: req.RunID, Pipeline: req.Pipeline, Trigger: req.Trigger})

	ws := workspace.NewManager(r.cfg.Workspace.BaseDir, r.cfg.Workspace.Keep)
	if err := ws.Create(); err != nil {
		return r.finish(ctx, report, rberrors.WorkspaceError("create", err))
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Workspace cleanup failed", logfields.Error(err))
		}
	}()

	gitClient := git.NewClient(ws.Path())
	repoPath, err := gitClient.CloneRepository(r.cfg.Repository)
	if err != nil {
		return r.finish(ctx, report, err)
	}
	if err := gitClient.CheckoutResources(r.cfg.Repository); err != nil {
		return r.finish(ctx, report, err)
	}

	policy := retry.FromConfig(p.Retry)
	for i, step := range p.Steps {
		if ctx.Err() != nil {
			r.markRemaining(ctx, req, report, p.Steps[i:], StepCanceled)
			return r.finish(ctx, report, ctx.Err())
		}

		res := r.runStep(ctx, req, p, step, repoPath, policy)
		report.Steps = append(report.Steps, res)
		r.recordStep(ctx, req, res)

		if res.Status == StepFailed && !step.ContinueOnError {
			r.markRemaining(ctx, req, report, p.Steps[i+1:], StepSkipped)
			return r.finish(ctx, report, rberrors.StepFailed(step.Name, res.ExitCode, fmt.Errorf("%s", res.Error)))
		}
	}

	if len(p.Artifacts) > 0 {
		outDir := filepath.Join(ws.Path(), "artifacts")
		built, err := artifacts.BuildBundles(ctx, repoPath, outDir, p.Artifacts)
		if err != nil {
			return r.finish(ctx, report, err)
		}
		report.Bundles = built

		if len(p.SmokeTests) > 0 {
			if err := r.smoke.Run(ctx, repoPath, p.SmokeBinary, p.SmokeTests); err != nil {
				return r.finish(ctx, report, err)
			}
		}

		if r.store != nil {
			for _, b := range built {
				if _, err := r.store.Publish(ctx, req.RunID, b); err != nil {
					return r.finish(ctx, report, rberrors.PublishError(b.Name, err))
				}
			}
			records, err := r.store.RunRecords(req.RunID)
			if err != nil {
				return r.finish(ctx, report, rberrors.PublishError("records", err))
			}
			report.Published = records
		}
	} else if len(p.SmokeTests) > 0 {
		if err := r.smoke.Run(ctx, repoPath, p.SmokeBinary, p.SmokeTests); err != nil {
			return r.finish(ctx, report, err)
		}
	}

	return r.finish(ctx, report, nil)
}

// runStep executes one step, retrying transient failures per the policy
// when the step is marked retryable.
func (r *Runner) runStep(ctx context.Context, req Request, p *config.Pipeline, step config.Step, repoPath string, policy retry.Policy) StepResult {
	result := StepResult{Name: step.Name}

	resolved, err := secrets.Resolve(step.Secrets)
	if err != nil {
		result.Status = StepFailed
		result.ExitCode = -1
		result.Error = err.Error()
		return result
	}

	env := mergeEnv(p.Env, step.Env)
	dir := repoPath
	if step.Dir != "" {
		dir = filepath.Join(repoPath, step.Dir)
	}

	maxAttempts := 1
	if step.Retryable {
		maxAttempts = policy.MaxRetries + 1
	}

	start := time.Now()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt

		res, runErr := r.exec.Run(ctx, executor.Command{
			Name:    step.Name,
			Program: step.Command,
			Args:    step.Args,
			Dir:     dir,
			Env:     env,
			Secrets: resolved,
			Timeout: step.TimeoutDuration(),
		})
		if res != nil {
			result.ExitCode = res.ExitCode
			result.Output = res.Output
		}
		if runErr == nil {
			result.Status = StepSuccess
			result.Error = ""
			break
		}

		result.Status = StepFailed
		result.Error = runErr.Error()
		if attempt == maxAttempts {
			break
		}

		delay := policy.Delay(attempt)
		slog.Warn("Step failed, retrying",
			logfields.RunID(req.RunID),
			logfields.Step(step.Name),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			logfields.Error(runErr))
		select {
		case <-ctx.Done():
			result.Status = StepCanceled
			return result
		case <-time.After(delay):
		}
	}
	result.Duration = time.Since(start)
	return result
}

// markRemaining records the steps that never ran once a run aborts, so the
// report lists every configured step with its final classification.
func (r *Runner) markRemaining(ctx context.Context, req Request, report *Report, steps []config.Step, status string) {
	for _, step := range steps {
		res := StepResult{Name: step.Name, Status: status}
		report.Steps = append(report.Steps, res)
		r.recordStep(ctx, req, res)
	}
}

// recordStep emits metrics, history, and events for a finished step.
func (r *Runner) recordStep(ctx context.Context, req Request, res StepResult) {
	r.recorder.ObserveStepDuration(req.Pipeline, res.Name, res.Duration)
	r.recorder.IncStepResult(req.Pipeline, res.Name, stepResultLabel(res.Status))

	payload, err := json.Marshal(res)
	if err == nil {
		if herr := r.history.AppendEvent(ctx, req.RunID, history.EventStepFinished, payload); herr != nil {
			slog.Warn("Failed to append step event", logfields.Error(herr))
		}
	}
	r.emit(ctx, events.RunEvent{
		Type:     events.TypeStepFinished,
		RunID:    req.RunID,
		Pipeline: req.Pipeline,
		Step:     res.Name,
		Status:   res.Status,
		Error:    res.Error,
	})

	slog.Info("Step finished",
		logfields.RunID(req.RunID),
		logfields.Step(res.Name),
		logfields.Status(res.Status),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
}

// finish finalizes the report and emits terminal metrics, history, and events.
func (r *Runner) finish(ctx context.Context, report *Report, runErr error) (*Report, error) {
	report.CompletedAt = time.Now()
	switch {
	case runErr == nil:
		report.Status = StatusCompleted
	case ctx.Err() != nil:
		report.Status = StatusCanceled
		report.Error = ctx.Err().Error()
	default:
		report.Status = StatusFailed
		report.Error = runErr.Error()
	}

	r.recorder.ObserveRunDuration(report.Pipeline, report.Duration())
	r.recorder.IncRunOutcome(report.Pipeline, report.Status)

	// Persist and publish with a fresh context so a canceled run still
	// gets its terminal records written.
	endCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.history.RecordRunEnd(endCtx, report.RunID, report.Status, report.Error, report.CompletedAt); err != nil {
		slog.Warn("Failed to record run end", logfields.Error(err))
	}

	evType := events.TypeRunCompleted
	if report.Status != StatusCompleted {
		evType = events.TypeRunFailed
	}
	r.emit(endCtx, events.RunEvent{
		Type:     evType,
		RunID:    report.RunID,
		Pipeline: report.Pipeline,
		Trigger:  report.Trigger,
		Status:   report.Status,
		Error:    report.Error,
	})

	slog.Info("Run finished",
		logfields.RunID(report.RunID),
		logfields.Pipeline(report.Pipeline),
		logfields.Status(report.Status),
		logfields.DurationMS(float64(report.Duration().Milliseconds())))

	return report, runErr
}

// emit publishes an event, logging failures without failing the run.
func (r *Runner) emit(ctx context.Context, ev events.RunEvent) {
	if err := r.events.Publish(ctx, ev); err != nil {
		slog.Warn("Failed to publish run event", logfields.Error(err))
	}
}

func stepResultLabel(status string) metrics.ResultLabel {
	switch status {
	case StepSuccess:
		return metrics.ResultSuccess
	case StepSkipped:
		return metrics.ResultSkipped
	case StepCanceled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultFailed
	}
}

func mergeEnv(base, override map[string]string) map[string]string {
	if len(base) == 0 {
		return override
	}
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
