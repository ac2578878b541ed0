package daemon

import (
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/relbuilder/internal/config"
	"git.home.luguber.info/inful/relbuilder/internal/logfields"
)

// Scheduler wraps gocron for cron-triggered pipeline runs.
type Scheduler struct {
	scheduler gocron.Scheduler
	enqueuer  interface {
		Enqueue(job *Job) error
	}
}

// NewScheduler creates a scheduler instance.
func NewScheduler(enqueuer interface{ Enqueue(job *Job) error }) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, enqueuer: enqueuer}, nil
}

// SchedulePipelines registers a cron job for every pipeline carrying a
// cron trigger and returns the number of registered schedules.
func (s *Scheduler) SchedulePipelines(pipelines []config.Pipeline) (int, error) {
	count := 0
	for _, p := range pipelines {
		expr := p.Triggers.Cron
		if expr == "" {
			continue
		}
		name := p.Name
		job, err := s.scheduler.NewJob(
			gocron.CronJob(expr, false),
			gocron.NewTask(func() { s.fire(name) }),
			gocron.WithName(name),
		)
		if err != nil {
			return count, fmt.Errorf("failed to schedule pipeline %s: %w", name, err)
		}
		slog.Info("Scheduled pipeline",
			logfields.Pipeline(name),
			logfields.ScheduleID(job.ID().String()),
			slog.String("cron", expr))
		count++
	}
	return count, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// Reset removes all registered schedules, for config reload.
func (s *Scheduler) Reset() error {
	for _, job := range s.scheduler.Jobs() {
		if err := s.scheduler.RemoveJob(job.ID()); err != nil {
			return err
		}
	}
	return nil
}

// fire is called by gocron when a schedule triggers.
func (s *Scheduler) fire(pipelineName string) {
	job := newJob(pipelineName, TriggerCron)
	slog.Info("Cron trigger fired", logfields.Pipeline(pipelineName), logfields.RunID(job.ID))
	if err := s.enqueuer.Enqueue(job); err != nil {
		slog.Error("Failed to enqueue scheduled run",
			logfields.Pipeline(pipelineName),
			logfields.Error(err))
	}
}
