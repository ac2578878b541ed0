// Package daemon runs relbuilder in continuous mode: a run queue with
// workers, cron schedules, push and manual triggers over HTTP, and live
// configuration reload.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/relbuilder/internal/artifacts"
	"git.home.luguber.info/inful/relbuilder/internal/config"
	rberrors "git.home.luguber.info/inful/relbuilder/internal/errors"
	"git.home.luguber.info/inful/relbuilder/internal/events"
	"git.home.luguber.info/inful/relbuilder/internal/history"
	"git.home.luguber.info/inful/relbuilder/internal/logfields"
	"git.home.luguber.info/inful/relbuilder/internal/metrics"
	"git.home.luguber.info/inful/relbuilder/internal/pipeline"
)

// Daemon ties together the queue, scheduler, triggers, and HTTP surface.
type Daemon struct {
	mu         sync.RWMutex
	cfg        *config.Config
	configPath string

	queue     *RunQueue
	scheduler *Scheduler
	watcher   *ConfigWatcher
	server    *HTTPServer

	runner       *pipeline.Runner
	historyStore history.Store
	publisher    events.Publisher
	recorder     metrics.Recorder
	registry     *prom.Registry
	store        *artifacts.Store

	lock      *flock.Flock
	startTime time.Time
}

// New creates a daemon from a validated configuration. configPath is
// watched for live reload; empty disables watching.
func New(cfg *config.Config, configPath string) (*Daemon, error) {
	d := &Daemon{
		cfg:        cfg,
		configPath: configPath,
		startTime:  time.Now(),
	}

	dataDir := cfg.Daemon.DataDir
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, rberrors.DaemonError(fmt.Sprintf("failed to create data directory: %v", err))
	}

	// A second daemon on the same data dir would corrupt history and
	// artifact refs.
	d.lock = flock.New(filepath.Join(dataDir, "relbuilder.lock"))
	locked, err := d.lock.TryLock()
	if err != nil {
		return nil, rberrors.DaemonError(fmt.Sprintf("failed to acquire instance lock: %v", err))
	}
	if !locked {
		return nil, rberrors.DaemonError("another relbuilder daemon is already running on this data directory")
	}

	d.historyStore = history.NoopStore{}
	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			d.releaseLock()
			return nil, rberrors.DaemonError(fmt.Sprintf("failed to open history store: %v", err))
		}
		d.historyStore = store
	}

	d.recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		d.registry = prom.NewRegistry()
		d.recorder = metrics.NewPrometheusRecorder(d.registry)
	}

	d.publisher = events.NoopPublisher{}
	if cfg.Events.Enabled {
		pub, err := events.NewNATSPublisher(cfg.Events)
		if err != nil {
			d.Close()
			return nil, rberrors.DaemonError(fmt.Sprintf("failed to connect event publisher: %v", err))
		}
		d.publisher = pub
	}

	d.store, err = artifacts.NewStore(filepath.Join(dataDir, "artifacts"))
	if err != nil {
		d.Close()
		return nil, rberrors.DaemonError(fmt.Sprintf("failed to open artifact store: %v", err))
	}

	d.rebuildRunner()

	d.queue = NewRunQueue(cfg.Daemon.QueueSize, cfg.Daemon.Workers, cfg.Daemon.HistoryLimit, d, d.recorder)

	d.scheduler, err = NewScheduler(d)
	if err != nil {
		d.Close()
		return nil, rberrors.DaemonError(err.Error())
	}

	d.server = NewHTTPServer(d)
	return d, nil
}

// Enqueue queues a run and announces it to history and event consumers.
func (d *Daemon) Enqueue(job *Job) error {
	if err := d.queue.Enqueue(job); err != nil {
		return err
	}
	d.announceQueued(job)
	return nil
}

// announceQueued emits the queued lifecycle records; failures are logged
// and never block the trigger path.
func (d *Daemon) announceQueued(job *Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.historyStore.AppendEvent(ctx, job.ID, history.EventRunQueued, nil); err != nil {
		slog.Warn("Failed to record queued event", logfields.Error(err))
	}
	if err := d.publisher.Publish(ctx, events.RunEvent{
		Type:     events.TypeRunQueued,
		RunID:    job.ID,
		Pipeline: job.Pipeline,
		Trigger:  job.Trigger,
	}); err != nil {
		slog.Warn("Failed to publish queued event", logfields.Error(err))
	}
}

// Run implements RunExecutor by delegating to the current pipeline runner,
// so a config reload applies to subsequent runs.
func (d *Daemon) Run(ctx context.Context, req pipeline.Request) (*pipeline.Report, error) {
	d.mu.RLock()
	runner := d.runner
	d.mu.RUnlock()
	return runner.Run(ctx, req)
}

// Start brings up all components and returns once they are running.
func (d *Daemon) Start(ctx context.Context) error {
	slog.Info("Starting daemon", slog.String("listen_addr", d.config().Daemon.ListenAddr))

	d.queue.Start(ctx)

	if _, err := d.scheduler.SchedulePipelines(d.config().Pipelines); err != nil {
		return err
	}
	d.scheduler.Start()

	if d.configPath != "" {
		watcher, err := NewConfigWatcher(d.configPath, d)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		d.watcher = watcher
	}

	return d.server.Start()
}

// Stop shuts down components in reverse startup order.
func (d *Daemon) Stop(ctx context.Context) error {
	slog.Info("Stopping daemon")

	var firstErr error
	if d.server != nil {
		if err := d.server.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.queue != nil {
		d.queue.Stop(ctx)
	}
	d.Close()

	slog.Info("Daemon stopped")
	return firstErr
}

// Close releases stores, the event publisher, and the instance lock.
func (d *Daemon) Close() {
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			slog.Warn("Failed to close event publisher", logfields.Error(err))
		}
	}
	if d.historyStore != nil {
		if err := d.historyStore.Close(); err != nil {
			slog.Warn("Failed to close history store", logfields.Error(err))
		}
	}
	d.releaseLock()
}

func (d *Daemon) releaseLock() {
	if d.lock != nil {
		if err := d.lock.Unlock(); err != nil {
			slog.Warn("Failed to release instance lock", logfields.Error(err))
		}
	}
}

// ReloadConfig swaps in a new configuration and reschedules cron triggers.
// Listen address and data directory changes require a restart.
func (d *Daemon) ReloadConfig(newCfg *config.Config) error {
	old := d.config()
	if newCfg.Daemon.ListenAddr != old.Daemon.ListenAddr {
		slog.Warn("Listen address change requires daemon restart",
			slog.String("current", old.Daemon.ListenAddr),
			slog.String("new", newCfg.Daemon.ListenAddr))
	}
	if newCfg.Daemon.DataDir != old.Daemon.DataDir {
		return fmt.Errorf("data directory change requires daemon restart")
	}

	d.mu.Lock()
	d.cfg = newCfg
	d.mu.Unlock()
	d.rebuildRunner()

	if err := d.scheduler.Reset(); err != nil {
		return fmt.Errorf("failed to clear schedules: %w", err)
	}
	count, err := d.scheduler.SchedulePipelines(newCfg.Pipelines)
	if err != nil {
		return err
	}
	slog.Info("Schedules rebuilt", slog.Int("count", count))
	return nil
}

// config returns the current configuration snapshot.
func (d *Daemon) config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// rebuildRunner constructs a pipeline runner against the current config.
func (d *Daemon) rebuildRunner() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.runner = pipeline.NewRunner(d.cfg, pipeline.Deps{
		Recorder: d.recorder,
		History:  d.historyStore,
		Events:   d.publisher,
		Store:    d.store,
	})
}

// Uptime returns how long the daemon has been running.
func (d *Daemon) Uptime() time.Duration { return time.Since(d.startTime) }
