package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/relbuilder/internal/artifacts"
	"git.home.luguber.info/inful/relbuilder/internal/config"
	"git.home.luguber.info/inful/relbuilder/internal/daemon"
	"git.home.luguber.info/inful/relbuilder/internal/driftcheck"
	rberrors "git.home.luguber.info/inful/relbuilder/internal/errors"
	"git.home.luguber.info/inful/relbuilder/internal/events"
	"git.home.luguber.info/inful/relbuilder/internal/history"
	"git.home.luguber.info/inful/relbuilder/internal/pipeline"
	"git.home.luguber.info/inful/relbuilder/internal/version"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"relbuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Run struct {
		Pipeline string `arg:"" help:"Pipeline to run"`
		NoStore  bool   `help:"Skip publishing artifacts to the local store"`
	} `cmd:"" help:"Execute a pipeline once and exit"`

	CheckDocs struct {
		RepoRoot string `short:"r" help:"Repository checkout to verify" default:"."`
	} `cmd:"" help:"Run the documentation generator and fail on uncommitted changes"`

	Daemon struct{} `cmd:"" help:"Run continuously: cron schedules, push webhooks, and manual dispatch over HTTP"`

	Validate struct{} `cmd:"" help:"Validate the configuration file"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	History struct {
		Run   string        `arg:"" optional:"" help:"Show the event timeline for one run ID"`
		Limit int           `short:"n" help:"Number of runs to show" default:"20"`
		Since time.Duration `help:"Only show runs started within this window, e.g. 24h"`
	} `cmd:"" help:"Show recent pipeline runs, or the events of a single run"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Description("Release pipeline runner and docs consistency checker"),
		kong.Vars{"version": version.String()},
	)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	adapter := rberrors.NewCLIErrorAdapter(CLI.Verbose, slog.Default())

	var err error
	switch ctx.Command() {
	case "run <pipeline>":
		err = runOnce(CLI.Run.Pipeline, CLI.Run.NoStore)
	case "check-docs":
		err = runCheckDocs(CLI.CheckDocs.RepoRoot)
	case "daemon":
		err = runDaemon()
	case "validate":
		err = runValidate(CLI.Config)
	case "init":
		err = config.Init(CLI.Config, CLI.Init.Force)
	case "history":
		err = runHistory(CLI.History.Limit, CLI.History.Since)
	case "history <run>":
		err = runHistoryEvents(CLI.History.Run)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, adapter.FormatError(err))
		os.Exit(adapter.ExitCodeFor(err))
	}
}

// runOnce executes a single pipeline run in the foreground.
func runOnce(pipelineName string, noStore bool) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return rberrors.Wrap(err, rberrors.CategoryConfig, rberrors.SeverityFatal, "failed to load configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps := pipeline.Deps{}

	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return rberrors.Wrap(err, rberrors.CategoryRuntime, rberrors.SeverityFatal, "failed to open history store")
		}
		defer store.Close()
		deps.History = store
	}

	if cfg.Events.Enabled {
		pub, err := events.NewNATSPublisher(cfg.Events)
		if err != nil {
			return rberrors.Wrap(err, rberrors.CategoryRuntime, rberrors.SeverityFatal, "failed to connect event publisher")
		}
		defer pub.Close()
		deps.Events = pub
	}

	if !noStore {
		store, err := artifacts.NewStore(filepath.Join(cfg.Daemon.DataDir, "artifacts"))
		if err != nil {
			return rberrors.Wrap(err, rberrors.CategoryArtifact, rberrors.SeverityFatal, "failed to open artifact store")
		}
		deps.Store = store
	}

	runner := pipeline.NewRunner(cfg, deps)
	report, err := runner.Run(ctx, pipeline.Request{
		RunID:    uuid.New().String(),
		Pipeline: pipelineName,
		Trigger:  "manual",
	})
	if report != nil {
		printReport(report)
	}
	return err
}

// runCheckDocs verifies committed documentation matches its generator.
func runCheckDocs(repoRoot string) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return rberrors.Wrap(err, rberrors.CategoryConfig, rberrors.SeverityFatal, "failed to load configuration")
	}
	if cfg.DocsCheck == nil {
		return rberrors.ValidationFailed("docs_check", "not configured")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	checker := driftcheck.New(repoRoot, cfg.DocsCheck)
	result, err := checker.Run(ctx)
	if err != nil {
		if result != nil && len(result.Changed) > 0 {
			fmt.Fprintln(os.Stderr, "Files changed after regeneration:")
			for _, path := range result.Changed {
				fmt.Fprintf(os.Stderr, "  %s\n", path)
			}
		}
		return err
	}

	fmt.Printf("Documentation is up to date (%d generated files checked)\n", len(result.Docs))
	return nil
}

func runDaemon() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return rberrors.Wrap(err, rberrors.CategoryConfig, rberrors.SeverityFatal, "failed to load configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(cfg, CLI.Config)
	if err != nil {
		return err
	}

	if err := d.Start(ctx); err != nil {
		d.Close()
		return err
	}

	slog.Info("Daemon started, waiting for shutdown signal...")
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping daemon...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	return d.Stop(stopCtx)
}

func runValidate(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return rberrors.Wrap(err, rberrors.CategoryConfig, rberrors.SeverityFatal, "configuration is invalid")
	}

	fmt.Printf("Configuration is valid: %d pipeline(s)", len(cfg.Pipelines))
	if cfg.DocsCheck != nil {
		fmt.Print(", docs check configured")
	}
	fmt.Println()
	return nil
}

func openHistoryStore() (*history.SQLiteStore, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, rberrors.Wrap(err, rberrors.CategoryConfig, rberrors.SeverityFatal, "failed to load configuration")
	}
	if !cfg.History.Enabled {
		return nil, rberrors.ValidationFailed("history", "not enabled in configuration")
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return nil, rberrors.Wrap(err, rberrors.CategoryRuntime, rberrors.SeverityFatal, "failed to open history store")
	}
	return store, nil
}

func runHistory(limit int, since time.Duration) error {
	store, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var runs []history.RunSummary
	if since > 0 {
		runs, err = store.RunsSince(context.Background(), time.Now().Add(-since), limit)
	} else {
		runs, err = store.RecentRuns(context.Background(), limit)
	}
	if err != nil {
		return rberrors.Wrap(err, rberrors.CategoryRuntime, rberrors.SeverityError, "failed to read run history")
	}

	printHistory(os.Stdout, runs)
	return nil
}

// runHistoryEvents shows the recorded event timeline for one run.
func runHistoryEvents(runID string) error {
	store, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer store.Close()

	evs, err := store.EventsByRun(context.Background(), runID)
	if err != nil {
		return rberrors.Wrap(err, rberrors.CategoryRuntime, rberrors.SeverityError, "failed to read run events")
	}
	if len(evs) == 0 {
		return rberrors.ValidationFailed("run", fmt.Sprintf("no events recorded for run %q", runID))
	}

	printEvents(os.Stdout, evs)
	return nil
}
