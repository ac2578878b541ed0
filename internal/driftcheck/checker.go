// Package driftcheck implements the documentation consistency check: run
// the configured generator, then require a clean working tree. Any
// uncommitted change after regeneration means the committed docs have
// drifted from their source and the check fails.
package driftcheck

import (
	"context"
	"log/slog"
	"path/filepath"

	appcfg "git.home.luguber.info/inful/relbuilder/internal/config"
	rberrors "git.home.luguber.info/inful/relbuilder/internal/errors"
	"git.home.luguber.info/inful/relbuilder/internal/executor"
	"git.home.luguber.info/inful/relbuilder/internal/git"
	"git.home.luguber.info/inful/relbuilder/internal/logfields"
	"git.home.luguber.info/inful/relbuilder/internal/secrets"
)

// Checker runs the docs consistency check against a repository checkout.
type Checker struct {
	repoRoot string
	cfg      *appcfg.DocsCheckConfig
	runner   executor.Runner
}

// Result carries the check outcome for reporting.
type Result struct {
	GeneratorOutput string
	Changed         []string     // non-empty means drift
	Docs            []DocSummary // summaries of generated markdown
}

// New creates a checker for the repository rooted at repoRoot.
func New(repoRoot string, cfg *appcfg.DocsCheckConfig) *Checker {
	return &Checker{repoRoot: repoRoot, cfg: cfg}
}

// Run executes the generator and asserts the tree is clean. On drift the
// returned error carries the remediation message and the changed paths;
// the Result is still populated for reporting.
func (c *Checker) Run(ctx context.Context) (*Result, error) {
	gen := c.cfg.Generator

	resolved, err := secrets.Resolve(gen.Secrets)
	if err != nil {
		return nil, err
	}

	dir := c.repoRoot
	if gen.Dir != "" {
		dir = filepath.Join(c.repoRoot, gen.Dir)
	}

	slog.Info("Running documentation generator",
		logfields.Command(gen.Command),
		logfields.Path(dir))

	res, err := c.runner.Run(ctx, executor.Command{
		Name:    gen.Name,
		Program: gen.Command,
		Args:    gen.Args,
		Dir:     dir,
		Env:     gen.Env,
		Secrets: resolved,
		Timeout: gen.TimeoutDuration(),
	})
	result := &Result{}
	if res != nil {
		result.GeneratorOutput = res.Output
	}
	if err != nil {
		exitCode := -1
		if res != nil {
			exitCode = res.ExitCode
		}
		return result, rberrors.StepFailed(gen.Name, exitCode, err)
	}

	changed, err := git.ChangedPaths(c.repoRoot, c.cfg.Paths)
	if err != nil {
		return result, rberrors.Wrap(err, rberrors.CategoryGit, rberrors.SeverityFatal, "failed to inspect working tree")
	}
	result.Changed = changed
	result.Docs = summarizeDocs(c.repoRoot, c.cfg.Paths)

	if len(changed) > 0 {
		slog.Error("Documentation drift detected", slog.Int("changed_files", len(changed)))
		return result, rberrors.DocsDrift(changed, c.cfg.Remediation)
	}

	slog.Info("Documentation is up to date")
	return result, nil
}
