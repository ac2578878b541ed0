// Package executor runs external commands for pipeline steps: env
// assembly, per-step timeouts, combined output capture, and secret
// redaction of everything that leaves the process.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"git.home.luguber.info/inful/relbuilder/internal/logfields"
	"git.home.luguber.info/inful/relbuilder/internal/secrets"
)

// Command describes one external invocation.
type Command struct {
	Name    string // step name, for logging
	Program string
	Args    []string
	Dir     string
	Env     map[string]string // appended to the process environment
	Secrets []secrets.Resolved
	Timeout time.Duration // zero means no timeout
}

// Result captures the outcome of a command.
type Result struct {
	ExitCode int
	Output   string // combined stdout+stderr, secrets redacted
	Duration time.Duration
	TimedOut bool
}

// Runner executes commands. The zero value is usable.
type Runner struct{}

// Run executes the command and returns its redacted result. A nonzero
// exit, timeout, or start failure yields both a Result (when available)
// and a non-nil error; callers decide whether that aborts the run.
func (Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if cmd.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	// #nosec G204 -- program and args come from validated configuration
	c := exec.CommandContext(runCtx, cmd.Program, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = buildEnv(cmd)

	var buf bytes.Buffer
	c.Stdout = &buf
	c.Stderr = &buf

	redactor := secrets.NewRedactor(cmd.Secrets)

	slog.Info("Running step command",
		logfields.Step(cmd.Name),
		logfields.Command(cmd.Program),
		logfields.Path(cmd.Dir))

	start := time.Now()
	err := c.Run()
	dur := time.Since(start)

	res := &Result{
		Output:   redactor.Redact(buf.String()),
		Duration: dur,
		TimedOut: errors.Is(runCtx.Err(), context.DeadlineExceeded),
	}

	if err == nil {
		res.ExitCode = 0
		slog.Debug("Step command completed",
			logfields.Step(cmd.Name),
			logfields.DurationMS(float64(dur.Milliseconds())))
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else {
		res.ExitCode = -1
	}

	if res.TimedOut {
		return res, fmt.Errorf("command %s timed out after %s", cmd.Program, cmd.Timeout)
	}
	return res, fmt.Errorf("command %s failed: %w", cmd.Program, err)
}

// buildEnv assembles the child environment: process env, then step env,
// then resolved secrets (later entries win in os/exec).
func buildEnv(cmd Command) []string {
	env := os.Environ()
	for k, v := range cmd.Env {
		env = append(env, k+"="+v)
	}
	env = append(env, secrets.EnvPairs(cmd.Secrets)...)
	return env
}
