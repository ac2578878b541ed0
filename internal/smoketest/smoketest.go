// Package smoketest runs the built binary against fixed detection
// commands to confirm basic functionality after packaging.
package smoketest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	appcfg "git.home.luguber.info/inful/relbuilder/internal/config"
	rberrors "git.home.luguber.info/inful/relbuilder/internal/errors"
	"git.home.luguber.info/inful/relbuilder/internal/executor"
)

// contentThresholdMin/Max bound the detect-content threshold option.
const (
	contentThresholdMin = 0
	contentThresholdMax = 255
)

// Runner executes smoke-test cases through the command executor.
type Runner struct {
	exec executor.Runner
}

// NewRunner creates a smoke-test runner.
func NewRunner() *Runner { return &Runner{} }

// BuildArgs renders the fixed smoke-test argument sequence for a case:
// -i <input> -b <backend> detect-content [-t <threshold>] time -e <end>
func BuildArgs(c appcfg.SmokeCase) []string {
	args := []string{"-i", c.Input, "-b", c.Backend, "detect-content"}
	if c.Threshold > 0 {
		args = append(args, "-t", strconv.FormatFloat(c.Threshold, 'f', -1, 64))
	}
	args = append(args, "time", "-e", c.End)
	return args
}

// Validate checks a case's option values before anything runs.
func Validate(c appcfg.SmokeCase) error {
	if err := ValidateTimecode(c.End); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if c.Threshold != 0 {
		if err := ValidateRange(c.Threshold, contentThresholdMin, contentThresholdMax); err != nil {
			return fmt.Errorf("threshold: %w", err)
		}
	}
	return nil
}

// Run executes all cases against the built binary. defaultBinary is used
// for cases that do not name their own. The first failing case aborts.
func (r *Runner) Run(ctx context.Context, dir, defaultBinary string, cases []appcfg.SmokeCase) error {
	for i, c := range cases {
		binary := c.Binary
		if binary == "" {
			binary = defaultBinary
		}
		if binary == "" {
			return rberrors.ValidationFailed("smoke_tests", "no binary configured")
		}
		if err := Validate(c); err != nil {
			return rberrors.ValidationFailed(fmt.Sprintf("smoke_tests[%d]", i), err.Error())
		}

		name := fmt.Sprintf("smoke-%d", i+1)
		slog.Info("Running smoke test",
			slog.String("binary", binary),
			slog.String("input", c.Input),
			slog.String("backend", c.Backend))

		res, err := r.exec.Run(ctx, executor.Command{
			Name:    name,
			Program: binary,
			Args:    BuildArgs(c),
			Dir:     dir,
		})
		if err != nil {
			exitCode := -1
			if res != nil {
				exitCode = res.ExitCode
			}
			return rberrors.StepFailed(name, exitCode, err)
		}
	}
	return nil
}
