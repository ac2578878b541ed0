package errors

import (
	"fmt"
	"log/slog"
	"strings"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if rbe, ok := err.(*RelBuilderError); ok {
		return a.exitCodeFromRelBuilder(rbe)
	}

	return 1
}

// exitCodeFromRelBuilder maps RelBuilderError to exit codes.
// Drift maps to 1 so the docs check fails the same way a shell assertion would.
func (a *CLIErrorAdapter) exitCodeFromRelBuilder(err *RelBuilderError) int {
	switch err.Category {
	case CategoryDrift:
		return 1
	case CategoryValidation:
		return 2 // Invalid usage
	case CategorySecret:
		return 5
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryGit, CategoryPublish:
		return 8 // External system error
	case CategoryExec, CategoryArtifact, CategoryFileSystem:
		return 11 // Pipeline error
	case CategoryDaemon, CategoryRuntime:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	rbe, ok := err.(*RelBuilderError)
	if !ok {
		return err.Error()
	}

	msg := rbe.Message
	if rbe.Cause != nil && a.verbose {
		msg = fmt.Sprintf("%s: %v", msg, rbe.Cause)
	}
	// Drift remediation names the offending files even without -v.
	if rbe.Category == CategoryDrift {
		if changed, ok := rbe.Context["changed_files"].([]string); ok && len(changed) > 0 {
			msg = fmt.Sprintf("%s (changed: %s)", msg, strings.Join(changed, ", "))
		}
	}
	if len(rbe.Context) > 0 && a.verbose {
		msg = fmt.Sprintf("%s %v", msg, map[string]any(rbe.Context))
	}
	return msg
}
