package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyPipeline   = "pipeline"
	KeyStep       = "step"
	KeyTrigger    = "trigger"
	KeyStatus     = "status"
	KeyDurationMS = "duration_ms"
	KeyScheduleID = "schedule_id"
	KeyRepo       = "repository"
	KeyBranch     = "branch"
	KeyPath       = "path"
	KeyArtifact   = "artifact"
	KeyWorker     = "worker"
	KeyCommand    = "command"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Pipeline(p string) slog.Attr     { return slog.String(KeyPipeline, p) }
func Step(s string) slog.Attr         { return slog.String(KeyStep, s) }
func Trigger(t string) slog.Attr      { return slog.String(KeyTrigger, t) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func ScheduleID(id string) slog.Attr  { return slog.String(KeyScheduleID, id) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Artifact(a string) slog.Attr     { return slog.String(KeyArtifact, a) }
func Worker(w string) slog.Attr       { return slog.String(KeyWorker, w) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
