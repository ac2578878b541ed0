package config

import "time"

// parseDuration is a lenient helper for user-supplied duration strings;
// empty or invalid values yield zero.
func parseDuration(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}

// Pipeline defines one runnable pipeline: its triggers, the ordered steps,
// the artifact bundles collected on success, and post-build smoke tests.
type Pipeline struct {
	Name       string            `yaml:"name"`
	Triggers   TriggerConfig     `yaml:"triggers"`
	Env        map[string]string `yaml:"env,omitempty"`
	Steps      []Step            `yaml:"steps"`
	Artifacts  []Bundle          `yaml:"artifacts,omitempty"`
	SmokeTests []SmokeCase       `yaml:"smoke_tests,omitempty"`
	// SmokeBinary is the built binary smoke tests run, relative to the
	// repository checkout, unless a case names its own.
	SmokeBinary string      `yaml:"smoke_binary,omitempty"`
	Retry       RetryConfig `yaml:"retry,omitempty"`
}

// TriggerConfig describes when a pipeline runs.
type TriggerConfig struct {
	// Cron is a standard 5-field cron expression; empty disables scheduling.
	Cron string `yaml:"cron,omitempty"`
	// Push filters incoming push events; nil disables push triggering.
	Push *PushFilter `yaml:"push,omitempty"`
	// Manual allows dispatch via CLI or the daemon HTTP endpoint.
	Manual bool `yaml:"manual,omitempty"`
}

// PushFilter restricts push-triggered runs by branch, tag, and changed paths.
// All filters use shell-style globs; an empty list means "match anything".
type PushFilter struct {
	Branches []string `yaml:"branches,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
	Paths    []string `yaml:"paths,omitempty"`
}

// Step is one external command invocation. Steps run sequentially and the
// first failure aborts the run unless ContinueOnError is set.
type Step struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Dir     string            `yaml:"dir,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	// Secrets lists environment variable names resolved at launch and
	// redacted from all captured output.
	Secrets []string `yaml:"secrets,omitempty"`
	// Timeout is a Go duration string ("10m"); empty means no step timeout.
	Timeout string `yaml:"timeout,omitempty"`
	// ContinueOnError marks the step non-fatal; the run proceeds on failure.
	ContinueOnError bool `yaml:"continue_on_error,omitempty"`
	// Needs is validated ordering metadata only; execution stays sequential.
	Needs []string `yaml:"needs,omitempty"`
	// Retryable marks failures of this step as transient.
	Retryable bool `yaml:"retryable,omitempty"`
}

// Bundle names a zip artifact built from the include globs.
type Bundle struct {
	Name    string   `yaml:"name"`
	Include []string `yaml:"include"`
}

// SmokeCase is one smoke-test invocation of the built binary:
// <binary> -i <input> -b <backend> detect-content [-t <threshold>] time -e <end>
type SmokeCase struct {
	Binary  string `yaml:"binary,omitempty"` // falls back to the pipeline's smoke binary
	Input   string `yaml:"input"`
	Backend string `yaml:"backend,omitempty"`
	// Threshold for detect-content, inclusive range 0-255; zero means default.
	Threshold float64 `yaml:"threshold,omitempty"`
	End       string  `yaml:"end"` // timecode: frames, seconds ("123.4" or "2s"), or HH:MM:SS[.nnn]
}

// RetryConfig configures transient-failure retry for a pipeline's steps.
// Delays are Go duration strings ("1s", "500ms").
type RetryConfig struct {
	Backoff      string `yaml:"backoff,omitempty"` // fixed|linear|exponential
	InitialDelay string `yaml:"initial_delay,omitempty"`
	MaxDelay     string `yaml:"max_delay,omitempty"`
	MaxRetries   int    `yaml:"max_retries,omitempty"`
}

// InitialDuration returns the parsed initial delay (zero when unset/invalid).
func (rc RetryConfig) InitialDuration() time.Duration { return parseDuration(rc.InitialDelay) }

// MaxDuration returns the parsed delay cap (zero when unset/invalid).
func (rc RetryConfig) MaxDuration() time.Duration { return parseDuration(rc.MaxDelay) }

// TimeoutDuration returns the parsed step timeout (zero when unset/invalid).
func (s Step) TimeoutDuration() time.Duration { return parseDuration(s.Timeout) }

// DocsCheckConfig defines the documentation consistency check: run the
// generator, then require a clean working tree.
type DocsCheckConfig struct {
	Generator Step `yaml:"generator"`
	// Paths scopes the drift assertion; empty means the whole tree.
	Paths []string `yaml:"paths,omitempty"`
	// Remediation is printed verbatim when drift is detected.
	Remediation string `yaml:"remediation,omitempty"`
}
