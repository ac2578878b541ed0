package config

import "path/filepath"

// Default values applied before normalization. Kept in one place so the
// CLI and daemon agree on a single source of truth.
const (
	DefaultListenAddr   = ":8573"
	DefaultWorkers      = 1
	DefaultQueueSize    = 32
	DefaultHistoryLimit = 50
	DefaultDataDir      = "./relbuilder-data"
	DefaultBackend      = "opencv"
	DefaultEventSubject = "relbuilder.runs"
	DefaultEventStream  = "RELBUILDER"

	// DefaultRemediation is printed when the docs check detects drift.
	DefaultRemediation = "Generated documentation is out of date. " +
		"Run the documentation generator locally and commit the updated files."
)

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Daemon.ListenAddr == "" {
		c.Daemon.ListenAddr = DefaultListenAddr
	}
	if c.Daemon.Workers <= 0 {
		c.Daemon.Workers = DefaultWorkers
	}
	if c.Daemon.QueueSize <= 0 {
		c.Daemon.QueueSize = DefaultQueueSize
	}
	if c.Daemon.HistoryLimit <= 0 {
		c.Daemon.HistoryLimit = DefaultHistoryLimit
	}
	if c.Daemon.DataDir == "" {
		c.Daemon.DataDir = DefaultDataDir
	}
	if c.History.Enabled && c.History.Path == "" {
		c.History.Path = filepath.Join(c.Daemon.DataDir, "history.db")
	}
	if c.Events.Subject == "" {
		c.Events.Subject = DefaultEventSubject
	}
	if c.Events.Stream == "" {
		c.Events.Stream = DefaultEventStream
	}
	if c.DocsCheck != nil && c.DocsCheck.Remediation == "" {
		c.DocsCheck.Remediation = DefaultRemediation
	}
	for i := range c.Pipelines {
		p := &c.Pipelines[i]
		for j := range p.SmokeTests {
			if p.SmokeTests[j].Backend == "" {
				p.SmokeTests[j].Backend = DefaultBackend
			}
		}
	}
}
