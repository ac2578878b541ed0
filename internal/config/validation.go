package config

import (
	"fmt"
	"path"
	"time"
)

// Validate checks semantic constraints after defaults and normalization.
func (c *Config) Validate() error {
	if len(c.Pipelines) == 0 && c.DocsCheck == nil {
		return fmt.Errorf("configuration defines neither pipelines nor a docs check")
	}

	seen := make(map[string]bool, len(c.Pipelines))
	for i := range c.Pipelines {
		p := &c.Pipelines[i]
		if p.Name == "" {
			return fmt.Errorf("pipeline %d: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate pipeline name %q", p.Name)
		}
		seen[p.Name] = true
		if err := p.validate(); err != nil {
			return fmt.Errorf("pipeline %q: %w", p.Name, err)
		}
	}

	if c.DocsCheck != nil {
		if c.DocsCheck.Generator.Command == "" {
			return fmt.Errorf("docs_check: generator command is required")
		}
	}

	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("events: url is required when enabled")
	}

	return nil
}

func (p *Pipeline) validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i := range p.Steps {
		if err := p.Steps[i].validate(); err != nil {
			return err
		}
	}

	if !p.Triggers.Manual && p.Triggers.Cron == "" && p.Triggers.Push == nil {
		return fmt.Errorf("no trigger configured (manual, cron, or push)")
	}

	if p.Triggers.Push != nil {
		for _, pat := range p.Triggers.Push.Paths {
			if _, err := path.Match(pat, "probe"); err != nil {
				return fmt.Errorf("push path filter %q: %w", pat, err)
			}
		}
	}

	for _, b := range p.Artifacts {
		if b.Name == "" {
			return fmt.Errorf("artifact bundle name is required")
		}
		if len(b.Include) == 0 {
			return fmt.Errorf("artifact bundle %q: include globs are required", b.Name)
		}
	}

	for _, sc := range p.SmokeTests {
		if sc.Input == "" {
			return fmt.Errorf("smoke test: input is required")
		}
		if sc.End == "" {
			return fmt.Errorf("smoke test: end duration is required")
		}
	}

	if err := p.Retry.validate(); err != nil {
		return err
	}
	return nil
}

func (s *Step) validate() error {
	if s.Name == "" {
		return fmt.Errorf("step name is required")
	}
	if s.Command == "" {
		return fmt.Errorf("step %q: command is required", s.Name)
	}
	if s.Timeout != "" {
		if _, err := time.ParseDuration(s.Timeout); err != nil {
			return fmt.Errorf("step %q: invalid timeout: %w", s.Name, err)
		}
	}
	return nil
}

func (rc RetryConfig) validate() error {
	if rc.Backoff != "" && NormalizeRetryBackoff(rc.Backoff) == "" {
		return fmt.Errorf("retry: unknown backoff mode %q", rc.Backoff)
	}
	for field, raw := range map[string]string{"initial_delay": rc.InitialDelay, "max_delay": rc.MaxDelay} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("retry: invalid %s: %w", field, err)
		}
	}
	if rc.MaxRetries < 0 {
		return fmt.Errorf("retry: max_retries cannot be negative")
	}
	return nil
}
