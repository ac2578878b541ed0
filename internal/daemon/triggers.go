package daemon

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/relbuilder/internal/config"
)

// Trigger sources.
const (
	TriggerManual = "manual"
	TriggerCron   = "cron"
	TriggerPush   = "push"
)

// PushEvent is the normalized payload of an incoming push webhook.
type PushEvent struct {
	Branch string   `json:"branch,omitempty"`
	Tag    string   `json:"tag,omitempty"`
	Paths  []string `json:"paths,omitempty"` // changed paths
}

// MatchesPush reports whether a push event passes the pipeline's filter.
// An empty filter list matches anything; a tag push matches on tag globs,
// a branch push on branch globs, and in both cases at least one changed
// path must match when path globs are configured.
func MatchesPush(f *config.PushFilter, ev PushEvent) bool {
	if f == nil {
		return false
	}

	if ev.Tag != "" {
		if !matchAny(f.Tags, ev.Tag) {
			return false
		}
	} else {
		if !matchAny(f.Branches, ev.Branch) {
			return false
		}
	}

	if len(f.Paths) == 0 {
		return true
	}
	for _, p := range ev.Paths {
		if matchAny(f.Paths, p) {
			return true
		}
	}
	return false
}

// matchAny reports whether the value matches any glob. Patterns ending in
// "/**" match the whole subtree; others use shell-style matching.
func matchAny(globs []string, value string) bool {
	if len(globs) == 0 {
		return true
	}
	for _, g := range globs {
		if strings.HasSuffix(g, "/**") {
			if strings.HasPrefix(value, strings.TrimSuffix(g, "**")) {
				return true
			}
			continue
		}
		if ok, err := path.Match(g, value); err == nil && ok {
			return true
		}
	}
	return false
}

// newJob builds a queue job for the pipeline and trigger source.
func newJob(pipelineName, trigger string) *Job {
	return &Job{
		ID:        uuid.New().String(),
		Pipeline:  pipelineName,
		Trigger:   trigger,
		CreatedAt: time.Now(),
	}
}

// DispatchManual enqueues a manual run for the named pipeline.
func (d *Daemon) DispatchManual(pipelineName string) (string, error) {
	p := d.config().PipelineByName(pipelineName)
	if p == nil {
		return "", fmt.Errorf("unknown pipeline %q", pipelineName)
	}
	if !p.Triggers.Manual {
		return "", fmt.Errorf("pipeline %q does not allow manual dispatch", pipelineName)
	}

	job := newJob(pipelineName, TriggerManual)
	if err := d.Enqueue(job); err != nil {
		return "", err
	}
	return job.ID, nil
}

// HandlePush enqueues a run for every pipeline whose push filter matches
// the event, returning the enqueued job IDs.
func (d *Daemon) HandlePush(ev PushEvent) ([]string, error) {
	var ids []string
	for _, p := range d.config().Pipelines {
		if !MatchesPush(p.Triggers.Push, ev) {
			continue
		}
		job := newJob(p.Name, TriggerPush)
		if err := d.Enqueue(job); err != nil {
			return ids, fmt.Errorf("pipeline %s: %w", p.Name, err)
		}
		ids = append(ids, job.ID)
	}
	return ids, nil
}
