package config

import (
	"fmt"
	"strings"

	"github.com/dominikbraun/graph"
)

// Normalize canonicalizes user input: trims names, resolves step ordering
// from `needs` declarations, and normalizes backoff modes. Execution is
// always sequential; `needs` only constrains the order steps appear in.
func (c *Config) Normalize() error {
	c.Repository.Name = strings.TrimSpace(c.Repository.Name)
	if c.Repository.Name == "" && c.Repository.URL != "" {
		c.Repository.Name = repoNameFromURL(c.Repository.URL)
	}

	for i := range c.Pipelines {
		p := &c.Pipelines[i]
		p.Name = strings.TrimSpace(p.Name)
		for j := range p.Steps {
			p.Steps[j].Name = strings.TrimSpace(p.Steps[j].Name)
		}
		ordered, err := orderSteps(p.Steps)
		if err != nil {
			return fmt.Errorf("pipeline %q: %w", p.Name, err)
		}
		p.Steps = ordered
		// Unknown modes pass through so validation can report them.
		if mode := NormalizeRetryBackoff(p.Retry.Backoff); mode != "" {
			p.Retry.Backoff = string(mode)
		}
	}
	return nil
}

// orderSteps returns steps in a stable topological order of the `needs`
// graph. Steps without dependencies keep their declared relative order.
func orderSteps(steps []Step) ([]Step, error) {
	if len(steps) == 0 {
		return steps, nil
	}

	index := make(map[string]int, len(steps))
	for i, s := range steps {
		if _, dup := index[s.Name]; dup {
			return nil, fmt.Errorf("duplicate step name %q", s.Name)
		}
		index[s.Name] = i
	}

	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, s := range steps {
		if err := g.AddVertex(s.Name); err != nil {
			return nil, fmt.Errorf("step %q: %w", s.Name, err)
		}
	}
	for _, s := range steps {
		for _, need := range s.Needs {
			if _, ok := index[need]; !ok {
				return nil, fmt.Errorf("step %q needs unknown step %q", s.Name, need)
			}
			if err := g.AddEdge(need, s.Name); err != nil {
				return nil, fmt.Errorf("step %q needs %q: %w", s.Name, need, err)
			}
		}
	}

	names, err := graph.StableTopologicalSort(g, func(a, b string) bool {
		return index[a] < index[b]
	})
	if err != nil {
		return nil, fmt.Errorf("resolve step order: %w", err)
	}

	ordered := make([]Step, 0, len(steps))
	for _, n := range names {
		ordered = append(ordered, steps[index[n]])
	}
	return ordered, nil
}

// repoNameFromURL derives a short repository name from its URL.
func repoNameFromURL(url string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if idx := strings.LastIndexAny(trimmed, "/:"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return trimmed
}
