// Package secrets resolves env-injected opaque secrets for pipeline steps
// and redacts their values from captured output. Secret values are never
// written to disk or logs.
package secrets

import (
	"os"
	"strings"

	rberrors "git.home.luguber.info/inful/relbuilder/internal/errors"
)

// Mask replaces secret values in redacted output.
const Mask = "****"

// Resolved is a secret resolved from the process environment.
type Resolved struct {
	Name  string
	Value string
}

// Resolve looks up each named secret in the environment. A referenced
// secret that is unset or empty fails the run before any step launches.
func Resolve(names []string) ([]Resolved, error) {
	resolved := make([]Resolved, 0, len(names))
	for _, name := range names {
		value := os.Getenv(name)
		if value == "" {
			return nil, rberrors.SecretMissing(name)
		}
		resolved = append(resolved, Resolved{Name: name, Value: value})
	}
	return resolved, nil
}

// EnvPairs renders resolved secrets as KEY=VALUE pairs for exec env assembly.
func EnvPairs(resolved []Resolved) []string {
	pairs := make([]string, 0, len(resolved))
	for _, r := range resolved {
		pairs = append(pairs, r.Name+"="+r.Value)
	}
	return pairs
}

// Redactor removes known secret values from text.
type Redactor struct {
	replacer *strings.Replacer
}

// NewRedactor builds a redactor over the given resolved secrets.
// A nil or empty redactor passes text through unchanged.
func NewRedactor(resolved []Resolved) *Redactor {
	if len(resolved) == 0 {
		return &Redactor{}
	}
	pairs := make([]string, 0, len(resolved)*2)
	for _, r := range resolved {
		pairs = append(pairs, r.Value, Mask)
	}
	return &Redactor{replacer: strings.NewReplacer(pairs...)}
}

// Redact replaces every known secret value with the mask.
func (r *Redactor) Redact(s string) string {
	if r == nil || r.replacer == nil {
		return s
	}
	return r.replacer.Replace(s)
}
