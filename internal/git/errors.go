package git

import (
	"fmt"
	"strings"
)

// Typed git errors enabling structured classification without string
// parsing upstream.

type AuthError struct {
	Op, URL string
	Err     error
}

func (e *AuthError) Error() string { return fmt.Sprintf("%s auth error for %s: %v", e.Op, e.URL, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Op, URL string
	Err     error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found %s: %v", e.Op, e.URL, e.Err) }
func (e *NotFoundError) Unwrap() error { return e.Err }

type TransientError struct {
	Op, URL string
	Err     error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s transient failure for %s: %v", e.Op, e.URL, e.Err)
}
func (e *TransientError) Unwrap() error { return e.Err }

// classifyCloneError wraps underlying go-git errors into typed variants.
// Network-ish failures become TransientError so the run queue may retry.
func classifyCloneError(url string, err error) error {
	if err == nil {
		return nil
	}
	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "auth fail") ||
		strings.Contains(l, "invalid username or password"):
		return &AuthError{Op: "clone", URL: url, Err: err}
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		return &NotFoundError{Op: "clone", URL: url, Err: err}
	case strings.Contains(l, "timeout") || strings.Contains(l, "connection refused") ||
		strings.Contains(l, "temporary") || strings.Contains(l, "unexpected eof"):
		return &TransientError{Op: "clone", URL: url, Err: err}
	default:
		return fmt.Errorf("failed to clone repository %s: %w", url, err)
	}
}
