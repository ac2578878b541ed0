package git

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyCloneError(t *testing.T) {
	url := "https://example.com/p/scenedetect.git"

	var authErr *AuthError
	if err := classifyCloneError(url, fmt.Errorf("authentication required")); !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T", err)
	}

	var nfErr *NotFoundError
	if err := classifyCloneError(url, fmt.Errorf("repository does not exist")); !errors.As(err, &nfErr) {
		t.Fatalf("expected NotFoundError, got %T", err)
	}

	var trErr *TransientError
	if err := classifyCloneError(url, fmt.Errorf("dial tcp: connection refused")); !errors.As(err, &trErr) {
		t.Fatalf("expected TransientError, got %T", err)
	}

	if err := classifyCloneError(url, fmt.Errorf("something odd")); err == nil {
		t.Fatal("unclassified errors must still be returned")
	}

	if err := classifyCloneError(url, nil); err != nil {
		t.Fatalf("nil error should stay nil, got %v", err)
	}
}
