package git

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
)

// ChangedPaths returns the working-tree paths that differ from HEAD,
// porcelain-style: modified, added, deleted, and untracked files all
// count. Paths are sorted for deterministic output. When scope is
// non-empty, only paths under one of the scope prefixes are reported.
func ChangedPaths(repoPath string, scope []string) ([]string, error) {
	repository, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %s: %w", repoPath, err)
	}

	worktree, err := repository.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree status: %w", err)
	}

	var changed []string
	for path, fileStatus := range status {
		if fileStatus.Worktree == git.Unmodified && fileStatus.Staging == git.Unmodified {
			continue
		}
		if !inScope(path, scope) {
			continue
		}
		changed = append(changed, path)
	}
	sort.Strings(changed)
	return changed, nil
}

// IsClean reports whether the working tree has no changes within scope.
func IsClean(repoPath string, scope []string) (bool, error) {
	changed, err := ChangedPaths(repoPath, scope)
	if err != nil {
		return false, err
	}
	return len(changed) == 0, nil
}

func inScope(path string, scope []string) bool {
	if len(scope) == 0 {
		return true
	}
	for _, prefix := range scope {
		if strings.HasPrefix(path, strings.TrimPrefix(prefix, "./")) {
			return true
		}
	}
	return false
}
