package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a repository with one committed file and returns its path.
func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "cli.md"), []byte("# CLI\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("readme\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func TestChangedPathsCleanTree(t *testing.T) {
	dir := initRepo(t)

	changed, err := ChangedPaths(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, changed)

	clean, err := IsClean(dir, nil)
	require.NoError(t, err)
	assert.True(t, clean)
}

func TestChangedPathsDetectsModification(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "cli.md"), []byte("# CLI\nchanged\n"), 0o644))

	changed, err := ChangedPaths(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/cli.md"}, changed)
}

func TestChangedPathsDetectsUntracked(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "new.md"), []byte("new\n"), 0o644))

	changed, err := ChangedPaths(dir, nil)
	require.NoError(t, err)
	assert.Contains(t, changed, "docs/new.md")
}

func TestChangedPathsScope(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("edited\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "cli.md"), []byte("edited\n"), 0o644))

	// Scoped to docs/: README change must not count.
	changed, err := ChangedPaths(dir, []string{"docs/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/cli.md"}, changed)

	clean, err := IsClean(dir, []string{"docs/"})
	require.NoError(t, err)
	assert.False(t, clean)
}

func TestChangedPathsNotARepo(t *testing.T) {
	_, err := ChangedPaths(t.TempDir(), nil)
	require.Error(t, err)
}
