package driftcheck

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcfg "git.home.luguber.info/inful/relbuilder/internal/config"
	rberrors "git.home.luguber.info/inful/relbuilder/internal/errors"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests use sh")
	}
}

// initDocsRepo creates a repo with a committed docs/cli.md.
func initDocsRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "cli.md"),
		[]byte("# CLI Reference\n\n## detect-content\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	_, err = wt.Commit("docs", &gogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func docsCheckConfig(generatorScript string) *appcfg.DocsCheckConfig {
	cfg := &appcfg.DocsCheckConfig{
		Generator: appcfg.Step{
			Name:    "generate-docs",
			Command: "sh",
			Args:    []string{"-c", generatorScript},
		},
		Paths:       []string{"docs/"},
		Remediation: appcfg.DefaultRemediation,
	}
	return cfg
}

func TestRunCleanTree(t *testing.T) {
	skipWithoutShell(t)
	dir := initDocsRepo(t)

	// Generator reproduces the committed content exactly: no drift.
	c := New(dir, docsCheckConfig(`printf '# CLI Reference\n\n## detect-content\n' > docs/cli.md`))
	result, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Changed)

	// Summary covers the generated markdown.
	require.NotEmpty(t, result.Docs)
	assert.Equal(t, "docs/cli.md", result.Docs[0].Path)
	assert.Equal(t, "CLI Reference", result.Docs[0].Title)
	assert.Contains(t, result.Docs[0].Headings, "detect-content")
}

func TestRunDetectsDrift(t *testing.T) {
	skipWithoutShell(t)
	dir := initDocsRepo(t)

	// Generator produces different output than what is committed.
	c := New(dir, docsCheckConfig(`printf '# CLI Reference\n\n## detect-content\n## new-command\n' > docs/cli.md`))
	result, err := c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, rberrors.IsCategory(err, rberrors.CategoryDrift))
	assert.Contains(t, err.Error(), appcfg.DefaultRemediation)
	require.NotNil(t, result)
	assert.Equal(t, []string{"docs/cli.md"}, result.Changed)
}

func TestRunDriftOutsideScopeIgnored(t *testing.T) {
	skipWithoutShell(t)
	dir := initDocsRepo(t)

	// Generator touches a file outside docs/: the scoped check stays clean.
	c := New(dir, docsCheckConfig(`echo scratch > notes.txt`))
	_, err := c.Run(context.Background())
	require.NoError(t, err)
}

func TestRunGeneratorFailure(t *testing.T) {
	skipWithoutShell(t)
	dir := initDocsRepo(t)

	c := New(dir, docsCheckConfig(`echo generator broke >&2; exit 2`))
	result, err := c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, rberrors.IsCategory(err, rberrors.CategoryExec))
	require.NotNil(t, result)
	assert.Contains(t, result.GeneratorOutput, "generator broke")
}

func TestSummarizeMarkdown(t *testing.T) {
	src := []byte("# Title\n\ntext\n\n## Section A\n\n### Sub\n")
	s := summarizeMarkdown("docs/x.md", src)
	assert.Equal(t, "Title", s.Title)
	assert.Equal(t, []string{"Title", "Section A", "Sub"}, s.Headings)
}
