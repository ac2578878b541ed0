package artifacts

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcfg "git.home.luguber.info/inful/relbuilder/internal/config"
)

// writeTree creates files under root from relative path -> content.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func zipMembers(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestBuildBundles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"dist/scenedetect/scenedetect.exe": "binary",
		"dist/scenedetect/LICENSE":         "license",
		"dist/installer.msi":               "msi",
		"src/ignored.py":                   "code",
	})

	bundles := []appcfg.Bundle{
		{Name: "scenedetect-win64", Include: []string{"dist/scenedetect/**"}},
		{Name: "scenedetect-win64-installer", Include: []string{"dist/*.msi"}},
	}

	built, err := BuildBundles(context.Background(), root, filepath.Join(root, "out"), bundles)
	require.NoError(t, err)
	require.Len(t, built, 2)

	assert.Equal(t, "scenedetect-win64", built[0].Name)
	assert.Equal(t, 2, built[0].Files)
	members := zipMembers(t, built[0].Path)
	assert.Equal(t, []string{"dist/scenedetect/LICENSE", "dist/scenedetect/scenedetect.exe"}, members,
		"members must be sorted for deterministic archives")

	assert.Equal(t, 1, built[1].Files)
	assert.Equal(t, []string{"dist/installer.msi"}, zipMembers(t, built[1].Path))
}

func TestBuildBundlesNoMatches(t *testing.T) {
	root := t.TempDir()
	bundles := []appcfg.Bundle{{Name: "empty", Include: []string{"dist/**"}}}

	_, err := BuildBundles(context.Background(), root, filepath.Join(root, "out"), bundles)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestMatchIncludesDeduplicates(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"dist/a.txt": "a"})

	files, err := matchIncludes(root, []string{"dist/**", "dist/*.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dist/a.txt"}, files)
}
