package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
repository:
  url: https://example.com/project/scenedetect.git
  branch: main
pipelines:
  - name: windows-release
    triggers:
      manual: true
    steps:
      - name: install-deps
        command: python
        args: ["-m", "pip", "install", "-r", "requirements.txt"]
      - name: package
        command: pyinstaller
        needs: ["install-deps"]
`

func TestParseMinimal(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "scenedetect", cfg.Repository.Name, "name derived from URL")
	require.Len(t, cfg.Pipelines, 1)
	p := cfg.Pipelines[0]
	assert.Equal(t, "windows-release", p.Name)
	require.Len(t, p.Steps, 2)
	assert.Equal(t, "install-deps", p.Steps[0].Name)
	assert.Equal(t, "package", p.Steps[1].Name)

	// Defaults applied
	assert.Equal(t, DefaultListenAddr, cfg.Daemon.ListenAddr)
	assert.Equal(t, DefaultWorkers, cfg.Daemon.Workers)
	assert.Equal(t, DefaultQueueSize, cfg.Daemon.QueueSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("RELEASE_BRANCH", "releases/v1")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
repository:
  url: https://example.com/p/scenedetect.git
  branch: ${RELEASE_BRANCH}
pipelines:
  - name: rel
    triggers: {manual: true}
    steps:
      - {name: s1, command: "true"}
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "releases/v1", cfg.Repository.Branch)
}

func TestDocsCheckDefaults(t *testing.T) {
	yaml := `
docs_check:
  generator:
    name: generate-docs
    command: python
    args: ["docs/generate_cli_docs.py"]
  paths: ["docs/"]
`
	cfg, err := Parse([]byte(yaml))
	require.NoError(t, err)
	require.NotNil(t, cfg.DocsCheck)
	assert.Equal(t, DefaultRemediation, cfg.DocsCheck.Remediation)
}

func TestSmokeTestBackendDefault(t *testing.T) {
	yaml := `
pipelines:
  - name: rel
    triggers: {manual: true}
    steps:
      - {name: s1, command: "true"}
    smoke_tests:
      - {input: tests/resources/clip.mp4, end: "2s"}
`
	cfg, err := Parse([]byte(yaml))
	require.NoError(t, err)
	require.Len(t, cfg.Pipelines[0].SmokeTests, 1)
	assert.Equal(t, DefaultBackend, cfg.Pipelines[0].SmokeTests[0].Backend)
}

func TestPipelineByName(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)
	assert.NotNil(t, cfg.PipelineByName("windows-release"))
	assert.Nil(t, cfg.PipelineByName("missing"))
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false), "second init without force must fail")
	require.NoError(t, Init(path, true))

	// Starter config must itself parse and validate.
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.NotNil(t, cfg.PipelineByName("windows-release"))
	assert.NotNil(t, cfg.DocsCheck)
}
