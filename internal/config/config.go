// Package config loads, normalizes, and validates the relbuilder YAML
// configuration: the project repository, pipeline definitions, the docs
// consistency check, and daemon/runtime settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Workspace  WorkspaceConfig  `yaml:"workspace"`
	Repository Repository       `yaml:"repository"`
	Pipelines  []Pipeline       `yaml:"pipelines"`
	DocsCheck  *DocsCheckConfig `yaml:"docs_check,omitempty"`
	History    HistoryConfig    `yaml:"history"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Events     EventsConfig     `yaml:"events"`
	Daemon     DaemonConfig     `yaml:"daemon"`
}

// WorkspaceConfig controls where build workspaces are created.
type WorkspaceConfig struct {
	BaseDir string `yaml:"base_dir,omitempty"` // empty means os.MkdirTemp
	Keep    bool   `yaml:"keep,omitempty"`     // keep workspace after run (debugging)
}

// Repository represents the Git repository the pipelines operate on
type Repository struct {
	URL    string      `yaml:"url"`
	Name   string      `yaml:"name"`
	Branch string      `yaml:"branch,omitempty"`
	Auth   *AuthConfig `yaml:"auth,omitempty"`

	// Resources are auxiliary branches checked out into the workspace,
	// e.g. a branch holding test videos or signing collateral.
	Resources []ResourceBranch `yaml:"resources,omitempty"`
}

// ResourceBranch is an auxiliary branch checked out under Dest in the workspace.
type ResourceBranch struct {
	Branch string `yaml:"branch"`
	Dest   string `yaml:"dest"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Type     string `yaml:"type"` // "ssh", "token", "basic"
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}

// HistoryConfig controls the SQLite run history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"` // defaults to <data_dir>/history.db
}

// MetricsConfig controls the Prometheus recorder.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// EventsConfig controls the optional NATS run-event publisher.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	Stream  string `yaml:"stream,omitempty"`
}

// DaemonConfig holds settings for continuous mode.
type DaemonConfig struct {
	DataDir      string `yaml:"data_dir,omitempty"`
	ListenAddr   string `yaml:"listen_addr,omitempty"`
	Workers      int    `yaml:"workers,omitempty"`
	QueueSize    int    `yaml:"queue_size,omitempty"`
	HistoryLimit int    `yaml:"history_limit,omitempty"` // in-memory completed run cap
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just note it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse unmarshals raw YAML, expands environment references, applies
// defaults, normalizes, and validates.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ApplyDefaults()
	if err := config.Normalize(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// PipelineByName returns the named pipeline, or nil.
func (c *Config) PipelineByName(name string) *Pipeline {
	for i := range c.Pipelines {
		if c.Pipelines[i].Name == name {
			return &c.Pipelines[i]
		}
	}
	return nil
}

// Init writes a starter configuration file.
func Init(configPath string, force bool) error {
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
		}
	}
	return os.WriteFile(configPath, []byte(starterConfig), 0o644)
}

const starterConfig = `# relbuilder configuration
repository:
  url: https://example.com/project/scenedetect.git
  name: scenedetect
  branch: main
  resources:
    - branch: resources
      dest: tests/resources

docs_check:
  generator:
    name: generate-docs
    command: python
    args: ["docs/generate_cli_docs.py"]
  paths: ["docs/"]

pipelines:
  - name: windows-release
    triggers:
      manual: true
      cron: "0 4 * * *"
      push:
        branches: ["main", "releases/*"]
        tags: ["v*"]
        paths: ["scenedetect/**", "dist/**"]
    steps:
      - name: install-deps
        command: python
        args: ["-m", "pip", "install", "-r", "requirements.txt"]
      - name: package
        command: pyinstaller
        args: ["dist/scenedetect.spec"]
        needs: ["install-deps"]
      - name: decrypt-license
        command: openssl
        args: ["enc", "-d", "-in", "dist/license.enc", "-out", "dist/LICENSE"]
        secrets: ["LICENSE_KEY"]
        needs: ["package"]
      - name: installer
        command: advancedinstaller
        args: ["/build", "dist/installer.aip"]
        needs: ["decrypt-license"]
    artifacts:
      - name: scenedetect-win64
        include: ["dist/scenedetect/**"]
      - name: scenedetect-win64-installer
        include: ["dist/*.msi"]
    smoke_binary: dist/scenedetect/scenedetect.exe
    smoke_tests:
      - input: tests/resources/goldeneye.mp4
        backend: opencv
        end: 2s

history:
  enabled: true

daemon:
  listen_addr: ":8573"
  workers: 1
`
