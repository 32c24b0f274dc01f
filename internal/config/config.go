// internal/config/config.go
//
// This package handles configuration and the .bpmnboard directory structure.
// Every project that uses the dashboard gets a .bpmnboard/ folder created in
// its root, holding the config file, logs, and proposed KPI downloads.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// BoardDir is the name of the directory we create in each project
	BoardDir = ".bpmnboard"

	defaultAPIHost = "https://api.github.com"
	defaultRawHost = "https://raw.githubusercontent.com"
	defaultBranch  = "main"
	defaultModel   = "gpt-4o-mini"

	defaultTokenEnv  = "GITHUB_TOKEN"
	defaultAPIKeyEnv = "OPENAI_API_KEY"

	// MaxRefreshSeconds bounds the auto-refresh interval.
	MaxRefreshSeconds = 600

	defaultRequestTimeout = 20 * time.Second
	defaultProbeTimeout   = 15 * time.Second
	defaultCacheTTL       = 60 * time.Second
)

const defaultProjectConfigYAML = `# bpmnboard project configuration
version: 1

# Repository holding the BPMN diagrams and KPI CSVs.
repository:
  owner: udexvinda
  name: process-flow-dashboard
  branch: main
  # Private repo? Set true and export GITHUB_TOKEN.
  private: false

# Folders offered when the root listing cannot be fetched.
default_folders:
  - hr
  - finance
  - claims

# Auto-refresh in seconds, 0 = off. Clamped to [0, 600].
refresh_seconds: 0

suggestions:
  model: gpt-4o-mini
  # API key is read from this environment variable, never from this file.
  api_key_env: OPENAI_API_KEY
`

// RepositoryConfig identifies the GitHub repository the dashboard reads from.
type RepositoryConfig struct {
	Owner   string `yaml:"owner"`
	Name    string `yaml:"name"`
	Branch  string `yaml:"branch,omitempty"`
	Private bool   `yaml:"private,omitempty"`
	APIHost string `yaml:"api_host,omitempty"`
	RawHost string `yaml:"raw_host,omitempty"`
}

// SuggestionsConfig controls the optional KPI suggestion feature.
type SuggestionsConfig struct {
	Model     string `yaml:"model,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
}

// ProjectConfig models .bpmnboard/config.yaml.
type ProjectConfig struct {
	Version        int               `yaml:"version"`
	Repository     RepositoryConfig  `yaml:"repository"`
	DefaultFolders []string          `yaml:"default_folders,omitempty"`
	RefreshSeconds int               `yaml:"refresh_seconds"`
	Suggestions    SuggestionsConfig `yaml:"suggestions,omitempty"`
	TokenEnv       string            `yaml:"token_env,omitempty"`
}

// Config holds the runtime configuration for the dashboard. It is constructed
// once at startup and passed into every component that needs it; nothing reads
// ambient global state after this point.
type Config struct {
	// ProjectDir is the directory where the user ran `bpmnboard` from
	ProjectDir string

	// BoardProjectDir is ProjectDir/.bpmnboard
	BoardProjectDir string

	Project ProjectConfig

	// RequestTimeout bounds every repository fetch.
	RequestTimeout time.Duration
	// ProbeTimeout bounds the lightweight existence probe.
	ProbeTimeout time.Duration
	// CacheTTL bounds how long fetched file contents are reused.
	CacheTTL time.Duration
}

// InitProjectDir creates the .bpmnboard directory structure in the given
// project directory. This is called when the TUI starts up.
//
// Structure created:
// .bpmnboard/
// ├── logs/         <- Pipeline and fetch activity log
// └── downloads/    <- Proposed KPI CSVs ready to commit manually
func InitProjectDir(projectDir string) error {
	boardDir := filepath.Join(projectDir, BoardDir)

	dirs := []string{
		filepath.Join(boardDir, "logs"),
		filepath.Join(boardDir, "downloads"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return ensureProjectConfig(filepath.Join(boardDir, "config.yaml"))
}

// New creates a Config populated from .bpmnboard/config.yaml plus
// environment overrides.
func New(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:      projectDir,
		BoardProjectDir: filepath.Join(projectDir, BoardDir),
		Project:         defaultProjectConfig(),
		RequestTimeout:  defaultRequestTimeout,
		ProbeTimeout:    defaultProbeTimeout,
		CacheTTL:        defaultCacheTTL,
	}

	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.BoardProjectDir, "logs")
}

// DownloadsDir returns where proposed KPI CSVs are written.
func (c *Config) DownloadsDir() string {
	return filepath.Join(c.BoardProjectDir, "downloads")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.BoardProjectDir, "config.yaml")
}

// Repository returns the configured repository identity.
func (c *Config) Repository() RepositoryConfig {
	return c.Project.Repository
}

// DefaultFolders returns the static fallback folder list.
func (c *Config) DefaultFolders() []string {
	return c.Project.DefaultFolders
}

// RefreshInterval returns the auto-refresh period, or 0 when disabled.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Project.RefreshSeconds) * time.Second
}

// Token resolves the repository token from the configured environment
// variable. Empty when unset.
func (c *Config) Token() string {
	return strings.TrimSpace(os.Getenv(c.Project.TokenEnv))
}

// SuggestionAPIKey resolves the text-generation credential from the
// configured environment variable. Empty when unset.
func (c *Config) SuggestionAPIKey() string {
	return strings.TrimSpace(os.Getenv(c.Project.Suggestions.APIKeyEnv))
}

// SuggestionModel returns the model identifier for KPI suggestions.
func (c *Config) SuggestionModel() string {
	return c.Project.Suggestions.Model
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnvOverrides() {
	if owner := strings.TrimSpace(os.Getenv("BPMNBOARD_REPO_OWNER")); owner != "" {
		c.Project.Repository.Owner = owner
	}
	if name := strings.TrimSpace(os.Getenv("BPMNBOARD_REPO_NAME")); name != "" {
		c.Project.Repository.Name = name
	}
	if branch := strings.TrimSpace(os.Getenv("BPMNBOARD_BRANCH")); branch != "" {
		c.Project.Repository.Branch = branch
	}
	if value := strings.TrimSpace(os.Getenv("BPMNBOARD_PRIVATE")); value != "" {
		if private, err := strconv.ParseBool(value); err == nil {
			c.Project.Repository.Private = private
		}
	}
	if value := strings.TrimSpace(os.Getenv("BPMNBOARD_REFRESH_SECONDS")); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			c.Project.RefreshSeconds = clampRefresh(seconds)
		}
	}
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Repository: RepositoryConfig{
			Branch:  defaultBranch,
			APIHost: defaultAPIHost,
			RawHost: defaultRawHost,
		},
		Suggestions: SuggestionsConfig{
			Model:     defaultModel,
			APIKeyEnv: defaultAPIKeyEnv,
		},
		TokenEnv: defaultTokenEnv,
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Repository.Branch == "" {
		pc.Repository.Branch = defaultBranch
	}
	if pc.Repository.APIHost == "" {
		pc.Repository.APIHost = defaultAPIHost
	}
	if pc.Repository.RawHost == "" {
		pc.Repository.RawHost = defaultRawHost
	}
	if pc.Suggestions.Model == "" {
		pc.Suggestions.Model = defaultModel
	}
	if pc.Suggestions.APIKeyEnv == "" {
		pc.Suggestions.APIKeyEnv = defaultAPIKeyEnv
	}
	if pc.TokenEnv == "" {
		pc.TokenEnv = defaultTokenEnv
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Repository.Owner = strings.TrimSpace(pc.Repository.Owner)
	pc.Repository.Name = strings.TrimSpace(pc.Repository.Name)
	pc.Repository.Branch = strings.TrimSpace(pc.Repository.Branch)
	pc.Repository.APIHost = strings.TrimRight(strings.TrimSpace(pc.Repository.APIHost), "/")
	pc.Repository.RawHost = strings.TrimRight(strings.TrimSpace(pc.Repository.RawHost), "/")
	pc.Suggestions.Model = strings.TrimSpace(pc.Suggestions.Model)
	pc.Suggestions.APIKeyEnv = strings.TrimSpace(pc.Suggestions.APIKeyEnv)
	pc.TokenEnv = strings.TrimSpace(pc.TokenEnv)
	pc.RefreshSeconds = clampRefresh(pc.RefreshSeconds)

	folders := pc.DefaultFolders[:0]
	for _, folder := range pc.DefaultFolders {
		if trimmed := strings.Trim(strings.TrimSpace(folder), "/"); trimmed != "" {
			folders = append(folders, trimmed)
		}
	}
	pc.DefaultFolders = folders
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Repository.Owner == "" {
		return fmt.Errorf("repository.owner is required")
	}
	if pc.Repository.Name == "" {
		return fmt.Errorf("repository.name is required")
	}
	if pc.Repository.Branch == "" {
		return fmt.Errorf("repository.branch is required")
	}
	return nil
}

func clampRefresh(seconds int) int {
	if seconds < 0 {
		return 0
	}
	if seconds > MaxRefreshSeconds {
		return MaxRefreshSeconds
	}
	return seconds
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}
