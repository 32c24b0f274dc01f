package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewDefaultsWhenConfigMissing(t *testing.T) {
	projectDir := t.TempDir()

	cfg, err := New(projectDir)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	repo := cfg.Repository()
	if repo.APIHost != defaultAPIHost || repo.RawHost != defaultRawHost {
		t.Fatalf("expected default hosts, got %q / %q", repo.APIHost, repo.RawHost)
	}
	if repo.Branch != defaultBranch {
		t.Fatalf("expected default branch, got %q", repo.Branch)
	}
	if cfg.RefreshInterval() != 0 {
		t.Fatalf("expected auto-refresh off by default")
	}
	if cfg.CacheTTL != 60*time.Second {
		t.Fatalf("cache ttl = %v, want 60s", cfg.CacheTTL)
	}
}

func TestNewParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	boardDir := filepath.Join(projectDir, BoardDir)
	if err := os.MkdirAll(boardDir, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
repository:
  owner: udexvinda
  name: process-flow-dashboard
  branch: develop
  private: true
default_folders:
  - hr
  - finance
refresh_seconds: 9000
suggestions:
  model: gpt-4o
`)
	if err := os.WriteFile(filepath.Join(boardDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := New(projectDir)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if cfg.Repository().Branch != "develop" {
		t.Fatalf("branch = %q, want develop", cfg.Repository().Branch)
	}
	if !cfg.Repository().Private {
		t.Fatalf("expected private mode on")
	}
	if len(cfg.DefaultFolders()) != 2 {
		t.Fatalf("expected 2 default folders, got %v", cfg.DefaultFolders())
	}
	if cfg.Project.RefreshSeconds != MaxRefreshSeconds {
		t.Fatalf("refresh not clamped: %d", cfg.Project.RefreshSeconds)
	}
	if cfg.SuggestionModel() != "gpt-4o" {
		t.Fatalf("model = %q", cfg.SuggestionModel())
	}
}

func TestNewValidation(t *testing.T) {
	projectDir := t.TempDir()
	boardDir := filepath.Join(projectDir, BoardDir)
	if err := os.MkdirAll(boardDir, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
repository:
  name: missing-owner
`)
	if err := os.WriteFile(filepath.Join(boardDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(projectDir); err == nil {
		t.Fatalf("expected validation error but got none")
	}
}

func TestEnvOverrides(t *testing.T) {
	projectDir := t.TempDir()
	t.Setenv("BPMNBOARD_REPO_OWNER", "someone-else")
	t.Setenv("BPMNBOARD_BRANCH", "release")
	t.Setenv("BPMNBOARD_PRIVATE", "true")
	t.Setenv("BPMNBOARD_REFRESH_SECONDS", "-5")

	cfg, err := New(projectDir)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if cfg.Repository().Owner != "someone-else" {
		t.Fatalf("owner override ignored: %q", cfg.Repository().Owner)
	}
	if cfg.Repository().Branch != "release" {
		t.Fatalf("branch override ignored: %q", cfg.Repository().Branch)
	}
	if !cfg.Repository().Private {
		t.Fatalf("private override ignored")
	}
	if cfg.Project.RefreshSeconds != 0 {
		t.Fatalf("negative refresh should clamp to 0, got %d", cfg.Project.RefreshSeconds)
	}
}

func TestInitProjectDirWritesDefaultConfig(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitProjectDir(projectDir); err != nil {
		t.Fatalf("InitProjectDir returned error: %v", err)
	}
	for _, sub := range []string{"logs", "downloads"} {
		if _, err := os.Stat(filepath.Join(projectDir, BoardDir, sub)); err != nil {
			t.Fatalf("expected %s dir: %v", sub, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(projectDir, BoardDir, "config.yaml"))
	if err != nil {
		t.Fatalf("expected default config file: %v", err)
	}
	if !strings.Contains(string(data), "repository:") {
		t.Fatalf("default config looks wrong:\n%s", data)
	}
}

func TestTokenResolution(t *testing.T) {
	projectDir := t.TempDir()
	cfg, err := New(projectDir)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Setenv(defaultTokenEnv, " tok-42 ")
	if cfg.Token() != "tok-42" {
		t.Fatalf("token = %q, want trimmed env value", cfg.Token())
	}
}
