package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FIBERDESK_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Database.Path != "data/fiberdesk.db" {
		t.Errorf("database path = %s", cfg.Database.Path)
	}
	if time.Duration(cfg.Sync.FetchInterval) != 5*time.Second {
		t.Errorf("fetch interval = %v", time.Duration(cfg.Sync.FetchInterval))
	}
	if time.Duration(cfg.Lifecycle.Interval) != time.Minute {
		t.Errorf("lifecycle interval = %v", time.Duration(cfg.Lifecycle.Interval))
	}
	if time.Duration(cfg.Lifecycle.AgeThreshold) != 24*time.Hour {
		t.Errorf("age threshold = %v", time.Duration(cfg.Lifecycle.AgeThreshold))
	}
	if cfg.Remote.Token != "" {
		t.Errorf("token default should be empty (read-only mode)")
	}
}

func TestLoadFromFile_YAMLAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fiberdesk.yaml")
	yaml := `
database:
  path: /var/lib/fiberdesk/test.db
remote:
  endpoint: https://blob.example.com
sync:
  fetch_interval: 10s
lifecycle:
  interval: 5m
  age_threshold: 48h
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// Env beats YAML
	t.Setenv("FIBERDESK_DB_PATH", "/tmp/override.db")
	t.Setenv("FIBERDESK_REMOTE_TOKEN", "env-secret")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("env override lost: %s", cfg.Database.Path)
	}
	if cfg.Remote.Endpoint != "https://blob.example.com" {
		t.Errorf("endpoint = %s", cfg.Remote.Endpoint)
	}
	if cfg.Remote.Token != "env-secret" {
		t.Errorf("token = %s", cfg.Remote.Token)
	}
	if time.Duration(cfg.Sync.FetchInterval) != 10*time.Second {
		t.Errorf("fetch interval = %v", time.Duration(cfg.Sync.FetchInterval))
	}
	if time.Duration(cfg.Lifecycle.AgeThreshold) != 48*time.Hour {
		t.Errorf("age threshold = %v", time.Duration(cfg.Lifecycle.AgeThreshold))
	}
}

func TestLoadFromFile_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("sync:\n  fetch_interval: soon\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestValidate_RejectsNonPositiveIntervals(t *testing.T) {
	cfg := newDefaults()
	cfg.Lifecycle.Interval = 0
	if err := cfg.validate(); err == nil {
		t.Error("expected validation error for zero lifecycle interval")
	}

	cfg = newDefaults()
	cfg.Server.Port = 99999
	if err := cfg.validate(); err == nil {
		t.Error("expected validation error for out-of-range port")
	}
}
