package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/qualitygate/qualitygate/internal/pattern"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Budget.Overall != 1500*time.Microsecond {
		t.Errorf("Overall = %v, want 1.5ms", cfg.Budget.Overall)
	}
	if cfg.MaxCacheEntries != 4096 {
		t.Errorf("MaxCacheEntries = %d", cfg.MaxCacheEntries)
	}
	if cfg.MaxInputLen != 8192 {
		t.Errorf("MaxInputLen = %d", cfg.MaxInputLen)
	}
	if !cfg.LearningEnabled {
		t.Error("learning disabled by default")
	}
	if cfg.OnInconclusive != InconclusivePass {
		t.Errorf("OnInconclusive = %q", cfg.OnInconclusive)
	}
	if cfg.ListenAddr != "127.0.0.1:8710" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}

	// The config directory is created for the log and packs paths.
	if _, err := os.Stat(cfg.ConfigDir); err != nil {
		t.Errorf("config dir not created: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(home, "custom.yaml")
	content := `
overall_budget_ms: 3.0
per_tier_budget_ms:
  ULTRA_CRITICAL: 0.2
  INFO: 0.5
max_cache_entries: 128
learning_enabled: false
on_inconclusive: warn
listen_addr: "127.0.0.1:9999"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Budget.Overall != 3*time.Millisecond {
		t.Errorf("Overall = %v", cfg.Budget.Overall)
	}
	if got := cfg.Budget.PerTier[pattern.TierUltraCritical]; got != 200*time.Microsecond {
		t.Errorf("UC budget = %v", got)
	}
	// Unspecified tiers keep their defaults.
	if got := cfg.Budget.PerTier[pattern.TierCriticalFast]; got != 300*time.Microsecond {
		t.Errorf("CF budget = %v, want default", got)
	}
	if cfg.MaxCacheEntries != 128 {
		t.Errorf("MaxCacheEntries = %d", cfg.MaxCacheEntries)
	}
	if cfg.LearningEnabled {
		t.Error("learning_enabled: false ignored")
	}
	if cfg.OnInconclusive != InconclusiveWarn {
		t.Errorf("OnInconclusive = %q", cfg.OnInconclusive)
	}
	if cfg.ListenAddr != "127.0.0.1:9999" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
}

func TestLoadRejectsOversubscribedBudgets(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(home, "bad.yaml")
	content := `
overall_budget_ms: 0.5
per_tier_budget_ms:
  ULTRA_CRITICAL: 0.3
  CRITICAL_FAST: 0.3
  HIGH_NORMAL: 0.3
  INFO: 0.3
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path, ""); err == nil {
		t.Error("per-tier budgets exceeding overall were accepted")
	}
}

func TestLoadRejectsBadInconclusive(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(home, "bad.yaml")
	if err := os.WriteFile(path, []byte("on_inconclusive: explode\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path, ""); err == nil {
		t.Error("invalid on_inconclusive accepted")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(home, "broken.yaml")
	if err := os.WriteFile(path, []byte("{{not yaml"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path, ""); err == nil {
		t.Error("malformed YAML accepted")
	}
}

func TestLogPathOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("", "/tmp/custom-events.jsonl")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogPath != "/tmp/custom-events.jsonl" {
		t.Errorf("LogPath = %q", cfg.LogPath)
	}
}
