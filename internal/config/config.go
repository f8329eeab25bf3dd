// Package config loads host configuration from ~/.qualitygate. Budgets are
// expressed in milliseconds in the YAML file because the interesting values
// are fractions of one.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/qualitygate/qualitygate/internal/budget"
	"github.com/qualitygate/qualitygate/internal/pattern"
)

const (
	DefaultConfigDir  = ".qualitygate"
	DefaultConfigFile = "config.yaml"
	DefaultLogFile    = "events.jsonl"
	DefaultPacksDir   = "packs"
)

// Inconclusive policies for degraded verdicts with no matches.
const (
	InconclusivePass = "pass"
	InconclusiveWarn = "warn"
)

// File is the on-disk YAML shape.
type File struct {
	OverallBudgetMS float64            `yaml:"overall_budget_ms"`
	TierBudgetsMS   map[string]float64 `yaml:"per_tier_budget_ms"`
	MaxCacheEntries int                `yaml:"max_cache_entries"`
	MaxInputLen     int                `yaml:"max_input_len"`
	QueueCapacity   int                `yaml:"learning_queue_capacity"`
	LearningEnabled *bool              `yaml:"learning_enabled"`
	OnInconclusive  string             `yaml:"on_inconclusive"`
	ListenAddr      string             `yaml:"listen_addr"`
}

// Config is the resolved runtime configuration.
type Config struct {
	ConfigDir string
	LogPath   string
	PacksDir  string

	Budget          budget.Limits
	MaxCacheEntries int
	MaxInputLen     int
	QueueCapacity   int
	LearningEnabled bool
	OnInconclusive  string
	ListenAddr      string
}

// Load resolves configuration from the given path, or the default location
// when path is empty. A missing file yields the defaults; a malformed file
// is an error.
func Load(path, logPath string) (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	configDir := filepath.Join(homeDir, DefaultConfigDir)
	if err := ensureDir(configDir); err != nil {
		return nil, err
	}

	cfg := &Config{
		ConfigDir:       configDir,
		LogPath:         filepath.Join(configDir, DefaultLogFile),
		PacksDir:        filepath.Join(configDir, DefaultPacksDir),
		Budget:          budget.DefaultLimits(),
		MaxCacheEntries: 4096,
		MaxInputLen:     8192,
		QueueCapacity:   1024,
		LearningEnabled: true,
		OnInconclusive:  InconclusivePass,
		ListenAddr:      "127.0.0.1:8710",
	}
	if logPath != "" {
		cfg.LogPath = logPath
	}

	if path == "" {
		path = filepath.Join(configDir, DefaultConfigFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	applyFile(cfg, &file)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func applyFile(cfg *Config, file *File) {
	if file.OverallBudgetMS > 0 {
		cfg.Budget.Overall = msToDuration(file.OverallBudgetMS)
	}
	for name, ms := range file.TierBudgetsMS {
		tier := pattern.Tier(name)
		if tier.Valid() && ms > 0 {
			cfg.Budget.PerTier[tier] = msToDuration(ms)
		}
	}
	if file.MaxCacheEntries > 0 {
		cfg.MaxCacheEntries = file.MaxCacheEntries
	}
	if file.MaxInputLen > 0 {
		cfg.MaxInputLen = file.MaxInputLen
	}
	if file.QueueCapacity > 0 {
		cfg.QueueCapacity = file.QueueCapacity
	}
	if file.LearningEnabled != nil {
		cfg.LearningEnabled = *file.LearningEnabled
	}
	if file.OnInconclusive != "" {
		cfg.OnInconclusive = file.OnInconclusive
	}
	if file.ListenAddr != "" {
		cfg.ListenAddr = file.ListenAddr
	}
}

// Validate enforces the budget invariant: the per-tier allowances must fit
// under the overall ceiling, so a full walk of all tiers can never rely on
// time that does not exist.
func (c *Config) Validate() error {
	var sum time.Duration
	for _, t := range pattern.Tiers {
		sum += c.Budget.PerTier[t]
	}
	if sum > c.Budget.Overall {
		return fmt.Errorf("per-tier budgets sum to %v, exceeding overall budget %v", sum, c.Budget.Overall)
	}

	switch c.OnInconclusive {
	case InconclusivePass, InconclusiveWarn:
	default:
		return fmt.Errorf("on_inconclusive must be %q or %q, got %q",
			InconclusivePass, InconclusiveWarn, c.OnInconclusive)
	}
	return nil
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func ensureDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0700)
	}
	return nil
}
