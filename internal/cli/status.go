package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/qualitygate/qualitygate/internal/config"
	"github.com/qualitygate/qualitygate/internal/packs"
	"github.com/qualitygate/qualitygate/internal/pattern"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show QualityGate status: hooks, patterns, budgets, event log",
	Long: `Check whether QualityGate is active: which IDE hooks are installed,
which pattern packs are loaded, the configured tier budgets, and whether
the event log exists.

  qualitygate status`,
	RunE: statusCommand,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusCommand(cmd *cobra.Command, args []string) error {
	cfg, cfgErr := config.Load(configPath, logPath)

	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println("  QualityGate Status")
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println()

	// 1. Binary
	binPath, err := os.Executable()
	if err != nil {
		binPath = "unknown"
	}
	fmt.Printf("  Binary:    %s (%s)\n", binPath, Version)

	// 2. Config directory
	configDir := "~/.qualitygate"
	if cfg != nil {
		configDir = cfg.ConfigDir
	}
	fmt.Printf("  Config:    %s\n", configDir)
	if cfgErr != nil {
		fmt.Printf("  ⚠  Config error: %v\n", cfgErr)
	}
	fmt.Println()

	// 3. IDE Hooks
	fmt.Println("─── IDE Hooks ──────────────────────────────────────────")
	checkHook("Windsurf", filepath.Join(os.Getenv("HOME"), ".codeium", "windsurf", "hooks.json"))
	checkHook("Cursor", filepath.Join(os.Getenv("HOME"), ".cursor", "hooks.json"))
	checkHook("Claude Code", filepath.Join(os.Getenv("HOME"), ".claude", "settings.json"))
	fmt.Println()

	// 4. Patterns
	fmt.Println("─── Patterns ──────────────────────────────────────────")
	base := packs.Default()
	fmt.Printf("  Built-in patterns: %d\n", len(base))
	if cfg != nil {
		defs, infos, err := packs.LoadDir(cfg.PacksDir, base)
		if err != nil {
			fmt.Printf("  ⚠  Packs load failed: %v\n", err)
		} else if len(infos) > 0 {
			enabled := 0
			for _, info := range infos {
				if info.Enabled {
					enabled++
				}
			}
			fmt.Printf("  ✅ Pattern packs: %d installed, %d enabled (%d patterns total)\n",
				len(infos), enabled, len(defs))
		} else {
			fmt.Println("  ⬚  No pattern packs installed")
		}

		store := pattern.NewStore()
		if _, excluded, err := store.Load(defs); err != nil {
			fmt.Printf("  ❌ Pattern set invalid: %v\n", err)
		} else {
			snap := store.Snapshot()
			for _, tier := range pattern.Tiers {
				fmt.Printf("     %-14s %d\n", tier, len(snap.TierPatterns(tier)))
			}
			if len(excluded) > 0 {
				fmt.Printf("  ⚠  %d pattern(s) excluded as malformed\n", len(excluded))
			}
		}
	}
	fmt.Println()

	// 5. Budgets
	if cfg != nil {
		fmt.Println("─── Tier Budgets ──────────────────────────────────────")
		for _, tier := range pattern.Tiers {
			fmt.Printf("  %-14s %s\n", tier, formatBudget(cfg.Budget.PerTier[tier]))
		}
		fmt.Printf("  %-14s %s\n", "overall", formatBudget(cfg.Budget.Overall))
		fmt.Println()
	}

	// 6. Event log
	fmt.Println("─── Event Log ─────────────────────────────────────────")
	eventPath := ""
	if cfg != nil {
		eventPath = cfg.LogPath
	}
	checkEventLog(eventPath)
	fmt.Println()

	return nil
}

func checkHook(name, hooksPath string) {
	data, err := os.ReadFile(hooksPath)
	if err != nil {
		fmt.Printf("  ⬚  %s: not configured\n", name)
		return
	}
	if strings.Contains(string(data), "qualitygate hook") {
		fmt.Printf("  ✅ %s: hook active (%s)\n", name, hooksPath)
	} else {
		fmt.Printf("  ⬚  %s: config exists but no QualityGate hook\n", name)
	}
}

func checkEventLog(path string) {
	if path == "" {
		fmt.Println("  ⬚  No event log path configured")
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("  ⬚  %s (not yet created; starts on first event)\n", path)
		return
	}

	sizeKB := info.Size() / 1024
	if sizeKB == 0 {
		fmt.Printf("  ✅ %s (<1 KB)\n", path)
	} else {
		fmt.Printf("  ✅ %s (%d KB)\n", path, sizeKB)
	}
}

func formatBudget(d time.Duration) string {
	if d <= 0 {
		return "unset"
	}
	return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
}
