package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Set up QualityGate for your environment",
	Long: `Set up QualityGate integration with IDE agents.

IDE-specific setup:
  qualitygate setup claude-code           # install Claude Code PreToolUse hook
  qualitygate setup claude-code --disable # remove Claude Code hook
  qualitygate setup windsurf              # install Cascade Hooks
  qualitygate setup windsurf --disable    # remove Cascade Hooks
  qualitygate setup cursor                # install Cursor Hooks
  qualitygate setup cursor --disable      # remove Cursor Hooks`,
	RunE: setupCommand,
}

var setupClaudeCodeCmd = &cobra.Command{
	Use:   "claude-code",
	Short: "Set up QualityGate for Claude Code (PreToolUse hook)",
	Long: `Install or remove the PreToolUse hook so every Bash, Write, and Edit
tool call Claude Code makes is classified by QualityGate before it runs.

  qualitygate setup claude-code             # enable hook
  qualitygate setup claude-code --disable   # disable hook`,
	RunE: setupClaudeCodeCommand,
}

var setupWindsurfCmd = &cobra.Command{
	Use:   "windsurf",
	Short: "Set up QualityGate for Windsurf IDE",
	Long: `Install or remove Cascade Hooks so every command Windsurf's AI agent
runs is classified by QualityGate before execution.

  qualitygate setup windsurf             # enable hooks
  qualitygate setup windsurf --disable   # disable hooks`,
	RunE: setupWindsurfCommand,
}

var setupCursorCmd = &cobra.Command{
	Use:   "cursor",
	Short: "Set up QualityGate for Cursor IDE",
	Long: `Install or remove Cursor Hooks so every command Cursor's AI agent
runs is classified by QualityGate before execution.

  qualitygate setup cursor             # enable hooks
  qualitygate setup cursor --disable   # disable hooks`,
	RunE: setupCursorCommand,
}

var disableFlag bool

func init() {
	setupClaudeCodeCmd.Flags().BoolVar(&disableFlag, "disable", false, "Remove QualityGate hooks and disable integration")
	setupWindsurfCmd.Flags().BoolVar(&disableFlag, "disable", false, "Remove QualityGate hooks and disable integration")
	setupCursorCmd.Flags().BoolVar(&disableFlag, "disable", false, "Remove QualityGate hooks and disable integration")
	setupCmd.AddCommand(setupClaudeCodeCmd)
	setupCmd.AddCommand(setupWindsurfCmd)
	setupCmd.AddCommand(setupCursorCmd)
	rootCmd.AddCommand(setupCmd)
}

func setupCommand(cmd *cobra.Command, args []string) error {
	fmt.Println("Choose an integration to set up:")
	fmt.Println()
	fmt.Println("  qualitygate setup claude-code")
	fmt.Println("  qualitygate setup windsurf")
	fmt.Println("  qualitygate setup cursor")
	fmt.Println()
	fmt.Println("Each can be removed later with the --disable flag.")
	return nil
}

// qualitygateHookEntry is the PreToolUse entry installed into Claude Code's
// settings.json. Bash commands and file edits both flow through the gate.
var qualitygateHookEntry = map[string]interface{}{
	"matcher": "Bash|Write|Edit|MultiEdit",
	"hooks": []interface{}{
		map[string]interface{}{
			"type":    "command",
			"command": "qualitygate hook",
		},
	},
}

func setupClaudeCodeCommand(cmd *cobra.Command, args []string) error {
	settingsPath := filepath.Join(os.Getenv("HOME"), ".claude", "settings.json")

	if disableFlag {
		return disableClaudeCodeHook(settingsPath)
	}

	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println("  QualityGate + Claude Code (PreToolUse Hook)")
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println()

	binPath, err := exec.LookPath("qualitygate")
	if err != nil {
		fmt.Println("⚠  qualitygate not found in PATH. Install it first:")
		fmt.Println("   go install github.com/qualitygate/qualitygate/cmd/qualitygate@latest")
		return nil
	}
	fmt.Printf("✅ qualitygate found: %s\n", binPath)

	settings, err := readJSONConfig(settingsPath)
	if err != nil {
		return err
	}

	hooks := getOrCreateMap(settings, "hooks")
	preToolUse, _ := hooks["PreToolUse"].([]interface{})

	for _, entry := range preToolUse {
		if isQualityGateHookEntry(entry) {
			fmt.Printf("✅ Claude Code hook already configured: %s\n", settingsPath)
			fmt.Println()
			fmt.Println("To disable: qualitygate setup claude-code --disable")
			return nil
		}
	}

	hooks["PreToolUse"] = append(preToolUse, qualitygateHookEntry)
	settings["hooks"] = hooks

	if err := os.MkdirAll(filepath.Dir(settingsPath), 0755); err != nil {
		return err
	}
	if err := writeJSONConfig(settingsPath, settings); err != nil {
		return err
	}

	fmt.Printf("✅ PreToolUse hook installed: %s\n", settingsPath)
	fmt.Println()
	fmt.Println("How it works:")
	fmt.Println("  1. Claude Code is about to run a Bash, Write, or Edit tool call")
	fmt.Println("  2. The PreToolUse hook calls `qualitygate hook`")
	fmt.Println("  3. QualityGate classifies the command or edit content")
	fmt.Println("  4. ULTRA_CRITICAL / CRITICAL_FAST matches block the action")
	fmt.Println("  5. HIGH_NORMAL matches prompt for approval; everything else passes")
	fmt.Println()
	fmt.Println("To disable: qualitygate setup claude-code --disable")
	return nil
}

func disableClaudeCodeHook(settingsPath string) error {
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		fmt.Println("ℹ  No settings.json found for Claude Code; nothing to disable.")
		return nil
	}

	settings, err := readJSONConfig(settingsPath)
	if err != nil {
		return err
	}

	hooks, ok := settings["hooks"].(map[string]interface{})
	if !ok {
		fmt.Println("ℹ  Claude Code settings.json has no hooks; nothing to disable.")
		return nil
	}

	preToolUse, _ := hooks["PreToolUse"].([]interface{})
	filtered := preToolUse[:0]
	removed := false
	for _, entry := range preToolUse {
		if isQualityGateHookEntry(entry) {
			removed = true
			continue
		}
		filtered = append(filtered, entry)
	}

	if !removed {
		fmt.Println("ℹ  QualityGate hook not found in Claude Code settings; nothing to disable.")
		return nil
	}

	if len(filtered) == 0 {
		delete(hooks, "PreToolUse")
	} else {
		hooks["PreToolUse"] = filtered
	}
	if len(hooks) == 0 {
		delete(settings, "hooks")
	} else {
		settings["hooks"] = hooks
	}

	if err := writeJSONConfig(settingsPath, settings); err != nil {
		return err
	}

	fmt.Printf("✅ QualityGate hook disabled for Claude Code\n")
	fmt.Println("Re-enable anytime with: qualitygate setup claude-code")
	return nil
}

func setupWindsurfCommand(cmd *cobra.Command, args []string) error {
	hooksPath := filepath.Join(os.Getenv("HOME"), ".codeium", "windsurf", "hooks.json")
	return setupShellHook("Windsurf", hooksPath, "pre_run_command", "qualitygate setup windsurf")
}

func setupCursorCommand(cmd *cobra.Command, args []string) error {
	hooksPath := filepath.Join(os.Getenv("HOME"), ".cursor", "hooks.json")
	return setupShellHook("Cursor", hooksPath, "beforeShellExecution", "qualitygate setup cursor")
}

// setupShellHook installs or removes a `qualitygate hook` entry under the
// given event key in an IDE's hooks.json.
func setupShellHook(ideName, hooksPath, eventKey, setupCmdLine string) error {
	if disableFlag {
		return disableShellHook(ideName, hooksPath, eventKey, setupCmdLine)
	}

	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Printf("  QualityGate + %s\n", ideName)
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println()

	cfg, err := readJSONConfig(hooksPath)
	if err != nil {
		return err
	}

	hooks := getOrCreateMap(cfg, "hooks")
	entries, _ := hooks[eventKey].([]interface{})
	for _, entry := range entries {
		if m, ok := entry.(map[string]interface{}); ok && m["command"] == "qualitygate hook" {
			fmt.Printf("✅ %s hook already configured: %s\n", ideName, hooksPath)
			return nil
		}
	}

	hooks[eventKey] = append(entries, map[string]interface{}{
		"command":         "qualitygate hook",
		"show_output":     true,
		"timeout_seconds": 30,
	})
	cfg["hooks"] = hooks

	if err := os.MkdirAll(filepath.Dir(hooksPath), 0755); err != nil {
		return err
	}
	if err := writeJSONConfig(hooksPath, cfg); err != nil {
		return err
	}

	fmt.Printf("✅ %s hook installed: %s\n", ideName, hooksPath)
	fmt.Printf("To disable: %s --disable\n", setupCmdLine)
	return nil
}

func disableShellHook(ideName, hooksPath, eventKey, setupCmdLine string) error {
	if _, err := os.Stat(hooksPath); os.IsNotExist(err) {
		fmt.Printf("ℹ  No hooks.json found for %s; nothing to disable.\n", ideName)
		return nil
	}

	cfg, err := readJSONConfig(hooksPath)
	if err != nil {
		return err
	}

	hooks, ok := cfg["hooks"].(map[string]interface{})
	if !ok {
		fmt.Printf("ℹ  %s hooks.json has no hooks; nothing to disable.\n", ideName)
		return nil
	}

	entries, _ := hooks[eventKey].([]interface{})
	filtered := entries[:0]
	removed := false
	for _, entry := range entries {
		if m, ok := entry.(map[string]interface{}); ok && m["command"] == "qualitygate hook" {
			removed = true
			continue
		}
		filtered = append(filtered, entry)
	}

	if !removed {
		fmt.Printf("ℹ  QualityGate hook not found in %s settings; nothing to disable.\n", ideName)
		return nil
	}

	if len(filtered) == 0 {
		delete(hooks, eventKey)
	} else {
		hooks[eventKey] = filtered
	}
	cfg["hooks"] = hooks

	if err := writeJSONConfig(hooksPath, cfg); err != nil {
		return err
	}

	fmt.Printf("✅ QualityGate hook disabled for %s\n", ideName)
	fmt.Printf("Re-enable anytime with: %s\n", setupCmdLine)
	return nil
}

// isQualityGateHookEntry returns true if the hook entry contains our command.
func isQualityGateHookEntry(entry interface{}) bool {
	m, ok := entry.(map[string]interface{})
	if !ok {
		return false
	}
	subHooks, _ := m["hooks"].([]interface{})
	for _, h := range subHooks {
		if hm, ok := h.(map[string]interface{}); ok {
			if hm["command"] == "qualitygate hook" {
				return true
			}
		}
	}
	return false
}

func readJSONConfig(path string) (map[string]interface{}, error) {
	cfg := make(map[string]interface{})
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

func writeJSONConfig(path string, cfg map[string]interface{}) error {
	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func getOrCreateMap(parent map[string]interface{}, key string) map[string]interface{} {
	if v, ok := parent[key].(map[string]interface{}); ok {
		return v
	}
	m := make(map[string]interface{})
	parent[key] = m
	return m
}
