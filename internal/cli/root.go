package cli

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	logPath    string
)

var rootCmd = &cobra.Command{
	Use:   "qualitygate",
	Short: "QualityGate - Tiered pattern classification for AI agent output",
	Long: `QualityGate is a local-first quality and risk gate that classifies short
text fragments (code edits, shell commands, chat output) against
severity-tiered pattern sets under hard latency budgets, blocking
credential leaks and destructive commands before they land.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML file (default: ~/.qualitygate/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Path to event log file (default: ~/.qualitygate/events.jsonl)")
}

func Execute() error {
	return rootCmd.Execute()
}
