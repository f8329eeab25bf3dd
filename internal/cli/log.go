package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/qualitygate/qualitygate/internal/config"
	"github.com/qualitygate/qualitygate/internal/logger"
)

var (
	logFilterDecision string
	logFilterSeverity string
	logLast           int
	logSummary        bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View and filter the classification event log",
	Long: `View the QualityGate event log with filtering and summary options.

Examples:
  qualitygate log                        # Show all classify events
  qualitygate log --last 20              # Show last 20 entries
  qualitygate log --decision BLOCK       # Show only blocked inputs
  qualitygate log --severity ULTRA_CRITICAL
  qualitygate log --summary              # Show summary stats`,
	RunE: logCommand,
}

func init() {
	logCmd.Flags().StringVar(&logFilterDecision, "decision", "", "Filter by decision (PASS, WARN, BLOCK)")
	logCmd.Flags().StringVar(&logFilterSeverity, "severity", "", "Filter by severity tier")
	logCmd.Flags().IntVar(&logLast, "last", 0, "Show last N entries")
	logCmd.Flags().BoolVar(&logSummary, "summary", false, "Show summary statistics")
	rootCmd.AddCommand(logCmd)
}

func logCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath, logPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	events, err := readEventLog(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("failed to read event log: %w", err)
	}

	if len(events) == 0 {
		fmt.Println("No event log entries found.")
		return nil
	}

	filtered := filterEvents(events)

	if logLast > 0 && logLast < len(filtered) {
		filtered = filtered[len(filtered)-logLast:]
	}

	if logSummary {
		printSummary(events)
		return nil
	}

	printEvents(filtered)
	return nil
}

func readEventLog(path string) ([]logger.Event, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var events []logger.Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var event logger.Event
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue // skip malformed lines
		}
		events = append(events, event)
	}
	return events, scanner.Err()
}

func filterEvents(events []logger.Event) []logger.Event {
	var filtered []logger.Event
	for _, e := range events {
		if e.Kind != logger.KindClassify {
			continue
		}
		if logFilterDecision != "" && !strings.EqualFold(e.Decision, logFilterDecision) {
			continue
		}
		if logFilterSeverity != "" && !strings.EqualFold(e.Severity, logFilterSeverity) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func printEvents(events []logger.Event) {
	for _, e := range events {
		ts := formatTimestamp(e.Timestamp)
		icon := decisionIcon(e.Decision)
		degradedStr := ""
		if e.Degraded {
			degradedStr = " [DEGRADED]"
		}

		fmt.Printf("%s %s %s%s\n", icon, ts, e.Input, degradedStr)
		fmt.Printf("     Severity: %s  (%.3fms)\n", e.Severity, e.ElapsedMS)
		if len(e.Matched) > 0 {
			fmt.Printf("     Patterns: %s\n", strings.Join(e.Matched, ", "))
		}
		if e.Source != "" {
			fmt.Printf("     Source: %s\n", e.Source)
		}
		fmt.Println()
	}
}

func printSummary(all []logger.Event) {
	counts := map[string]int{}
	severities := map[string]int{}
	degradedCount := 0
	classified := 0

	for _, e := range all {
		if e.Kind != logger.KindClassify {
			continue
		}
		classified++
		counts[e.Decision]++
		severities[e.Severity]++
		if e.Degraded {
			degradedCount++
		}
	}

	fmt.Println("═══════════════════════════════════════════")
	fmt.Println("  QualityGate Event Summary")
	fmt.Println("═══════════════════════════════════════════")
	fmt.Printf("  Classifications: %d\n", classified)
	fmt.Printf("  PASS:            %d\n", counts["PASS"])
	fmt.Printf("  WARN:            %d\n", counts["WARN"])
	fmt.Printf("  BLOCK:           %d\n", counts["BLOCK"])
	fmt.Printf("  Degraded:        %d\n", degradedCount)
	fmt.Println("═══════════════════════════════════════════")

	if classified > 0 {
		fmt.Println("  By severity:")
		for sev, n := range severities {
			fmt.Printf("    %-16s %d\n", sev, n)
		}
	}

	// Show blocked inputs
	var blocked []logger.Event
	for _, e := range all {
		if e.Kind == logger.KindClassify && e.Decision == "BLOCK" {
			blocked = append(blocked, e)
		}
	}
	if len(blocked) > 0 {
		fmt.Println()
		fmt.Println("  Blocked inputs:")
		limit := len(blocked)
		if limit > 10 {
			limit = 10
		}
		for _, e := range blocked[len(blocked)-limit:] {
			fmt.Printf("    %s %s\n", formatTimestamp(e.Timestamp), e.Input)
		}
	}

	fmt.Println()
}

func decisionIcon(decision string) string {
	switch decision {
	case "BLOCK":
		return "🛑"
	case "WARN":
		return "🔍"
	case "PASS":
		return "✅"
	default:
		return "❓"
	}
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
