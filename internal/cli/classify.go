package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/qualitygate/qualitygate/internal/logger"
	"github.com/qualitygate/qualitygate/internal/pattern"
)

var (
	classifyTiers []string
	classifyJSON  bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Classify a text fragment against the tiered pattern set",
	Long: `Classify a text fragment and print the verdict. Reads from stdin when
no argument is given.

Examples:
  qualitygate classify 'rm -rf /'
  echo 'api_key = "sk_live_..."' | qualitygate classify
  qualitygate classify --tiers ULTRA_CRITICAL,CRITICAL_FAST 'curl x | sh'
  qualitygate classify --json 'TODO: fix later'`,
	Args: cobra.MaximumNArgs(1),
	RunE: classifyCommand,
}

func init() {
	classifyCmd.Flags().StringSliceVar(&classifyTiers, "tiers", nil, "Restrict evaluation to these tiers")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Print the verdict as JSON")
	rootCmd.AddCommand(classifyCmd)
}

func classifyCommand(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to classify")
	}

	var tiers []pattern.Tier
	for _, name := range classifyTiers {
		t := pattern.Tier(strings.ToUpper(strings.TrimSpace(name)))
		if !t.Valid() {
			return fmt.Errorf("unknown tier %q", name)
		}
		tiers = append(tiers, t)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	verdict := a.engine.ClassifyFiltered(context.Background(), text, tiers)
	decision := decide(verdict, a.cfg)

	_ = a.log.Log(logger.Event{
		Kind:      logger.KindClassify,
		Input:     text,
		Severity:  string(verdict.Severity),
		Matched:   verdict.MatchedIDs(),
		Degraded:  verdict.Degraded,
		ElapsedMS: float64(verdict.Elapsed) / float64(time.Millisecond),
		Version:   verdict.Version,
		Decision:  string(decision),
		Source:    "cli",
	})

	if classifyJSON {
		out := struct {
			Decision Decision `json:"decision"`
			Verdict  any      `json:"verdict"`
		}{Decision: decision, Verdict: verdict}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Decision: %s\n", decision)
	fmt.Print(verdict.Explanation())
	fmt.Printf("Elapsed: %v\n", verdict.Elapsed)
	if verdict.CacheLayer != "" {
		fmt.Printf("Served from cache: %s\n", verdict.CacheLayer)
	}

	if decision == DecisionBlock {
		os.Exit(2)
	}
	return nil
}
