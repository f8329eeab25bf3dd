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

	"github.com/qualitygate/qualitygate/internal/approval"
	"github.com/qualitygate/qualitygate/internal/engine"
	"github.com/qualitygate/qualitygate/internal/logger"
)

// hookInput represents the JSON structure sent by IDE hooks.
// Windsurf sends:    {"agent_action_name": "pre_run_command", "tool_info": {"command_line": "..."}}
// Cursor sends:      {"command": "...", "cwd": "..."}
// Claude Code sends: {"hook_event_name": "PreToolUse", "tool_name": "Bash", "tool_input": {"command": "..."}}
type hookInput struct {
	// Windsurf fields
	AgentActionName string   `json:"agent_action_name"`
	ToolInfo        toolInfo `json:"tool_info"`

	// Cursor fields
	Command string `json:"command"`
	Cwd     string `json:"cwd"`

	// Claude Code fields
	HookEventName string          `json:"hook_event_name"`
	ToolName      string          `json:"tool_name"`
	ToolInput     claudeToolInput `json:"tool_input"`
}

type toolInfo struct {
	CommandLine string `json:"command_line"`
	Cwd         string `json:"cwd"`
	FilePath    string `json:"file_path"`
}

type claudeToolInput struct {
	Command   string `json:"command"`
	Content   string `json:"content"`
	NewString string `json:"new_string"`
	FilePath  string `json:"file_path"`
}

// cursorHookOutput is the JSON response Cursor expects from hook scripts.
type cursorHookOutput struct {
	Continue     bool   `json:"continue"`
	Permission   string `json:"permission"`
	UserMessage  string `json:"user_message,omitempty"`
	AgentMessage string `json:"agent_message,omitempty"`
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "IDE Hook handler for Windsurf, Cursor, and Claude Code integration",
	Long: `Reads an IDE hook JSON payload from stdin, classifies the command or
edit content against the tiered pattern set, and responds in the correct
format.

Auto-detects the IDE based on the JSON input structure:
  Claude Code - uses exit code 2 to block Bash/Edit/Write tool calls
  Windsurf    - uses exit code 2 to block actions
  Cursor      - returns JSON with permission: deny/allow

Setup:
  qualitygate setup claude-code
  qualitygate setup windsurf
  qualitygate setup cursor`,
	RunE: hookCommand,
}

func init() {
	rootCmd.AddCommand(hookCmd)
}

func hookCommand(cmd *cobra.Command, args []string) error {
	// Bypass short-circuits everything when set
	if os.Getenv("QUALITYGATE_BYPASS") == "1" {
		// Still need to consume stdin and respond correctly for Cursor format
		data, _ := io.ReadAll(os.Stdin)
		var input hookInput
		if err := json.Unmarshal(data, &input); err == nil && input.Command != "" {
			outputCursorAllow()
		}
		return nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	var input hookInput
	if err := json.Unmarshal(data, &input); err != nil {
		// If we can't parse the input, allow the action (fail open)
		fmt.Fprintf(os.Stderr, "[QualityGate] warning: could not parse hook input: %v\n", err)
		return nil
	}

	// Auto-detect IDE format based on input fields.
	if input.HookEventName != "" {
		return handleClaudeCodeHook(input)
	}

	if input.Command != "" {
		return handleCursorHook(input)
	}

	switch input.AgentActionName {
	case "pre_run_command":
		return handleWindsurfHook(input)
	default:
		// Unsupported hook events pass through
		return nil
	}
}

// classifyInput is the shared classification logic for all IDE hooks.
func classifyInput(text, source string) (engine.Verdict, Decision, error) {
	a, err := newApp()
	if err != nil {
		return engine.Verdict{}, DecisionPass, err
	}
	defer a.close()

	verdict := a.engine.Classify(context.Background(), text)
	decision := decide(verdict, a.cfg)

	if err := a.log.Log(logger.Event{
		Kind:      logger.KindClassify,
		Input:     text,
		Severity:  string(verdict.Severity),
		Matched:   verdict.MatchedIDs(),
		Degraded:  verdict.Degraded,
		ElapsedMS: float64(verdict.Elapsed) / float64(time.Millisecond),
		Version:   verdict.Version,
		Decision:  string(decision),
		Source:    source,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "[QualityGate] warning: event log failed: %v\n", err)
	}

	return verdict, decision, nil
}

// resolveWarn asks the user when possible; non-interactive warns deny
// unless the inconclusive policy chose to warn, which stays advisory.
func resolveWarn(text string, verdict engine.Verdict) bool {
	var reasons []string
	for _, m := range verdict.Matched {
		reasons = append(reasons, m.Message)
	}
	result := approval.Ask(approval.Prompt{
		Input:    text,
		Severity: string(verdict.Severity),
		Matched:  verdict.MatchedIDs(),
		Reasons:  reasons,
	})
	return result.Approved
}

// handleWindsurfHook processes Windsurf Cascade Hooks (pre_run_command).
// Block = exit code 2, message on stderr.
func handleWindsurfHook(input hookInput) error {
	cmdStr := input.ToolInfo.CommandLine
	if cmdStr == "" {
		return nil
	}

	verdict, decision, err := classifyInput(cmdStr, "windsurf-hook")
	if err != nil {
		fmt.Fprintf(os.Stderr, "[QualityGate] warning: %v\n", err)
		return nil // fail open
	}

	switch decision {
	case DecisionBlock:
		fmt.Fprintf(os.Stderr, "🛑 BLOCKED by QualityGate\n")
		fmt.Fprintf(os.Stderr, "%s\n", verdict.Explanation())
		os.Exit(2)
	case DecisionWarn:
		if len(verdict.Matched) > 0 && !resolveWarn(cmdStr, verdict) {
			fmt.Fprintf(os.Stderr, "🛑 DENIED by QualityGate\n")
			fmt.Fprintf(os.Stderr, "%s\n", verdict.Explanation())
			os.Exit(2)
		}
	}

	return nil
}

// handleCursorHook processes Cursor hooks (beforeShellExecution).
// Block = JSON output with permission: "deny".
func handleCursorHook(input hookInput) error {
	cmdStr := input.Command
	if cmdStr == "" {
		outputCursorAllow()
		return nil
	}

	verdict, decision, err := classifyInput(cmdStr, "cursor-hook")
	if err != nil {
		fmt.Fprintf(os.Stderr, "[QualityGate] warning: %v\n", err)
		outputCursorAllow() // fail open
		return nil
	}

	if decision == DecisionBlock ||
		(decision == DecisionWarn && len(verdict.Matched) > 0 && !resolveWarn(cmdStr, verdict)) {
		var reasons []string
		for _, m := range verdict.Matched {
			reasons = append(reasons, m.Message)
		}
		output := cursorHookOutput{
			Continue:     true,
			Permission:   "deny",
			UserMessage:  "🛑 BLOCKED by QualityGate: " + strings.Join(reasons, "; "),
			AgentMessage: verdict.Explanation(),
		}
		data, _ := json.Marshal(output)
		fmt.Println(string(data))
		return nil
	}

	outputCursorAllow()
	return nil
}

func outputCursorAllow() {
	output := cursorHookOutput{
		Continue:   true,
		Permission: "allow",
	}
	data, _ := json.Marshal(output)
	fmt.Println(string(data))
}

// handleClaudeCodeHook processes Claude Code PreToolUse hooks. Bash
// commands and Edit/Write content are classified; other tools pass
// through. Block → print reason to stdout + exit 2. Pass → exit 0.
func handleClaudeCodeHook(input hookInput) error {
	var text string
	switch input.ToolName {
	case "Bash":
		text = input.ToolInput.Command
	case "Write":
		text = input.ToolInput.Content
	case "Edit", "MultiEdit":
		text = input.ToolInput.NewString
	default:
		return nil
	}
	if text == "" {
		return nil
	}

	verdict, decision, err := classifyInput(text, "claude-code-hook")
	if err != nil {
		fmt.Fprintf(os.Stderr, "[QualityGate] warning: %v\n", err)
		return nil // fail open
	}

	switch decision {
	case DecisionBlock:
		fmt.Printf("🛑 BLOCKED by QualityGate\n%s\n", verdict.Explanation())
		os.Exit(2)
	case DecisionWarn:
		if len(verdict.Matched) > 0 && !resolveWarn(text, verdict) {
			fmt.Printf("🛑 DENIED by QualityGate\n%s\n", verdict.Explanation())
			os.Exit(2)
		}
	}

	return nil
}
