// Package approval prompts the user when a verdict warrants review rather
// than an unconditional block. Non-interactive sessions auto-deny.
package approval

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

type Result struct {
	Approved   bool
	UserAction string
}

type Prompt struct {
	Input    string
	Severity string
	Matched  []string
	Reasons  []string
}

func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func Ask(p Prompt) Result {
	if !IsInteractive() {
		return Result{Approved: false, UserAction: "auto_deny_non_interactive"}
	}

	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintf(os.Stderr, "⚠️  QualityGate flagged this input (%s)\n", p.Severity)
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintf(os.Stderr, "Input: %s\n", p.Input)

	if len(p.Matched) > 0 {
		fmt.Fprintf(os.Stderr, "Matched patterns: %s\n", strings.Join(p.Matched, ", "))
	}
	if len(p.Reasons) > 0 {
		fmt.Fprintln(os.Stderr, "Reasons:")
		for _, reason := range p.Reasons {
			fmt.Fprintf(os.Stderr, "  • %s\n", reason)
		}
	}

	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprintln(os.Stderr, "  [a] Approve once - proceed anyway")
	fmt.Fprintln(os.Stderr, "  [d] Deny - block this input")
	fmt.Fprintln(os.Stderr, "")

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "Your choice [a/d]: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return Result{Approved: false, UserAction: "error_reading_input"}
		}

		switch strings.TrimSpace(strings.ToLower(input)) {
		case "a", "approve", "yes", "y":
			return Result{Approved: true, UserAction: "approve_once"}
		case "d", "deny", "no", "n":
			return Result{Approved: false, UserAction: "deny"}
		default:
			fmt.Fprintln(os.Stderr, "Invalid input. Please enter 'a' to approve or 'd' to deny.")
		}
	}
}
