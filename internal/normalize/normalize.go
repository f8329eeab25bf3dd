// Package normalize prepares raw input text for fingerprinting and
// evaluation: whitespace folding for stable cache keys, a cheap known-safe
// heuristic, and keyword-window condensing for oversized inputs.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// FingerprintLen bounds how much normalized text feeds the cache key.
// Truncation here affects only the key, never the text evaluated.
const FingerprintLen = 1024

// Fold lowercases the input, trims it, and collapses whitespace runs to a
// single space so that trivially reformatted duplicates share a cache key.
// Matching is case-insensitive throughout, so folding case cannot change a
// verdict.
func Fold(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))

	inSpace := false
	for _, r := range strings.TrimSpace(text) {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		inSpace = false
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

// ForFingerprint returns the folded input truncated to FingerprintLen.
func ForFingerprint(text string) string {
	folded := Fold(text)
	if len(folded) > FingerprintLen {
		return folded[:FingerprintLen]
	}
	return folded
}

// dangerKeywords are substrings whose presence disqualifies an input from
// the known-safe fast path. Matches the risk surface of the default pack.
var dangerKeywords = []string{
	"sk_", "pk_", "api", "key", "secret", "token", "akia",
	"rm", "sudo", "eval", "exec", "password",
	"todo", "fixme", "console.log", "print",
	"bearer", "-----begin", "lacuna",
}

var (
	basicCharsPattern  = regexp.MustCompile(`^[a-zA-Z0-9\s\-_\.]*$`)
	readOnlyCmdPattern = regexp.MustCompile(`^(ls|cd|pwd|echo|cat)\s`)
	assignmentPattern  = regexp.MustCompile(`^\w+\s*=\s*\w+$`)
)

// LikelySafe reports whether the input is so obviously harmless that
// pattern evaluation can be skipped and the skip cache seeded directly.
// Conservative by construction: any danger keyword, non-ASCII content, or
// anything longer than a short one-liner falls through to full evaluation.
func LikelySafe(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 3 {
		return true
	}

	lower := strings.ToLower(trimmed)
	for _, kw := range dangerKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}

	if !isASCII(trimmed) || len(trimmed) >= 50 {
		return false
	}

	return basicCharsPattern.MatchString(trimmed) ||
		readOnlyCmdPattern.MatchString(trimmed) ||
		assignmentPattern.MatchString(trimmed)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// condenseKeywords mark the regions worth keeping when an oversized input
// must be shortened before evaluation.
var condenseKeywords = []string{
	"password", "api", "key", "token", "secret",
	"rm -rf", "sudo", "eval", "exec",
	"todo", "fixme", "hack",
}

const (
	condenseHead   = 500
	condenseTail   = 200
	condenseWindow = 50
)

// Condense shortens text that exceeds max for evaluation, keeping the head,
// a window around each risk keyword, and the tail. Returns the (possibly
// unchanged) text and whether it was condensed.
func Condense(text string, max int) (string, bool) {
	if max <= 0 || len(text) <= max {
		return text, false
	}

	var sb strings.Builder
	head := condenseHead
	if head > max {
		head = max
	}
	sb.WriteString(text[:head])

	lower := strings.ToLower(text)
	for _, kw := range condenseKeywords {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}
		start := idx - condenseWindow
		if start < 0 {
			start = 0
		}
		end := idx + condenseWindow
		if end > len(text) {
			end = len(text)
		}
		sb.WriteByte(' ')
		sb.WriteString(text[start:end])
	}

	if len(text) > condenseTail {
		sb.WriteByte(' ')
		sb.WriteString(text[len(text)-condenseTail:])
	}

	out := sb.String()
	if len(out) > max {
		out = out[:max]
	}
	return out, true
}
