// Package redact strips credential material from text before it reaches an
// event log. The engine classifies inputs that frequently contain the very
// secrets it flags; logging them verbatim would turn the audit trail into a
// second leak.
package redact

import "regexp"

const placeholder = "[REDACTED]"

var sensitivePatterns = []*regexp.Regexp{
	// Cloud and payment keys
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(sk|pk|rk)_(test|live)_[0-9a-zA-Z]{24,}`),

	// Version-control tokens
	regexp.MustCompile(`gh[poursx]_[A-Za-z0-9]{36,}`),
	regexp.MustCompile(`xox[baprs]-[0-9]{10,13}-[0-9]{10,13}[a-zA-Z0-9-]*`),

	// Generic assignments and headers
	regexp.MustCompile(`(?i)(api[_-]?key|secret[_-]?key|access[_-]?token|auth[_-]?token)\s*[=:]\s*['"]?[A-Za-z0-9_\-]{16,}['"]?`),
	regexp.MustCompile(`(?i)(password|passwd|pwd|secret)\s*[=:]\s*['"]?[^\s'"]{8,}['"]?`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._\-]{20,}`),

	// Credentials embedded in URLs
	regexp.MustCompile(`https?://[^:/\s]+:[^@\s]+@`),

	// Key material markers
	regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`),
}

// Redact replaces recognized secrets in the input with a placeholder.
func Redact(input string) string {
	result := input
	for _, p := range sensitivePatterns {
		result = p.ReplaceAllString(result, placeholder)
	}
	return result
}
