package packs

import "github.com/qualitygate/qualitygate/internal/pattern"

// Default returns the built-in pattern set. It covers the non-negotiable
// dangers (hard-coded credentials, destructive filesystem commands) and the
// code-quality signals the tool exists to catch.
func Default() []pattern.Definition {
	return []pattern.Definition{
		// ULTRA_CRITICAL: unconditional blocks.
		{
			ID:      "hardcoded-api-secret",
			Tier:    pattern.TierUltraCritical,
			Kind:    pattern.KindRegex,
			Pattern: `(sk|pk)_(test|live)_[0-9a-zA-Z]{24,}`,
			Message: "Hard-coded API secret detected.",
		},
		{
			ID:      "hardcoded-aws-key",
			Tier:    pattern.TierUltraCritical,
			Kind:    pattern.KindRegex,
			Pattern: `AKIA[0-9A-Z]{16}`,
			Message: "Hard-coded AWS access key detected.",
		},
		{
			ID:      "rm-rf-root",
			Tier:    pattern.TierUltraCritical,
			Kind:    pattern.KindRegex,
			Pattern: `rm\s+-rf\s+/`,
			Message: "Dangerous recursive delete detected.",
		},
		{
			ID:      "sudo-rm-rf",
			Tier:    pattern.TierUltraCritical,
			Kind:    pattern.KindRegex,
			Pattern: `sudo\s+rm\s+-rf`,
			Message: "Dangerous recursive delete with elevated privileges detected.",
		},

		// CRITICAL_FAST: high-priority quality and risk signals.
		{
			ID:      "pipe-to-shell",
			Tier:    pattern.TierCriticalFast,
			Kind:    pattern.KindRegex,
			Pattern: `(curl|wget)[^|]*\|\s*(sh|bash|zsh)\b`,
			Message: "Pipe-to-shell execution detected. Download and inspect scripts first.",
		},
		{
			ID:      "private-key-material",
			Tier:    pattern.TierCriticalFast,
			Kind:    pattern.KindSubstring,
			Pattern: "-----BEGIN",
			Message: "Possible private key material detected.",
		},
		{
			ID:      "bandaid-fix",
			Tier:    pattern.TierCriticalFast,
			Kind:    pattern.KindRegex,
			Pattern: `とりあえず|暫定対応|一時的`,
			Message: "Possible band-aid fix detected.",
		},
		{
			ID:      "reduced-functionality",
			Tier:    pattern.TierCriticalFast,
			Kind:    pattern.KindRegex,
			Pattern: `lacuna|reduced functionality`,
			Message: "Feature reduction detected in place of a full implementation.",
		},

		// HIGH_NORMAL: review-worthy signals.
		{
			ID:      "unfinished-task-marker",
			Tier:    pattern.TierHighNormal,
			Kind:    pattern.KindRegex,
			Pattern: `TODO|FIXME`,
			Message: "Unfinished task marker detected.",
		},
		{
			ID:      "eval-exec-call",
			Tier:    pattern.TierHighNormal,
			Kind:    pattern.KindRegex,
			Pattern: `\b(eval|exec)\s*\(`,
			Message: "Dynamic code execution detected.",
		},
		{
			ID:      "inline-bearer-token",
			Tier:    pattern.TierHighNormal,
			Kind:    pattern.KindRegex,
			Pattern: `bearer\s+[A-Za-z0-9._\-]{20,}`,
			Message: "Inline bearer token detected.",
		},

		// INFO: advisory only.
		{
			ID:      "debug-print",
			Tier:    pattern.TierInfo,
			Kind:    pattern.KindRegex,
			Pattern: `console\.log|print\(`,
			Message: "Possible leftover debug output.",
		},
	}
}
