package normalize

import (
	"strings"
	"testing"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Rm -RF /", "rm -rf /"},
		{"collapses spaces", "rm   -rf    /", "rm -rf /"},
		{"collapses mixed whitespace", "rm\t-rf\n\n/", "rm -rf /"},
		{"trims", "  ls -la  ", "ls -la"},
		{"empty", "", ""},
		{"only whitespace", " \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fold(tt.in); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFoldedVariantsShareKey(t *testing.T) {
	a := ForFingerprint("git   Status")
	b := ForFingerprint("GIT STATUS")
	if a != b {
		t.Errorf("reformatted duplicates got different keys: %q vs %q", a, b)
	}
}

func TestForFingerprintTruncates(t *testing.T) {
	long := strings.Repeat("a", 5000)
	if got := ForFingerprint(long); len(got) != FingerprintLen {
		t.Errorf("len = %d, want %d", len(got), FingerprintLen)
	}
}

func TestLikelySafe(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"tiny input", "ok", true},
		{"read-only command", "ls -la", true},
		{"cd", "cd src", true},
		{"plain identifier", "main_test", true},
		{"simple assignment", "x = 1", true},
		{"danger keyword rm", "rm file.txt", false},
		{"danger keyword api", "call the api", false},
		{"danger keyword secret", "my secret plan", false},
		{"danger keyword todo", "todo list", false},
		{"long input", strings.Repeat("a", 60), false},
		{"non-ascii", "héllo world", false},
		{"shell metacharacters", "foo; bar | baz", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LikelySafe(tt.in); got != tt.want {
				t.Errorf("LikelySafe(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCondenseShortInputUnchanged(t *testing.T) {
	in := "short input"
	out, condensed := Condense(in, 8192)
	if condensed {
		t.Error("short input reported condensed")
	}
	if out != in {
		t.Errorf("short input rewritten: %q", out)
	}
}

func TestCondenseKeepsRiskRegions(t *testing.T) {
	head := strings.Repeat("h", 600)
	tail := strings.Repeat("t", 300)
	in := head + strings.Repeat("x", 9000) + "password = hunter2" + strings.Repeat("y", 9000) + tail

	out, condensed := Condense(in, 8192)
	if !condensed {
		t.Fatal("oversized input not condensed")
	}
	if len(out) > 8192 {
		t.Errorf("condensed output %d bytes exceeds max", len(out))
	}
	if !strings.Contains(out, "password") {
		t.Error("risk keyword region dropped during condensing")
	}
	if !strings.HasPrefix(out, strings.Repeat("h", 500)) {
		t.Error("head not preserved")
	}
	if !strings.HasSuffix(out, strings.Repeat("t", 200)) {
		t.Error("tail not preserved")
	}
}

func TestCondenseRespectsMax(t *testing.T) {
	in := strings.Repeat("password ", 2000)
	out, condensed := Condense(in, 1000)
	if !condensed {
		t.Fatal("oversized input not condensed")
	}
	if len(out) > 1000 {
		t.Errorf("output %d bytes, want <= 1000", len(out))
	}
}
