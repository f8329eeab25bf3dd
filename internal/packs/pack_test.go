package packs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/qualitygate/qualitygate/internal/pattern"
)

func TestDefaultPackLoads(t *testing.T) {
	store := pattern.NewStore()
	_, excluded, err := store.Load(Default())
	if err != nil {
		t.Fatalf("default pack failed to load: %v", err)
	}
	if len(excluded) != 0 {
		t.Errorf("default pack has malformed patterns: %v", excluded)
	}

	// Every tier carries at least one built-in pattern.
	snap := store.Snapshot()
	for _, tier := range pattern.Tiers {
		if len(snap.TierPatterns(tier)) == 0 {
			t.Errorf("tier %s has no built-in patterns", tier)
		}
	}
}

func writePack(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

const testPackYAML = `
name: test-pack
description: patterns for testing
version: "1.0"
author: qa
patterns:
  - id: custom-marker
    tier: INFO
    kind: substring
    pattern: "XXX-marker"
    message: custom marker found
`

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "test.yaml", testPackYAML)

	pack, err := LoadFile(filepath.Join(dir, "test.yaml"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if pack.Name != "test-pack" || len(pack.Patterns) != 1 {
		t.Errorf("pack = %+v", pack)
	}
	if p := pack.Patterns[0]; p.ID != "custom-marker" || p.Tier != pattern.TierInfo || p.Kind != pattern.KindSubstring {
		t.Errorf("pattern = %+v", p)
	}
}

func TestLoadDirMergesAfterBase(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "test.yaml", testPackYAML)

	base := Default()
	defs, infos, err := LoadDir(dir, base)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(defs) != len(base)+1 {
		t.Errorf("defs = %d, want base %d + 1", len(defs), len(base))
	}
	if defs[len(defs)-1].ID != "custom-marker" {
		t.Error("pack patterns not appended after base")
	}
	if len(infos) != 1 || !infos[0].Enabled || infos[0].PatternCount != 1 {
		t.Errorf("infos = %+v", infos)
	}
}

func TestLoadDirSkipsDisabled(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "_test.yaml", testPackYAML)

	base := Default()
	defs, infos, err := LoadDir(dir, base)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(defs) != len(base) {
		t.Error("disabled pack's patterns were merged")
	}
	if len(infos) != 1 || infos[0].Enabled {
		t.Errorf("infos = %+v, want one disabled entry", infos)
	}
}

func TestLoadDirMissingIsNotError(t *testing.T) {
	base := Default()
	defs, infos, err := LoadDir(filepath.Join(t.TempDir(), "nope"), base)
	if err != nil {
		t.Fatalf("missing dir errored: %v", err)
	}
	if len(defs) != len(base) || infos != nil {
		t.Errorf("defs = %d, infos = %v", len(defs), infos)
	}
}

func TestLoadDirIgnoresNonYAML(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "notes.txt", "not a pack")
	writePack(t, dir, "test.yml", testPackYAML)

	defs, infos, err := LoadDir(dir, nil)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(infos) != 1 {
		t.Errorf("infos = %+v, want only the .yml pack", infos)
	}
	if len(defs) != 1 {
		t.Errorf("defs = %d", len(defs))
	}
}

func TestLoadDirDuplicateIDsDroppedByStore(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "dup.yaml", `
patterns:
  - id: debug-print
    tier: ULTRA_CRITICAL
    kind: substring
    pattern: "anything"
    message: trying to shadow a built-in
`)

	defs, _, err := LoadDir(dir, Default())
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	store := pattern.NewStore()
	_, excluded, err := store.Load(defs)
	if err != nil {
		t.Fatalf("store load failed: %v", err)
	}
	if len(excluded) != 1 || excluded[0].ID != "debug-print" {
		t.Errorf("excluded = %v, want the duplicate dropped", excluded)
	}
	// The built-in keeps its tier.
	if p := store.Snapshot().Find("debug-print"); p == nil || p.Tier != pattern.TierInfo {
		t.Errorf("built-in shadowed: %+v", p)
	}
}
