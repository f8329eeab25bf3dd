package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qualitygate/qualitygate/internal/learning"
	"github.com/qualitygate/qualitygate/internal/pattern"
)

func TestCloseFlushesLearningSamples(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	a, err := newApp()
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}

	p := a.engine.Store().Snapshot().Find("debug-print")
	if p == nil {
		t.Fatal("built-in debug-print pattern missing")
	}
	before := p.Weight

	a.engine.Queue().Push(learning.Sample{
		PatternID: "debug-print",
		Tier:      pattern.TierInfo,
		Matched:   false,
	})
	a.close()

	after := a.engine.Store().Snapshot().Find("debug-print").Weight
	if after >= before {
		t.Errorf("weight after close = %v, want below %v", after, before)
	}
}

func TestCloseLogsDroppedSamples(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	configDir := filepath.Join(home, ".qualitygate")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	cfgYAML := "learning_queue_capacity: 2\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(cfgYAML), 0600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	a, err := newApp()
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		a.engine.Queue().Push(learning.Sample{
			PatternID: "debug-print",
			Tier:      pattern.TierInfo,
			Matched:   false,
		})
	}
	a.close()

	data, err := os.ReadFile(a.cfg.LogPath)
	if err != nil {
		t.Fatalf("read event log failed: %v", err)
	}
	if !strings.Contains(string(data), "samples_dropped") {
		t.Errorf("no samples_dropped event in log:\n%s", data)
	}
}
