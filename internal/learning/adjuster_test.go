package learning

import (
	"math"
	"testing"
	"time"

	"github.com/qualitygate/qualitygate/internal/pattern"
)

func newTestStore(t *testing.T, defs ...pattern.Definition) *pattern.Store {
	t.Helper()
	if len(defs) == 0 {
		defs = []pattern.Definition{
			{ID: "uc", Tier: pattern.TierUltraCritical, Kind: pattern.KindSubstring, Pattern: "akia", Weight: 0.5},
			{ID: "hn", Tier: pattern.TierHighNormal, Kind: pattern.KindSubstring, Pattern: "bandaid", Weight: 0.5},
			{ID: "info", Tier: pattern.TierInfo, Kind: pattern.KindSubstring, Pattern: "console.log", Weight: 0.5},
		}
	}
	s := pattern.NewStore()
	if _, _, err := s.Load(defs); err != nil {
		t.Fatalf("store load failed: %v", err)
	}
	return s
}

func TestRunOnceAppliesEMA(t *testing.T) {
	store := newTestStore(t)
	q := NewQueue(16)
	a := NewAdjuster(store, q)

	q.Push(Sample{PatternID: "info", Tier: pattern.TierInfo, Matched: true})
	if n := a.RunOnce(); n != 1 {
		t.Fatalf("RunOnce processed %d samples, want 1", n)
	}

	// new = old + lr*(signal-old) with INFO lr 0.02: 0.5 + 0.02*0.5 = 0.51
	got := store.Snapshot().Find("info").Weight
	if math.Abs(got-0.51) > 1e-9 {
		t.Errorf("weight = %v, want 0.51", got)
	}

	stats := a.Stats()
	if stats.Processed != 1 || stats.Published != 1 {
		t.Errorf("stats = %+v, want 1 processed, 1 published", stats)
	}
}

func TestRunOnceNegativeSignal(t *testing.T) {
	store := newTestStore(t)
	q := NewQueue(16)
	a := NewAdjuster(store, q)

	q.Push(Sample{PatternID: "info", Tier: pattern.TierInfo, Matched: false})
	a.RunOnce()

	// 0.5 + 0.02*(0-0.5) = 0.49
	got := store.Snapshot().Find("info").Weight
	if math.Abs(got-0.49) > 1e-9 {
		t.Errorf("weight = %v, want 0.49", got)
	}
}

func TestRunOnceCoalescesBelowMinDelta(t *testing.T) {
	store := newTestStore(t)
	q := NewQueue(16)
	a := NewAdjuster(store, q)

	// ULTRA_CRITICAL lr 0.001: delta 0.001*0.5 = 0.0005, equal to the
	// tier's MinDelta... a single sample moves 0.0005 which is not below
	// the 0.0005 threshold, so use the high tier with a tiny move instead:
	// HIGH_NORMAL lr 0.01 → delta 0.005 >= MinDelta 0.002, publishes.
	// To force coalescing, feed ULTRA_CRITICAL a sample whose delta is
	// under its MinDelta by nudging the weight first.
	q.Push(Sample{PatternID: "uc", Tier: pattern.TierUltraCritical, Matched: true})
	a.RunOnce()
	published := a.Stats().Published

	// Weight is now ~0.5005; the next identical sample moves it by
	// ~0.0004997, below MinDelta 0.0005 → coalesced.
	q.Push(Sample{PatternID: "uc", Tier: pattern.TierUltraCritical, Matched: true})
	a.RunOnce()

	stats := a.Stats()
	if stats.Coalesced == 0 {
		t.Error("sub-threshold update not coalesced")
	}
	if stats.Published != published {
		t.Errorf("coalesced update was published: %+v", stats)
	}
}

func TestRunOnceBatchesOneSwap(t *testing.T) {
	store := newTestStore(t)
	q := NewQueue(32)
	a := NewAdjuster(store, q)

	publishes := 0
	a.onPublish = func(n int) { publishes++ }

	q.PushBatch([]Sample{
		{PatternID: "info", Tier: pattern.TierInfo, Matched: true},
		{PatternID: "hn", Tier: pattern.TierHighNormal, Matched: true},
		{PatternID: "info", Tier: pattern.TierInfo, Matched: true},
	})
	a.RunOnce()

	if publishes != 1 {
		t.Errorf("batch published %d times, want 1", publishes)
	}

	// Two samples for the same pattern compound within the batch:
	// 0.5 → 0.51 → 0.5198.
	got := store.Snapshot().Find("info").Weight
	if math.Abs(got-0.5198) > 1e-9 {
		t.Errorf("info weight = %v, want 0.5198", got)
	}
}

func TestRunOnceRespectsBatchSize(t *testing.T) {
	store := newTestStore(t)
	q := NewQueue(64)
	a := NewAdjuster(store, q, WithBatch(4, time.Second))

	for i := 0; i < 10; i++ {
		q.Push(Sample{PatternID: "info", Tier: pattern.TierInfo, Matched: true})
	}

	if n := a.RunOnce(); n != 4 {
		t.Errorf("RunOnce consumed %d samples, want batch size 4", n)
	}
	if q.Len() != 6 {
		t.Errorf("queue depth = %d, want 6 deferred", q.Len())
	}
}

func TestRunOnceSkipsReloadedPatterns(t *testing.T) {
	store := newTestStore(t)
	q := NewQueue(16)
	a := NewAdjuster(store, q)

	// Sample for a pattern that a reload has since removed.
	q.Push(Sample{PatternID: "gone", Tier: pattern.TierInfo, Matched: true})
	a.RunOnce()

	stats := a.Stats()
	if stats.Processed != 1 {
		t.Errorf("Processed = %d, want 1", stats.Processed)
	}
	if stats.Published != 0 {
		t.Errorf("published a weight for a missing pattern: %+v", stats)
	}
}

func TestStartStop(t *testing.T) {
	store := newTestStore(t)
	q := NewQueue(16)
	a := NewAdjuster(store, q, WithInterval(5*time.Millisecond))

	a.Start()
	q.Push(Sample{PatternID: "info", Tier: pattern.TierInfo, Matched: true})

	deadline := time.After(2 * time.Second)
	for store.Snapshot().Find("info").Weight == 0.5 {
		select {
		case <-deadline:
			t.Fatal("background adjuster never processed the sample")
		case <-time.After(time.Millisecond):
		}
	}
	a.Stop()

	// Stop must be idempotent against further queue activity.
	q.Push(Sample{PatternID: "info", Tier: pattern.TierInfo, Matched: true})
}
