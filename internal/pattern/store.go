package pattern

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Snapshot is an immutable view of the pattern set at one version. Readers
// hold a snapshot for the duration of a classification call and never
// observe a half-applied load or weight update.
type Snapshot struct {
	Version int64
	tiers   map[Tier][]*Pattern
	byID    map[string]*Pattern
}

// TierPatterns returns the patterns of one tier. The returned slice is
// shared and must not be mutated.
func (s *Snapshot) TierPatterns(t Tier) []*Pattern { return s.tiers[t] }

// Find returns the pattern with the given id, or nil.
func (s *Snapshot) Find(id string) *Pattern { return s.byID[id] }

// Len returns the total pattern count across tiers.
func (s *Snapshot) Len() int { return len(s.byID) }

// Store holds the tiered pattern set behind an atomically swapped snapshot.
// Reads are lock-free; Load and weight updates serialize on a writer mutex
// and publish a fresh snapshot (copy-on-write). Compiled matchers live in
// the snapshot, so repeated classification never pays recompilation; they
// are rebuilt only by Load.
type Store struct {
	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[Snapshot]
}

// NewStore returns an empty store at version 0.
func NewStore() *Store {
	s := &Store{}
	s.snap.Store(&Snapshot{
		tiers: map[Tier][]*Pattern{},
		byID:  map[string]*Pattern{},
	})
	return s
}

// Snapshot returns the current immutable view.
func (s *Store) Snapshot() *Snapshot { return s.snap.Load() }

// Version returns the current pattern-set version.
func (s *Store) Version() int64 { return s.Snapshot().Version }

// Load replaces the pattern set with the given definitions and bumps the
// version. A definition that fails to compile is dropped and reported in
// the excluded list rather than failing the load; only a collection where
// nothing survives is an error, because an engine with zero rules is a
// misconfiguration the caller must see.
func (s *Store) Load(defs []Definition) (version int64, excluded []Excluded, err error) {
	tiers := map[Tier][]*Pattern{}
	byID := map[string]*Pattern{}

	for _, def := range defs {
		p, cerr := compile(def)
		if cerr != nil {
			excluded = append(excluded, Excluded{ID: def.ID, Err: cerr})
			continue
		}
		if _, dup := byID[p.ID]; dup {
			excluded = append(excluded, Excluded{ID: p.ID, Err: fmt.Errorf("pattern %s: duplicate id", p.ID)})
			continue
		}
		byID[p.ID] = p
		tiers[p.Tier] = append(tiers[p.Tier], p)
	}

	if len(byID) == 0 {
		return s.Version(), excluded, fmt.Errorf("no patterns survived validation (%d given)", len(defs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := &Snapshot{
		Version: s.Snapshot().Version + 1,
		tiers:   tiers,
		byID:    byID,
	}
	s.snap.Store(next)
	return next.Version, excluded, nil
}

// ApplyWeight updates one pattern's confidence weight. Single-writer: only
// the background weight adjuster calls this.
func (s *Store) ApplyWeight(id string, weight float64) error {
	return s.ApplyWeights(map[string]float64{id: weight})
}

// ApplyWeights applies a batch of weight updates in one snapshot swap, so a
// wake-up of the adjuster publishes at most once. Unknown ids are skipped:
// the pattern set may have been reloaded since the samples were queued.
// Weights are clamped to [0,1]. The version is not bumped; weight drift
// does not invalidate caches because severity and match sets are
// weight-independent for cached (complete, non-degraded) verdicts.
func (s *Store) ApplyWeights(weights map[string]float64) error {
	if len(weights) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.Snapshot()
	applied := false

	tiers := make(map[Tier][]*Pattern, len(cur.tiers))
	byID := make(map[string]*Pattern, len(cur.byID))
	for t, ps := range cur.tiers {
		cp := make([]*Pattern, len(ps))
		copy(cp, ps)
		tiers[t] = cp
	}

	for t, ps := range tiers {
		for i, p := range ps {
			if w, ok := weights[p.ID]; ok {
				np := p.clone()
				np.Weight = clamp01(w)
				tiers[t][i] = np
				byID[np.ID] = np
				applied = true
				continue
			}
			byID[p.ID] = p
		}
	}

	if !applied {
		return nil
	}

	s.snap.Store(&Snapshot{Version: cur.Version, tiers: tiers, byID: byID})
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
