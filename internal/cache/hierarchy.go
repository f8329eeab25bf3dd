// Package cache implements the input-keyed lookup layers consulted before
// any pattern evaluation: a skip cache for inputs proven clean and a result
// cache for full verdicts. Both are bounded LRUs whose entries are tagged
// with the pattern-set version they were computed under; a version bump
// invalidates logically and stale entries are evicted lazily on lookup.
//
// The third layer of the hierarchy, the compiled-matcher cache, lives in
// the pattern store snapshot: matchers are compiled once per Load and
// shared by every classification until the next version bump.
package cache

import (
	"fmt"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/qualitygate/qualitygate/internal/normalize"
)

// DefaultCapacity bounds each input-keyed layer when the host does not
// configure one.
const DefaultCapacity = 4096

// Fingerprint hashes the normalized, length-bounded input into a cache key.
func Fingerprint(text string) uint64 {
	return xxhash.Sum64String(normalize.ForFingerprint(text))
}

type entry[V any] struct {
	version int64
	value   V
}

// Stats is a point-in-time counter snapshot for observability.
type Stats struct {
	SkipHits   uint64 `json:"skip_hits"`
	ResultHits uint64 `json:"result_hits"`
	Misses     uint64 `json:"misses"`
	SkipLen    int    `json:"skip_entries"`
	ResultLen  int    `json:"result_entries"`
}

// Hierarchy holds the skip and result layers. V is the verdict type; the
// cache stays verdict-agnostic to keep the dependency direction pointing at
// the engine. Safe for concurrent use; insert is atomic per key.
type Hierarchy[V any] struct {
	version atomic.Int64

	skip   *lru.Cache[uint64, int64]
	result *lru.Cache[uint64, entry[V]]

	skipHits   atomic.Uint64
	resultHits atomic.Uint64
	misses     atomic.Uint64
}

// New creates a hierarchy with the given per-layer capacity.
func New[V any](capacity int) (*Hierarchy[V], error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	skip, err := lru.New[uint64, int64](capacity)
	if err != nil {
		return nil, fmt.Errorf("skip cache: %w", err)
	}
	result, err := lru.New[uint64, entry[V]](capacity)
	if err != nil {
		return nil, fmt.Errorf("result cache: %w", err)
	}
	return &Hierarchy[V]{skip: skip, result: result}, nil
}

// SetVersion records the active pattern-set version. Entries tagged with
// any other version become invisible immediately and are evicted on their
// next lookup; no sweep runs.
func (h *Hierarchy[V]) SetVersion(v int64) { h.version.Store(v) }

// Version returns the active pattern-set version.
func (h *Hierarchy[V]) Version() int64 { return h.version.Load() }

// LookupSkip reports whether the fingerprint was proven clean under the
// current version.
func (h *Hierarchy[V]) LookupSkip(fp uint64) bool {
	v, ok := h.skip.Get(fp)
	if !ok {
		return false
	}
	if v != h.version.Load() {
		h.skip.Remove(fp)
		return false
	}
	h.skipHits.Add(1)
	return true
}

// LookupResult returns the cached verdict for the fingerprint under the
// current version.
func (h *Hierarchy[V]) LookupResult(fp uint64) (V, bool) {
	e, ok := h.result.Get(fp)
	if !ok {
		var zero V
		return zero, false
	}
	if e.version != h.version.Load() {
		h.result.Remove(fp)
		var zero V
		return zero, false
	}
	h.resultHits.Add(1)
	return e.value, true
}

// Miss counts a full lookup miss across both layers.
func (h *Hierarchy[V]) Miss() { h.misses.Add(1) }

// StoreSkip records the fingerprint as clean under the current version.
// Callers must only store outcomes of complete, non-degraded evaluation.
func (h *Hierarchy[V]) StoreSkip(fp uint64) {
	h.skip.Add(fp, h.version.Load())
}

// StoreResult records a full verdict under the current version. Callers
// must only store complete, non-degraded verdicts.
func (h *Hierarchy[V]) StoreResult(fp uint64, value V) {
	h.result.Add(fp, entry[V]{version: h.version.Load(), value: value})
}

// Purge drops every entry from both layers.
func (h *Hierarchy[V]) Purge() {
	h.skip.Purge()
	h.result.Purge()
}

// Stats returns current counters and sizes.
func (h *Hierarchy[V]) Stats() Stats {
	return Stats{
		SkipHits:   h.skipHits.Load(),
		ResultHits: h.resultHits.Load(),
		Misses:     h.misses.Load(),
		SkipLen:    h.skip.Len(),
		ResultLen:  h.result.Len(),
	}
}
