package learning

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/qualitygate/qualitygate/internal/pattern"
)

// Sample is one per-pattern classification outcome. The engine is the sole
// producer; the adjuster is the sole consumer. Samples are advisory: losing
// them never affects classification correctness.
type Sample struct {
	PatternID string
	Tier      pattern.Tier
	Matched   bool
	Elapsed   time.Duration
}

// DefaultQueueCapacity bounds the sample queue when the host does not
// configure one.
const DefaultQueueCapacity = 1024

// Queue is a bounded multi-producer single-consumer ring. Push never
// blocks: when the ring is full the oldest sample is dropped and counted.
type Queue struct {
	mu    sync.Mutex
	buf   []Sample
	head  int
	count int

	dropped atomic.Uint64

	// wake is a 1-buffered signal so the consumer can sleep between
	// pushes without producers ever waiting on it.
	wake chan struct{}
}

// NewQueue creates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{
		buf:  make([]Sample, capacity),
		wake: make(chan struct{}, 1),
	}
}

// Push appends a sample, dropping the oldest when full.
func (q *Queue) Push(s Sample) {
	q.mu.Lock()
	if q.count == len(q.buf) {
		q.head = (q.head + 1) % len(q.buf)
		q.count--
		q.dropped.Add(1)
	}
	q.buf[(q.head+q.count)%len(q.buf)] = s
	q.count++
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// PushBatch appends samples in order with a single lock acquisition.
func (q *Queue) PushBatch(samples []Sample) {
	if len(samples) == 0 {
		return
	}
	q.mu.Lock()
	for _, s := range samples {
		if q.count == len(q.buf) {
			q.head = (q.head + 1) % len(q.buf)
			q.count--
			q.dropped.Add(1)
		}
		q.buf[(q.head+q.count)%len(q.buf)] = s
		q.count++
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pop removes the oldest sample.
func (q *Queue) Pop() (Sample, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return Sample{}, false
	}
	s := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return s, true
}

// Len returns the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Dropped returns the number of samples discarded because the ring was full.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }

// Wake returns the consumer's wake-up channel.
func (q *Queue) Wake() <-chan struct{} { return q.wake }
