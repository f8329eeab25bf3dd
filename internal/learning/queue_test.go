package learning

import (
	"fmt"
	"sync"
	"testing"

	"github.com/qualitygate/qualitygate/internal/pattern"
)

func TestQueuePushPop(t *testing.T) {
	q := NewQueue(4)

	if _, ok := q.Pop(); ok {
		t.Error("Pop on empty queue returned a sample")
	}

	q.Push(Sample{PatternID: "a", Tier: pattern.TierInfo, Matched: true})
	q.Push(Sample{PatternID: "b", Tier: pattern.TierInfo})

	if q.Len() != 2 {
		t.Errorf("Len = %d, want 2", q.Len())
	}

	s, ok := q.Pop()
	if !ok || s.PatternID != "a" {
		t.Errorf("Pop = %+v, want oldest sample a", s)
	}
	s, _ = q.Pop()
	if s.PatternID != "b" {
		t.Errorf("Pop = %+v, want b", s)
	}
}

func TestQueueDropsOldestWhenFull(t *testing.T) {
	q := NewQueue(3)
	for i := 0; i < 5; i++ {
		q.Push(Sample{PatternID: fmt.Sprintf("p%d", i)})
	}

	if q.Dropped() != 2 {
		t.Errorf("Dropped = %d, want 2", q.Dropped())
	}
	if q.Len() != 3 {
		t.Errorf("Len = %d, want 3", q.Len())
	}

	// The survivors are the newest three, in order.
	want := []string{"p2", "p3", "p4"}
	for _, id := range want {
		s, ok := q.Pop()
		if !ok || s.PatternID != id {
			t.Errorf("Pop = %+v, want %s", s, id)
		}
	}
}

func TestQueuePushBatch(t *testing.T) {
	q := NewQueue(4)
	q.PushBatch([]Sample{
		{PatternID: "a"}, {PatternID: "b"}, {PatternID: "c"},
		{PatternID: "d"}, {PatternID: "e"},
	})

	if q.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", q.Dropped())
	}
	s, _ := q.Pop()
	if s.PatternID != "b" {
		t.Errorf("oldest survivor = %s, want b", s.PatternID)
	}
}

func TestQueueWakeSignal(t *testing.T) {
	q := NewQueue(4)

	select {
	case <-q.Wake():
		t.Fatal("wake fired before any push")
	default:
	}

	q.Push(Sample{PatternID: "a"})
	q.Push(Sample{PatternID: "b"}) // second signal coalesces, must not block

	select {
	case <-q.Wake():
	default:
		t.Error("no wake signal after push")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := NewQueue(128)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(Sample{PatternID: fmt.Sprintf("g%d-%d", g, i)})
			}
		}(g)
	}
	wg.Wait()

	// 800 pushed into 128 slots: ring is full, the rest were dropped.
	if q.Len() != 128 {
		t.Errorf("Len = %d, want 128", q.Len())
	}
	if got := q.Dropped(); got != 800-128 {
		t.Errorf("Dropped = %d, want %d", got, 800-128)
	}
}
