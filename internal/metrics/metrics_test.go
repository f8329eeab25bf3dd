package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilSetIsNoop(t *testing.T) {
	var s *Set

	// Must not panic.
	s.ObserveClassification("NONE", 0.001, true)
	s.IncCacheHit("skip")
	s.IncCacheMiss()
	s.AddEvaluations(3)
	s.IncEvalError()
	s.AddWeightsPublished(2)
}

func TestCountersRegisterAndIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	dropped := 0.0
	s := New(reg, func() float64 { return dropped })

	s.ObserveClassification("ULTRA_CRITICAL", 0.0002, false)
	s.ObserveClassification("NONE", 0.0001, true)
	s.IncCacheHit("result")
	s.IncCacheMiss()
	s.AddEvaluations(5)
	s.AddWeightsPublished(2)
	dropped = 7

	if got := testutil.ToFloat64(s.Classifications.WithLabelValues("ULTRA_CRITICAL")); got != 1 {
		t.Errorf("classifications = %v", got)
	}
	if got := testutil.ToFloat64(s.Degraded); got != 1 {
		t.Errorf("degraded = %v", got)
	}
	if got := testutil.ToFloat64(s.CacheHits.WithLabelValues("result")); got != 1 {
		t.Errorf("cache hits = %v", got)
	}
	if got := testutil.ToFloat64(s.Evaluations); got != 5 {
		t.Errorf("evaluations = %v", got)
	}
	if got := testutil.ToFloat64(s.WeightsPublished); got != 2 {
		t.Errorf("weights published = %v", got)
	}
	if got := testutil.ToFloat64(s.SamplesDropped); got != 7 {
		t.Errorf("samples dropped = %v", got)
	}
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg, nil)

	defer func() {
		if recover() == nil {
			t.Error("second registration on one registry did not panic")
		}
	}()
	New(reg, nil)
}
