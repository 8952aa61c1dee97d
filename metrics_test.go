package sidegate

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledIsInert(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricLoginSuccess)
	m.Observe(MetricLoginLatency, time.Second)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0 on disabled metrics, got %d", got)
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricCertRevoked)
	m.Observe(MetricLoginLatency, 3*time.Second)
	m.Observe(MetricLoginLatency, 90*time.Second)
	m.Observe(MetricLoginLatency, 10*time.Minute)

	if got := m.Value(MetricLoginSuccess); got != 2 {
		t.Fatalf("expected 2 login successes, got %d", got)
	}

	snap := m.Snapshot()
	if snap.Counters[MetricCertRevoked] != 1 {
		t.Fatalf("unexpected counter snapshot: %+v", snap.Counters)
	}
	buckets := snap.Histograms[MetricLoginLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %v", buckets)
	}
	// 3s lands in (2,5], 90s in (60,120], 10m in the overflow bucket.
	if buckets[2] != 1 || buckets[6] != 1 || buckets[7] != 1 {
		t.Fatalf("unexpected bucket distribution: %v", buckets)
	}
}

func TestMetricsObserveRequiresHistogramOptIn(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Observe(MetricLoginLatency, time.Second)
	if buckets := m.Snapshot().Histograms[MetricLoginLatency]; len(buckets) != 0 {
		t.Fatalf("expected no histogram without opt-in, got %v", buckets)
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricAppIDDeleted)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricAppIDDeleted); got != 8000 {
		t.Fatalf("expected 8000, got %d", got)
	}
}

func TestNilMetricsSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLoginSuccess)
	m.Observe(MetricLoginLatency, time.Second)
	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0 from nil metrics, got %d", got)
	}
}
