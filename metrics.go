package sidegate

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	// MetricLoginSuccess counts completed interactive logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts failed logins.
	MetricLoginFailure
	// MetricChallengeRequired counts logins that suspended on a challenge.
	MetricChallengeRequired
	// MetricChallengeTimeout counts challenges that expired undelivered.
	MetricChallengeTimeout
	// MetricChallengeRejected counts code submissions with a bad ticket or
	// no pending waiter.
	MetricChallengeRejected
	// MetricSessionExpired counts sessions invalidated on the provider's
	// expiry code.
	MetricSessionExpired
	// MetricCertCacheHit counts certificate reads served from the cache.
	MetricCertCacheHit
	// MetricCertCacheMiss counts certificate reads that hit the portal.
	MetricCertCacheMiss
	// MetricCertParseDrift counts certificate fetches classified as the
	// known parse fault.
	MetricCertParseDrift
	// MetricCertRevoked counts revoked certificates.
	MetricCertRevoked
	// MetricAppIDDeleted counts deleted app ids.
	MetricAppIDDeleted
	// MetricCleanupPartial counts cleanups that finished with recorded
	// errors.
	MetricCleanupPartial
	// MetricDownloadSuccess counts completed downloads.
	MetricDownloadSuccess
	// MetricDownloadFailure counts failed downloads.
	MetricDownloadFailure
	// MetricInstallSuccess counts completed install operations.
	MetricInstallSuccess
	// MetricInstallFailure counts failed install operations.
	MetricInstallFailure
	// MetricLoginLatency is the login duration histogram.
	MetricLoginLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is the in-process counter registry. All methods are safe for
// concurrent use; a nil or disabled Metrics is a no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a registry honoring cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a login duration sample.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id != MetricLoginLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricLoginLatency].buckets[i])
		}
		s.Histograms[MetricLoginLatency] = buckets
	}

	return s
}

// bucketIndex maps a login duration onto the histogram. Interactive logins
// can legitimately take up to the full challenge window, so bounds run in
// seconds, not milliseconds.
func bucketIndex(d time.Duration) int {
	s := d.Seconds()

	switch {
	case s <= 1:
		return 0
	case s <= 2:
		return 1
	case s <= 5:
		return 2
	case s <= 10:
		return 3
	case s <= 30:
		return 4
	case s <= 60:
		return 5
	case s <= 120:
		return 6
	default:
		return 7
	}
}
