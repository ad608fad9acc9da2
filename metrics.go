package authforge

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricRegisterCreated counts registrations that created an account.
	MetricRegisterCreated MetricID = iota
	// MetricRegisterResent counts registrations that re-issued a challenge
	// for an unverified duplicate.
	MetricRegisterResent
	// MetricRegisterFailure counts failed registrations.
	MetricRegisterFailure
	// MetricLoginSuccess counts logins that issued a token pair.
	MetricLoginSuccess
	// MetricLoginFailure counts rejected logins.
	MetricLoginFailure
	// MetricLoginUnverified counts logins that pivoted to a challenge
	// resend.
	MetricLoginUnverified
	// MetricRefreshSuccess counts successful access-token refreshes.
	MetricRefreshSuccess
	// MetricRefreshFailure counts rejected refreshes.
	MetricRefreshFailure
	// MetricVerifySuccess counts redeemed verification challenges.
	MetricVerifySuccess
	// MetricVerifyFailure counts rejected verification redemptions.
	MetricVerifyFailure
	// MetricFederatedSuccess counts federated logins that issued tokens.
	MetricFederatedSuccess
	// MetricFederatedFailure counts failed federated logins.
	MetricFederatedFailure
	// MetricFederatedRedirect counts bare callbacks answered with an
	// authorization URL.
	MetricFederatedRedirect
	// MetricFederatedAccountCreated counts accounts created from a
	// provider assertion.
	MetricFederatedAccountCreated
	// MetricFederatedUnverified counts federated logins that pivoted to a
	// challenge resend.
	MetricFederatedUnverified
	// MetricDeliveryFailure counts verification emails that failed to go
	// out after the challenge was durably issued.
	MetricDeliveryFailure
	// MetricValidateSuccess counts successful access-token validations.
	MetricValidateSuccess
	// MetricValidateFailure counts rejected access-token validations.
	MetricValidateFailure
	// MetricValidateLatency is the access-token validation latency
	// histogram.
	MetricValidateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// paddedCounter keeps hot counters on their own cache line.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is the engine's counter set. All methods are safe for concurrent
// use and no-ops on a nil or disabled receiver.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics builds a Metrics set from config.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counting is on.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a validation latency sample.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricValidateLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter, and the latency histogram when enabled.
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
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricValidateLatency].buckets[i])
		}
		s.Histograms[MetricValidateLatency] = buckets
	}
	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
