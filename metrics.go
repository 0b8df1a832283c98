package goCoord

import "sync/atomic"

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	// MetricLockAcquired counts successful lock acquisitions.
	MetricLockAcquired MetricID = iota
	// MetricLockContended counts acquisitions lost to another holder.
	MetricLockContended
	// MetricLockRefreshed counts successful lease refreshes.
	MetricLockRefreshed
	// MetricLockLost counts refreshes that found another holder or an
	// expired lease.
	MetricLockLost
	// MetricHeartbeat counts presence heartbeats written.
	MetricHeartbeat
	// MetricPresencePruned counts stale presence records removed.
	MetricPresencePruned
	// MetricRateLimitAllowed counts requests admitted within budget.
	MetricRateLimitAllowed
	// MetricRateLimitHit counts requests rejected over budget.
	MetricRateLimitHit
	// MetricCodeConsumed counts one-time codes consumed first-use.
	MetricCodeConsumed
	// MetricReplayBlocked counts replayed one-time codes rejected.
	MetricReplayBlocked
	// MetricLockoutFailure counts failed MFA attempts recorded.
	MetricLockoutFailure
	// MetricLockoutReset counts lockout counters cleared after success.
	MetricLockoutReset
	// MetricStoreError counts commands that failed against the store.
	MetricStoreError
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters for every coordination outcome class.
// All methods are nil-safe and safe for concurrent use.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates the counter set. Disabled metrics make Inc a no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters are being recorded.
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

// Add adds n to the counter.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter into a map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
