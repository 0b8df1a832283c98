package goCoord

import "testing"

func TestMetricsCountWhenEnabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricLockAcquired)
	m.Inc(MetricLockAcquired)
	m.Add(MetricPresencePruned, 3)

	if got := m.Value(MetricLockAcquired); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := m.Value(MetricPresencePruned); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricLockAcquired)

	if got := m.Value(MetricLockAcquired); got != 0 {
		t.Fatalf("expected 0 when disabled, got %d", got)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics

	m.Inc(MetricLockAcquired)
	m.Add(MetricPresencePruned, 1)

	if got := m.Value(MetricLockAcquired); got != 0 {
		t.Fatalf("expected 0 from nil metrics, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatal("expected empty snapshot from nil metrics")
	}
}

func TestMetricsSnapshotCopiesCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricReplayBlocked)
	snap := m.Snapshot()
	m.Inc(MetricReplayBlocked)

	if snap.Counters[MetricReplayBlocked] != 1 {
		t.Fatalf("expected snapshot frozen at 1, got %d", snap.Counters[MetricReplayBlocked])
	}
	if m.Value(MetricReplayBlocked) != 2 {
		t.Fatalf("expected live value 2, got %d", m.Value(MetricReplayBlocked))
	}
}
