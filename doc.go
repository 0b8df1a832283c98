// Package goCoord provides Redis-backed coordination primitives for
// multi-instance backends: a lease lock for singleton background workers, a
// heartbeat presence registry, a fixed-window rate limiter, a one-time-code
// replay guard, and an MFA attempt-lockout counter.
//
// The package is designed for stateless instances: no lease, presence
// record, or counter lives in process memory. Correctness rests entirely on
// the store executing each individual command atomically; no primitive
// performs multi-key transactions. Coordinator methods are safe to call from
// multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goCoord is the public surface. It exposes [Coordinator], [Builder],
// [Config], and value types (Instance, MetricsSnapshot). The atomic store
// facade lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Expose the Redis client or raw commands in its public API.
//   - Decide when to rate-limit, lock out, or fail open — callers own
//     policy; this layer only counts, claims, and marks.
//   - Guarantee strict mutual exclusion: the lease lock has no fencing
//     token, so treat it as best-effort leader election.
//
// # Failure contract
//
// Backend failures always surface as [ErrStoreUnavailable]; contention
// (losing an acquisition, replaying a code) is a boolean result, never an
// error. The background loops default to fail-fast: a failed heartbeat or
// refresh ends the loop so the process can exit instead of running with a
// stale record.
package goCoord
